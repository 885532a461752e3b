package httpserver

import (
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/mueblesworkflow/backend/internal/handlers"
	"github.com/mueblesworkflow/backend/internal/middleware/auth"
)

type Deps struct {
	DB             *gorm.DB
	Tokens         *auth.TokenService
	UserHandler    *handlers.UserHandler
	ProductHandler *handlers.ProductHandler
	PaymentHandler *handlers.PaymentHandler
	CostHandler    *handlers.CostHandler
	FinanceHandler *handlers.FinanceHandler
	AdminHandler   *handlers.AdminHandler
	SearchHandler  *handlers.SearchHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	api := e.Group("/api")

	// Unauthenticated entry points.
	api.POST("/users/login", d.UserHandler.Login)
	api.POST("/users/registro", d.UserHandler.Register)
	api.POST("/users/refresh", d.UserHandler.Refresh)

	authed := api.Group("", d.Tokens.RequireAuth)

	authed.POST("/users/logout", d.UserHandler.Logout)
	authed.GET("/users", d.UserHandler.GetUsers)
	authed.GET("/users/:id", d.UserHandler.GetUser)

	products := authed.Group("/products")
	products.GET("", d.ProductHandler.GetProducts)
	products.POST("/create", d.ProductHandler.CreateProduct)
	products.GET("/types", d.ProductHandler.GetTypes)
	products.GET("/statuses", d.ProductHandler.GetStatuses)
	products.GET("/search", d.SearchHandler.Search)
	products.GET("/due-this-week", d.ProductHandler.DueThisWeek)
	products.GET("/past-due", d.ProductHandler.PastDue)
	products.GET("/not-picked-up", d.ProductHandler.NotPickedUp)
	products.GET("/:id", d.ProductHandler.GetProduct)
	products.PUT("/:id", d.ProductHandler.UpdateProduct)
	products.DELETE("/:id", d.ProductHandler.DeleteProduct, d.Tokens.RequireAdmin)

	payments := authed.Group("/payments")
	payments.GET("/:productID", d.PaymentHandler.GetPayments)
	payments.POST("", d.PaymentHandler.CreatePayment)
	payments.POST("/:id/receipt", d.PaymentHandler.UploadReceipt)
	payments.GET("/:id/receipt", d.PaymentHandler.GetReceipt)

	costs := authed.Group("/costs")
	costs.GET("", d.CostHandler.GetCosts)
	costs.POST("", d.CostHandler.CreateCost)
	costs.DELETE("/:id", d.CostHandler.DeleteCost)

	finance := authed.Group("/finance")
	finance.GET("", d.FinanceHandler.GetDashboard)
	finance.GET("/yearly", d.FinanceHandler.GetYearly)
	finance.GET("/user-performance", d.FinanceHandler.GetUserPerformance)

	admin := authed.Group("/admin", d.Tokens.RequireAdmin)
	admin.GET("/summary", d.AdminHandler.GetSummary)
	admin.DELETE("/users/:id", d.UserHandler.DeleteUser)
}
