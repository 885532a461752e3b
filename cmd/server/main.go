package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/mueblesworkflow/backend/internal/config"
	"github.com/mueblesworkflow/backend/internal/costs"
	"github.com/mueblesworkflow/backend/internal/es"
	"github.com/mueblesworkflow/backend/internal/finance"
	"github.com/mueblesworkflow/backend/internal/handlers"
	"github.com/mueblesworkflow/backend/internal/logging"
	"github.com/mueblesworkflow/backend/internal/middleware/auth"
	"github.com/mueblesworkflow/backend/internal/mykafka"
	"github.com/mueblesworkflow/backend/internal/receipts"
	httpserver "github.com/mueblesworkflow/backend/internal/transport/http"
)

const productIndex = "orders"

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)

	db, err := config.InitDB()
	if err != nil {
		log.Fatalf("database init error: %v", err)
	}

	jwtSecret := []byte(configuration.JWT_SECRET)
	refreshSecret := []byte(configuration.REFRESH_SECRET)

	var prod *mykafka.Producer
	if configuration.KAFKA_ADDRESS != "" {
		prod, err = mykafka.NewProducer([]string{configuration.KAFKA_ADDRESS}, mykafka.Topics())
		if err != nil {
			log.Fatal(err)
		}
	} else {
		logger.Warn("KAFKA_ADDRESS not set, domain events disabled")
	}

	searchClient := handlers.SearchHandler{DB: db, Index: productIndex}
	if configuration.ES_URL != "" {
		client, err := es.NewClient(configuration)
		if err != nil {
			log.Fatal(err)
		}
		searchClient.ES = client
	} else {
		logger.Warn("ES_URL not set, falling back to SQL order search")
	}

	var receiptStore *receipts.Store
	if configuration.MINIO_ENDPOINT != "" {
		receiptStore, err = receipts.NewStore(
			configuration.MINIO_ENDPOINT,
			configuration.MINIO_ACCESS,
			configuration.MINIO_SECRET,
			configuration.RECEIPTS_BUCKET,
			configuration.MINIO_USE_SSL,
		)
		if err != nil {
			log.Fatal(err)
		}
	} else {
		logger.Warn("MINIO_ENDPOINT not set, receipt uploads disabled")
	}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), middleware.Logger())

	tokens := &auth.TokenService{DB: db, JWTSecret: jwtSecret, RefreshSecret: refreshSecret}
	deps := httpserver.Deps{
		DB:             db,
		Tokens:         tokens,
		UserHandler:    &handlers.UserHandler{DB: db, JWTSecret: jwtSecret, RefreshSecret: refreshSecret, Producer: prod},
		ProductHandler: &handlers.ProductHandler{DB: db, Producer: prod, ES: searchClient.ES, ESIndex: productIndex},
		PaymentHandler: &handlers.PaymentHandler{DB: db, Producer: prod, Receipts: receiptStore},
		CostHandler:    &handlers.CostHandler{DB: db, Producer: prod},
		FinanceHandler: &handlers.FinanceHandler{Finance: &finance.Service{DB: db}},
		AdminHandler:   &handlers.AdminHandler{DB: db},
		SearchHandler:  &searchClient,
	}

	httpserver.Register(e, &deps)

	ctx, cancel := context.WithCancel(logging.IntoContext(context.Background(), logger))
	defer cancel()
	go (&costs.Generator{DB: db}).Run(ctx)

	srv := &http.Server{
		Addr:         configuration.HTTP_ADDR,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	} else {
		log.Printf("db() error: %v", err)
	}

	if err := prod.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	log.Println("shutdown complete")
}
