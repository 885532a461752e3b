package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mueblesworkflow/backend/internal/hash"
	"github.com/mueblesworkflow/backend/internal/models"
	"github.com/mueblesworkflow/backend/internal/mykafka"
)

func InitTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
		return nil
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Product{},
		&models.WorkOrder{},
		&models.Payment{},
		&models.Cost{},
	); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}

	return db
}

func newUserHandler(t *testing.T) *UserHandler {
	return &UserHandler{
		DB:            InitTestDB(t),
		JWTSecret:     []byte("test-jwt-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
		Producer:      &mykafka.Producer{},
	}
}

func jsonRequest(method, target string, payload any) (*http.Request, *httptest.ResponseRecorder) {
	var body []byte
	if payload != nil {
		body, _ = json.Marshal(payload)
	}
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req, httptest.NewRecorder()
}

func TestRegister(t *testing.T) {
	h := newUserHandler(t)
	e := echo.New()

	req, rec := jsonRequest(http.MethodPost, "/api/users/registro", map[string]string{
		"username": "carpintero",
		"password": "password",
	})
	c := e.NewContext(req, rec)

	require.NoError(t, h.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, "carpintero", created.Username)
	require.Equal(t, models.RoleUser, created.Role)
	require.NotEmpty(t, created.ID)

	req2, rec2 := jsonRequest(http.MethodPost, "/api/users/registro", map[string]string{
		"username": "carpintero",
		"password": "password",
	})
	err := h.Register(e.NewContext(req2, rec2))
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusConflict, he.Code)
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	h := newUserHandler(t)
	e := echo.New()

	req, rec := jsonRequest(http.MethodPost, "/api/users/registro", map[string]string{
		"username": "x",
		"password": "y",
		"role":     "SUPERUSER",
	})
	err := h.Register(e.NewContext(req, rec))
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusBadRequest, he.Code)
}

func TestLogin(t *testing.T) {
	h := newUserHandler(t)
	e := echo.New()

	passwordHash, _ := hash.HashPassword("password")
	h.DB.Create(&models.User{Username: "vendedor", PasswordHash: passwordHash, Role: models.RoleSeller})

	req, rec := jsonRequest(http.MethodPost, "/api/users/login", map[string]string{
		"username": "vendedor",
		"password": "password",
	})
	require.NoError(t, h.Login(e.NewContext(req, rec)))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "vendedor", resp["username"])
	require.Equal(t, models.RoleSeller, resp["role"])
	require.NotEmpty(t, resp["token"])
	require.NotEmpty(t, resp["refresh_token"])

	reqBad, recBad := jsonRequest(http.MethodPost, "/api/users/login", map[string]string{
		"username": "vendedor",
		"password": "wrong",
	})
	err := h.Login(e.NewContext(reqBad, recBad))
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestLoginUnknownUser(t *testing.T) {
	h := newUserHandler(t)
	e := echo.New()

	req, rec := jsonRequest(http.MethodPost, "/api/users/login", map[string]string{
		"username": "nadie",
		"password": "password",
	})
	err := h.Login(e.NewContext(req, rec))
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestRefresh(t *testing.T) {
	h := newUserHandler(t)
	e := echo.New()

	passwordHash, _ := hash.HashPassword("password")
	h.DB.Create(&models.User{Username: "usuario", PasswordHash: passwordHash, Role: models.RoleUser})

	reqLogin, recLogin := jsonRequest(http.MethodPost, "/api/users/login", map[string]string{
		"username": "usuario",
		"password": "password",
	})
	require.NoError(t, h.Login(e.NewContext(reqLogin, recLogin)))

	var loginResp map[string]interface{}
	require.NoError(t, json.Unmarshal(recLogin.Body.Bytes(), &loginResp))
	refreshToken := loginResp["refresh_token"].(string)

	req, rec := jsonRequest(http.MethodPost, "/api/users/refresh", map[string]string{
		"refresh_token": refreshToken,
	})
	require.NoError(t, h.Refresh(e.NewContext(req, rec)))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp["token"])

	reqBad, recBad := jsonRequest(http.MethodPost, "/api/users/refresh", map[string]string{
		"refresh_token": "garbage",
	})
	err := h.Refresh(e.NewContext(reqBad, recBad))
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestLogout(t *testing.T) {
	h := newUserHandler(t)
	e := echo.New()

	passwordHash, _ := hash.HashPassword("password")
	h.DB.Create(&models.User{Username: "usuario", PasswordHash: passwordHash, Role: models.RoleUser})

	reqLogin, recLogin := jsonRequest(http.MethodPost, "/api/users/login", map[string]string{
		"username": "usuario",
		"password": "password",
	})
	require.NoError(t, h.Login(e.NewContext(reqLogin, recLogin)))

	var loginResp map[string]interface{}
	require.NoError(t, json.Unmarshal(recLogin.Body.Bytes(), &loginResp))
	refreshToken := loginResp["refresh_token"].(string)

	req, rec := jsonRequest(http.MethodPost, "/api/users/logout", map[string]string{
		"refresh_token": refreshToken,
	})
	require.NoError(t, h.Logout(e.NewContext(req, rec)))
	require.Equal(t, http.StatusOK, rec.Code)

	var stored models.RefreshToken
	require.NoError(t, h.DB.Where("token = ?", refreshToken).First(&stored).Error)
	require.True(t, stored.Revoked)
}

func TestDeleteUser(t *testing.T) {
	h := newUserHandler(t)
	e := echo.New()

	user := models.User{Username: "borrar", PasswordHash: "x", Role: models.RoleUser}
	h.DB.Create(&user)
	h.DB.Create(&models.RefreshToken{Token: "tok", UserID: user.ID, ExpiresAt: 1})

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, h.DeleteUser(c))
	require.Equal(t, http.StatusNoContent, rec.Code)

	var count int64
	h.DB.Model(&models.User{}).Count(&count)
	require.Zero(t, count)
	h.DB.Model(&models.RefreshToken{}).Count(&count)
	require.Zero(t, count)
}
