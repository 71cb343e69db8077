package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/coupon-giveaway/internal/model"
	"github.com/fairyhunter13/coupon-giveaway/internal/service"
	appvalidator "github.com/fairyhunter13/coupon-giveaway/internal/validator"
)

// mockAdminService is a mock implementation of AdminServiceInterface.
type mockAdminService struct {
	registerFn func(ctx context.Context, req *model.AdminAuthRequest) (*model.AdminAuthResponse, error)
	loginFn    func(ctx context.Context, req *model.AdminAuthRequest) (*model.AdminAuthResponse, error)
}

func (m *mockAdminService) Register(ctx context.Context, req *model.AdminAuthRequest) (*model.AdminAuthResponse, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, req)
	}
	return &model.AdminAuthResponse{}, nil
}

func (m *mockAdminService) Login(ctx context.Context, req *model.AdminAuthRequest) (*model.AdminAuthResponse, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, req)
	}
	return &model.AdminAuthResponse{}, nil
}

func setupAdminApp(mockSvc *mockAdminService) *fiber.App {
	app := fiber.New()
	h := NewAdminHandler(mockSvc, appvalidator.New())
	app.Post("/api/admin/register", h.Register)
	app.Post("/api/admin/login", h.Login)
	return app
}

func TestRegister_Success(t *testing.T) {
	adminID := uuid.New()
	mockSvc := &mockAdminService{
		registerFn: func(ctx context.Context, req *model.AdminAuthRequest) (*model.AdminAuthResponse, error) {
			return &model.AdminAuthResponse{ID: adminID, Email: req.Email, Token: "signed-token"}, nil
		},
	}
	app := setupAdminApp(mockSvc)

	body := `{"email": "admin@example.com", "password": "correct horse battery"}`
	req := httptest.NewRequest(http.MethodPost, "/api/admin/register", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var result model.AdminAuthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, adminID, result.ID)
	assert.Equal(t, "admin@example.com", result.Email)
	assert.Equal(t, "signed-token", result.Token)
}

func TestRegister_Exists(t *testing.T) {
	mockSvc := &mockAdminService{
		registerFn: func(ctx context.Context, req *model.AdminAuthRequest) (*model.AdminAuthResponse, error) {
			return nil, service.ErrAdminExists
		},
	}
	app := setupAdminApp(mockSvc)

	body := `{"email": "admin@example.com", "password": "correct horse battery"}`
	req := httptest.NewRequest(http.MethodPost, "/api/admin/register", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	var result map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, "admin already exists", result["error"])
}

func TestRegister_InvalidEmail(t *testing.T) {
	app := setupAdminApp(&mockAdminService{})

	body := `{"email": "not-an-email", "password": "correct horse battery"}`
	req := httptest.NewRequest(http.MethodPost, "/api/admin/register", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var result map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, "invalid request: email is invalid", result["error"])
}

func TestRegister_ShortPassword(t *testing.T) {
	app := setupAdminApp(&mockAdminService{})

	body := `{"email": "admin@example.com", "password": "short"}`
	req := httptest.NewRequest(http.MethodPost, "/api/admin/register", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var result map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, "invalid request: password must be at least 8 characters", result["error"])
}

func TestLogin_Success(t *testing.T) {
	mockSvc := &mockAdminService{
		loginFn: func(ctx context.Context, req *model.AdminAuthRequest) (*model.AdminAuthResponse, error) {
			return &model.AdminAuthResponse{ID: uuid.New(), Email: req.Email, Token: "signed-token"}, nil
		},
	}
	app := setupAdminApp(mockSvc)

	body := `{"email": "admin@example.com", "password": "correct horse battery"}`
	req := httptest.NewRequest(http.MethodPost, "/api/admin/login", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result model.AdminAuthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.NotEmpty(t, result.Token)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	mockSvc := &mockAdminService{
		loginFn: func(ctx context.Context, req *model.AdminAuthRequest) (*model.AdminAuthResponse, error) {
			return nil, service.ErrInvalidCredentials
		},
	}
	app := setupAdminApp(mockSvc)

	body := `{"email": "admin@example.com", "password": "wrong password"}`
	req := httptest.NewRequest(http.MethodPost, "/api/admin/login", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	var result map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, "invalid email or password", result["error"])
}
