package handler

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/coupon-giveaway/internal/model"
	"github.com/fairyhunter13/coupon-giveaway/internal/service"
)

// AdminServiceInterface defines the interface for admin account operations.
type AdminServiceInterface interface {
	Register(ctx context.Context, req *model.AdminAuthRequest) (*model.AdminAuthResponse, error)
	Login(ctx context.Context, req *model.AdminAuthRequest) (*model.AdminAuthResponse, error)
}

// AdminHandler handles HTTP requests for admin registration and login.
type AdminHandler struct {
	service   AdminServiceInterface
	validator *validator.Validate
}

// NewAdminHandler creates a new AdminHandler with the given service and validator.
func NewAdminHandler(svc AdminServiceInterface, v *validator.Validate) *AdminHandler {
	return &AdminHandler{service: svc, validator: v}
}

// formatAdminValidationError converts validator errors into response messages.
func formatAdminValidationError(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			switch fe.Field() {
			case "Email":
				if fe.Tag() == "required" {
					return "invalid request: email is required"
				}
				return "invalid request: email is invalid"
			case "Password":
				switch fe.Tag() {
				case "required":
					return "invalid request: password is required"
				case "min":
					return "invalid request: password must be at least 8 characters"
				case "max":
					return "invalid request: password exceeds maximum length of 72"
				}
				return "invalid request: password is invalid"
			}
		}
	}
	return "invalid request"
}

// Register handles POST /api/admin/register requests.
func (h *AdminHandler) Register(c *fiber.Ctx) error {
	var req model.AdminAuthRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatAdminValidationError(err)})
	}

	resp, err := h.service.Register(c.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrAdminExists) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "admin already exists"})
		}
		log.Error().Err(err).Msg("failed to register admin")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	log.Info().Str("admin_id", resp.ID.String()).Msg("admin registered")
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// Login handles POST /api/admin/login requests.
func (h *AdminHandler) Login(c *fiber.Ctx) error {
	var req model.AdminAuthRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatAdminValidationError(err)})
	}

	resp, err := h.service.Login(c.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid email or password"})
		}
		log.Error().Err(err).Msg("failed to log in admin")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.JSON(resp)
}
