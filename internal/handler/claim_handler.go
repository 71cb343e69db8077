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

// ClaimServiceInterface defines the interface for the claim allocator.
type ClaimServiceInterface interface {
	Claim(ctx context.Context, ip, sessionID string) (*model.ClaimCouponResponse, error)
}

// ClaimHandler handles HTTP requests for the public claim endpoint.
type ClaimHandler struct {
	service   ClaimServiceInterface
	validator *validator.Validate
}

// NewClaimHandler creates a new ClaimHandler with the given service and validator.
func NewClaimHandler(svc ClaimServiceInterface, v *validator.Validate) *ClaimHandler {
	return &ClaimHandler{service: svc, validator: v}
}

// formatClaimValidationError converts validator errors to claim endpoint messages.
func formatClaimValidationError(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			if fe.Field() == "SessionID" {
				switch fe.Tag() {
				case "required":
					return "invalid request: session_id is required"
				case "notblank":
					return "invalid request: session_id cannot be whitespace only"
				case "max":
					return "invalid request: session_id exceeds maximum length of 255"
				}
				return "invalid request: session_id is invalid"
			}
		}
	}
	return "invalid request"
}

// ClaimCoupon handles POST /api/coupons/claim requests.
// The claimant's IP comes from the connection; only the session id is read
// from the body.
func (h *ClaimHandler) ClaimCoupon(c *fiber.Ctx) error {
	var req model.ClaimCouponRequest

	// Parse JSON body
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	// Validate request
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatClaimValidationError(err)})
	}

	coupon, err := h.service.Claim(c.Context(), c.IP(), req.SessionID)
	if err != nil {
		if errors.Is(err, service.ErrNoCouponAvailable) {
			// Expected terminal outcome, not logged as a fault
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no coupons available"})
		}
		if errors.Is(err, service.ErrClaimConflict) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "claim conflict, please retry"})
		}
		log.Error().
			Err(err).
			Str("request_id", c.GetRespHeader("X-Request-ID")).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Str("ip", c.IP()).
			Msg("failed to claim coupon")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	log.Info().
		Str("request_id", c.GetRespHeader("X-Request-ID")).
		Str("ip", c.IP()).
		Str("coupon_code", coupon.Code).
		Msg("coupon claimed")

	return c.Status(fiber.StatusOK).JSON(coupon)
}
