package handler

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/coupon-giveaway/internal/middleware"
	"github.com/fairyhunter13/coupon-giveaway/internal/model"
	"github.com/fairyhunter13/coupon-giveaway/internal/service"
)

// CouponServiceInterface defines the interface for admin-scoped coupon operations.
type CouponServiceInterface interface {
	Create(ctx context.Context, adminID uuid.UUID, req *model.CreateCouponRequest) (*model.Coupon, error)
	List(ctx context.Context, adminID uuid.UUID) ([]model.CouponResponse, error)
	Update(ctx context.Context, adminID, couponID uuid.UUID, req *model.UpdateCouponRequest) (*model.Coupon, error)
	Delete(ctx context.Context, adminID, couponID uuid.UUID) error
	GetClaimHistory(ctx context.Context) ([]model.CouponHistoryResponse, error)
}

// CouponHandler handles HTTP requests for admin coupon management.
type CouponHandler struct {
	service   CouponServiceInterface
	validator *validator.Validate
}

// NewCouponHandler creates a new CouponHandler with the given service and validator.
func NewCouponHandler(svc CouponServiceInterface, v *validator.Validate) *CouponHandler {
	return &CouponHandler{service: svc, validator: v}
}

// formatCouponValidationError converts validator errors into response messages.
func formatCouponValidationError(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			field := fe.Field()
			tag := fe.Tag()

			switch field {
			case "Code":
				if tag == "required" {
					return "invalid request: code is required"
				}
				if tag == "notblank" {
					return "invalid request: code cannot be whitespace only"
				}
				if tag == "max" {
					return "invalid request: code exceeds maximum length of 255"
				}
				return "invalid request: code is invalid"
			case "Description":
				if tag == "required" {
					return "invalid request: description is required"
				}
				if tag == "notblank" {
					return "invalid request: description cannot be whitespace only"
				}
				if tag == "max" {
					return "invalid request: description exceeds maximum length of 1024"
				}
				return "invalid request: description is invalid"
			case "ExpiryDate":
				if tag == "required" {
					return "invalid request: expiry_date is required"
				}
				return "invalid request: expiry_date is invalid"
			default:
				if tag == "required" {
					return "invalid request: " + field + " is required"
				}
				if tag == "max" {
					return "invalid request: " + field + " exceeds maximum length"
				}
				return "invalid request: " + field + " is invalid"
			}
		}
	}
	return "invalid request"
}

// adminFromCtx extracts the authenticated admin id set by the auth middleware.
func adminFromCtx(c *fiber.Ctx) (uuid.UUID, error) {
	adminID, ok := middleware.AdminID(c)
	if !ok {
		// Route wired without the auth middleware
		return uuid.Nil, errors.New("no admin identity in request context")
	}
	return adminID, nil
}

// CreateCoupon handles POST /api/coupons requests.
func (h *CouponHandler) CreateCoupon(c *fiber.Ctx) error {
	adminID, err := adminFromCtx(c)
	if err != nil {
		log.Error().Err(err).Str("path", c.Path()).Msg("missing admin identity")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	var req model.CreateCouponRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatCouponValidationError(err)})
	}

	coupon, err := h.service.Create(c.Context(), adminID, &req)
	if err != nil {
		if errors.Is(err, service.ErrDuplicateCode) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "coupon code already exists"})
		}
		if errors.Is(err, service.ErrInvalidRequest) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
		}
		log.Error().Err(err).Str("coupon_code", req.Code).Msg("failed to create coupon")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.Status(fiber.StatusCreated).JSON(coupon)
}

// ListCoupons handles GET /api/coupons requests, returning the caller's coupons.
func (h *CouponHandler) ListCoupons(c *fiber.Ctx) error {
	adminID, err := adminFromCtx(c)
	if err != nil {
		log.Error().Err(err).Str("path", c.Path()).Msg("missing admin identity")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	coupons, err := h.service.List(c.Context(), adminID)
	if err != nil {
		log.Error().Err(err).Str("admin_id", adminID.String()).Msg("failed to list coupons")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.JSON(coupons)
}

// UpdateCoupon handles PATCH /api/coupons/:id requests with a sparse body.
func (h *CouponHandler) UpdateCoupon(c *fiber.Ctx) error {
	adminID, err := adminFromCtx(c)
	if err != nil {
		log.Error().Err(err).Str("path", c.Path()).Msg("missing admin identity")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	couponID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request: id must be a valid uuid"})
	}

	var req model.UpdateCouponRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatCouponValidationError(err)})
	}

	coupon, err := h.service.Update(c.Context(), adminID, couponID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCouponNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "coupon not found"})
		case errors.Is(err, service.ErrForbidden):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "coupon owned by another admin"})
		case errors.Is(err, service.ErrDuplicateCode):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "coupon code already exists"})
		}
		log.Error().Err(err).Str("coupon_id", couponID.String()).Msg("failed to update coupon")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.JSON(coupon)
}

// DeleteCoupon handles DELETE /api/coupons/:id requests.
func (h *CouponHandler) DeleteCoupon(c *fiber.Ctx) error {
	adminID, err := adminFromCtx(c)
	if err != nil {
		log.Error().Err(err).Str("path", c.Path()).Msg("missing admin identity")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	couponID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request: id must be a valid uuid"})
	}

	if err := h.service.Delete(c.Context(), adminID, couponID); err != nil {
		switch {
		case errors.Is(err, service.ErrCouponNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "coupon not found"})
		case errors.Is(err, service.ErrForbidden):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "coupon owned by another admin"})
		}
		log.Error().Err(err).Str("coupon_id", couponID.String()).Msg("failed to delete coupon")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	log.Info().
		Str("admin_id", adminID.String()).
		Str("coupon_id", couponID.String()).
		Msg("coupon deleted")

	return c.JSON(fiber.Map{"message": "coupon removed"})
}

// GetClaimHistory handles GET /api/coupons/history requests, returning every
// coupon with at least one claim.
func (h *CouponHandler) GetClaimHistory(c *fiber.Ctx) error {
	history, err := h.service.GetClaimHistory(c.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to get claim history")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.JSON(history)
}
