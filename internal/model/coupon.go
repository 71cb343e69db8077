package model

import (
	"time"

	"github.com/google/uuid"
)

// Coupon represents a coupon in the system.
type Coupon struct {
	ID           uuid.UUID `json:"id"`
	Code         string    `json:"code"`
	Description  string    `json:"description"`
	IsActive     bool      `json:"is_active"`
	IsAvailable  bool      `json:"is_available"`
	ExpiryDate   time.Time `json:"expiry_date"`
	OwnerAdminID uuid.UUID `json:"owner_admin_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Claim is a recorded grant of a coupon to one visitor identity.
// Claims only exist as child rows of a coupon.
type Claim struct {
	ID        int64     `json:"-"`
	CouponID  uuid.UUID `json:"-"`
	IP        string    `json:"ip"`
	SessionID string    `json:"session_id"`
	ClaimedAt time.Time `json:"claimed_at"`
}

// CreateCouponRequest is the DTO for creating a coupon.
type CreateCouponRequest struct {
	Code        string    `json:"code" validate:"required,notblank,max=255"`
	Description string    `json:"description" validate:"required,notblank,max=1024"`
	ExpiryDate  time.Time `json:"expiry_date" validate:"required"`
}

// UpdateCouponRequest is the DTO for partially updating a coupon.
// Nil fields are left unchanged; a non-nil pointer always wins, so callers
// can set a description to "" or toggle is_active to false explicitly.
type UpdateCouponRequest struct {
	Code        *string    `json:"code" validate:"omitnil,notblank,max=255"`
	Description *string    `json:"description" validate:"omitnil,max=1024"`
	ExpiryDate  *time.Time `json:"expiry_date"`
	IsActive    *bool      `json:"is_active"`
}

// ClaimCouponRequest is the DTO for the public claim endpoint. The claimant's
// IP is taken from the connection, never from the body.
type ClaimCouponRequest struct {
	SessionID string `json:"session_id" validate:"required,notblank,max=255"`
}

// ClaimCouponResponse is the public-safe projection returned to claimants.
// Internal fields (id, owner, claim list) are never exposed here.
type ClaimCouponResponse struct {
	Code        string    `json:"code"`
	Description string    `json:"description"`
	ExpiryDate  time.Time `json:"expiry_date"`
}

// CouponResponse is the admin-facing DTO for list responses.
type CouponResponse struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"code"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	IsAvailable bool      `json:"is_available"`
	ExpiryDate  time.Time `json:"expiry_date"`
	CreatedAt   time.Time `json:"created_at"`
	ClaimCount  int       `json:"claim_count"`
}

// CouponHistoryResponse is a coupon plus its full claim records, returned by
// the claim-history audit endpoint.
type CouponHistoryResponse struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"code"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	IsAvailable bool      `json:"is_available"`
	ExpiryDate  time.Time `json:"expiry_date"`
	CreatedAt   time.Time `json:"created_at"`
	Claims      []Claim   `json:"claims"`
}
