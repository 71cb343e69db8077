package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fairyhunter13/coupon-giveaway/internal/model"
	"github.com/fairyhunter13/coupon-giveaway/pkg/database"
)

// maxClaimAttempts bounds the allocator's retries on concurrent-write races
// before ErrClaimConflict is surfaced to the caller.
const maxClaimAttempts = 3

// CouponRepositoryInterface defines the interface for coupon data access.
type CouponRepositoryInterface interface {
	Insert(ctx context.Context, coupon *model.Coupon) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Coupon, error)
	ListByOwner(ctx context.Context, adminID uuid.UUID) ([]model.CouponResponse, error)
	Update(ctx context.Context, coupon *model.Coupon) error
	Delete(ctx context.Context, id uuid.UUID) error
	SelectEligibleForUpdate(ctx context.Context, tx database.TxQuerier, ip, sessionID string) (*model.Coupon, error)
	MarkUnavailable(ctx context.Context, tx database.TxQuerier, id uuid.UUID) error
}

// ClaimRepositoryInterface defines the interface for claim data access.
type ClaimRepositoryInterface interface {
	Insert(ctx context.Context, tx database.TxQuerier, couponID uuid.UUID, ip, sessionID string) error
	CountByCoupon(ctx context.Context, tx database.TxQuerier, couponID uuid.UUID) (int, error)
	ListClaimedCoupons(ctx context.Context) ([]model.CouponHistoryResponse, error)
}

// TxBeginner defines the interface for beginning transactions.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// CouponService provides the claim allocator and the admin-scoped coupon
// operations.
type CouponService struct {
	pool       TxBeginner
	couponRepo CouponRepositoryInterface
	claimRepo  ClaimRepositoryInterface
	maxClaims  int
}

// NewCouponService creates a new CouponService. maxClaims is the number of
// claims a coupon accepts before the allocator flips it unavailable.
func NewCouponService(pool *pgxpool.Pool, couponRepo CouponRepositoryInterface, claimRepo ClaimRepositoryInterface, maxClaims int) *CouponService {
	return &CouponService{
		pool:       pool,
		couponRepo: couponRepo,
		claimRepo:  claimRepo,
		maxClaims:  maxClaims,
	}
}

// NewCouponServiceWithTxBeginner creates a CouponService with a custom TxBeginner.
// Primarily used for testing.
func NewCouponServiceWithTxBeginner(pool TxBeginner, couponRepo CouponRepositoryInterface, claimRepo ClaimRepositoryInterface, maxClaims int) *CouponService {
	return &CouponService{
		pool:       pool,
		couponRepo: couponRepo,
		claimRepo:  claimRepo,
		maxClaims:  maxClaims,
	}
}

// Claim allocates one coupon to the visitor identified by ip and sessionID.
//
// Selection and mutation run in a single transaction: the oldest coupon that
// is active, available, unexpired, and unclaimed by this visitor is locked,
// a claim row is appended, and availability flips once the quota is reached.
// Either the whole sequence commits or none of it does.
//
// Returns:
//   - ErrNoCouponAvailable when no coupon satisfies the predicate
//   - ErrClaimConflict when races persist past the retry budget
func (s *CouponService) Claim(ctx context.Context, ip, sessionID string) (*model.ClaimCouponResponse, error) {
	var lastErr error
	for attempt := 0; attempt < maxClaimAttempts; attempt++ {
		resp, err := s.claimOnce(ctx, ip, sessionID)
		if err == nil {
			return resp, nil
		}
		if !isRetryableClaimError(err) {
			return nil, err
		}
		lastErr = err
	}
	if errors.Is(lastErr, ErrClaimConflict) {
		return nil, ErrClaimConflict
	}
	return nil, fmt.Errorf("%w: %v", ErrClaimConflict, lastErr)
}

func (s *CouponService) claimOnce(ctx context.Context, ip, sessionID string) (*model.ClaimCouponResponse, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }() // Safe: no-op if committed

	// 1. Lock the oldest eligible coupon (FOR UPDATE SKIP LOCKED)
	coupon, err := s.couponRepo.SelectEligibleForUpdate(ctx, tx, ip, sessionID)
	if err != nil {
		return nil, fmt.Errorf("select eligible coupon: %w", err)
	}
	if coupon == nil {
		return nil, ErrNoCouponAvailable
	}

	// 2. Record the claim (UNIQUE constraints catch races)
	if err := s.claimRepo.Insert(ctx, tx, coupon.ID, ip, sessionID); err != nil {
		return nil, err
	}

	// 3. Flip availability once the quota is reached
	count, err := s.claimRepo.CountByCoupon(ctx, tx, coupon.ID)
	if err != nil {
		return nil, fmt.Errorf("count claims: %w", err)
	}
	if count >= s.maxClaims {
		if err := s.couponRepo.MarkUnavailable(ctx, tx, coupon.ID); err != nil {
			return nil, fmt.Errorf("mark unavailable: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit claim: %w", err)
	}

	return &model.ClaimCouponResponse{
		Code:        coupon.Code,
		Description: coupon.Description,
		ExpiryDate:  coupon.ExpiryDate,
	}, nil
}

// isRetryableClaimError reports whether a failed claim attempt may succeed on
// retry: a lost race on the claim UNIQUE constraints, or a serialization /
// deadlock abort from the database.
func isRetryableClaimError(err error) bool {
	if errors.Is(err, ErrClaimConflict) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

// Create creates a new coupon owned by the given admin. New coupons start
// active and available with an empty claim list.
// Returns ErrDuplicateCode if the code is already taken.
func (s *CouponService) Create(ctx context.Context, adminID uuid.UUID, req *model.CreateCouponRequest) (*model.Coupon, error) {
	if req == nil {
		return nil, ErrInvalidRequest
	}

	coupon := &model.Coupon{
		ID:           uuid.New(),
		Code:         req.Code,
		Description:  req.Description,
		IsActive:     true,
		IsAvailable:  true,
		ExpiryDate:   req.ExpiryDate,
		OwnerAdminID: adminID,
	}
	if err := s.couponRepo.Insert(ctx, coupon); err != nil {
		return nil, err
	}
	return coupon, nil
}

// List returns the coupons owned by the given admin.
func (s *CouponService) List(ctx context.Context, adminID uuid.UUID) ([]model.CouponResponse, error) {
	coupons, err := s.couponRepo.ListByOwner(ctx, adminID)
	if err != nil {
		return nil, fmt.Errorf("list coupons: %w", err)
	}
	return coupons, nil
}

// Update applies a sparse update to a coupon owned by the given admin.
// Nil fields keep their current value; is_available is never touched here,
// only the allocator's quota logic controls it.
// Returns:
//   - ErrCouponNotFound if the coupon doesn't exist
//   - ErrForbidden if the coupon belongs to another admin
//   - ErrDuplicateCode if a code change collides with another coupon
func (s *CouponService) Update(ctx context.Context, adminID, couponID uuid.UUID, req *model.UpdateCouponRequest) (*model.Coupon, error) {
	if req == nil {
		return nil, ErrInvalidRequest
	}

	coupon, err := s.couponRepo.GetByID(ctx, couponID)
	if err != nil {
		return nil, fmt.Errorf("get coupon: %w", err)
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}
	if coupon.OwnerAdminID != adminID {
		return nil, ErrForbidden
	}

	if req.Code != nil {
		coupon.Code = *req.Code
	}
	if req.Description != nil {
		coupon.Description = *req.Description
	}
	if req.ExpiryDate != nil {
		coupon.ExpiryDate = *req.ExpiryDate
	}
	if req.IsActive != nil {
		coupon.IsActive = *req.IsActive
	}

	if err := s.couponRepo.Update(ctx, coupon); err != nil {
		return nil, err
	}
	return coupon, nil
}

// Delete permanently removes a coupon owned by the given admin, including its
// claim history.
// Returns ErrCouponNotFound / ErrForbidden under the same rules as Update.
func (s *CouponService) Delete(ctx context.Context, adminID, couponID uuid.UUID) error {
	coupon, err := s.couponRepo.GetByID(ctx, couponID)
	if err != nil {
		return fmt.Errorf("get coupon: %w", err)
	}
	if coupon == nil {
		return ErrCouponNotFound
	}
	if coupon.OwnerAdminID != adminID {
		return ErrForbidden
	}

	return s.couponRepo.Delete(ctx, couponID)
}

// GetClaimHistory returns every coupon with at least one claim, including
// nested claim records.
//
// Deliberately not scoped to the requesting admin's coupons; the product
// treats claim history as a global audit view. Revisit if ownership scoping
// is ever confirmed as the intended behavior.
func (s *CouponService) GetClaimHistory(ctx context.Context) ([]model.CouponHistoryResponse, error) {
	history, err := s.claimRepo.ListClaimedCoupons(ctx)
	if err != nil {
		return nil, fmt.Errorf("get claim history: %w", err)
	}
	return history, nil
}
