package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fairyhunter13/coupon-giveaway/internal/model"
	"github.com/fairyhunter13/coupon-giveaway/internal/service"
	"github.com/fairyhunter13/coupon-giveaway/pkg/database"
)

// PoolInterface defines the database operations needed by repositories.
// This allows for easier testing with mocks.
type PoolInterface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// CouponRepository provides data access for coupons using pgx.
type CouponRepository struct {
	pool PoolInterface
}

// NewCouponRepository creates a new CouponRepository with the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// NewCouponRepositoryWithPool creates a new CouponRepository with a custom pool interface.
// This is primarily used for testing.
func NewCouponRepositoryWithPool(pool PoolInterface) *CouponRepository {
	return &CouponRepository{pool: pool}
}

const couponColumns = `id, code, description, is_active, is_available, expiry_date, owner_admin_id, created_at, updated_at`

func scanCoupon(row pgx.Row) (*model.Coupon, error) {
	var c model.Coupon
	err := row.Scan(
		&c.ID,
		&c.Code,
		&c.Description,
		&c.IsActive,
		&c.IsAvailable,
		&c.ExpiryDate,
		&c.OwnerAdminID,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Insert inserts a new coupon into the database.
// Returns service.ErrDuplicateCode if a coupon with the same code already exists.
func (r *CouponRepository) Insert(ctx context.Context, coupon *model.Coupon) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO coupons (id, code, description, is_active, is_available, expiry_date, owner_admin_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		coupon.ID, coupon.Code, coupon.Description, coupon.IsActive, coupon.IsAvailable,
		coupon.ExpiryDate, coupon.OwnerAdminID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return service.ErrDuplicateCode
		}
		return fmt.Errorf("insert coupon: %w", err)
	}
	return nil
}

// GetByID retrieves a coupon by its id.
// Returns nil, nil if the coupon is not found (service layer handles this).
func (r *CouponRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE id = $1`

	coupon, err := scanCoupon(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found - let service handle
		}
		return nil, fmt.Errorf("get coupon by id %s: %w", id, err)
	}
	return coupon, nil
}

// ListByOwner retrieves all coupons owned by the given admin, oldest first,
// each with its claim count. On success, returns an empty slice (not nil)
// when the admin owns no coupons.
func (r *CouponRepository) ListByOwner(ctx context.Context, adminID uuid.UUID) ([]model.CouponResponse, error) {
	query := `SELECT c.id, c.code, c.description, c.is_active, c.is_available, c.expiry_date, c.created_at,
	                 (SELECT COUNT(*) FROM claims cl WHERE cl.coupon_id = c.id) AS claim_count
	          FROM coupons c
	          WHERE c.owner_admin_id = $1
	          ORDER BY c.created_at, c.id`

	rows, err := r.pool.Query(ctx, query, adminID)
	if err != nil {
		return nil, fmt.Errorf("list coupons for admin %s: %w", adminID, err)
	}
	defer rows.Close()

	var coupons []model.CouponResponse
	for rows.Next() {
		var c model.CouponResponse
		if err := rows.Scan(&c.ID, &c.Code, &c.Description, &c.IsActive, &c.IsAvailable,
			&c.ExpiryDate, &c.CreatedAt, &c.ClaimCount); err != nil {
			return nil, fmt.Errorf("scan coupon row: %w", err)
		}
		coupons = append(coupons, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate coupon rows: %w", err)
	}

	// Return empty slice, not nil
	if coupons == nil {
		coupons = []model.CouponResponse{}
	}

	return coupons, nil
}

// Update persists the mutable fields of a coupon.
// Returns service.ErrDuplicateCode when the new code collides with another
// coupon, service.ErrCouponNotFound when the row no longer exists.
func (r *CouponRepository) Update(ctx context.Context, coupon *model.Coupon) error {
	query := `UPDATE coupons
	          SET code = $2, description = $3, is_active = $4, expiry_date = $5, updated_at = now()
	          WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query,
		coupon.ID, coupon.Code, coupon.Description, coupon.IsActive, coupon.ExpiryDate)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return service.ErrDuplicateCode
		}
		return fmt.Errorf("update coupon %s: %w", coupon.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrCouponNotFound
	}
	return nil
}

// Delete permanently removes a coupon. Claim rows cascade at the schema
// level, erasing the coupon's history.
// Returns service.ErrCouponNotFound when no row matches.
func (r *CouponRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM coupons WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete coupon %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrCouponNotFound
	}
	return nil
}

// SelectEligibleForUpdate locks and returns the oldest coupon eligible for the
// given claimant, or nil, nil when none qualifies.
//
// Eligibility: active, available, strictly unexpired, and carrying no claim
// matching the claimant's ip or session id. Ordering by (created_at, id)
// makes selection deterministic; SKIP LOCKED lets concurrent claimants fall
// through to the next eligible coupon instead of queueing on one row.
// Must be called within a transaction.
func (r *CouponRepository) SelectEligibleForUpdate(ctx context.Context, tx database.TxQuerier, ip, sessionID string) (*model.Coupon, error) {
	query := `SELECT ` + couponColumns + `
	          FROM coupons c
	          WHERE c.is_active
	            AND c.is_available
	            AND c.expiry_date > now()
	            AND NOT EXISTS (
	                SELECT 1 FROM claims cl
	                WHERE cl.coupon_id = c.id AND (cl.ip = $1 OR cl.session_id = $2)
	            )
	          ORDER BY c.created_at, c.id
	          LIMIT 1
	          FOR UPDATE OF c SKIP LOCKED`

	coupon, err := scanCoupon(tx.QueryRow(ctx, query, ip, sessionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // No eligible coupon - let service handle
		}
		return nil, fmt.Errorf("select eligible coupon: %w", err)
	}
	return coupon, nil
}

// MarkUnavailable flips is_available to false once the claim quota is
// reached. Must be called within the claiming transaction, on the locked row.
func (r *CouponRepository) MarkUnavailable(ctx context.Context, tx database.TxQuerier, id uuid.UUID) error {
	_, err := tx.Exec(ctx, `UPDATE coupons SET is_available = FALSE, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark coupon %s unavailable: %w", id, err)
	}
	return nil
}
