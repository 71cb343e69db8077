package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fairyhunter13/coupon-giveaway/internal/model"
	"github.com/fairyhunter13/coupon-giveaway/internal/service"
	"github.com/fairyhunter13/coupon-giveaway/pkg/database"
)

// ClaimRepository provides data access for claim records using pgx.
type ClaimRepository struct {
	pool PoolInterface
}

// NewClaimRepository creates a new ClaimRepository with the given pool.
func NewClaimRepository(pool *pgxpool.Pool) *ClaimRepository {
	return &ClaimRepository{pool: pool}
}

// NewClaimRepositoryWithPool creates a new ClaimRepository with a custom pool interface.
// This is primarily used for testing.
func NewClaimRepositoryWithPool(pool PoolInterface) *ClaimRepository {
	return &ClaimRepository{pool: pool}
}

// Insert records a claim within a transaction.
// The UNIQUE constraints on (coupon_id, ip) and (coupon_id, session_id) back
// up the allocator's eligibility predicate; hitting one here means another
// transaction won a race, so the violation maps to service.ErrClaimConflict
// for the caller to retry.
func (r *ClaimRepository) Insert(ctx context.Context, tx database.TxQuerier, couponID uuid.UUID, ip, sessionID string) error {
	query := `INSERT INTO claims (coupon_id, ip, session_id) VALUES ($1, $2, $3)`

	_, err := tx.Exec(ctx, query, couponID, ip, sessionID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return service.ErrClaimConflict
		}
		return fmt.Errorf("insert claim: %w", err)
	}
	return nil
}

// CountByCoupon returns the number of claims recorded against a coupon.
// Called within the claiming transaction to decide the availability flip.
func (r *ClaimRepository) CountByCoupon(ctx context.Context, tx database.TxQuerier, couponID uuid.UUID) (int, error) {
	var count int
	err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM claims WHERE coupon_id = $1`, couponID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count claims for coupon %s: %w", couponID, err)
	}
	return count, nil
}

// ListClaimedCoupons returns every coupon carrying at least one claim, with
// its full claim records nested in insertion (chronological) order.
// On success, returns an empty slice (not nil) when nothing has been claimed.
func (r *ClaimRepository) ListClaimedCoupons(ctx context.Context) ([]model.CouponHistoryResponse, error) {
	query := `SELECT c.id, c.code, c.description, c.is_active, c.is_available, c.expiry_date, c.created_at,
	                 cl.ip, cl.session_id, cl.claimed_at
	          FROM coupons c
	          JOIN claims cl ON cl.coupon_id = c.id
	          ORDER BY c.created_at, c.id, cl.id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list claimed coupons: %w", err)
	}
	defer rows.Close()

	var history []model.CouponHistoryResponse
	for rows.Next() {
		var (
			entry model.CouponHistoryResponse
			claim model.Claim
		)
		if err := rows.Scan(&entry.ID, &entry.Code, &entry.Description, &entry.IsActive,
			&entry.IsAvailable, &entry.ExpiryDate, &entry.CreatedAt,
			&claim.IP, &claim.SessionID, &claim.ClaimedAt); err != nil {
			return nil, fmt.Errorf("scan claim history row: %w", err)
		}

		// Rows arrive grouped by coupon; append claims to the current entry.
		if n := len(history); n > 0 && history[n-1].ID == entry.ID {
			history[n-1].Claims = append(history[n-1].Claims, claim)
			continue
		}
		entry.Claims = []model.Claim{claim}
		history = append(history, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate claim history rows: %w", err)
	}

	// Return empty slice, not nil
	if history == nil {
		history = []model.CouponHistoryResponse{}
	}

	return history, nil
}
