package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/coupon-giveaway/internal/model"
	"github.com/fairyhunter13/coupon-giveaway/internal/service"
)

// mockRow implements pgx.Row for testing.
type mockRow struct {
	scanFn func(dest ...any) error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.scanFn != nil {
		return m.scanFn(dest...)
	}
	return nil
}

// mockPool implements PoolInterface for testing.
type mockPool struct {
	execFn     func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	queryRowFn func(ctx context.Context, sql string, args ...any) pgx.Row
	queryFn    func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (m *mockPool) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	if m.execFn != nil {
		return m.execFn(ctx, sql, arguments...)
	}
	return pgconn.CommandTag{}, nil
}

func (m *mockPool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if m.queryRowFn != nil {
		return m.queryRowFn(ctx, sql, args...)
	}
	return &mockRow{}
}

func (m *mockPool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if m.queryFn != nil {
		return m.queryFn(ctx, sql, args...)
	}
	return nil, errors.New("query not mocked")
}

func testCoupon() *model.Coupon {
	return &model.Coupon{
		ID:           uuid.New(),
		Code:         "SUMMER10",
		Description:  "10% off",
		IsActive:     true,
		IsAvailable:  true,
		ExpiryDate:   time.Now().Add(7 * 24 * time.Hour),
		OwnerAdminID: uuid.New(),
	}
}

func TestCouponRepository_Insert_Success(t *testing.T) {
	var gotSQL string
	mock := &mockPool{
		execFn: func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
			gotSQL = sql
			return pgconn.NewCommandTag("INSERT 0 1"), nil
		},
	}

	repo := NewCouponRepositoryWithPool(mock)
	err := repo.Insert(context.Background(), testCoupon())

	require.NoError(t, err)
	assert.Contains(t, gotSQL, "INSERT INTO coupons")
}

func TestCouponRepository_Insert_DuplicateCode(t *testing.T) {
	mock := &mockPool{
		execFn: func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
			return pgconn.CommandTag{}, &pgconn.PgError{Code: "23505"}
		},
	}

	repo := NewCouponRepositoryWithPool(mock)
	err := repo.Insert(context.Background(), testCoupon())

	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrDuplicateCode), "unique violation should map to ErrDuplicateCode")
}

func TestCouponRepository_Insert_OtherError(t *testing.T) {
	dbErr := errors.New("database connection failed")
	mock := &mockPool{
		execFn: func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
			return pgconn.CommandTag{}, dbErr
		},
	}

	repo := NewCouponRepositoryWithPool(mock)
	err := repo.Insert(context.Background(), testCoupon())

	require.Error(t, err)
	assert.False(t, errors.Is(err, service.ErrDuplicateCode))
	assert.True(t, errors.Is(err, dbErr), "original error should be wrapped")
}

func TestCouponRepository_GetByID_NotFound(t *testing.T) {
	mock := &mockPool{
		queryRowFn: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &mockRow{scanFn: func(dest ...any) error { return pgx.ErrNoRows }}
		},
	}

	repo := NewCouponRepositoryWithPool(mock)
	coupon, err := repo.GetByID(context.Background(), uuid.New())

	require.NoError(t, err, "not found is not an error at this layer")
	assert.Nil(t, coupon)
}

func TestCouponRepository_Update_NotFound(t *testing.T) {
	mock := &mockPool{
		execFn: func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
			return pgconn.NewCommandTag("UPDATE 0"), nil
		},
	}

	repo := NewCouponRepositoryWithPool(mock)
	err := repo.Update(context.Background(), testCoupon())

	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrCouponNotFound), "zero rows affected should map to ErrCouponNotFound")
}

func TestCouponRepository_Update_DuplicateCode(t *testing.T) {
	mock := &mockPool{
		execFn: func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
			return pgconn.CommandTag{}, &pgconn.PgError{Code: "23505"}
		},
	}

	repo := NewCouponRepositoryWithPool(mock)
	err := repo.Update(context.Background(), testCoupon())

	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrDuplicateCode))
}

func TestCouponRepository_Update_Success(t *testing.T) {
	mock := &mockPool{
		execFn: func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
			return pgconn.NewCommandTag("UPDATE 1"), nil
		},
	}

	repo := NewCouponRepositoryWithPool(mock)
	err := repo.Update(context.Background(), testCoupon())

	require.NoError(t, err)
}

func TestCouponRepository_Delete_NotFound(t *testing.T) {
	mock := &mockPool{
		execFn: func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
			return pgconn.NewCommandTag("DELETE 0"), nil
		},
	}

	repo := NewCouponRepositoryWithPool(mock)
	err := repo.Delete(context.Background(), uuid.New())

	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrCouponNotFound))
}

func TestCouponRepository_Delete_Success(t *testing.T) {
	mock := &mockPool{
		execFn: func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
			return pgconn.NewCommandTag("DELETE 1"), nil
		},
	}

	repo := NewCouponRepositoryWithPool(mock)
	err := repo.Delete(context.Background(), uuid.New())

	require.NoError(t, err)
}

func TestCouponRepository_SelectEligibleForUpdate_NoEligible(t *testing.T) {
	tx := &mockPool{
		queryRowFn: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &mockRow{scanFn: func(dest ...any) error { return pgx.ErrNoRows }}
		},
	}

	repo := NewCouponRepositoryWithPool(&mockPool{})
	coupon, err := repo.SelectEligibleForUpdate(context.Background(), tx, "1.2.3.4", "abc")

	require.NoError(t, err, "an empty pool is not an error at this layer")
	assert.Nil(t, coupon)
}

func TestCouponRepository_SelectEligibleForUpdate_PredicateShape(t *testing.T) {
	var gotSQL string
	var gotArgs []any
	tx := &mockPool{
		queryRowFn: func(ctx context.Context, sql string, args ...any) pgx.Row {
			gotSQL = sql
			gotArgs = args
			return &mockRow{scanFn: func(dest ...any) error { return pgx.ErrNoRows }}
		},
	}

	repo := NewCouponRepositoryWithPool(&mockPool{})
	_, err := repo.SelectEligibleForUpdate(context.Background(), tx, "1.2.3.4", "abc")
	require.NoError(t, err)

	// The whole eligibility predicate must live in the one locking statement.
	assert.Contains(t, gotSQL, "is_active")
	assert.Contains(t, gotSQL, "is_available")
	assert.Contains(t, gotSQL, "expiry_date > now()")
	assert.Contains(t, gotSQL, "NOT EXISTS")
	assert.Contains(t, gotSQL, "ORDER BY c.created_at, c.id")
	assert.Contains(t, gotSQL, "FOR UPDATE OF c SKIP LOCKED")
	assert.Equal(t, []any{"1.2.3.4", "abc"}, gotArgs)
}
