package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fairyhunter13/coupon-giveaway/internal/model"
	"github.com/fairyhunter13/coupon-giveaway/internal/service"
)

// AdminRepository provides data access for admin accounts using pgx.
type AdminRepository struct {
	pool PoolInterface
}

// NewAdminRepository creates a new AdminRepository with the given pool.
func NewAdminRepository(pool *pgxpool.Pool) *AdminRepository {
	return &AdminRepository{pool: pool}
}

// NewAdminRepositoryWithPool creates a new AdminRepository with a custom pool interface.
// This is primarily used for testing.
func NewAdminRepositoryWithPool(pool PoolInterface) *AdminRepository {
	return &AdminRepository{pool: pool}
}

// Insert creates a new admin account.
// Returns service.ErrAdminExists if the email is already registered.
func (r *AdminRepository) Insert(ctx context.Context, admin *model.Admin) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO admins (id, email, password_hash) VALUES ($1, $2, $3)`,
		admin.ID, admin.Email, admin.PasswordHash)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return service.ErrAdminExists
		}
		return fmt.Errorf("insert admin: %w", err)
	}
	return nil
}

// GetByEmail retrieves an admin by email.
// Returns nil, nil if no admin is registered under it (service layer handles this).
func (r *AdminRepository) GetByEmail(ctx context.Context, email string) (*model.Admin, error) {
	query := `SELECT id, email, password_hash, created_at FROM admins WHERE email = $1`

	var admin model.Admin
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&admin.ID,
		&admin.Email,
		&admin.PasswordHash,
		&admin.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found - let service handle
		}
		return nil, fmt.Errorf("get admin by email: %w", err)
	}
	return &admin, nil
}
