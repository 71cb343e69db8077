package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/fairyhunter13/coupon-giveaway/internal/model"
)

// AdminRepositoryInterface defines the interface for admin data access.
type AdminRepositoryInterface interface {
	Insert(ctx context.Context, admin *model.Admin) error
	GetByEmail(ctx context.Context, email string) (*model.Admin, error)
}

// TokenIssuer signs bearer tokens for authenticated admins.
type TokenIssuer interface {
	Issue(adminID uuid.UUID) (string, error)
}

// AdminService provides registration and login for admin accounts.
type AdminService struct {
	adminRepo AdminRepositoryInterface
	tokens    TokenIssuer
}

// NewAdminService creates a new AdminService.
func NewAdminService(adminRepo AdminRepositoryInterface, tokens TokenIssuer) *AdminService {
	return &AdminService{adminRepo: adminRepo, tokens: tokens}
}

// Register creates a new admin account and returns a signed bearer token.
// Returns ErrAdminExists if the email is already registered.
func (s *AdminService) Register(ctx context.Context, req *model.AdminAuthRequest) (*model.AdminAuthResponse, error) {
	if req == nil {
		return nil, ErrInvalidRequest
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	admin := &model.Admin{
		ID:           uuid.New(),
		Email:        req.Email,
		PasswordHash: string(hash),
	}
	if err := s.adminRepo.Insert(ctx, admin); err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(admin.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	return &model.AdminAuthResponse{ID: admin.ID, Email: admin.Email, Token: token}, nil
}

// Login verifies credentials and returns a signed bearer token.
// Unknown email and wrong password both return ErrInvalidCredentials.
func (s *AdminService) Login(ctx context.Context, req *model.AdminAuthRequest) (*model.AdminAuthResponse, error) {
	if req == nil {
		return nil, ErrInvalidRequest
	}

	admin, err := s.adminRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("get admin: %w", err)
	}
	if admin == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(admin.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	return &model.AdminAuthResponse{ID: admin.ID, Email: admin.Email, Token: token}, nil
}
