package model

import (
	"time"

	"github.com/google/uuid"
)

// Admin represents an administrator account. The password is stored only as
// a bcrypt hash.
type Admin struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// AdminAuthRequest is the DTO for both register and login.
type AdminAuthRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// AdminAuthResponse carries the bearer token the client presents on
// admin-scoped requests.
type AdminAuthResponse struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Token string    `json:"token"`
}
