package model

import (
	"time"

	"github.com/stemsi/submission-portal/internal/identity"
)

// Admin is a portal administrator. Admins review submissions and tune the
// assessment; they never take part in the candidate workflow.
type Admin struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// NewAdmin builds an admin keyed by the normalized email. The display name
// defaults to the email when blank.
func NewAdmin(email, name, passwordHash string) *Admin {
	email = identity.NormalizeEmail(email)
	if name == "" {
		name = email
	}
	return &Admin{Email: email, Name: name, PasswordHash: passwordHash}
}

// AdminLoginRequest is the payload for admin authentication.
type AdminLoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

// AdminLoginResponse carries the bearer token for the admin routes.
type AdminLoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Admin     Admin     `json:"admin"`
}
