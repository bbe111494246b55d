package service

import (
	"context"
	"testing"
	"time"

	"github.com/stemsi/submission-portal/internal/config"
	"github.com/stemsi/submission-portal/internal/model"
	"github.com/stemsi/submission-portal/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuth(t *testing.T) (*AuthService, *memory.AdminStore) {
	t.Helper()
	cfg := &config.Config{JWTSecret: "test-secret", JWTExpiry: time.Hour, BcryptCost: 4}
	admins := memory.NewAdminStore()
	return NewAuthService(cfg, admins), admins
}

func TestLoginAdmin(t *testing.T) {
	ctx := context.Background()
	svc, admins := newAuth(t)

	hash, err := svc.HashPassword("hunter22")
	require.NoError(t, err)
	require.NoError(t, admins.Create(ctx, &model.Admin{Email: "root@example.com", Name: "Root", PasswordHash: hash}))

	res, err := svc.LoginAdmin(ctx, "root@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "Root", res.Admin.Name)

	claims, err := svc.ValidateToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeAdmin, claims.TokenType)
	assert.Equal(t, res.Admin.ID, claims.AdminID)
	assert.Equal(t, "root@example.com", claims.Email)
	assert.True(t, res.ExpiresAt.After(time.Now()))

	_, err = svc.LoginAdmin(ctx, "root@example.com", "wrong-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.LoginAdmin(ctx, "nobody@example.com", "hunter22")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateToken_RejectsForeignSecret(t *testing.T) {
	svc, _ := newAuth(t)
	other := NewAuthService(&config.Config{JWTSecret: "other", JWTExpiry: time.Hour}, nil)

	admin := &model.Admin{ID: 1, Email: "root@example.com"}
	token, _, err := other.GenerateAdminToken(admin)
	require.NoError(t, err)
	_, err = svc.ValidateToken(token)
	assert.Error(t, err)

	expired := NewAuthService(&config.Config{JWTSecret: "test-secret", JWTExpiry: -time.Minute}, nil)
	token, _, err = expired.GenerateAdminToken(admin)
	require.NoError(t, err)
	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}
