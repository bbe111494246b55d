package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stemsi/submission-portal/internal/config"
	"github.com/stemsi/submission-portal/internal/model"
	"github.com/stemsi/submission-portal/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for an unknown email or a wrong password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// TokenType distinguishes token audiences.
type TokenType string

const (
	TokenTypeAdmin TokenType = "admin"
)

// tokenIssuer is stamped into and required on every token.
const tokenIssuer = "submission-portal"

// Claims extends JWT standard claims with the admin's identity.
type Claims struct {
	jwt.RegisteredClaims
	TokenType TokenType `json:"token_type"`
	AdminID   int       `json:"admin_id"`
	Email     string    `json:"email"`
}

// AdminStore looks up administrators.
type AdminStore interface {
	GetByEmail(ctx context.Context, email string) (*model.Admin, error)
}

// AuthService handles admin authentication and JWT issuing.
type AuthService struct {
	cfg    *config.Config
	admins AdminStore
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, admins AdminStore) *AuthService {
	return &AuthService{cfg: cfg, admins: admins}
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	return string(hash), err
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func (s *AuthService) CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// LoginAdmin verifies credentials and issues an admin token.
func (s *AuthService) LoginAdmin(ctx context.Context, email, password string) (*model.AdminLoginResponse, error) {
	admin, err := s.admins.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get admin: %w", err)
	}
	if err := s.CheckPassword(admin.PasswordHash, password); err != nil {
		return nil, err
	}

	token, expiresAt, err := s.GenerateAdminToken(admin)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &model.AdminLoginResponse{Token: token, ExpiresAt: expiresAt, Admin: *admin}, nil
}

// GenerateAdminToken signs a token for admin and reports when it expires.
func (s *AuthService) GenerateAdminToken(admin *model.Admin) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(s.cfg.JWTExpiry).Truncate(time.Second)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    tokenIssuer,
			Subject:   strconv.Itoa(admin.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		TokenType: TokenTypeAdmin,
		AdminID:   admin.ID,
		Email:     admin.Email,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	keyFunc := func(*jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWTSecret), nil
	}
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}
