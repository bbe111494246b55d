package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stemsi/submission-portal/internal/response"
	"github.com/stemsi/submission-portal/internal/service"
)

const contextKeyClaims = "admin_claims"

var errTokenMissing = errors.New("authorization header required")

// RequireAdminJWT guards the admin routes. The bearer token must be a valid
// admin token that names an admin.
func RequireAdminJWT(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c)
		if err != nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		claims, err := authService.ValidateToken(token)
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenExpired)
			return
		case err != nil:
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
			return
		case claims.TokenType != service.TokenTypeAdmin || claims.AdminID <= 0:
			response.AbortFail(c, http.StatusForbidden, response.ErrAdminAccessOnly)
			return
		}

		c.Set(contextKeyClaims, claims)
		c.Next()
	}
}

// GetClaims returns the admin claims stored by RequireAdminJWT, or nil on
// routes it does not guard.
func GetClaims(c *gin.Context) *service.Claims {
	val, _ := c.Get(contextKeyClaims)
	claims, _ := val.(*service.Claims)
	return claims
}

func bearerToken(c *gin.Context) (string, error) {
	scheme, token, ok := strings.Cut(c.GetHeader("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
		return "", errTokenMissing
	}
	return strings.TrimSpace(token), nil
}
