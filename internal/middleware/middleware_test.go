package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
	"github.com/stemsi/submission-portal/internal/config"
	"github.com/stemsi/submission-portal/internal/model"
	"github.com/stemsi/submission-portal/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRateLimiter_RefillsPerInterval(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rl := NewRateLimiter(ctx, 2, time.Minute)
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return clock }

	assert.True(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("1.2.3.4"))
	assert.False(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("5.6.7.8"), "buckets are per key")

	clock = clock.Add(time.Minute)
	assert.True(t, rl.Allow("1.2.3.4"))

	clock = clock.Add(10 * time.Minute)
	rl.cleanup()
	assert.Empty(t, rl.visitors)
}

func TestRateLimiter_ZeroRateDisables(t *testing.T) {
	rl := NewRateLimiter(context.Background(), 0, time.Minute)
	for range 100 {
		require.True(t, rl.Allow("k"))
	}
}

func TestRateLimiter_Middleware(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := gin.New()
	r.GET("/x", NewRateLimiter(ctx, 1, time.Hour).Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "RATE_LIMIT_EXCEEDED")
}

func TestBrotli_CompressesLargeBodies(t *testing.T) {
	big := strings.Repeat("portal ", 500)
	r := gin.New()
	r.Use(Brotli())
	r.GET("/big", func(c *gin.Context) { c.String(http.StatusOK, big) })
	r.GET("/small", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	req := httptest.NewRequest(http.MethodGet, "/big", nil)
	req.Header.Set("Accept-Encoding", "gzip, br;q=1.0")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "br", w.Header().Get("Content-Encoding"))
	body, err := io.ReadAll(brotli.NewReader(w.Body))
	require.NoError(t, err)
	assert.Equal(t, big, string(body))

	req = httptest.NewRequest(http.MethodGet, "/small", nil)
	req.Header.Set("Accept-Encoding", "br")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Equal(t, "ok", w.Body.String())
}

func TestBrotli_SkipsWithoutAcceptEncoding(t *testing.T) {
	big := strings.Repeat("x", 4096)
	r := gin.New()
	r.Use(Brotli())
	r.GET("/big", func(c *gin.Context) { c.String(http.StatusOK, big) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/big", nil))
	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Equal(t, big, w.Body.String())
}

func TestBrotli_PassesThroughIncompressibleTypes(t *testing.T) {
	blob := []byte(strings.Repeat("\x00\x01", 2048))
	r := gin.New()
	r.Use(Brotli())
	r.GET("/blob", CacheControl(60), func(c *gin.Context) { c.Data(http.StatusOK, "image/png", blob) })

	req := httptest.NewRequest(http.MethodGet, "/blob", nil)
	req.Header.Set("Accept-Encoding", "br")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Equal(t, blob, w.Body.Bytes())
	assert.Equal(t, []string{"Accept-Encoding"}, w.Header().Values("Vary"))
}

func TestRequireAdminJWT(t *testing.T) {
	auth := service.NewAuthService(&config.Config{JWTSecret: "s", JWTExpiry: time.Hour}, nil)
	r := gin.New()
	r.GET("/admin", RequireAdminJWT(auth), func(c *gin.Context) {
		c.String(http.StatusOK, "%d", GetClaims(c).AdminID)
	})

	call := func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := call("")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "TOKEN_REQUIRED")

	w = call("Bearer garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "TOKEN_INVALID")

	admin := &model.Admin{ID: 7, Email: "ops@portal.test"}
	token, _, err := auth.GenerateAdminToken(admin)
	require.NoError(t, err)
	w = call("Bearer " + token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "7", w.Body.String())

	expired := service.NewAuthService(&config.Config{JWTSecret: "s", JWTExpiry: -time.Minute}, nil)
	old, _, err := expired.GenerateAdminToken(admin)
	require.NoError(t, err)
	w = call("Bearer " + old)
	assert.Contains(t, w.Body.String(), "TOKEN_EXPIRED")
}

func TestNoStore(t *testing.T) {
	r := gin.New()
	r.GET("/s", NoStore(), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/p", CacheControl(60), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/s", nil))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Equal(t, "no-cache", w.Header().Get("Pragma"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/p", nil))
	assert.Equal(t, "public, max-age=60", w.Header().Get("Cache-Control"))
}
