package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/submission-portal/internal/app"
	"github.com/stemsi/submission-portal/internal/config"
	"github.com/stemsi/submission-portal/internal/model"
	"github.com/stemsi/submission-portal/internal/repository/memory"
	"github.com/stemsi/submission-portal/internal/validator"
	"github.com/stretchr/testify/require"
)

const (
	adminEmail    = "admin@portal.test"
	adminPassword = "secret-password"
)

func init() {
	gin.SetMode(gin.TestMode)
	validator.Setup()
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

type testServer struct {
	t   *testing.T
	app *app.App
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg := &config.Config{
		GinMode:                  gin.TestMode,
		JWTSecret:                "test-secret",
		JWTExpiry:                time.Hour,
		BcryptCost:               4,
		DefaultPassingPercentage: 50,
	}
	admins := memory.NewAdminStore()
	a := app.New(ctx, cfg, app.MemoryStores("60", admins), nil, zerolog.Nop())

	hash, err := a.Auth.HashPassword(adminPassword)
	require.NoError(t, err)
	require.NoError(t, admins.Create(ctx, &model.Admin{Email: adminEmail, Name: "Admin", PasswordHash: hash}))

	return &testServer{t: t, app: a}
}

func (s *testServer) do(method, path string, body any, token string) (int, envelope) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.app.Engine.ServeHTTP(w, req)

	var env envelope
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func (s *testServer) adminToken() string {
	s.t.Helper()
	code, env := s.do(http.MethodPost, "/api/v1/auth/admin/login",
		gin.H{"email": adminEmail, "password": adminPassword}, "")
	require.Equal(s.t, http.StatusOK, code)

	var res model.AdminLoginResponse
	decode(s.t, env, &res)
	return res.Token
}

func decode(t *testing.T, env envelope, dst any) {
	t.Helper()
	require.Nil(t, env.Error)
	require.NoError(t, json.Unmarshal(env.Data, dst))
}
