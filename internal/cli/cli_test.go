package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/submission-portal/internal/app"
	"github.com/stemsi/submission-portal/internal/config"
	"github.com/stemsi/submission-portal/internal/model"
	"github.com/stemsi/submission-portal/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"check", "start", "resume", "progress", "submit", "fail", "reconcile", "ack"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestParseFormData(t *testing.T) {
	fd, err := parseFormData(
		[]string{"fullName=Ana Lima", "year=2026", "nickname=ana"},
		`{"mcqAnswers":{"q1":2},"year":"2025"}`,
	)
	require.NoError(t, err)
	assert.Equal(t, "Ana Lima", model.Str(fd.FullName))
	assert.Equal(t, "2026", model.Str(fd.Year), "pairs win over --data")
	assert.Equal(t, map[string]int{"q1": 2}, fd.MCQAnswers)
	assert.JSONEq(t, `"ana"`, string(fd.Extra["nickname"]))

	_, err = parseFormData([]string{"novalue"}, "")
	require.Error(t, err)

	_, err = parseFormData(nil, "{bad")
	require.Error(t, err)

	fd, err = parseFormData(nil, "")
	require.NoError(t, err)
	assert.Equal(t, model.FormData{}, fd)
}

func TestInvalidFormat(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"resume", "--format", "yaml", "--dir", t.TempDir()})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	require.Error(t, cmd.Execute())
}

func newPortalServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validator.Setup()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg := &config.Config{
		GinMode:                  gin.TestMode,
		JWTSecret:                "test-secret",
		JWTExpiry:                time.Hour,
		BcryptCost:               4,
		DefaultPassingPercentage: 50,
	}
	srv := httptest.NewServer(app.New(ctx, cfg, app.MemoryStores("50", nil), nil, zerolog.Nop()).Engine)
	t.Cleanup(srv.Close)
	return srv
}

func TestRedisMirror(t *testing.T) {
	srv := newPortalServer(t)
	mr := miniredis.RunT(t)

	run := func(args ...string) (string, error) {
		var out bytes.Buffer
		cmd := NewRootCommand()
		cmd.SetArgs(append([]string{
			"--server", srv.URL,
			"--mirror-redis", "redis://" + mr.Addr(),
			"--client-id", "kiosk-7",
		}, args...))
		cmd.SetOut(&out)
		cmd.SetErr(&bytes.Buffer{})
		err := cmd.Execute()
		return out.String(), err
	}

	_, err := run("start", "--email", "bo@example.com", "--phone", "9876500000")
	require.NoError(t, err)
	assert.True(t, mr.Exists(config.CacheKey.MirrorKey("kiosk-7")))
	assert.Greater(t, mr.TTL(config.CacheKey.MirrorKey("kiosk-7")), time.Duration(0))

	out, err := run("resume")
	require.NoError(t, err)
	assert.Contains(t, out, "at step 1")
}

func TestWorkflow(t *testing.T) {
	srv := newPortalServer(t)
	dir := t.TempDir()

	run := func(args ...string) (string, error) {
		var out, errOut bytes.Buffer
		cmd := NewRootCommand()
		cmd.SetArgs(append([]string{"--server", srv.URL, "--dir", dir}, args...))
		cmd.SetOut(&out)
		cmd.SetErr(&errOut)
		err := cmd.Execute()
		return out.String(), err
	}

	out, err := run("start", "--email", "ana@example.com", "--phone", "9876543210")
	require.NoError(t, err)
	assert.Contains(t, out, "Started session")

	_, err = run("progress", "--step", "2", "--set", "fullName=Ana", "--set", "role=backend")
	require.NoError(t, err)

	out, err = run("resume", "--format", "json")
	require.NoError(t, err)
	var snap struct {
		CurrentStep int            `json:"currentStep"`
		FormData    map[string]any `json:"formData"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.Equal(t, 2, snap.CurrentStep)
	assert.Equal(t, "Ana", snap.FormData["fullName"])

	out, err = run("reconcile")
	require.NoError(t, err)
	assert.Contains(t, out, "status=in_progress step=2", "progress reached the server")

	out, err = run("submit", "--total", "10", "--correct", "3", "--percentage", "30")
	require.NoError(t, err)
	assert.Contains(t, out, "Unfortunately, you did not pass the exam.")

	_, err = run("resume")
	require.Error(t, err)

	out, err = run("check", "--email", "ana@example.com", "--phone", "9876543210")
	require.NoError(t, err)
	assert.Contains(t, out, "status=failed")

	out, err = run("start", "--email", "ana@example.com", "--phone", "9876543210")
	require.NoError(t, err)
	assert.Contains(t, out, "You have already attempted this exam.")
}
