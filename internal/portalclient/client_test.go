package portalclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/submission-portal/internal/app"
	"github.com/stemsi/submission-portal/internal/config"
	"github.com/stemsi/submission-portal/internal/mirror"
	"github.com/stemsi/submission-portal/internal/model"
	"github.com/stemsi/submission-portal/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	validator.Setup()
}

type harness struct {
	app       *app.App
	server    *httptest.Server
	progressN atomic.Int32
	store     *mirror.FileStore
}

func newHarness(t *testing.T) *harness {
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
	h := &harness{
		app:   app.New(ctx, cfg, app.MemoryStores("60", nil), nil, zerolog.Nop()),
		store: mirror.NewFileStore(t.TempDir()),
	}
	h.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.app.Engine.ServeHTTP(w, r)
		if strings.HasSuffix(r.URL.Path, "/progress") {
			h.progressN.Add(1)
		}
	}))
	t.Cleanup(h.server.Close)
	return h
}

func (h *harness) client(debounce time.Duration) *Client {
	return New(h.server.URL, h.store, WithDebounce(debounce), WithHTTPClient(h.server.Client()))
}

func TestStart_WritesMirror(t *testing.T) {
	h := newHarness(t)
	c := h.client(time.Hour)
	ctx := context.Background()

	res, err := c.Start(ctx, "ana@example.com", "9876543210")
	require.NoError(t, err)
	require.NotNil(t, res.Session)
	assert.True(t, res.IsNew)

	snap, ok, err := c.Resume(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, res.Session.SessionID, snap.SessionID)
	assert.Equal(t, 1, snap.CurrentStep)
	assert.Equal(t, "ana@example.com", model.Str(snap.FormData.Email))
}

func TestStart_RejectsBadPhone(t *testing.T) {
	h := newHarness(t)
	c := h.client(time.Hour)

	_, err := c.Start(context.Background(), "ana@example.com", "123")
	require.Error(t, err)
	assert.True(t, IsCode(err, CodeInvalidInput))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
}

func TestSaveProgress_CoalescesAndReplicates(t *testing.T) {
	h := newHarness(t)
	c := h.client(200 * time.Millisecond)
	ctx := context.Background()

	res, err := c.Start(ctx, "ana@example.com", "9876543210")
	require.NoError(t, err)

	snap, err := c.SaveProgress(ctx, 2, model.FormData{FullName: model.StrPtr("Ana")})
	require.NoError(t, err)
	assert.Equal(t, 2, snap.CurrentStep)
	_, err = c.SaveProgress(ctx, 2, model.FormData{Role: model.StrPtr("backend")})
	require.NoError(t, err)

	// The mirror is current before anything reaches the server.
	local, ok, err := c.Resume(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Ana", model.Str(local.FormData.FullName))
	assert.Equal(t, "backend", model.Str(local.FormData.Role))

	require.Eventually(t, func() bool { return h.progressN.Load() == 1 }, 3*time.Second, 20*time.Millisecond)

	session, err := h.app.Sessions.GetSession(ctx, res.Session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 2, session.CurrentStep)
	assert.Equal(t, "Ana", model.Str(session.FormData.FullName))
	assert.Equal(t, "backend", model.Str(session.FormData.Role))
}

func TestFlush_SendsImmediately(t *testing.T) {
	h := newHarness(t)
	c := h.client(time.Hour)
	ctx := context.Background()

	res, err := c.Start(ctx, "ana@example.com", "9876543210")
	require.NoError(t, err)
	_, err = c.SaveProgress(ctx, 3, model.FormData{ProjectTitle: model.StrPtr("Portal")})
	require.NoError(t, err)
	assert.Zero(t, h.progressN.Load())

	require.NoError(t, c.Flush(ctx))
	assert.Equal(t, int32(1), h.progressN.Load())
	require.NoError(t, c.Close(ctx), "nothing left to send")
	assert.Equal(t, int32(1), h.progressN.Load())

	session, err := h.app.Sessions.GetSession(ctx, res.Session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 3, session.CurrentStep)
	assert.Equal(t, "Portal", model.Str(session.FormData.ProjectTitle))
}

func TestSaveProgress_FailureKeepsMirror(t *testing.T) {
	h := newHarness(t)
	c := h.client(time.Hour)
	ctx := context.Background()

	res, err := c.Start(ctx, "ana@example.com", "9876543210")
	require.NoError(t, err)
	_, err = h.app.Sessions.MarkAssessmentFailed(ctx, res.Session.SessionID, nil)
	require.NoError(t, err)

	_, err = c.SaveProgress(ctx, 2, model.FormData{FullName: model.StrPtr("Ana")})
	require.NoError(t, err)
	err = c.Flush(ctx)
	require.Error(t, err)
	assert.True(t, IsCode(err, CodeSessionCompleted))

	local, _, err := c.Resume(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ana", model.Str(local.FormData.FullName), "local change is not rolled back")

	fresh, err := c.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusFailed, fresh.Status)
	assert.Nil(t, fresh.FormData.FullName, "server copy wins")

	_, ok, err := c.Resume(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSubmit_ClearsMirror(t *testing.T) {
	h := newHarness(t)
	c := h.client(time.Hour)
	ctx := context.Background()

	_, err := c.Start(ctx, "ana@example.com", "9876543210")
	require.NoError(t, err)
	_, err = c.SaveProgress(ctx, 3, model.FormData{FullName: model.StrPtr("Ana")})
	require.NoError(t, err)

	res, err := c.Submit(ctx, model.FormData{ProjectTitle: model.StrPtr("Portal")}, nil,
		model.MCQScore{TotalQuestions: 10, CorrectAnswers: 8, Percentage: 80})
	require.NoError(t, err)
	assert.True(t, res.IsPassing)
	assert.Equal(t, model.SessionStatusPassed, res.Status)
	require.NotNil(t, res.SubmissionID)

	_, err = h.store.Load(ctx)
	require.ErrorIs(t, err, mirror.ErrEmpty)

	_, err = c.SaveProgress(ctx, 4, model.FormData{})
	require.ErrorIs(t, err, ErrNoActiveSession)

	again, err := c.Start(ctx, "ana@example.com", "9876543210")
	require.NoError(t, err)
	assert.True(t, again.AlreadyCompleted)
	assert.Nil(t, again.Session)
}

func TestFailAssessment_ThenAcknowledge(t *testing.T) {
	h := newHarness(t)
	c := h.client(time.Hour)
	ctx := context.Background()

	_, err := c.Start(ctx, "ana@example.com", "9876543210")
	require.NoError(t, err)

	res, err := c.FailAssessment(ctx, &model.MCQScore{TotalQuestions: 10, CorrectAnswers: 1, Percentage: 10})
	require.NoError(t, err)
	assert.False(t, res.AlreadyCompleted)
	assert.Equal(t, model.SessionStatusFailed, res.Status)

	snap, ok, err := c.Resume(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, model.SessionStatusFailed, snap.Status)

	require.NoError(t, c.Acknowledge(ctx))
	_, err = h.store.Load(ctx)
	require.ErrorIs(t, err, mirror.ErrEmpty)
}

func TestCheck(t *testing.T) {
	h := newHarness(t)
	c := h.client(time.Hour)
	ctx := context.Background()

	status, err := c.Check(ctx, "ana@example.com", "9876543210")
	require.NoError(t, err)
	assert.False(t, status.Attempted)

	_, err = c.Start(ctx, "ana@example.com", "9876543210")
	require.NoError(t, err)

	status, err = c.Check(ctx, "ana@example.com", "+91 9876543210")
	require.NoError(t, err)
	assert.True(t, status.Attempted)
	require.NotNil(t, status.CanResume)
	assert.True(t, *status.CanResume)
}
