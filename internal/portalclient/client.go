// Package portalclient drives the exam session API from the candidate's side.
// Progress is written to a local mirror first and replicated to the server in
// the background; the server's copy wins whenever the two are reconciled.
package portalclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/submission-portal/internal/mirror"
	"github.com/stemsi/submission-portal/internal/model"
)

const (
	defaultDebounce    = 800 * time.Millisecond
	replicationTimeout = 10 * time.Second
)

// Client talks to the session API and keeps the mirror current.
type Client struct {
	baseURL  string
	http     *http.Client
	mirror   mirror.Store
	log      zerolog.Logger
	debounce time.Duration
	now      func() time.Time

	// sendMu orders progress writes to the server.
	sendMu sync.Mutex

	mu      sync.Mutex
	pending *pendingSave
	timer   *time.Timer
}

type pendingSave struct {
	sessionID uuid.UUID
	step      int
	patch     model.FormData
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithDebounce sets how long progress is held before it is replicated.
func WithDebounce(d time.Duration) Option {
	return func(c *Client) { c.debounce = d }
}

// WithLogger sets the logger used for background replication failures.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New returns a client for the server at baseURL mirroring into store.
func New(baseURL string, store mirror.Store, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: 30 * time.Second},
		mirror:   store,
		log:      zerolog.Nop(),
		debounce: defaultDebounce,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With().Str("component", "portal_client").Logger()
	return c
}

// Session is the resumable state returned when a session starts.
type Session struct {
	SessionID   uuid.UUID           `json:"sessionId"`
	CurrentStep int                 `json:"currentStep"`
	FormData    model.FormData      `json:"formData"`
	Status      model.SessionStatus `json:"status"`
}

// StartResult is the server's answer to a start request. Session is nil when
// the identity already finished its attempt.
type StartResult struct {
	Session          *Session            `json:"session"`
	IsNew            bool                `json:"isNew"`
	AlreadyCompleted bool                `json:"alreadyCompleted"`
	Status           model.SessionStatus `json:"status"`
	Message          string              `json:"message"`
}

// AttemptStatus is the answer to an attempt probe.
type AttemptStatus struct {
	Attempted   bool                 `json:"attempted"`
	Status      *model.SessionStatus `json:"status,omitempty"`
	SessionID   *uuid.UUID           `json:"sessionId,omitempty"`
	CurrentStep *int                 `json:"currentStep,omitempty"`
	CanResume   *bool                `json:"canResume,omitempty"`
}

// SubmitResult is the outcome of the final submit.
type SubmitResult struct {
	IsPassing         bool                `json:"isPassing"`
	Score             model.MCQScore      `json:"score"`
	PassingPercentage float64             `json:"passingPercentage"`
	Status            model.SessionStatus `json:"status"`
	SubmissionID      *uuid.UUID          `json:"submissionId"`
	Message           string              `json:"message"`
}

// FailResult is the outcome of locking a session after a failed assessment.
type FailResult struct {
	AlreadyCompleted bool                `json:"alreadyCompleted"`
	Status           model.SessionStatus `json:"status"`
	Message          string              `json:"message"`
}

// Check asks whether the identity has already attempted the exam.
func (c *Client) Check(ctx context.Context, email, phone string) (*AttemptStatus, error) {
	q := url.Values{"email": {email}, "phone": {phone}}
	var out AttemptStatus
	if err := c.do(ctx, http.MethodGet, "/api/v1/session/check?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Start starts or resumes the identity's session and mirrors it. When the
// attempt is already over, any stale mirror is cleared.
func (c *Client) Start(ctx context.Context, email, phone string) (*StartResult, error) {
	var out StartResult
	body := map[string]string{"email": email, "phone": phone}
	if err := c.do(ctx, http.MethodPost, "/api/v1/session/start", body, &out); err != nil {
		return nil, err
	}

	if out.AlreadyCompleted || out.Session == nil {
		if err := c.mirror.Clear(ctx); err != nil {
			return nil, err
		}
		return &out, nil
	}

	snap := mirror.Snapshot{
		SessionID:   out.Session.SessionID,
		CurrentStep: out.Session.CurrentStep,
		FormData:    out.Session.FormData,
		Status:      out.Session.Status,
		SavedAt:     c.now(),
	}
	if err := c.mirror.Save(ctx, snap); err != nil {
		return nil, err
	}
	return &out, nil
}

// Resume returns the mirrored session when it can be continued, without
// contacting the server.
func (c *Client) Resume(ctx context.Context) (*mirror.Snapshot, bool, error) {
	snap, err := c.mirror.Load(ctx)
	if errors.Is(err, mirror.ErrEmpty) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return snap, snap.Resumable(), nil
}

// SaveProgress applies step and patch to the mirror at once and queues them
// for replication. Queued patches coalesce until the debounce delay passes.
// Replication failures are logged; the mirror keeps the local change.
func (c *Client) SaveProgress(ctx context.Context, step int, patch model.FormData) (*mirror.Snapshot, error) {
	if !model.ValidStep(step) {
		return nil, model.ErrInvalidStep
	}
	snap, err := c.active(ctx)
	if err != nil {
		return nil, err
	}

	snap.CurrentStep = step
	snap.FormData.Merge(patch)
	snap.SavedAt = c.now()
	if err := c.mirror.Save(ctx, *snap); err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.pending == nil || c.pending.sessionID != snap.SessionID {
		c.pending = &pendingSave{sessionID: snap.SessionID}
	}
	c.pending.step = step
	c.pending.patch.Merge(patch)
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.debounce, c.replicate)
	c.mu.Unlock()

	return snap, nil
}

func (c *Client) replicate() {
	ctx, cancel := context.WithTimeout(context.Background(), replicationTimeout)
	defer cancel()
	if err := c.sendPending(ctx); err != nil {
		c.log.Warn().Err(err).Msg("progress replication failed")
	}
}

// Flush sends queued progress now and waits for it.
func (c *Client) Flush(ctx context.Context) error {
	return c.sendPending(ctx)
}

func (c *Client) sendPending(ctx context.Context) error {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	c.mu.Lock()
	p := c.pending
	c.pending = nil
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.mu.Unlock()

	if p == nil {
		return nil
	}
	body := map[string]any{"currentStep": p.step, "formData": p.patch}
	return c.do(ctx, http.MethodPut, "/api/v1/session/"+p.sessionID.String()+"/progress", body, nil)
}

// Submit flushes queued progress, then submits the mirrored form data merged
// with final. The mirror is cleared once the server has decided the outcome.
func (c *Client) Submit(ctx context.Context, final model.FormData, answers []model.MCQAnswer, score model.MCQScore) (*SubmitResult, error) {
	snap, err := c.active(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.Flush(ctx); err != nil {
		c.log.Warn().Err(err).Msg("flush before submit failed, submitting mirrored data")
	}

	formData := snap.FormData.Clone()
	formData.Merge(final)
	if answers == nil {
		answers = []model.MCQAnswer{}
	}
	body := map[string]any{"formData": formData, "mcqAnswers": answers, "mcqScore": score}

	var out SubmitResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/session/"+snap.SessionID.String()+"/submit", body, &out); err != nil {
		return nil, err
	}
	if err := c.mirror.Clear(ctx); err != nil {
		return nil, err
	}
	return &out, nil
}

// FailAssessment locks the session after a failed assessment and marks the
// mirror failed. A nil score is recorded by the server as zero.
func (c *Client) FailAssessment(ctx context.Context, score *model.MCQScore) (*FailResult, error) {
	snap, err := c.active(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.Flush(ctx); err != nil {
		c.log.Warn().Err(err).Msg("flush before fail-assessment failed")
	}

	var body any
	if score != nil {
		body = map[string]any{"mcqScore": score}
	}
	var out FailResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/session/"+snap.SessionID.String()+"/fail-assessment", body, &out); err != nil {
		return nil, err
	}

	snap.Status = out.Status
	snap.SavedAt = c.now()
	if err := c.mirror.Save(ctx, *snap); err != nil {
		return nil, err
	}
	return &out, nil
}

// Acknowledge clears a mirror whose session has ended. An in_progress mirror is kept.
func (c *Client) Acknowledge(ctx context.Context) error {
	snap, err := c.mirror.Load(ctx)
	if errors.Is(err, mirror.ErrEmpty) {
		return nil
	}
	if err != nil {
		return err
	}
	if snap.Status.IsTerminal() {
		return c.mirror.Clear(ctx)
	}
	return nil
}

// Reconcile replaces the mirror with the server's copy of the session. A
// session the server no longer knows is dropped from the mirror.
func (c *Client) Reconcile(ctx context.Context) (*mirror.Snapshot, error) {
	snap, err := c.mirror.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.Flush(ctx); err != nil {
		c.log.Warn().Err(err).Msg("flush before reconcile failed")
	}

	var out struct {
		Session model.ExamSession `json:"session"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/session/"+snap.SessionID.String(), nil, &out); err != nil {
		if IsCode(err, CodeNotFound) {
			if clearErr := c.mirror.Clear(ctx); clearErr != nil {
				return nil, clearErr
			}
		}
		return nil, err
	}

	fresh := mirror.FromSession(&out.Session, c.now())
	if err := c.mirror.Save(ctx, fresh); err != nil {
		return nil, err
	}
	return &fresh, nil
}

// Close stops the debounce timer and sends anything still queued.
func (c *Client) Close(ctx context.Context) error {
	return c.Flush(ctx)
}

func (c *Client) active(ctx context.Context) (*mirror.Snapshot, error) {
	snap, err := c.mirror.Load(ctx)
	if errors.Is(err, mirror.ErrEmpty) {
		return nil, ErrNoActiveSession
	}
	if err != nil {
		return nil, err
	}
	if !snap.Resumable() {
		return nil, ErrNoActiveSession
	}
	return snap, nil
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response (%d): %w", resp.StatusCode, err)
	}
	if env.Error != nil {
		return &APIError{
			StatusCode: resp.StatusCode,
			Code:       env.Error.Code,
			Message:    env.Error.Message,
			Fields:     env.Error.Fields,
			RequestID:  resp.Header.Get("X-Request-ID"),
		}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return &APIError{
			StatusCode: resp.StatusCode,
			Code:       CodeServerError,
			Message:    resp.Status,
			RequestID:  resp.Header.Get("X-Request-ID"),
		}
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode data: %w", err)
		}
	}
	return nil
}
