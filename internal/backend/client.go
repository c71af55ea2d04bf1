// Package backend is the HTTP/JSON client for the study backend: session
// lifecycle, stats, settings, quests and presence.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// maxErrorBody caps how much of an error response is kept.
const maxErrorBody = 512

// Config configures a Client.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	Retry   RetryConfig
}

// Client talks to the backend. It is safe for concurrent use.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	retry   RetryConfig
	clock   clockwork.Clock
	log     zerolog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithClock sets the clock used for retry backoff.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Client) { c.clock = clock }
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New creates a Client.
func New(cfg Config, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		http:    &http.Client{Timeout: timeout},
		retry:   cfg.Retry,
		clock:   clockwork.NewRealClock(),
		log:     zerolog.Nop(),
	}
	if c.retry.MaxAttempts == 0 {
		c.retry = DefaultRetryConfig()
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Token returns the bearer token.
func (c *Client) Token() string {
	return c.token
}

// StartSession opens a study session for subjectID.
func (c *Client) StartSession(ctx context.Context, subjectID string) (StartResponse, error) {
	var out StartResponse
	err := c.do(ctx, http.MethodPost, PathStudyStart, StartRequest{SubjectID: subjectID}, startSchema, &out)
	if err != nil {
		return StartResponse{}, fmt.Errorf("start session: %w", err)
	}
	return out, nil
}

// EndSession commits a study session.
func (c *Client) EndSession(ctx context.Context, req EndRequest) (EndResponse, error) {
	var out EndResponse
	if err := c.do(ctx, http.MethodPost, PathStudyEnd, req, endSchema, &out); err != nil {
		return EndResponse{}, fmt.Errorf("end session %s: %w", req.SessionID, err)
	}
	return out, nil
}

// Stats fetches the authoritative stats snapshot.
func (c *Client) Stats(ctx context.Context) (Stats, error) {
	out, err := retry(ctx, c.clock, c.retry, func(ctx context.Context) (Stats, error) {
		var s Stats
		err := c.do(ctx, http.MethodGet, PathStats, nil, statsSchema, &s)
		return s, err
	})
	if err != nil {
		return Stats{}, fmt.Errorf("fetch stats: %w", err)
	}
	return out, nil
}

// Settings fetches the timer settings.
func (c *Client) Settings(ctx context.Context) (Settings, error) {
	out, err := retry(ctx, c.clock, c.retry, func(ctx context.Context) (Settings, error) {
		var s Settings
		err := c.do(ctx, http.MethodGet, PathSettings, nil, settingsSchema, &s)
		return s, err
	})
	if err != nil {
		return Settings{}, fmt.Errorf("fetch settings: %w", err)
	}
	return out, nil
}

// Subjects lists the user's subjects.
func (c *Client) Subjects(ctx context.Context) ([]Subject, error) {
	out, err := retry(ctx, c.clock, c.retry, func(ctx context.Context) ([]Subject, error) {
		var s []Subject
		err := c.do(ctx, http.MethodGet, PathSubjects, nil, nil, &s)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("fetch subjects: %w", err)
	}
	return out, nil
}

// Quests lists backend-provided quests.
func (c *Client) Quests(ctx context.Context) ([]Quest, error) {
	out, err := retry(ctx, c.clock, c.retry, func(ctx context.Context) ([]Quest, error) {
		var q []Quest
		err := c.do(ctx, http.MethodGet, PathQuests, nil, nil, &q)
		return q, err
	})
	if err != nil {
		return nil, fmt.Errorf("fetch quests: %w", err)
	}
	return out, nil
}

// PresenceOpen announces that the client is online.
func (c *Client) PresenceOpen(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, PathPresenceOpen, struct{}{}, nil, nil)
}

// PresencePing reports whether the user is active.
func (c *Client) PresencePing(ctx context.Context, active bool) error {
	return c.do(ctx, http.MethodPost, PathPresencePing, PingRequest{Active: active}, nil, nil)
}

// PresenceLeave announces that the client is going away. On shutdown the
// beacon path should be preferred.
func (c *Client) PresenceLeave(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, PathPresenceLeave, struct{}{}, nil, nil)
}

// ReportTimer publishes the timer state for other users.
func (c *Client) ReportTimer(ctx context.Context, req TimerStateRequest) error {
	return c.do(ctx, http.MethodPost, PathTimerState, req, nil, nil)
}

// LevelBonus posts a milestone bonus.
func (c *Client) LevelBonus(ctx context.Context, req LevelBonusRequest) error {
	return c.do(ctx, http.MethodPost, PathLevelBonus, req, nil, nil)
}

// do performs one request. A nil out discards the response body.
func (c *Client) do(ctx context.Context, method, path string, in any, schema *Schema, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug().Str("method", method).Str("path", path).Err(err).Msg("backend request failed")
		if errors.Is(err, context.Canceled) {
			return err
		}
		return &ErrUnavailable{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ErrUnavailable{Err: fmt.Errorf("read response body: %w", err)}
	}

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("backend request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode, Body: truncate(string(raw), maxErrorBody)}
		if resp.StatusCode >= 500 {
			return &ErrUnavailable{Err: apiErr}
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := validateBody(schema, raw); err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &ErrInvalidResponse{Body: raw, Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
