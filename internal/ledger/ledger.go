// Package ledger opens and commits study sessions against the backend and
// guarantees a session id is committed at most once by this process.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/abhisek/focuscycle/internal/backend"
	"github.com/abhisek/focuscycle/internal/beacon"
	"github.com/rs/zerolog"
)

// ErrAlreadyClosed is returned when a session id was already committed.
var ErrAlreadyClosed = errors.New("session already closed")

// Backend is the part of the backend client the ledger needs.
type Backend interface {
	StartSession(ctx context.Context, subjectID string) (backend.StartResponse, error)
	EndSession(ctx context.Context, req backend.EndRequest) (backend.EndResponse, error)
}

// Ledger opens and closes sessions.
type Ledger interface {
	OpenSession(ctx context.Context, subjectID string) (string, error)
	CloseSession(ctx context.Context, req CloseRequest) (Reward, error)
	Flush(ctx context.Context, req CloseRequest) error
}

// CloseRequest commits one session.
type CloseRequest struct {
	SessionID string
	SubjectID string
	Minutes   int
	Skipped   bool
}

// Reward is what the backend granted for a close.
type Reward struct {
	Coins int
	XP    int
}

// Client is the Ledger backed by the HTTP client and a beacon.
type Client struct {
	api    Backend
	beacon beacon.Beacon
	log    zerolog.Logger

	mu     sync.Mutex
	closed map[string]bool
}

// New creates a ledger Client.
func New(api Backend, b beacon.Beacon, log zerolog.Logger) *Client {
	if b == nil {
		b = beacon.Nop{}
	}
	return &Client{api: api, beacon: b, log: log, closed: make(map[string]bool)}
}

// OpenSession asks the backend for a new session id.
func (c *Client) OpenSession(ctx context.Context, subjectID string) (string, error) {
	resp, err := c.api.StartSession(ctx, subjectID)
	if err != nil {
		c.log.Warn().Err(err).Str("subject_id", subjectID).Msg("open session failed")
		return "", err
	}
	c.log.Debug().Str("session_id", resp.ID).Str("subject_id", subjectID).Msg("session opened")
	return resp.ID, nil
}

// CloseSession commits a session and returns the reward. A failed call
// releases the id so a later flush or recovery may commit it.
func (c *Client) CloseSession(ctx context.Context, req CloseRequest) (Reward, error) {
	if err := c.claim(req.SessionID); err != nil {
		return Reward{}, err
	}

	resp, err := c.api.EndSession(ctx, endRequest(req))
	if err != nil {
		c.release(req.SessionID)
		c.log.Warn().Err(err).Str("session_id", req.SessionID).Msg("close session failed")
		return Reward{}, err
	}

	c.log.Debug().
		Str("session_id", req.SessionID).
		Int("minutes", req.Minutes).
		Bool("skipped", req.Skipped).
		Int("coins", resp.CoinsEarned).
		Int("xp", resp.XPEarned).
		Msg("session closed")
	return Reward{Coins: resp.CoinsEarned, XP: resp.XPEarned}, nil
}

// Flush commits a session through the fire-and-forget transport. No
// response is read; the backend de-duplicates repeated ids.
func (c *Client) Flush(ctx context.Context, req CloseRequest) error {
	if err := c.claim(req.SessionID); err != nil {
		return err
	}
	if err := c.beacon.Send(ctx, backend.PathStudyEnd, endRequest(req)); err != nil {
		return fmt.Errorf("flush session %s: %w", req.SessionID, err)
	}
	c.log.Info().Str("session_id", req.SessionID).Int("minutes", req.Minutes).Msg("session flushed")
	return nil
}

// Closed reports whether id has been committed by this client.
func (c *Client) Closed(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed[id]
}

func (c *Client) claim(id string) error {
	if id == "" {
		return errors.New("close session: empty session id")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed[id] {
		return fmt.Errorf("close session %s: %w", id, ErrAlreadyClosed)
	}
	c.closed[id] = true
	return nil
}

func (c *Client) release(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.closed, id)
}

func endRequest(req CloseRequest) backend.EndRequest {
	return backend.EndRequest{
		SessionID: req.SessionID,
		SubjectID: req.SubjectID,
		Duration:  max(0, req.Minutes),
		Skipped:   req.Skipped,
	}
}
