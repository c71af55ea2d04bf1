// Package beacon delivers fire-and-forget notices that must leave the
// process before it exits: the termination flush of an open session and
// the presence leave notice. Send returns as soon as the bytes are handed
// to the network; no response is awaited.
package beacon

import (
	"context"
	"errors"
	"time"
)

// Beacon dispatches a payload without waiting for a response.
type Beacon interface {
	Send(ctx context.Context, path string, payload any) error
	Close() error
}

// DefaultDispatchTimeout bounds how long Send waits for the write.
const DefaultDispatchTimeout = 2 * time.Second

// HeaderBeaconID carries the per-notice id the backend uses to
// de-duplicate.
const HeaderBeaconID = "X-Beacon-Id"

// ErrDispatchTimeout is returned when the notice could not be written
// before the dispatch timeout.
var ErrDispatchTimeout = errors.New("beacon dispatch timed out")

// Nop drops every notice. It is used when no backend is configured.
type Nop struct{}

func (Nop) Send(context.Context, string, any) error { return nil }
func (Nop) Close() error                            { return nil }
