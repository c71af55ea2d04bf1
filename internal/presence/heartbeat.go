// Package presence runs the low-frequency presence heartbeat. It samples
// the timer but never blocks it, and every failure is swallowed.
package presence

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/abhisek/focuscycle/internal/backend"
	"github.com/abhisek/focuscycle/internal/beacon"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// Reporter is the part of the backend client the heartbeat needs.
type Reporter interface {
	PresenceOpen(ctx context.Context) error
	PresencePing(ctx context.Context, active bool) error
	ReportTimer(ctx context.Context, req backend.TimerStateRequest) error
}

// Sample is what the heartbeat reports about the timer.
type Sample struct {
	State       string
	SecondsLeft int
	SubjectID   string
}

// Running reports whether the sampled timer is counting down.
func (s Sample) Running() bool {
	return s.State == "focus" || s.State == "break"
}

// SampleFunc reads the current timer state. It must not block.
type SampleFunc func() Sample

// Config configures the heartbeat.
type Config struct {
	Interval         time.Duration
	ActivityCooldown time.Duration
	RequestTimeout   time.Duration
}

// DefaultConfig returns a 60s heartbeat with a 15s activity cooldown.
func DefaultConfig() Config {
	return Config{
		Interval:         60 * time.Second,
		ActivityCooldown: 15 * time.Second,
		RequestTimeout:   5 * time.Second,
	}
}

// Heartbeat pings presence on a fixed period and on coalesced activity.
type Heartbeat struct {
	api    Reporter
	beacon beacon.Beacon
	sample SampleFunc
	clock  clockwork.Clock
	cfg    Config
	log    zerolog.Logger

	activity     chan struct{}
	lastActivity atomic.Int64
	lastPing     time.Time
	failures     atomic.Int64
}

// New creates a Heartbeat. Zero config fields take defaults.
func New(api Reporter, b beacon.Beacon, sample SampleFunc, clock clockwork.Clock, cfg Config, log zerolog.Logger) *Heartbeat {
	def := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.ActivityCooldown <= 0 {
		cfg.ActivityCooldown = def.ActivityCooldown
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = def.RequestTimeout
	}
	if b == nil {
		b = beacon.Nop{}
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Heartbeat{
		api:      api,
		beacon:   b,
		sample:   sample,
		clock:    clock,
		cfg:      cfg,
		log:      log,
		activity: make(chan struct{}, 1),
	}
}

// Run announces presence and then pings until ctx is done.
func (h *Heartbeat) Run(ctx context.Context) {
	h.call(ctx, "open", h.api.PresenceOpen)

	ticker := h.clock.NewTicker(h.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			h.beat(ctx)
		case <-h.activity:
			if h.lastPing.IsZero() || h.clock.Since(h.lastPing) >= h.cfg.ActivityCooldown {
				h.beat(ctx)
			}
		}
	}
}

// MarkActive records a user interaction. Calls are coalesced and never
// block.
func (h *Heartbeat) MarkActive() {
	h.lastActivity.Store(h.clock.Now().UnixNano())
	select {
	case h.activity <- struct{}{}:
	default:
	}
}

// Leave sends the best-effort leave notice through the beacon.
func (h *Heartbeat) Leave(ctx context.Context) {
	if err := h.beacon.Send(ctx, backend.PathPresenceLeave, struct{}{}); err != nil {
		h.failures.Add(1)
		h.log.Debug().Err(err).Msg("presence leave not sent")
	}
}

// Failures returns how many presence calls failed.
func (h *Heartbeat) Failures() int64 {
	return h.failures.Load()
}

func (h *Heartbeat) beat(ctx context.Context) {
	h.lastPing = h.clock.Now()
	s := h.sample()

	active := s.Running()
	if last := h.lastActivity.Load(); last > 0 {
		active = active || h.clock.Since(time.Unix(0, last)) < h.cfg.Interval
	}

	h.call(ctx, "ping", func(ctx context.Context) error {
		return h.api.PresencePing(ctx, active)
	})
	h.call(ctx, "timer", func(ctx context.Context) error {
		return h.api.ReportTimer(ctx, backend.TimerStateRequest{
			State:       s.State,
			SecondsLeft: s.SecondsLeft,
			SubjectID:   s.SubjectID,
		})
	})
}

func (h *Heartbeat) call(ctx context.Context, what string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(ctx, h.cfg.RequestTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		h.failures.Add(1)
		h.log.Debug().Err(err).Str("call", what).Msg("presence call failed")
	}
}
