// Package clock provides the cancellable 1 Hz tick source that drives the
// focus timer.
package clock

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultPeriod is the tick period of the focus timer.
const DefaultPeriod = time.Second

// Source hands out tickers. In production, use clockwork.NewRealClock().
// In tests, a FakeClock.
type Source struct {
	clock  clockwork.Clock
	period time.Duration
	gen    atomic.Uint64
}

// NewSource creates a Source ticking at DefaultPeriod.
func NewSource(c clockwork.Clock) *Source {
	return NewSourceWithPeriod(c, DefaultPeriod)
}

// NewSourceWithPeriod creates a Source with a custom tick period.
func NewSourceWithPeriod(c clockwork.Clock, period time.Duration) *Source {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	if period <= 0 {
		period = DefaultPeriod
	}
	return &Source{clock: c, period: period}
}

// Now returns the current time of the underlying clock.
func (s *Source) Now() time.Time {
	return s.clock.Now()
}

// Clock returns the underlying clock.
func (s *Source) Clock() clockwork.Clock {
	return s.clock
}

// Start creates a running ticker. Every ticker gets a fresh generation
// number; a tick carrying an older generation belongs to a ticker that
// has been replaced.
func (s *Source) Start() *Ticker {
	return &Ticker{
		ticker: s.clock.NewTicker(s.period),
		done:   make(chan struct{}),
		gen:    s.gen.Add(1),
	}
}

// Current returns the generation of the most recently started ticker.
func (s *Source) Current() uint64 {
	return s.gen.Load()
}

// Ticker is a single cancellable run of the tick source.
type Ticker struct {
	ticker clockwork.Ticker
	done   chan struct{}
	once   sync.Once
	gen    uint64
}

// Generation identifies this ticker run.
func (t *Ticker) Generation() uint64 {
	return t.gen
}

// Wait blocks until the next tick or until the ticker is stopped.
// It returns false once stopped, even if a tick was pending.
func (t *Ticker) Wait() (time.Time, bool) {
	select {
	case <-t.done:
		return time.Time{}, false
	default:
	}

	select {
	case at := <-t.ticker.Chan():
		select {
		case <-t.done:
			return time.Time{}, false
		default:
		}
		return at, true
	case <-t.done:
		return time.Time{}, false
	}
}

// Stop cancels the ticker and releases any goroutine blocked in Wait.
// Safe to call more than once.
func (t *Ticker) Stop() {
	t.once.Do(func() {
		t.ticker.Stop()
		close(t.done)
	})
}

// Stopped reports whether Stop has been called.
func (t *Ticker) Stopped() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}
