package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/abhisek/focuscycle/internal/app"
	"github.com/abhisek/focuscycle/internal/backend"
	"github.com/abhisek/focuscycle/internal/beacon"
	"github.com/abhisek/focuscycle/internal/config"
	"github.com/abhisek/focuscycle/internal/engine"
	"github.com/abhisek/focuscycle/internal/ledger"
	"github.com/abhisek/focuscycle/internal/presence"
	"github.com/abhisek/focuscycle/internal/timer"
)

// terminateTimeout bounds the exit path: flush, leave, close.
const terminateTimeout = 5 * time.Second

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the focus timer (default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
}

// runApp wires the backend, ledger, engine and heartbeat, runs the TUI and
// performs the termination flush once it exits.
func runApp(cmd *cobra.Command) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.Close()
	cfg, log := e.cfg, e.log

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	clock := clockwork.NewRealClock()
	client := backend.New(backend.Config{
		BaseURL: cfg.Backend.URL,
		Token:   cfg.Backend.Token,
		Timeout: cfg.Backend.Timeout,
	}, backend.WithClock(clock), backend.WithLogger(log.With().Str("component", "backend").Logger()))

	b := newBeacon(cfg, log)
	defer b.Close()

	var hb *presence.Heartbeat
	eng := engine.New(engine.Deps{
		Ledger:    ledger.New(client, b, log.With().Str("component", "ledger").Logger()),
		API:       client,
		Journal:   e.store.SessionJournal(),
		Events:    e.store.EventRepo(),
		Snapshots: e.store.SnapshotRepo(),
		Clock:     clock,
		Durations: timer.Durations{
			FocusMinutes: cfg.Timer.FocusMinutes,
			BreakMinutes: cfg.Timer.BreakMinutes,
		},
		Log: log,
		OnActivity: func() {
			if hb != nil {
				hb.MarkActive()
			}
		},
		RequestTimeout: cfg.Backend.Timeout,
	})
	hb = presence.New(client, b, eng.Sample, clock, presence.Config{
		Interval:         cfg.Presence.Interval,
		ActivityCooldown: cfg.Presence.ActivityCooldown,
	}, log.With().Str("component", "presence").Logger())

	hbCtx, stopHeartbeat := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		hb.Run(hbCtx)
	}()

	runErr := app.Run(ctx, app.Options{Engine: eng, EventRepo: e.store.EventRepo()})
	stopHeartbeat()
	<-done

	// The signal context may already be cancelled; the exit path gets its own.
	exitCtx, cancel := context.WithTimeout(context.Background(), terminateTimeout)
	defer cancel()
	if err := eng.Terminate(exitCtx); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Open session not flushed; it will be closed on next start:", err)
	}
	hb.Leave(exitCtx)
	log.Info().Int64("presence_failures", hb.Failures()).Msg("exited")

	return runErr
}

// newBeacon picks the exit-time transport. An unreachable NATS server
// falls back to HTTP so the timer still runs.
func newBeacon(cfg config.Config, log zerolog.Logger) beacon.Beacon {
	log = log.With().Str("component", "beacon").Logger()
	if cfg.Beacon.Transport == "nats" {
		nc := beacon.DefaultNATSConfig()
		nc.URL = cfg.Beacon.NATSURL
		nc.Token = cfg.Backend.Token
		if cfg.Beacon.SubjectPrefix != "" {
			nc.SubjectPrefix = cfg.Beacon.SubjectPrefix
		}
		if cfg.Beacon.DispatchTimeout > 0 {
			nc.DispatchTimeout = cfg.Beacon.DispatchTimeout
		}
		b, err := beacon.DialNATS(nc, log)
		if err == nil {
			return b
		}
		log.Warn().Err(err).Str("url", nc.URL).Msg("nats unreachable, falling back to http beacon")
	}
	return beacon.NewHTTP(beacon.HTTPConfig{
		BaseURL:         cfg.Backend.URL,
		Token:           cfg.Backend.Token,
		DispatchTimeout: cfg.Beacon.DispatchTimeout,
	}, &http.Client{}, log)
}
