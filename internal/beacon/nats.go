package beacon

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// NATSConfig configures a NATSBeacon.
type NATSConfig struct {
	URL             string
	SubjectPrefix   string
	Token           string
	DispatchTimeout time.Duration
	MaxReconnects   int
	ReconnectWait   time.Duration
}

// DefaultNATSConfig returns the defaults for the NATS transport.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:             nats.DefaultURL,
		SubjectPrefix:   "focuscycle.beacon",
		DispatchTimeout: DefaultDispatchTimeout,
		MaxReconnects:   5,
		ReconnectWait:   time.Second,
	}
}

// Envelope is the message published for each notice.
type Envelope struct {
	BeaconID string          `json:"beacon_id"`
	Path     string          `json:"path"`
	Token    string          `json:"token,omitempty"`
	SentAt   time.Time       `json:"sent_at"`
	Payload  json.RawMessage `json:"payload"`
}

// NATSBeacon publishes notices to NATS and flushes before returning, so
// the bytes have reached the server when Send succeeds.
type NATSBeacon struct {
	nc     *nats.Conn
	config NATSConfig
	log    zerolog.Logger
}

// DialNATS connects to NATS and returns a beacon on that connection.
func DialNATS(cfg NATSConfig, log zerolog.Logger) (*NATSBeacon, error) {
	opts := []nats.Option{
		nats.Name("focuscycle"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return NewNATS(nc, cfg, log), nil
}

// NewNATS wraps an existing connection.
func NewNATS(nc *nats.Conn, cfg NATSConfig, log zerolog.Logger) *NATSBeacon {
	if cfg.DispatchTimeout <= 0 {
		cfg.DispatchTimeout = DefaultDispatchTimeout
	}
	if cfg.SubjectPrefix == "" {
		cfg.SubjectPrefix = DefaultNATSConfig().SubjectPrefix
	}
	return &NATSBeacon{nc: nc, config: cfg, log: log}
}

// Subject maps a backend path to a NATS subject under the prefix,
// e.g. "/presence/leave" becomes "<prefix>.presence.leave".
func (b *NATSBeacon) Subject(path string) string {
	parts := strings.FieldsFunc(path, func(r rune) bool { return r == '/' })
	return strings.Join(append([]string{b.config.SubjectPrefix}, parts...), ".")
}

func (b *NATSBeacon) Send(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal beacon: %w", err)
	}

	env := Envelope{
		BeaconID: uuid.NewString(),
		Path:     path,
		Token:    b.config.Token,
		SentAt:   time.Now().UTC(),
		Payload:  body,
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	subject := b.Subject(path)
	msg := &nats.Msg{
		Subject: subject,
		Data:    data,
		Header:  nats.Header{HeaderBeaconID: []string{env.BeaconID}},
	}
	if err := b.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish beacon: %w", err)
	}
	if err := b.nc.FlushTimeout(b.config.DispatchTimeout); err != nil {
		return fmt.Errorf("flush beacon: %w", err)
	}

	b.log.Debug().Str("subject", subject).Str("beacon_id", env.BeaconID).Msg("beacon published")
	return nil
}

// Close drains and closes the connection.
func (b *NATSBeacon) Close() error {
	if b.nc == nil {
		return nil
	}
	if err := b.nc.Drain(); err != nil {
		b.nc.Close()
		return fmt.Errorf("drain NATS: %w", err)
	}
	return nil
}
