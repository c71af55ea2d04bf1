package beacon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptrace"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// HTTPConfig configures an HTTPBeacon.
type HTTPConfig struct {
	BaseURL         string
	Token           string
	DispatchTimeout time.Duration
}

// HTTPBeacon posts notices to the backend over HTTP. The request runs on
// its own goroutine, detached from the caller's context, and Send returns
// once the request has been fully written.
type HTTPBeacon struct {
	baseURL string
	token   string
	timeout time.Duration
	http    *http.Client
	log     zerolog.Logger
}

// NewHTTP creates an HTTPBeacon.
func NewHTTP(cfg HTTPConfig, hc *http.Client, log zerolog.Logger) *HTTPBeacon {
	if hc == nil {
		hc = &http.Client{}
	}
	timeout := cfg.DispatchTimeout
	if timeout <= 0 {
		timeout = DefaultDispatchTimeout
	}
	return &HTTPBeacon{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		timeout: timeout,
		http:    hc,
		log:     log,
	}
}

func (b *HTTPBeacon) Send(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal beacon: %w", err)
	}
	id := uuid.NewString()

	// The request must outlive the caller.
	reqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)

	written := make(chan struct{})
	failed := make(chan error, 1)
	var once sync.Once
	trace := &httptrace.ClientTrace{
		WroteRequest: func(info httptrace.WroteRequestInfo) {
			if info.Err != nil {
				select {
				case failed <- info.Err:
				default:
				}
				return
			}
			once.Do(func() { close(written) })
		},
	}

	req, err := http.NewRequestWithContext(httptrace.WithClientTrace(reqCtx, trace),
		http.MethodPost, b.baseURL+path, bytes.NewReader(body))
	if err != nil {
		cancel()
		return fmt.Errorf("create beacon request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderBeaconID, id)
	if b.token != "" {
		req.Header.Set("Authorization", "Bearer "+b.token)
	}

	go func() {
		defer cancel()
		resp, err := b.http.Do(req)
		if err != nil {
			select {
			case failed <- err:
			default:
			}
			return
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		b.log.Debug().Str("path", path).Str("beacon_id", id).Int("status", resp.StatusCode).Msg("beacon delivered")
	}()

	timer := time.NewTimer(b.timeout)
	defer timer.Stop()

	select {
	case <-written:
		b.log.Debug().Str("path", path).Str("beacon_id", id).Msg("beacon dispatched")
		return nil
	case err := <-failed:
		return fmt.Errorf("dispatch beacon %s: %w", path, err)
	case <-timer.C:
		return fmt.Errorf("dispatch beacon %s: %w", path, ErrDispatchTimeout)
	}
}

// Close is a no-op; in-flight requests are left to finish.
func (b *HTTPBeacon) Close() error {
	return nil
}
