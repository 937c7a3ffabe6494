// Package notification sends customer messages through the WhatsApp gateway.
package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

var (
	// ErrUnavailable is returned while the circuit breaker is open.
	ErrUnavailable = errors.New("notification gateway unavailable")
	// ErrSkipped reports that no message was sent because no gateway is configured.
	ErrSkipped = errors.New("notification skipped")
)

type Gateway interface {
	Send(ctx context.Context, to, body string) error
}

type WhatsAppConfig struct {
	URL        string
	Token      string
	From       string
	Timeout    time.Duration // per attempt
	MaxRetries int
}

// WhatsApp posts messages to an HTTP messaging API. Network errors and 5xx
// answers are retried with exponential backoff; 4xx answers are not.
type WhatsApp struct {
	cfg     WhatsAppConfig
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[struct{}]
	backoff func() backoff.BackOff
	log     zerolog.Logger
}

type message struct {
	From string `json:"from"`
	To   string `json:"to"`
	Body string `json:"body"`
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("gateway responded %d: %s", e.code, e.body)
}

func NewWhatsApp(cfg WhatsAppConfig, log zerolog.Logger) *WhatsApp {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	log = log.With().Str("component", "whatsapp").Logger()

	breaker := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:    "whatsapp",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})

	return &WhatsApp{
		cfg:     cfg,
		client:  &http.Client{},
		breaker: breaker,
		backoff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			b.MaxInterval = 2 * time.Second
			return b
		},
		log: log,
	}
}

func (w *WhatsApp) Send(ctx context.Context, to, body string) error {
	_, err := w.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, w.sendWithRetry(ctx, to, body)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}

func (w *WhatsApp) sendWithRetry(ctx context.Context, to, body string) error {
	payload, err := json.Marshal(message{From: w.cfg.From, To: to, Body: body})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	attempt := 0
	op := func() error {
		attempt++
		err := w.post(ctx, payload)
		if err == nil {
			return nil
		}

		var se *statusError
		if errors.As(err, &se) && se.code < http.StatusInternalServerError {
			return backoff.Permanent(err)
		}
		w.log.Debug().Err(err).Int("attempt", attempt).Msg("whatsapp send attempt failed")
		return err
	}

	b := backoff.WithContext(backoff.WithMaxRetries(w.backoff(), uint64(w.cfg.MaxRetries)), ctx)
	return backoff.Retry(op, b)
}

func (w *WhatsApp) post(ctx context.Context, payload []byte) error {
	ctx, cancel := context.WithTimeout(ctx, w.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if w.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+w.cfg.Token)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &statusError{code: resp.StatusCode, body: string(bytes.TrimSpace(b))}
	}
	return nil
}

// LogGateway writes messages to the log instead of sending them and answers
// ErrSkipped. It is used when no gateway URL is configured.
type LogGateway struct {
	log zerolog.Logger
}

func NewLogGateway(log zerolog.Logger) *LogGateway {
	return &LogGateway{log: log.With().Str("component", "notification").Logger()}
}

func (g *LogGateway) Send(_ context.Context, to, body string) error {
	g.log.Info().Str("to", to).Str("body", body).Msg("notification not sent, no gateway configured")
	return ErrSkipped
}
