package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string, retries int) *WhatsApp {
	w := NewWhatsApp(WhatsAppConfig{
		URL:        url,
		Token:      "secret",
		From:       "+10000000000",
		Timeout:    time.Second,
		MaxRetries: retries,
	}, zerolog.Nop())
	w.backoff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	return w
}

func TestSend_PostsMessage(t *testing.T) {
	var got message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	err := newTestClient(srv.URL, 0).Send(context.Background(), "+923001234567", "hello")
	require.NoError(t, err)
	assert.Equal(t, message{From: "+10000000000", To: "+923001234567", Body: "hello"}, got)
}

func TestSend_RetriesServerErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := newTestClient(srv.URL, 2).Send(context.Background(), "+1", "hi")
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestSend_GivesUpAfterMaxRetries(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := newTestClient(srv.URL, 2).Send(context.Background(), "+1", "hi")
	assert.ErrorContains(t, err, "503")
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestSend_ClientErrorIsNotRetried(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Error(w, "invalid recipient", http.StatusBadRequest)
	}))
	defer srv.Close()

	err := newTestClient(srv.URL, 3).Send(context.Background(), "bogus", "hi")
	assert.ErrorContains(t, err, "invalid recipient")
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestSend_AttemptTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	w := newTestClient(srv.URL, 0)
	w.cfg.Timeout = 50 * time.Millisecond

	start := time.Now()
	err := w.Send(context.Background(), "+1", "hi")
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestSend_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	w := newTestClient(srv.URL, 0)
	for i := 0; i < 5; i++ {
		assert.Error(t, w.Send(context.Background(), "+1", "hi"))
	}

	err := w.Send(context.Background(), "+1", "hi")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(5), atomic.LoadInt32(&hits))
}

func TestLogGateway(t *testing.T) {
	assert.ErrorIs(t, NewLogGateway(zerolog.Nop()).Send(context.Background(), "+1", "hi"), ErrSkipped)
}

func TestFormatOrderMessage(t *testing.T) {
	msg := FormatOrderMessage(&models.Order{
		ID:            12,
		Status:        models.OrderStatusPending,
		TotalAmount:   decimal.NewFromInt(50),
		PaymentMethod: models.PaymentCashOnDelivery,
		Address:       "12 Mall Road, Lahore",
	})

	assert.Contains(t, msg, "#12")
	assert.Contains(t, msg, "Status: Pending")
	assert.Contains(t, msg, "Total: 50.00")
	assert.Contains(t, msg, "Payment: Cash on Delivery")
	assert.Contains(t, msg, "12 Mall Road, Lahore")
}
