package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/SectionPortal/backend/internal/infrastructure/resilience"
)

func TestGetBytes(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/ok":
			_, _ = w.Write([]byte(`{"title":"ok"}`))
		case "/missing":
			http.NotFound(w, r)
		case "/big":
			_, _ = w.Write([]byte(strings.Repeat("x", 64)))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.MaxBodyBytes = 32
	client := New(cfg)
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		body, err := client.GetBytes(ctx, srv.URL+"/ok")
		require.NoError(t, err)
		assert.JSONEq(t, `{"title":"ok"}`, string(body))
	})

	t.Run("not found", func(t *testing.T) {
		_, err := client.GetBytes(ctx, srv.URL+"/missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("server error is attempted once", func(t *testing.T) {
		before := hits.Load()
		_, err := client.GetBytes(ctx, srv.URL+"/boom")
		assert.ErrorIs(t, err, ErrUnexpectedStatus)
		assert.Equal(t, before+1, hits.Load(), "no retries")
	})

	t.Run("body limit", func(t *testing.T) {
		_, err := client.GetBytes(ctx, srv.URL+"/big")
		assert.ErrorIs(t, err, ErrBodyTooLarge)
	})
}

func TestBreakerOpensOnServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	var transitions []string
	cfg := DefaultConfig()
	cfg.OnBreakerChange = func(name string, from, to resilience.State) {
		transitions = append(transitions, from.String()+"->"+to.String())
	}
	client := New(cfg)

	for i := 0; i < 5; i++ {
		_, _ = client.GetBytes(context.Background(), srv.URL)
	}

	assert.Equal(t, resilience.StateOpen, client.BreakerState())
	assert.Contains(t, transitions, "closed->open")

	_, err := client.GetBytes(context.Background(), srv.URL)
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
}

func TestNotFoundDoesNotTrip(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	client := New(DefaultConfig())
	for i := 0; i < 10; i++ {
		_, _ = client.GetBytes(context.Background(), srv.URL)
	}

	assert.Equal(t, resilience.StateClosed, client.BreakerState())
	assert.Equal(t, uint32(10), client.BreakerCounts().TotalSuccesses)
}

func TestCancelledContext(t *testing.T) {
	client := New(DefaultConfig())
	client.SetRateLimit(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.GetBytes(ctx, "http://127.0.0.1:1/never")
	assert.ErrorIs(t, err, context.Canceled)
}
