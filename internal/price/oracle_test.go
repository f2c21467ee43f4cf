package price

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"golang.org/x/time/rate"
)

func newTestOracle(srv *httptest.Server) *Oracle {
	return &Oracle{
		client:  srv.Client(),
		baseURL: srv.URL,
		limiter: rate.NewLimiter(rate.Inf, 1),
	}
}

func TestUSDCachedPerSession(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.URL.Query().Get("ids") != "pearl" {
			t.Errorf("ids = %q, want pearl", r.URL.Query().Get("ids"))
		}
		_, _ = w.Write([]byte(`{"pearl":{"usd":0.123456789012345678}}`))
	}))
	defer srv.Close()

	o := newTestOracle(srv)
	ctx := WithSession(context.Background(), NewSession())

	for i := 0; i < 3; i++ {
		p, err := o.USD(ctx, "pearl")
		if err != nil {
			t.Fatalf("USD error: %v", err)
		}
		if p.String() != "0.123456789012345678" {
			t.Errorf("price = %s, want full precision", p)
		}
	}
	if hits != 1 {
		t.Errorf("hits = %d, want 1", hits)
	}

	// A new session starts cold.
	ctx = WithSession(context.Background(), NewSession())
	if _, err := o.USD(ctx, "pearl"); err != nil {
		t.Fatalf("USD error: %v", err)
	}
	if hits != 2 {
		t.Errorf("hits = %d, want 2", hits)
	}
}

func TestUSDWithoutSession(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte(`{"lizard":{"usd":2}}`))
	}))
	defer srv.Close()

	o := newTestOracle(srv)
	for i := 0; i < 2; i++ {
		if _, err := o.USD(context.Background(), "lizard"); err != nil {
			t.Fatalf("USD error: %v", err)
		}
	}
	if hits != 2 {
		t.Errorf("hits = %d, want 2", hits)
	}
}

func TestUSDMissingCoin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	if _, err := newTestOracle(srv).USD(context.Background(), "nope"); err == nil {
		t.Error("expected error for missing coin")
	}
}

func TestUSDBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	if _, err := newTestOracle(srv).USD(context.Background(), "pearl"); err == nil {
		t.Error("expected error for 429")
	}
}
