package adapters

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/web3-frozen/ovn-pools/internal/pool"
)

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

// route is a canned response for one request path.
type route struct {
	status int
	body   string
}

func ok(body string) route { return route{status: http.StatusOK, body: body} }

// newServer serves canned JSON by path; unknown paths return 404.
func newServer(t *testing.T, routes map[string]route) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rt, found := routes[r.URL.Path]
		if !found {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(rt.status)
		_, _ = w.Write([]byte(rt.body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func byAddress(records []pool.Record) map[string]pool.Record {
	out := make(map[string]pool.Record, len(records))
	for _, r := range records {
		out[r.Address] = r
	}
	return out
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertAPR(t *testing.T, r pool.Record, want string) {
	t.Helper()
	if want == "" {
		if r.APR != nil {
			t.Errorf("%s: apr = %s, want null", r.Address, r.APR)
		}
		return
	}
	if r.APR == nil {
		t.Errorf("%s: apr = null, want %s", r.Address, want)
		return
	}
	if !r.APR.Equal(dec(want)) {
		t.Errorf("%s: apr = %s, want %s", r.Address, r.APR, want)
	}
}
