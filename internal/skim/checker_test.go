package skim

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/web3-frozen/ovn-pools/internal/dedup"
	"github.com/web3-frozen/ovn-pools/internal/pool"
	"github.com/web3-frozen/ovn-pools/internal/store"
)

type skimStatus struct {
	enabled bool
	at      time.Time
}

type fakeStore struct {
	pools  []store.Pool
	status map[string]skimStatus
}

func (f *fakeStore) ListPools(_ context.Context, enabledOnly bool) ([]store.Pool, error) {
	var out []store.Pool
	for _, p := range f.pools {
		if !enabledOnly || p.Enabled {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) SetSkimStatus(_ context.Context, address string, enabled bool, at time.Time) error {
	f.status[address] = skimStatus{enabled, at}
	return nil
}

type fakeListeners struct {
	listed map[pool.Chain]map[string]bool
	errs   map[pool.Chain]error
}

func (f *fakeListeners) Chains() []pool.Chain { return []pool.Chain{pool.Arbitrum, pool.Base} }

func (f *fakeListeners) ListedPools(_ context.Context, chain pool.Chain) (map[string]bool, error) {
	if err := f.errs[chain]; err != nil {
		return nil, err
	}
	return f.listed[chain], nil
}

type notifier struct{ messages []string }

func (n *notifier) Notify(_ context.Context, text string) error {
	n.messages = append(n.messages, text)
	return nil
}

type memDedup map[string]bool

func (d memDedup) AlreadySent(_ context.Context, key string) bool { return d[key] }
func (d memDedup) Record(_ context.Context, key string)           { d[key] = true }
func (d memDedup) Clear(_ context.Context, key string)            { delete(d, key) }

func p(addr string, chain pool.Chain, addToSync bool) store.Pool {
	return store.Pool{
		Record:    pool.Record{Address: addr, Name: "USD+/USDC", Chain: chain},
		Exchanger: pool.Ramses,
		Enabled:   true,
		AddToSync: addToSync,
	}
}

func newTestChecker(st *fakeStore, l *fakeListeners, n *notifier, d memDedup) *Checker {
	c := NewChecker(st, l, n, d, slog.New(slog.NewTextHandler(io.Discard, nil)))
	c.now = func() time.Time { return time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC) }
	return c
}

func TestCheck(t *testing.T) {
	st := &fakeStore{
		pools: []store.Pool{
			p("0xlisted", pool.Arbitrum, true),
			p("0xmissing", pool.Arbitrum, true),
			p("0xnotsynced", pool.Arbitrum, false),
			p("0xpolygon", pool.Polygon, true),
		},
		status: make(map[string]skimStatus),
	}
	l := &fakeListeners{listed: map[pool.Chain]map[string]bool{
		pool.Arbitrum: {"0xlisted": true},
		pool.Base:     {},
	}}
	n := &notifier{}
	d := memDedup{dedup.SkimKey("0xlisted"): true}

	report, err := newTestChecker(st, l, n, d).Check(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	missing := report.Missing()
	if len(missing) != 1 || missing[0].Address != "0xmissing" {
		t.Fatalf("missing = %+v", missing)
	}
	if !st.status["0xlisted"].enabled || st.status["0xmissing"].enabled {
		t.Errorf("status = %+v", st.status)
	}
	if _, ok := st.status["0xpolygon"]; ok {
		t.Error("pool on a chain without listener should not be stamped")
	}
	if len(n.messages) != 1 || !strings.Contains(n.messages[0], "0xmissing") {
		t.Errorf("messages = %v", n.messages)
	}
	if d[dedup.SkimKey("0xlisted")] {
		t.Error("listed pool alert should be re-armed")
	}
	if !d[dedup.SkimKey("0xmissing")] {
		t.Error("missing pool alert should be recorded")
	}
}

func TestCheck_Deduplicated(t *testing.T) {
	st := &fakeStore{pools: []store.Pool{p("0xmissing", pool.Base, true)}, status: make(map[string]skimStatus)}
	l := &fakeListeners{listed: map[pool.Chain]map[string]bool{}}
	n := &notifier{}
	c := newTestChecker(st, l, n, memDedup{})

	for i := 0; i < 2; i++ {
		if _, err := c.Check(context.Background()); err != nil {
			t.Fatalf("check %d: %v", i, err)
		}
	}
	if len(n.messages) != 1 {
		t.Errorf("expected one alert, got %d", len(n.messages))
	}
}

func TestCheck_ListenerError(t *testing.T) {
	st := &fakeStore{pools: []store.Pool{p("0xa", pool.Arbitrum, true)}, status: make(map[string]skimStatus)}
	l := &fakeListeners{errs: map[pool.Chain]error{pool.Arbitrum: errors.New("rpc down")}}
	d := memDedup{dedup.SkimKey("0xa"): true}

	report, err := newTestChecker(st, l, &notifier{}, d).Check(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Chains[0].Error == "" {
		t.Error("expected chain error in report")
	}
	if len(st.status) != 0 {
		t.Errorf("no pool should be stamped, got %+v", st.status)
	}
	if !d[dedup.SkimKey("0xa")] {
		t.Error("alert state must survive a failed listener read")
	}
}
