package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/web3-frozen/ovn-pools/internal/exchanger"
	"github.com/web3-frozen/ovn-pools/internal/pool"
	"github.com/web3-frozen/ovn-pools/internal/store"
)

// fakeTelegram records sendMessage calls.
type fakeTelegram struct {
	mu   sync.Mutex
	sent []map[string]any
}

func (f *fakeTelegram) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/sendMessage") {
			http.NotFound(w, r)
			return
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		f.mu.Lock()
		f.sent = append(f.sent, body)
		f.mu.Unlock()
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
}

func (f *fakeTelegram) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, m := range f.sent {
		out = append(out, fmt.Sprint(m["text"]))
	}
	return out
}

type fakeSyncer struct {
	summary   *exchanger.Summary
	stale     []store.Pool
	disabled  map[pool.ExchangerType]bool
	triggered [][]pool.ExchangerType
}

func (f *fakeSyncer) LastSummary() (exchanger.Summary, bool) {
	if f.summary == nil {
		return exchanger.Summary{}, false
	}
	return *f.summary, true
}

func (f *fakeSyncer) StalePools(context.Context) ([]store.Pool, error) { return f.stale, nil }
func (f *fakeSyncer) StaleAfter() time.Duration                        { return 6 * time.Hour }

func (f *fakeSyncer) Resolve(_ context.Context, t pool.ExchangerType) error {
	if f.disabled[t] {
		return fmt.Errorf("%s: %w", t, exchanger.ErrExchangerDisabled)
	}
	return nil
}

func (f *fakeSyncer) Trigger(_ context.Context, types ...pool.ExchangerType) string {
	f.triggered = append(f.triggered, types)
	return "run-1"
}

func newTestBot(t *testing.T) (*Bot, *fakeTelegram) {
	t.Helper()
	tg := &fakeTelegram{}
	srv := httptest.NewServer(tg.handler(t))
	t.Cleanup(srv.Close)
	b := NewBot("TOKEN", 42, slog.New(slog.NewTextHandler(io.Discard, nil)))
	b.apiURL = srv.URL + "/bot"
	return b, tg
}

func TestNotify(t *testing.T) {
	b, tg := newTestBot(t)
	if err := b.Notify(context.Background(), "hello <b>ops</b>"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(tg.sent) != 1 {
		t.Fatalf("sent = %v", tg.sent)
	}
	msg := tg.sent[0]
	if msg["chat_id"] != float64(42) || msg["parse_mode"] != "HTML" || msg["text"] != "hello <b>ops</b>" {
		t.Errorf("payload = %v", msg)
	}
}

func TestNotify_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"description":"chat not found"}`))
	}))
	defer srv.Close()
	b := NewBot("TOKEN", 1, slog.New(slog.NewTextHandler(io.Discard, nil)))
	b.apiURL = srv.URL + "/bot"

	err := b.Notify(context.Background(), "x")
	if err == nil || !strings.Contains(err.Error(), "chat not found") {
		t.Errorf("err = %v", err)
	}
}

func TestCommands(t *testing.T) {
	tests := []struct {
		name          string
		text          string
		want          string
		wantTriggered []pool.ExchangerType
		triggered     bool
	}{
		{name: "help", text: "/help", want: "/sync all"},
		{name: "status", text: "/status", want: "Pool sync"},
		{name: "stale", text: "/stale", want: "0xold"},
		{name: "sync all", text: "/sync all", want: "Syncing all exchangers", triggered: true},
		{name: "sync one", text: "/sync@ovn_pools_bot velodrome", want: "Syncing VELODROME", triggered: true, wantTriggered: []pool.ExchangerType{pool.Velodrome}},
		{name: "sync disabled", text: "/sync lynex", want: "LYNEX is disabled"},
		{name: "sync unknown", text: "/sync quickswap", want: "Unknown exchanger"},
		{name: "sync unknown escaped", text: "/sync <b>x", want: `Unknown exchanger "&lt;b&gt;x"`},
		{name: "unknown", text: "/foo", want: "Unknown command"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, tg := newTestBot(t)
			s := &fakeSyncer{
				summary:  &exchanger.Summary{RunID: "abc"},
				stale:    []store.Pool{{Record: pool.Record{Address: "0xold", Name: "USD+/USDC", Chain: pool.Base}}},
				disabled: map[pool.ExchangerType]bool{pool.Lynex: true},
			}
			b.SetSyncer(s)

			b.handle(context.Background(), tt.text)

			texts := tg.texts()
			if len(texts) != 1 || !strings.Contains(texts[0], tt.want) {
				t.Fatalf("replies = %v, want one containing %q", texts, tt.want)
			}
			if tt.triggered != (len(s.triggered) == 1) {
				t.Fatalf("triggered = %v", s.triggered)
			}
			if tt.wantTriggered != nil && (len(s.triggered[0]) != 1 || s.triggered[0][0] != tt.wantTriggered[0]) {
				t.Errorf("triggered = %v, want %v", s.triggered, tt.wantTriggered)
			}
		})
	}
}

func TestPoll_IgnoresOtherChats(t *testing.T) {
	tg := &fakeTelegram{}
	mux := http.NewServeMux()
	mux.Handle("/botTOKEN/sendMessage", tg.handler(t))
	mux.HandleFunc("/botTOKEN/getUpdates", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true,"result":[
			{"update_id":7,"message":{"chat":{"id":999},"text":"/sync all"}},
			{"update_id":8,"message":{"chat":{"id":42},"text":"/help"}}
		]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	b := NewBot("TOKEN", 42, slog.New(slog.NewTextHandler(io.Discard, nil)))
	b.apiURL = srv.URL + "/bot"
	s := &fakeSyncer{}
	b.SetSyncer(s)

	b.poll(context.Background())

	if b.offset != 9 {
		t.Errorf("offset = %d, want 9", b.offset)
	}
	if len(s.triggered) != 0 {
		t.Error("command from a foreign chat must be ignored")
	}
	if texts := tg.texts(); len(texts) != 1 || !strings.Contains(texts[0], "OVN Pools Bot") {
		t.Errorf("replies = %v", texts)
	}
}
