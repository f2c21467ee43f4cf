package exchanger

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/web3-frozen/ovn-pools/internal/pool"
)

// Result is the outcome of syncing one exchanger.
type Result struct {
	Exchanger pool.ExchangerType `json:"exchanger"`
	Returned  int                `json:"returned"`
	Dropped   int                `json:"dropped"`
	Inserted  int                `json:"inserted"`
	Updated   int                `json:"updated"`
	Skipped   int                `json:"skipped"`
	Failed    int                `json:"failed_writes"`
	Duration  time.Duration      `json:"duration_ns"`
	Error     string             `json:"error,omitempty"`
	ErrorKind string             `json:"error_kind,omitempty"`
}

func (r Result) OK() bool { return r.Error == "" }

// Summary describes one reconciliation run.
type Summary struct {
	RunID    string    `json:"run_id"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`
	Results  []Result  `json:"results"`
	// Error is set when the run could not start at all.
	Error string `json:"error,omitempty"`
}

// Failures returns the results of exchangers that failed.
func (s Summary) Failures() []Result {
	var out []Result
	for _, r := range s.Results {
		if !r.OK() {
			out = append(out, r)
		}
	}
	return out
}

// Totals sums the per-exchanger counters.
func (s Summary) Totals() Result {
	var t Result
	for _, r := range s.Results {
		t.Returned += r.Returned
		t.Dropped += r.Dropped
		t.Inserted += r.Inserted
		t.Updated += r.Updated
		t.Skipped += r.Skipped
		t.Failed += r.Failed
	}
	return t
}

// Noteworthy reports whether the run deserves a notification.
func (s Summary) Noteworthy() bool {
	t := s.Totals()
	return s.Error != "" || len(s.Failures()) > 0 || t.Inserted > 0 || t.Failed > 0
}

// Text renders the summary as a Telegram HTML message.
func (s Summary) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 <b>Pool sync</b> <code>%s</code>\n", shortID(s.RunID))
	if s.Error != "" {
		fmt.Fprintf(&b, "❌ run failed: %s\n", html.EscapeString(s.Error))
		return b.String()
	}

	failures := s.Failures()
	t := s.Totals()
	fmt.Fprintf(&b, "Exchangers: %d ok, %d failed (%s)\n",
		len(s.Results)-len(failures), len(failures), s.Finished.Sub(s.Started).Round(time.Second))
	fmt.Fprintf(&b, "Pools: %d returned, %d new, %d updated, %d skipped, %d dropped\n",
		t.Returned, t.Inserted, t.Updated, t.Skipped, t.Dropped)
	if t.Failed > 0 {
		fmt.Fprintf(&b, "⚠️ %d pool writes failed\n", t.Failed)
	}
	for _, r := range failures {
		fmt.Fprintf(&b, "❌ <b>%s</b>: %s\n", r.Exchanger, html.EscapeString(r.Error))
	}
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
