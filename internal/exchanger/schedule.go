package exchanger

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/web3-frozen/ovn-pools/internal/dedup"
	"github.com/web3-frozen/ovn-pools/internal/metrics"
	"github.com/web3-frozen/ovn-pools/internal/store"
)

// Run syncs all enabled exchangers now and then on every interval tick,
// notifying noteworthy summaries and newly stale pools.
func (s *Syncer) Run(ctx context.Context, interval time.Duration) {
	s.scheduled(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.scheduled(ctx)
		}
	}
}

func (s *Syncer) scheduled(ctx context.Context) {
	sum := s.SyncAll(ctx)
	if ctx.Err() != nil {
		return
	}
	s.notifySummary(ctx, sum)
	if err := s.ReportStale(ctx); err != nil {
		s.logger.Error("stale report failed", "error", err)
	}
}

func (s *Syncer) notifySummary(ctx context.Context, sum Summary) {
	if s.notifier == nil || !sum.Noteworthy() {
		return
	}
	if err := s.notifier.Notify(ctx, sum.Text()); err != nil {
		metrics.AlertsFailedTotal.WithLabelValues("summary").Inc()
		s.logger.Error("send summary", "run_id", sum.RunID, "error", err)
		return
	}
	metrics.AlertsSentTotal.WithLabelValues("summary").Inc()
}

func (s *Syncer) StaleAfter() time.Duration { return s.staleAfter }

// StalePools returns enabled pools not refreshed within the stale window.
func (s *Syncer) StalePools(ctx context.Context) ([]store.Pool, error) {
	return s.store.ListStalePools(ctx, s.now().Add(-s.staleAfter))
}

// ReportStale notifies pools that became stale since the last report and
// re-arms the alert for pools that are fresh again.
func (s *Syncer) ReportStale(ctx context.Context) error {
	if s.notifier == nil || s.dedup == nil {
		return nil
	}
	stale, err := s.StalePools(ctx)
	if err != nil {
		return fmt.Errorf("list stale pools: %w", err)
	}

	current := make(map[string]bool, len(stale))
	var fresh []store.Pool
	for _, p := range stale {
		key := dedup.StaleKey(p.Address)
		current[key] = true
		if s.dedup.AlreadySent(ctx, key) {
			metrics.AlertsDeduplicatedTotal.WithLabelValues("stale").Inc()
			continue
		}
		fresh = append(fresh, p)
	}

	if len(fresh) > 0 {
		if err := s.notifier.Notify(ctx, StaleText(fresh, s.staleAfter)); err != nil {
			metrics.AlertsFailedTotal.WithLabelValues("stale").Inc()
			return fmt.Errorf("send stale report: %w", err)
		}
		metrics.AlertsSentTotal.WithLabelValues("stale").Inc()
		for _, p := range fresh {
			s.dedup.Record(ctx, dedup.StaleKey(p.Address))
		}
	}

	keys, err := s.dedup.Keys(ctx, dedup.StalePattern)
	if err != nil {
		return fmt.Errorf("list stale keys: %w", err)
	}
	for _, k := range keys {
		if !current[k] {
			s.dedup.Clear(ctx, k)
		}
	}
	return nil
}

// StaleText renders stale pools as a Telegram HTML message.
func StaleText(pools []store.Pool, after time.Duration) string {
	var b strings.Builder
	fmt.Fprintf(&b, "⏰ <b>%d pools not updated for %s</b>\n", len(pools), after)
	for _, p := range pools {
		fmt.Fprintf(&b, "• %s %s (%s) <code>%s</code> last %s\n",
			p.Exchanger, html.EscapeString(p.Name), p.Chain, p.Address,
			p.UpdateDate.UTC().Format("2006-01-02 15:04"))
	}
	return b.String()
}
