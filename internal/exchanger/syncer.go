package exchanger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/web3-frozen/ovn-pools/internal/metrics"
	"github.com/web3-frozen/ovn-pools/internal/pool"
	"github.com/web3-frozen/ovn-pools/internal/price"
	"github.com/web3-frozen/ovn-pools/internal/store"
)

var (
	ErrUnknownExchanger  = errors.New("unknown exchanger")
	ErrExchangerDisabled = errors.New("exchanger disabled")
)

// PoolStore is the persistence the syncer reconciles into.
type PoolStore interface {
	ListExchangers(ctx context.Context) ([]store.Exchanger, error)
	UpsertPool(ctx context.Context, ex pool.ExchangerType, r pool.Record, at time.Time) (store.MergeOp, error)
	ListStalePools(ctx context.Context, before time.Time) ([]store.Pool, error)
}

// Notifier delivers operator messages (Telegram in production).
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Deduper remembers which alerts were already delivered.
type Deduper interface {
	AlreadySent(ctx context.Context, key string) bool
	Record(ctx context.Context, key string)
	Clear(ctx context.Context, key string)
	Keys(ctx context.Context, pattern string) ([]string, error)
}

// Syncer is the reconciliation service: it runs adapters and merges their
// records into the store by pool address.
type Syncer struct {
	registry   *Registry
	store      PoolStore
	notifier   Notifier
	dedup      Deduper
	logger     *slog.Logger
	workers    int
	timeout    time.Duration
	staleAfter time.Duration
	now        func() time.Time

	mu   sync.RWMutex
	last *Summary
}

type Option func(*Syncer)

func WithNotifier(n Notifier) Option { return func(s *Syncer) { s.notifier = n } }
func WithDedup(d Deduper) Option     { return func(s *Syncer) { s.dedup = d } }

// WithWorkers bounds how many adapters run at once.
func WithWorkers(n int) Option {
	return func(s *Syncer) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithTimeout bounds a single adapter call.
func WithTimeout(d time.Duration) Option {
	return func(s *Syncer) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithStaleAfter(d time.Duration) Option {
	return func(s *Syncer) {
		if d > 0 {
			s.staleAfter = d
		}
	}
}

func withClock(now func() time.Time) Option { return func(s *Syncer) { s.now = now } }

func NewSyncer(reg *Registry, st PoolStore, logger *slog.Logger, opts ...Option) *Syncer {
	s := &Syncer{
		registry:   reg,
		store:      st,
		logger:     logger,
		workers:    3,
		timeout:    2 * time.Minute,
		staleAfter: 6 * time.Hour,
		now:        time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// LastSummary returns the most recent finished run, if any.
func (s *Syncer) LastSummary() (Summary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return Summary{}, false
	}
	return *s.last, true
}

// Enabled returns the exchanger types enabled in the store.
func (s *Syncer) Enabled(ctx context.Context) ([]pool.ExchangerType, error) {
	rows, err := s.store.ListExchangers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list exchangers: %w", err)
	}
	var out []pool.ExchangerType
	for _, e := range rows {
		if e.Enabled {
			out = append(out, e.Type)
		}
	}
	return out, nil
}

// Resolve checks that t exists and is enabled in the store.
func (s *Syncer) Resolve(ctx context.Context, t pool.ExchangerType) error {
	rows, err := s.store.ListExchangers(ctx)
	if err != nil {
		return fmt.Errorf("list exchangers: %w", err)
	}
	for _, e := range rows {
		if e.Type == t {
			if !e.Enabled {
				return fmt.Errorf("%s: %w", t, ErrExchangerDisabled)
			}
			return nil
		}
	}
	return fmt.Errorf("%s: %w", t, ErrUnknownExchanger)
}

// SyncAll runs every enabled exchanger. Per-exchanger failures are recorded
// in the summary and never abort the run.
func (s *Syncer) SyncAll(ctx context.Context) Summary {
	return s.syncAll(ctx, uuid.NewString())
}

func (s *Syncer) syncAll(ctx context.Context, runID string) Summary {
	types, err := s.Enabled(ctx)
	if err != nil {
		now := s.now()
		sum := Summary{RunID: runID, Started: now, Finished: now, Error: err.Error()}
		s.logger.Error("sync run failed", "run_id", runID, "error", err)
		s.setLast(sum)
		return sum
	}
	return s.run(ctx, runID, types)
}

// SyncOne runs a single exchanger.
func (s *Syncer) SyncOne(ctx context.Context, t pool.ExchangerType) (Summary, error) {
	if err := s.Resolve(ctx, t); err != nil {
		return Summary{}, err
	}
	return s.run(ctx, uuid.NewString(), []pool.ExchangerType{t}), nil
}

// Trigger starts a run in the background and returns its id at once. With
// no types it syncs every enabled exchanger. Callers validate types first.
func (s *Syncer) Trigger(ctx context.Context, types ...pool.ExchangerType) string {
	runID := uuid.NewString()
	ctx = context.WithoutCancel(ctx)
	go func() {
		var sum Summary
		if len(types) == 0 {
			sum = s.syncAll(ctx, runID)
		} else {
			sum = s.run(ctx, runID, types)
		}
		s.notifySummary(ctx, sum)
	}()
	return runID
}

func (s *Syncer) run(ctx context.Context, runID string, types []pool.ExchangerType) Summary {
	logger := s.logger.With("run_id", runID)
	sum := Summary{RunID: runID, Started: s.now(), Results: make([]Result, len(types))}
	logger.Info("sync run started", "exchangers", len(types))

	// Token prices are fetched at most once per run.
	ctx = price.WithSession(ctx, price.NewSession())

	var g errgroup.Group
	g.SetLimit(s.workers)
	for i, t := range types {
		g.Go(func() error {
			sum.Results[i] = s.syncExchanger(ctx, logger, t)
			return nil
		})
	}
	_ = g.Wait()

	sum.Finished = s.now()
	t := sum.Totals()
	logger.Info("sync run finished",
		"exchangers", len(types),
		"failed", len(sum.Failures()),
		"inserted", t.Inserted,
		"updated", t.Updated,
		"skipped", t.Skipped,
		"dropped", t.Dropped,
		"duration", sum.Finished.Sub(sum.Started).String(),
	)
	s.setLast(sum)
	return sum
}

func (s *Syncer) setLast(sum Summary) {
	s.mu.Lock()
	s.last = &sum
	s.mu.Unlock()
}

func (s *Syncer) syncExchanger(ctx context.Context, logger *slog.Logger, t pool.ExchangerType) (res Result) {
	logger = logger.With("exchanger", t)
	res = Result{Exchanger: t}
	start := time.Now()
	label := string(t)

	defer func() {
		if p := recover(); p != nil {
			res.Error = fmt.Sprintf("panic: %v", p)
			res.Duration = time.Since(start)
			logger.Error("adapter panicked", "panic", p, "stack", string(debug.Stack()))
			metrics.SyncTotal.WithLabelValues(label, "error").Inc()
		}
	}()

	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	records, err := s.registry.Pools(fetchCtx, t)

	res.Duration = time.Since(start)
	metrics.SyncDuration.WithLabelValues(label).Observe(res.Duration.Seconds())
	if err != nil {
		res.Error = err.Error()
		if k := pool.KindOf(err); k != 0 {
			res.ErrorKind = k.String()
		}
		logger.Error("adapter failed", "kind", res.ErrorKind, "error", err)
		metrics.SyncTotal.WithLabelValues(label, "error").Inc()
		return res
	}
	metrics.SyncTotal.WithLabelValues(label, "success").Inc()
	metrics.SyncLastSuccess.WithLabelValues(label).SetToCurrentTime()
	metrics.PoolsReturned.WithLabelValues(label).Set(float64(len(records)))
	res.Returned = len(records)

	at := s.now()
	for _, raw := range records {
		r, err := raw.Normalize()
		if err != nil {
			res.Dropped++
			metrics.PoolsDroppedTotal.WithLabelValues(label, "invalid").Inc()
			logger.Warn("dropping invalid pool", "pool", raw.Address, "error", err)
			continue
		}
		op, err := s.store.UpsertPool(ctx, t, r, at)
		if err != nil {
			res.Failed++
			metrics.PoolWritesTotal.WithLabelValues(label, "failed").Inc()
			logger.Error("persist pool", "pool", r.Address, "error", err)
			continue
		}
		metrics.PoolWritesTotal.WithLabelValues(label, string(op)).Inc()
		switch op {
		case store.OpInserted:
			res.Inserted++
			logger.Info("new pool", "pool", r.Address, "name", r.Name, "chain", r.Chain)
		case store.OpUpdated:
			res.Updated++
		case store.OpSkipped:
			res.Skipped++
		}
	}

	logger.Info("exchanger synced",
		"returned", res.Returned,
		"inserted", res.Inserted,
		"updated", res.Updated,
		"skipped", res.Skipped,
		"dropped", res.Dropped,
	)
	return res
}
