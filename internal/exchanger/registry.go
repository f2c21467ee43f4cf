// Package exchanger dispatches to per-exchange adapters and reconciles their
// output into the pool store.
package exchanger

import (
	"context"
	"log/slog"
	"sort"

	"github.com/web3-frozen/ovn-pools/internal/pool"
)

// Adapter fetches the current watched pools of one exchange. Adapters are
// stateless and never touch the store.
type Adapter interface {
	Pools(ctx context.Context) ([]pool.Record, error)
}

// AdapterFunc lets a plain function act as an Adapter.
type AdapterFunc func(ctx context.Context) ([]pool.Record, error)

func (f AdapterFunc) Pools(ctx context.Context) ([]pool.Record, error) { return f(ctx) }

// Registry is the fixed exchanger → adapter dispatch table.
type Registry struct {
	adapters map[pool.ExchangerType]Adapter
	logger   *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		adapters: make(map[pool.ExchangerType]Adapter),
		logger:   logger,
	}
}

// Register adds an adapter for t, replacing any previous one.
func (r *Registry) Register(t pool.ExchangerType, a Adapter) {
	r.adapters[t] = a
	r.logger.Debug("registered adapter", "exchanger", t)
}

func (r *Registry) Has(t pool.ExchangerType) bool {
	_, ok := r.adapters[t]
	return ok
}

// Types returns the registered exchangers in sorted order.
func (r *Registry) Types() []pool.ExchangerType {
	out := make([]pool.ExchangerType, 0, len(r.adapters))
	for t := range r.adapters {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Pools dispatches to the adapter for t. An unknown exchanger is logged and
// yields no pools and no error.
func (r *Registry) Pools(ctx context.Context, t pool.ExchangerType) ([]pool.Record, error) {
	a, ok := r.adapters[t]
	if !ok {
		r.logger.Error("no adapter for exchanger", "exchanger", t)
		return nil, nil
	}
	records, err := a.Pools(ctx)
	if err != nil {
		return nil, err
	}
	return pool.Dedupe(records), nil
}
