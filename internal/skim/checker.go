// Package skim reconciles persisted pools against the on-chain payout
// listeners that skim their fees.
package skim

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/web3-frozen/ovn-pools/internal/dedup"
	"github.com/web3-frozen/ovn-pools/internal/metrics"
	"github.com/web3-frozen/ovn-pools/internal/onchain"
	"github.com/web3-frozen/ovn-pools/internal/pool"
	"github.com/web3-frozen/ovn-pools/internal/store"
)

// PoolStore is the persistence the checker reads and stamps.
type PoolStore interface {
	ListPools(ctx context.Context, enabledOnly bool) ([]store.Pool, error)
	SetSkimStatus(ctx context.Context, address string, enabled bool, at time.Time) error
}

// Listeners reports which pool addresses (lower-cased) a chain's payout
// listener skims.
type Listeners interface {
	Chains() []pool.Chain
	ListedPools(ctx context.Context, chain pool.Chain) (map[string]bool, error)
}

type Notifier interface {
	Notify(ctx context.Context, text string) error
}

type Deduper interface {
	AlreadySent(ctx context.Context, key string) bool
	Record(ctx context.Context, key string)
	Clear(ctx context.Context, key string)
}

// Dialer hands out contract callers per chain.
type Dialer interface {
	For(ctx context.Context, chain pool.Chain) (onchain.Caller, error)
}

// PayoutListeners reads getItems() from one listener contract per chain.
type PayoutListeners struct {
	dialer    Dialer
	addresses map[pool.Chain]common.Address
}

func NewPayoutListeners(d Dialer, addresses map[pool.Chain]string) *PayoutListeners {
	out := &PayoutListeners{dialer: d, addresses: make(map[pool.Chain]common.Address)}
	for chain, addr := range addresses {
		if common.IsHexAddress(addr) {
			out.addresses[chain] = common.HexToAddress(addr)
		}
	}
	return out
}

func (l *PayoutListeners) Chains() []pool.Chain {
	var out []pool.Chain
	for _, c := range pool.Chains {
		if _, ok := l.addresses[c]; ok {
			out = append(out, c)
		}
	}
	return out
}

func (l *PayoutListeners) ListedPools(ctx context.Context, chain pool.Chain) (map[string]bool, error) {
	addr, ok := l.addresses[chain]
	if !ok {
		return nil, fmt.Errorf("no payout listener for %s", chain)
	}
	caller, err := l.dialer.For(ctx, chain)
	if err != nil {
		return nil, err
	}
	return onchain.ListedPools(ctx, caller, addr)
}

// ChainReport is the skim state of one chain.
type ChainReport struct {
	Chain   pool.Chain   `json:"chain"`
	Checked int          `json:"checked"`
	Listed  int          `json:"listed"`
	Missing []store.Pool `json:"missing"`
	Error   string       `json:"error,omitempty"`
}

// Report is the result of one skim check.
type Report struct {
	CheckedAt time.Time     `json:"checked_at"`
	Chains    []ChainReport `json:"chains"`
}

// Missing returns every pool flagged add_to_sync that no listener skims.
func (r Report) Missing() []store.Pool {
	var out []store.Pool
	for _, c := range r.Chains {
		out = append(out, c.Missing...)
	}
	return out
}

type Checker struct {
	store     PoolStore
	listeners Listeners
	notifier  Notifier
	dedup     Deduper
	logger    *slog.Logger
	now       func() time.Time
}

func NewChecker(st PoolStore, l Listeners, n Notifier, d Deduper, logger *slog.Logger) *Checker {
	return &Checker{store: st, listeners: l, notifier: n, dedup: d, logger: logger, now: time.Now}
}

// Check stamps skim_enabled on every enabled pool of a chain with a listener
// and collects add_to_sync pools the listener does not know about.
func (c *Checker) Check(ctx context.Context) (Report, error) {
	pools, err := c.store.ListPools(ctx, true)
	if err != nil {
		return Report{}, fmt.Errorf("list pools: %w", err)
	}
	byChain := make(map[pool.Chain][]store.Pool)
	for _, p := range pools {
		byChain[p.Chain] = append(byChain[p.Chain], p)
	}

	at := c.now()
	report := Report{CheckedAt: at}
	for _, chain := range c.listeners.Chains() {
		cr := ChainReport{Chain: chain}
		listed, err := c.listeners.ListedPools(ctx, chain)
		if err != nil {
			cr.Error = err.Error()
			c.logger.Error("read payout listener", "chain", chain, "error", err)
			report.Chains = append(report.Chains, cr)
			continue
		}
		for _, p := range byChain[chain] {
			cr.Checked++
			enabled := listed[strings.ToLower(p.Address)]
			if enabled {
				cr.Listed++
			}
			if err := c.store.SetSkimStatus(ctx, p.Address, enabled, at); err != nil {
				c.logger.Error("set skim status", "pool", p.Address, "error", err)
			}
			if p.AddToSync && !enabled {
				cr.Missing = append(cr.Missing, p)
			}
		}
		metrics.SkimMissing.WithLabelValues(string(chain)).Set(float64(len(cr.Missing)))
		c.logger.Info("skim checked", "chain", chain, "checked", cr.Checked, "listed", cr.Listed, "missing", len(cr.Missing))
		report.Chains = append(report.Chains, cr)
	}

	c.alert(ctx, pools, report)
	return report, nil
}

// alert notifies newly missing pools once and re-arms pools now listed.
func (c *Checker) alert(ctx context.Context, pools []store.Pool, report Report) {
	if c.notifier == nil || c.dedup == nil {
		return
	}
	missing := make(map[string]bool)
	var fresh []store.Pool
	for _, p := range report.Missing() {
		key := dedup.SkimKey(p.Address)
		missing[key] = true
		if c.dedup.AlreadySent(ctx, key) {
			metrics.AlertsDeduplicatedTotal.WithLabelValues("skim").Inc()
			continue
		}
		fresh = append(fresh, p)
	}

	checked := make(map[pool.Chain]bool)
	for _, cr := range report.Chains {
		checked[cr.Chain] = cr.Error == ""
	}
	for _, p := range pools {
		key := dedup.SkimKey(p.Address)
		if checked[p.Chain] && !missing[key] {
			c.dedup.Clear(ctx, key)
		}
	}

	if len(fresh) == 0 {
		return
	}
	if err := c.notifier.Notify(ctx, MissingText(fresh)); err != nil {
		metrics.AlertsFailedTotal.WithLabelValues("skim").Inc()
		c.logger.Error("send skim alert", "error", err)
		return
	}
	metrics.AlertsSentTotal.WithLabelValues("skim").Inc()
	for _, p := range fresh {
		c.dedup.Record(ctx, dedup.SkimKey(p.Address))
	}
}

// MissingText renders pools missing from payout listeners as Telegram HTML.
func MissingText(pools []store.Pool) string {
	sorted := append([]store.Pool(nil), pools...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Chain != sorted[j].Chain {
			return sorted[i].Chain < sorted[j].Chain
		}
		return sorted[i].Name < sorted[j].Name
	})
	var b strings.Builder
	fmt.Fprintf(&b, "🧹 <b>%d pools missing skim configuration</b>\n", len(sorted))
	for _, p := range sorted {
		fmt.Fprintf(&b, "• %s %s %s <code>%s</code>\n", p.Chain, p.Exchanger, html.EscapeString(p.Name), p.Address)
	}
	return b.String()
}

// Run checks now and then on every interval tick.
func (c *Checker) Run(ctx context.Context, interval time.Duration) {
	c.runOnce(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.runOnce(ctx)
		}
	}
}

func (c *Checker) runOnce(ctx context.Context) {
	if _, err := c.Check(ctx); err != nil && ctx.Err() == nil {
		c.logger.Error("skim check failed", "error", err)
	}
}
