package adapters

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/web3-frozen/ovn-pools/internal/pool"
	"github.com/web3-frozen/ovn-pools/internal/scrape"
)

const (
	pollInterval = 2 * time.Second
	pollTries    = 10
)

// page is one scraped URL and the chain its pools live on.
type page struct {
	url   string
	chain pool.Chain
}

// browserSpec is the fixed part of a browser adapter. Selectors and the
// name → address tables come from the AddressBook.
type browserSpec struct {
	exchanger pool.ExchangerType
	pages     []page
	// poll re-counts rows until minRows render instead of trusting marker.
	poll    bool
	minRows int
	// quiet logs failures and returns no pools.
	quiet bool
}

type browserAdapter struct {
	spec        browserSpec
	table       browserTable
	fetcher     scrape.Fetcher
	pageTimeout time.Duration
	logger      *slog.Logger
}

func newBrowserAdapter(spec browserSpec, table browserTable, f scrape.Fetcher, pageTimeout time.Duration, logger *slog.Logger) *browserAdapter {
	return &browserAdapter{spec: spec, table: table, fetcher: f, pageTimeout: pageTimeout, logger: logger.With("exchanger", spec.exchanger)}
}

var browserSpecs = []browserSpec{
	aerodromeSpec, swapBasedSpec, velocoreSpec, ramsesSpec, chronosSpec, alienBaseSpec,
	xfaiSpec, vesyncSpec, spaceFiSpec, arbidexSpec,
}

// browserAdapters builds the adapters the book has tables for.
func browserAdapters(book *AddressBook, f scrape.Fetcher, pageTimeout time.Duration, logger *slog.Logger) []*browserAdapter {
	var out []*browserAdapter
	for _, s := range browserSpecs {
		table, ok := book.browserTable(s.exchanger)
		if !ok {
			logger.Warn("no address table, adapter not registered", "exchanger", s.exchanger)
			continue
		}
		out = append(out, newBrowserAdapter(s, table, f, pageTimeout, logger))
	}
	return out
}

func (b *browserAdapter) Pools(ctx context.Context) ([]pool.Record, error) {
	var out []pool.Record
	for _, pg := range b.spec.pages {
		records, err := b.scrape(ctx, pg)
		if err != nil {
			if b.spec.quiet {
				return quietly(b.logger, nil, err)
			}
			return nil, err
		}
		out = append(out, records...)
	}
	return out, nil
}

func (b *browserAdapter) scrape(ctx context.Context, pg page) ([]pool.Record, error) {
	ex := b.spec.exchanger
	sel := b.table.selectors
	addresses := b.table.addresses[pg.chain]
	if len(addresses) == 0 {
		b.logger.Debug("no pools mapped on chain, page skipped", "chain", pg.chain)
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, b.pageTimeout)
	defer cancel()

	p, err := b.fetcher.Open(ctx)
	if err != nil {
		return nil, pool.Unavailable(ex, pg.url, err)
	}
	defer p.Close()

	if err := p.Navigate(ctx, pg.url); err != nil {
		return nil, pool.Unavailable(ex, pg.url, err)
	}
	if err := p.WaitForSelector(ctx, sel.marker, b.pageTimeout); err != nil {
		return nil, pool.ShapeChanged(ex, pg.url, fmt.Errorf("marker %s: %w", sel.marker, err))
	}
	if b.spec.poll {
		if _, err := scrape.PollCount(ctx, p, sel.rows, b.spec.minRows, pollInterval, pollTries); err != nil {
			return nil, pool.ShapeChanged(ex, pg.url, err)
		}
	}

	names, err := p.ExtractText(ctx, sel.name)
	if err != nil {
		return nil, pool.ShapeChanged(ex, pg.url, err)
	}
	tvls, err := p.ExtractText(ctx, sel.tvl)
	if err != nil {
		return nil, pool.ShapeChanged(ex, pg.url, err)
	}
	aprs, err := p.ExtractText(ctx, sel.apr)
	if err != nil {
		return nil, pool.ShapeChanged(ex, pg.url, err)
	}
	if len(tvls) != len(names) || len(aprs) != len(names) {
		return nil, pool.ShapeChanged(ex, pg.url,
			fmt.Errorf("column mismatch: %d names, %d tvl, %d apr", len(names), len(tvls), len(aprs)))
	}

	var out []pool.Record
	for i, raw := range names {
		name := displayName(raw)
		addr, ok := addresses[nameKey(name)]
		if !ok {
			b.logger.Info("skipping pool", "name", name, "error", pool.ErrPoolNotMapped)
			continue
		}
		tvl, err := pool.ParseAmount(tvls[i])
		if err != nil {
			b.logger.Warn("unparseable tvl", "name", name, "text", tvls[i], "error", err)
			continue
		}
		r := pool.Record{Address: addr, Name: name, TVL: tvl, Chain: pg.chain}
		if apr, err := parsePercent(aprs[i]); err == nil {
			r.APR = &apr
		}
		out = append(out, r)
	}
	return out, nil
}

// displayName collapses whitespace so "USD+ / USDC" reads "USD+/USDC".
func displayName(s string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(s, " / ", "/")), " ")
}

// nameKey is the lookup form of a scraped name.
func nameKey(s string) string {
	return strings.ToLower(strings.ReplaceAll(pool.CleanName(displayName(s)), " ", ""))
}

// parsePercent reads "12.34%" style text. Ranges like "5.1% - 12.3%" take the
// upper bound.
func parsePercent(s string) (decimal.Decimal, error) {
	if i := strings.LastIndex(s, "-"); i > 0 && strings.Contains(s[i:], "%") {
		s = s[i+1:]
	}
	return pool.ParseAmount(s)
}
