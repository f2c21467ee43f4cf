package adapters

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/web3-frozen/ovn-pools/internal/exchanger"
	"github.com/web3-frozen/ovn-pools/internal/onchain"
	"github.com/web3-frozen/ovn-pools/internal/pool"
	"github.com/web3-frozen/ovn-pools/internal/scrape"
)

// ChainDialer hands out contract callers per chain.
type ChainDialer interface {
	For(ctx context.Context, chain pool.Chain) (onchain.Caller, error)
}

// PriceSource quotes a token in USD.
type PriceSource interface {
	USD(ctx context.Context, coinID string) (decimal.Decimal, error)
}

// Deps is everything adapters share.
type Deps struct {
	HTTP        *http.Client
	Fetcher     scrape.Fetcher
	Chains      ChainDialer
	Prices      PriceSource
	Book        *AddressBook
	PageTimeout time.Duration
	Logger      *slog.Logger
}

// Register adds every known adapter to reg.
func Register(reg *exchanger.Registry, d Deps) {
	if d.HTTP == nil {
		d.HTTP = &http.Client{Timeout: 80 * time.Second}
	}
	if d.PageTimeout <= 0 {
		d.PageTimeout = 60 * time.Second
	}
	log := func(ex pool.ExchangerType) *slog.Logger { return d.Logger.With("exchanger", ex) }

	reg.Register(pool.Beefy, NewBeefy(d.HTTP, log(pool.Beefy)))
	reg.Register(pool.Curve, NewCurve(d.HTTP, log(pool.Curve)))
	reg.Register(pool.Convex, NewConvex(d.HTTP))
	reg.Register(pool.Balancer, NewBalancer(d.HTTP))
	reg.Register(pool.Velodrome, NewVelodrome(d.HTTP))
	reg.Register(pool.Thena, NewThena(d.HTTP))
	reg.Register(pool.Lynex, NewLynex(d.HTTP, log(pool.Lynex)))
	reg.Register(pool.Camelot, NewCamelot(d.HTTP))
	reg.Register(pool.Maverick, NewMaverick(d.HTTP))
	reg.Register(pool.SyncSwap, NewSyncSwap(d.HTTP, log(pool.SyncSwap)))
	reg.Register(pool.Pancake, NewPancake(d.HTTP, log(pool.Pancake)))
	reg.Register(pool.Uniswap, NewUniswap(d.HTTP, log(pool.Uniswap)))
	reg.Register(pool.BaseSwap, NewBaseSwap(d.HTTP))
	reg.Register(pool.DefiLlama, NewDefiLlama(d.HTTP, log(pool.DefiLlama)))
	reg.Register(pool.Wombat, NewWombat(d.HTTP, log(pool.Wombat)))
	reg.Register(pool.Sommelier, NewSommelier(d.HTTP, log(pool.Sommelier)))
	reg.Register(pool.KyberSwap, NewKyberSwap(d.HTTP, log(pool.KyberSwap)))
	reg.Register(pool.Sushiswap, NewSushiswap(d.HTTP, log(pool.Sushiswap)))
	reg.Register(pool.Equalizer, NewEqualizer(d.HTTP, log(pool.Equalizer)))

	if d.Fetcher != nil {
		for _, b := range browserAdapters(d.Book, d.Fetcher, d.PageTimeout, d.Logger) {
			reg.Register(b.spec.exchanger, b)
		}
	}
	if d.Chains != nil && d.Prices != nil {
		gauges := []struct {
			ex    pool.ExchangerType
			build func(map[string]gaugePool, *http.Client, ChainDialer, PriceSource, *slog.Logger) *GaugeAdapter
		}{
			{pool.Pearl, NewPearl},
			{pool.SolidLizard, NewSolidLizard},
		}
		for _, g := range gauges {
			pools := d.Book.gaugePools(g.ex)
			if len(pools) == 0 {
				d.Logger.Warn("no gauge table, adapter not registered", "exchanger", g.ex)
				continue
			}
			reg.Register(g.ex, g.build(pools, d.HTTP, d.Chains, d.Prices, log(g.ex)))
		}
	}
}

// quietly logs an adapter failure and reports no pools instead.
func quietly(logger *slog.Logger, records []pool.Record, err error) ([]pool.Record, error) {
	if err != nil {
		logger.Warn("adapter returned no pools", "error", err)
		return nil, nil
	}
	return records, nil
}
