package adapters

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/web3-frozen/ovn-pools/internal/onchain"
	"github.com/web3-frozen/ovn-pools/internal/pool"
)

const dexScreenerAPI = "https://api.dexscreener.com/latest/dex/pairs"

var dexScreenerChains = map[pool.Chain]string{
	pool.Optimism: "optimism",
	pool.Arbitrum: "arbitrum",
	pool.Base:     "base",
	pool.BSC:      "bsc",
	pool.ZkSync:   "zksync",
	pool.Polygon:  "polygon",
	pool.Blast:    "blast",
	pool.Linea:    "linea",
}

// gaugePool is an address book pool with the gauge that emits rewards for it.
type gaugePool struct {
	gauge string
	chain pool.Chain
	name  string
}

// GaugeAdapter prices ve(3,3) gauge emissions for the pools its address
// book entry lists: TVL from DexScreener, supplies and reward rate on-chain,
// reward token price from the oracle.
type GaugeAdapter struct {
	exchanger   pool.ExchangerType
	pools       map[string]gaugePool
	rewardCoin  string
	client      *http.Client
	dexScreener string
	chains      ChainDialer
	prices      PriceSource
	logger      *slog.Logger
}

func (g *GaugeAdapter) Pools(ctx context.Context) ([]pool.Record, error) {
	price, err := g.prices.USD(ctx, g.rewardCoin)
	if err != nil {
		return nil, pool.Unavailable(g.exchanger, g.rewardCoin, fmt.Errorf("reward price: %w", err))
	}

	var (
		out  []pool.Record
		errs []error
	)
	for addr, gp := range g.pools {
		r, err := g.poolRecord(ctx, addr, gp, price)
		if err != nil {
			g.logger.Warn("gauge pool failed", "pool", addr, "error", err)
			errs = append(errs, err)
			continue
		}
		out = append(out, r)
	}
	if len(out) == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

func (g *GaugeAdapter) poolRecord(ctx context.Context, addr string, gp gaugePool, rewardPrice decimal.Decimal) (pool.Record, error) {
	name, tvl, err := g.pairTVL(ctx, addr, gp.chain)
	if err != nil {
		return pool.Record{}, err
	}
	if name == "" {
		name = gp.name
	}

	caller, err := g.chains.For(ctx, gp.chain)
	if err != nil {
		return pool.Record{}, pool.Unavailable(g.exchanger, string(gp.chain), err)
	}
	state, err := onchain.ReadGauge(ctx, caller, common.HexToAddress(addr), common.HexToAddress(gp.gauge))
	if err != nil {
		return pool.Record{}, pool.Unavailable(g.exchanger, gp.gauge, err)
	}

	r := pool.Record{Address: addr, Name: name, TVL: tvl, Chain: gp.chain}
	if apr, err := onchain.GaugeAPR(tvl, state, rewardPrice); err == nil {
		r.APR = &apr
	} else {
		g.logger.Debug("apr unavailable", "pool", addr, "error", err)
	}
	return r, nil
}

func (g *GaugeAdapter) pairTVL(ctx context.Context, addr string, chain pool.Chain) (string, decimal.Decimal, error) {
	url := fmt.Sprintf("%s/%s/%s", g.dexScreener, dexScreenerChains[chain], addr)
	var resp struct {
		Pairs []struct {
			PairAddress string `json:"pairAddress"`
			BaseToken   struct {
				Symbol string `json:"symbol"`
			} `json:"baseToken"`
			QuoteToken struct {
				Symbol string `json:"symbol"`
			} `json:"quoteToken"`
			Liquidity struct {
				USD decimal.Decimal `json:"usd"`
			} `json:"liquidity"`
		} `json:"pairs"`
	}
	if err := getJSON(ctx, g.client, g.exchanger, url, &resp); err != nil {
		return "", decimal.Zero, err
	}
	for _, p := range resp.Pairs {
		if strings.EqualFold(p.PairAddress, addr) {
			return p.BaseToken.Symbol + "/" + p.QuoteToken.Symbol, p.Liquidity.USD, nil
		}
	}
	return "", decimal.Zero, pool.ShapeChanged(g.exchanger, url, fmt.Errorf("pair %s not listed", addr))
}

func newGaugeAdapter(ex pool.ExchangerType, rewardCoin string, pools map[string]gaugePool, client *http.Client, chains ChainDialer, prices PriceSource, logger *slog.Logger) *GaugeAdapter {
	return &GaugeAdapter{
		exchanger:   ex,
		pools:       pools,
		rewardCoin:  rewardCoin,
		client:      client,
		dexScreener: dexScreenerAPI,
		chains:      chains,
		prices:      prices,
		logger:      logger,
	}
}

// NewPearl prices PEARL emissions for the given pool → gauge table.
func NewPearl(pools map[string]gaugePool, client *http.Client, chains ChainDialer, prices PriceSource, logger *slog.Logger) *GaugeAdapter {
	return newGaugeAdapter(pool.Pearl, "pearl", pools, client, chains, prices, logger)
}

func NewSolidLizard(pools map[string]gaugePool, client *http.Client, chains ChainDialer, prices PriceSource, logger *slog.Logger) *GaugeAdapter {
	return newGaugeAdapter(pool.SolidLizard, "solidlizard", pools, client, chains, prices, logger)
}
