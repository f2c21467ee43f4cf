package adapters

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/web3-frozen/ovn-pools/internal/pool"
)

const curveAPI = "https://api.curve.fi/v1"

var curveChains = []struct {
	slug  string
	chain pool.Chain
}{
	{"optimism", pool.Optimism},
	{"arbitrum", pool.Arbitrum},
	{"base", pool.Base},
}

type curvePool struct {
	Address  string          `json:"address"`
	Name     string          `json:"name"`
	UsdTotal decimal.Decimal `json:"usdTotal"`
	Coins    []struct {
		Symbol   string `json:"symbol"`
		Decimals string `json:"decimals"`
	} `json:"coins"`
}

// Curve lists factory pools per chain, then joins the subgraph APY by
// address. An APY failure leaves APR null rather than dropping pools.
type Curve struct {
	client  *http.Client
	baseURL string
	logger  *slog.Logger
}

func NewCurve(client *http.Client, logger *slog.Logger) *Curve {
	return &Curve{client: client, baseURL: curveAPI, logger: logger}
}

func (c *Curve) Pools(ctx context.Context) ([]pool.Record, error) {
	var out []pool.Record
	for _, ch := range curveChains {
		records, err := c.chainPools(ctx, ch.slug, ch.chain)
		if err != nil {
			return nil, err
		}
		out = append(out, records...)
	}
	return out, nil
}

func (c *Curve) chainPools(ctx context.Context, slug string, chain pool.Chain) ([]pool.Record, error) {
	var listing struct {
		Data struct {
			PoolData []curvePool `json:"poolData"`
		} `json:"data"`
	}
	if err := getJSON(ctx, c.client, pool.Curve, c.baseURL+"/getPools/all/"+slug, &listing); err != nil {
		return nil, err
	}

	var out []pool.Record
	for _, p := range listing.Data.PoolData {
		symbols := make([]string, len(p.Coins))
		for i, coin := range p.Coins {
			symbols[i] = coin.Symbol
		}
		name := strings.Join(symbols, "/")
		if !pool.Watched(name) {
			continue
		}
		out = append(out, pool.Record{
			Address: p.Address,
			Name:    name,
			TVL:     p.UsdTotal,
			Chain:   chain,
		})
	}
	if len(out) == 0 {
		return nil, nil
	}

	apys, err := c.apys(ctx, slug)
	if err != nil {
		c.logger.Warn("curve apy unavailable, apr left empty", "chain", chain, "error", err)
		return out, nil
	}
	for i := range out {
		if apy, ok := apys[strings.ToLower(out[i].Address)]; ok {
			out[i].APR = pool.APRPtr(apy.Round(2))
		}
	}
	return out, nil
}

func (c *Curve) apys(ctx context.Context, slug string) (map[string]decimal.Decimal, error) {
	var resp struct {
		Data struct {
			PoolList []struct {
				Address         string          `json:"address"`
				LatestWeeklyApy decimal.Decimal `json:"latestWeeklyApy"`
			} `json:"poolList"`
		} `json:"data"`
	}
	if err := getJSON(ctx, c.client, pool.Curve, c.baseURL+"/getSubgraphData/"+slug, &resp); err != nil {
		return nil, err
	}
	out := make(map[string]decimal.Decimal, len(resp.Data.PoolList))
	for _, p := range resp.Data.PoolList {
		out[strings.ToLower(p.Address)] = p.LatestWeeklyApy
	}
	return out, nil
}
