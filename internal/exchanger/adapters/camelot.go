package adapters

import (
	"context"
	"maps"
	"net/http"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/web3-frozen/ovn-pools/internal/pool"
)

const camelotAPI = "https://api.camelot.exchange/v2/liquidity-v3-data"

// Camelot returns pools keyed by address, matched on token symbols.
type Camelot struct {
	client *http.Client
	url    string
}

func NewCamelot(client *http.Client) *Camelot {
	return &Camelot{client: client, url: camelotAPI}
}

func (c *Camelot) Pools(ctx context.Context) ([]pool.Record, error) {
	var resp struct {
		Data struct {
			Pools map[string]struct {
				Address      string           `json:"address"`
				Token0Symbol string           `json:"token0Symbol"`
				Token1Symbol string           `json:"token1Symbol"`
				TvlUSD       decimal.Decimal  `json:"tvlUSD"`
				AverageApr   *decimal.Decimal `json:"activeTvlAverageAPR"`
			} `json:"pools"`
		} `json:"data"`
	}
	if err := getJSON(ctx, c.client, pool.Camelot, c.url, &resp); err != nil {
		return nil, err
	}

	var out []pool.Record
	for _, key := range slices.Sorted(maps.Keys(resp.Data.Pools)) {
		p := resp.Data.Pools[key]
		name := p.Token0Symbol + "/" + p.Token1Symbol
		if !pool.Watched(name) {
			continue
		}
		addr := p.Address
		if addr == "" {
			addr = key
		}
		r := pool.Record{
			Address:     addr,
			Name:        name,
			TVL:         p.TvlUSD,
			Chain:       pool.Arbitrum,
			PoolVersion: "v3",
		}
		if p.AverageApr != nil {
			r.APR = pool.APRPtr(p.AverageApr.Round(2))
		}
		out = append(out, r)
	}
	return out, nil
}
