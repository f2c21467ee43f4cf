package adapters

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/web3-frozen/ovn-pools/internal/pool"
)

const baseSwapSubgraph = "https://api.thegraph.com/subgraphs/name/harleen-m/baseswap"

const baseSwapPairsQuery = `{
  pairs(first: 500, orderBy: reserveUSD, orderDirection: desc) {
    id
    token0 { symbol }
    token1 { symbol }
    reserveUSD
  }
}`

// BaseSwap has no APR source; records carry a null APR.
type BaseSwap struct {
	client *http.Client
	url    string
}

func NewBaseSwap(client *http.Client) *BaseSwap {
	return &BaseSwap{client: client, url: baseSwapSubgraph}
}

func (b *BaseSwap) Pools(ctx context.Context) ([]pool.Record, error) {
	var data struct {
		Pairs []struct {
			ID     string `json:"id"`
			Token0 struct {
				Symbol string `json:"symbol"`
			} `json:"token0"`
			Token1 struct {
				Symbol string `json:"symbol"`
			} `json:"token1"`
			ReserveUSD decimal.Decimal `json:"reserveUSD"`
		} `json:"pairs"`
	}
	if err := graphQL(ctx, b.client, pool.BaseSwap, b.url, baseSwapPairsQuery, nil, &data); err != nil {
		return nil, err
	}

	var out []pool.Record
	for _, p := range data.Pairs {
		name := p.Token0.Symbol + "/" + p.Token1.Symbol
		if !pool.Watched(name) {
			continue
		}
		out = append(out, pool.Record{
			Address:     p.ID,
			Name:        name,
			TVL:         p.ReserveUSD,
			Chain:       pool.Base,
			PoolVersion: "v2",
		})
	}
	return out, nil
}
