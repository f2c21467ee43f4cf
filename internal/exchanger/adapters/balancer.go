package adapters

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/web3-frozen/ovn-pools/internal/pool"
)

const balancerAPI = "https://api-v3.balancer.fi/"

const balancerPoolsQuery = `query Pools($chains: [GqlChain!]) {
  poolGetPools(where: {chainIn: $chains}, first: 1000, orderBy: totalLiquidity, orderDirection: desc) {
    address
    symbol
    chain
    decimals
    dynamicData {
      totalLiquidity
      aprItems { apr }
    }
  }
}`

// Balancer queries the v3 GraphQL API. APR is the sum of every apr item;
// "bb-" wrapper prefixes are stripped from symbols on normalization.
type Balancer struct {
	client *http.Client
	url    string
}

func NewBalancer(client *http.Client) *Balancer {
	return &Balancer{client: client, url: balancerAPI}
}

func (b *Balancer) Pools(ctx context.Context) ([]pool.Record, error) {
	var data struct {
		Pools []struct {
			Address     string `json:"address"`
			Symbol      string `json:"symbol"`
			Chain       string `json:"chain"`
			Decimals    *int   `json:"decimals"`
			DynamicData struct {
				TotalLiquidity decimal.Decimal `json:"totalLiquidity"`
				AprItems       []struct {
					APR decimal.Decimal `json:"apr"`
				} `json:"aprItems"`
			} `json:"dynamicData"`
		} `json:"poolGetPools"`
	}
	vars := map[string]any{"chains": []pool.Chain{pool.Optimism, pool.Arbitrum, pool.Base, pool.Polygon}}
	if err := graphQL(ctx, b.client, pool.Balancer, b.url, balancerPoolsQuery, vars, &data); err != nil {
		return nil, err
	}

	var out []pool.Record
	for _, p := range data.Pools {
		chain, ok := pool.ParseChain(p.Chain)
		if !ok || !pool.Watched(p.Symbol) {
			continue
		}
		apr := decimal.Zero
		for _, item := range p.DynamicData.AprItems {
			apr = apr.Add(item.APR)
		}
		out = append(out, pool.Record{
			Address:  p.Address,
			Name:     p.Symbol,
			Decimals: p.Decimals,
			TVL:      p.DynamicData.TotalLiquidity,
			APR:      pool.APRPtr(pool.RatioToPercent(apr).Round(2)),
			Chain:    chain,
		})
	}
	return out, nil
}
