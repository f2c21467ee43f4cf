package adapters

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/web3-frozen/ovn-pools/internal/pool"
)

const convexAPI = "https://www.convexfinance.com/api/curve/pools?chain=arbitrum"

// Convex reads Arbitrum Convex pools. Besides the watch-list it also keeps
// anything named after Overnight.
type Convex struct {
	client *http.Client
	url    string
}

func NewConvex(client *http.Client) *Convex {
	return &Convex{client: client, url: convexAPI}
}

func (c *Convex) Pools(ctx context.Context) ([]pool.Record, error) {
	var resp struct {
		Pools []struct {
			Name    string          `json:"name"`
			Swap    string          `json:"swap"`
			LPToken string          `json:"lptoken"`
			TVL     decimal.Decimal `json:"tvl"`
			APR     struct {
				Base  decimal.Decimal `json:"base"`
				CRV   decimal.Decimal `json:"crv"`
				CVX   decimal.Decimal `json:"cvx"`
				Extra decimal.Decimal `json:"extra"`
			} `json:"apr"`
		} `json:"pools"`
	}
	if err := getJSON(ctx, c.client, pool.Convex, c.url, &resp); err != nil {
		return nil, err
	}

	var out []pool.Record
	for _, p := range resp.Pools {
		if !pool.Watched(p.Name, "overnight") {
			continue
		}
		apr := p.APR.Base.Add(p.APR.CRV).Add(p.APR.CVX).Add(p.APR.Extra)
		out = append(out, pool.Record{
			Address:  p.Swap,
			Name:     p.Name,
			TVL:      p.TVL,
			APR:      pool.APRPtr(apr.Round(2)),
			Chain:    pool.Arbitrum,
			MetaData: p.LPToken,
		})
	}
	return out, nil
}
