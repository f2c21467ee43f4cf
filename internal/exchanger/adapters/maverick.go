package adapters

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/web3-frozen/ovn-pools/internal/pool"
)

const maverickAPI = "https://v2-api.mav.xyz/api/v5/poolsNoBins"

var maverickChains = []pool.Chain{pool.Base, pool.ZkSync, pool.Linea}

// Maverick lists pools per chain id. APR is served as a ratio.
type Maverick struct {
	client  *http.Client
	baseURL string
}

func NewMaverick(client *http.Client) *Maverick {
	return &Maverick{client: client, baseURL: maverickAPI}
}

func (m *Maverick) Pools(ctx context.Context) ([]pool.Record, error) {
	var out []pool.Record
	for _, chain := range maverickChains {
		var resp struct {
			Pools []struct {
				ID     string `json:"id"`
				TokenA struct {
					Symbol string `json:"symbol"`
				} `json:"tokenA"`
				TokenB struct {
					Symbol string `json:"symbol"`
				} `json:"tokenB"`
				TVL struct {
					Amount decimal.Decimal `json:"amount"`
				} `json:"tvl"`
				APR *decimal.Decimal `json:"apr"`
			} `json:"pools"`
		}
		url := fmt.Sprintf("%s/%d", m.baseURL, chain.ID())
		if err := getJSON(ctx, m.client, pool.Maverick, url, &resp); err != nil {
			return nil, err
		}
		for _, p := range resp.Pools {
			name := p.TokenA.Symbol + "/" + p.TokenB.Symbol
			if !pool.Watched(name) {
				continue
			}
			r := pool.Record{
				Address:     p.ID,
				Name:        name,
				TVL:         p.TVL.Amount,
				Chain:       chain,
				PoolVersion: "v2",
			}
			if p.APR != nil {
				r.APR = pool.APRPtr(pool.RatioToPercent(*p.APR).Round(2))
			}
			out = append(out, r)
		}
	}
	return out, nil
}
