package adapters

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/web3-frozen/ovn-pools/internal/pool"
)

const merklAPI = "https://api.merkl.xyz/v4/opportunities"

var uniswapSubgraphs = map[pool.Chain]string{
	pool.Optimism: "https://api.studio.thegraph.com/query/uniswap/uniswap-v3-optimism/version/latest",
	pool.Arbitrum: "https://api.studio.thegraph.com/query/uniswap/uniswap-v3-arbitrum/version/latest",
	pool.Base:     "https://api.studio.thegraph.com/query/uniswap/uniswap-v3-base/version/latest",
}

const uniswapPoolsQuery = `{
  pools(first: 1000, orderBy: totalValueLockedUSD, orderDirection: desc, where: {totalValueLockedUSD_gt: 1000}) {
    id
    feeTier
    token0 { symbol }
    token1 { symbol }
    totalValueLockedUSD
  }
}`

// merklOpportunity is the subset of a Merkl campaign needed to price a pool.
type merklOpportunity struct {
	Identifier string          `json:"identifier"`
	ChainID    int64           `json:"chainId"`
	APR        decimal.Decimal `json:"apr"`
	Status     string          `json:"status"`
}

// Uniswap reads v3 pools from the subgraph of each chain, then joins Merkl
// incentive APRs keyed by "chainId-address". A Merkl failure leaves APR null.
type Uniswap struct {
	client    *http.Client
	subgraphs map[pool.Chain]string
	merklURL  string
	logger    *slog.Logger
}

func NewUniswap(client *http.Client, logger *slog.Logger) *Uniswap {
	return &Uniswap{client: client, subgraphs: uniswapSubgraphs, merklURL: merklAPI, logger: logger}
}

func (u *Uniswap) Pools(ctx context.Context) ([]pool.Record, error) {
	var out []pool.Record
	for _, chain := range pool.Chains {
		url, ok := u.subgraphs[chain]
		if !ok {
			continue
		}
		var data struct {
			Pools []struct {
				ID      string `json:"id"`
				FeeTier string `json:"feeTier"`
				Token0  struct {
					Symbol string `json:"symbol"`
				} `json:"token0"`
				Token1 struct {
					Symbol string `json:"symbol"`
				} `json:"token1"`
				TotalValueLockedUSD decimal.Decimal `json:"totalValueLockedUSD"`
			} `json:"pools"`
		}
		if err := graphQL(ctx, u.client, pool.Uniswap, url, uniswapPoolsQuery, nil, &data); err != nil {
			return nil, err
		}
		for _, p := range data.Pools {
			name := p.Token0.Symbol + "/" + p.Token1.Symbol
			if !pool.Watched(name) {
				continue
			}
			out = append(out, pool.Record{
				Address:     p.ID,
				Name:        name,
				TVL:         p.TotalValueLockedUSD,
				Chain:       chain,
				PoolVersion: "v3",
				MetaData:    p.FeeTier,
			})
		}
	}
	if len(out) == 0 {
		return nil, nil
	}

	aprs, err := u.merklAPRs(ctx)
	if err != nil {
		u.logger.Warn("merkl apr unavailable, apr left empty", "error", err)
		return out, nil
	}
	for i := range out {
		if apr, ok := aprs[merklKey(out[i].Chain.ID(), out[i].Address)]; ok {
			out[i].APR = pool.APRPtr(apr.Round(2))
		}
	}
	return out, nil
}

func merklKey(chainID int64, address string) string {
	return fmt.Sprintf("%d-%s", chainID, strings.ToLower(address))
}

func (u *Uniswap) merklAPRs(ctx context.Context) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal)
	for chain := range u.subgraphs {
		url := fmt.Sprintf("%s?mainProtocolId=uniswap&chainId=%d&status=LIVE&items=100", u.merklURL, chain.ID())
		var opps []merklOpportunity
		if err := getJSON(ctx, u.client, pool.Uniswap, url, &opps); err != nil {
			return nil, err
		}
		for _, o := range opps {
			// Several campaigns can target one pool; their APRs add up.
			k := merklKey(o.ChainID, o.Identifier)
			out[k] = out[k].Add(o.APR)
		}
	}
	return out, nil
}
