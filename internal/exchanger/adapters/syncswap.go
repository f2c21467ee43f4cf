package adapters

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/web3-frozen/ovn-pools/internal/pool"
)

const syncSwapAPI = "https://api.syncswap.xyz/api/pools"

var syncSwapNetworks = []struct {
	network string
	chain   pool.Chain
}{
	{"zkSyncMainnet", pool.ZkSync},
	{"lineaMainnet", pool.Linea},
}

// SyncSwap failures are logged and yield no pools.
type SyncSwap struct {
	client *http.Client
	url    string
	logger *slog.Logger
}

func NewSyncSwap(client *http.Client, logger *slog.Logger) *SyncSwap {
	return &SyncSwap{client: client, url: syncSwapAPI, logger: logger}
}

func (s *SyncSwap) Pools(ctx context.Context) ([]pool.Record, error) {
	records, err := s.fetch(ctx)
	return quietly(s.logger, records, err)
}

func (s *SyncSwap) fetch(ctx context.Context) ([]pool.Record, error) {
	var out []pool.Record
	for _, n := range syncSwapNetworks {
		var resp struct {
			Pools []struct {
				Pool   string `json:"pool"`
				Token0 struct {
					Symbol string `json:"symbol"`
				} `json:"token0"`
				Token1 struct {
					Symbol string `json:"symbol"`
				} `json:"token1"`
				TVL decimal.Decimal  `json:"tvl"`
				APR *decimal.Decimal `json:"apr"`
			} `json:"pools"`
		}
		if err := getJSON(ctx, s.client, pool.SyncSwap, s.url+"?network="+n.network, &resp); err != nil {
			return nil, err
		}
		for _, p := range resp.Pools {
			name := p.Token0.Symbol + "/" + p.Token1.Symbol
			if !pool.Watched(name) {
				continue
			}
			r := pool.Record{Address: p.Pool, Name: name, TVL: p.TVL, Chain: n.chain}
			if p.APR != nil {
				r.APR = pool.APRPtr(p.APR.Round(2))
			}
			out = append(out, r)
		}
	}
	return out, nil
}
