package adapters

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/web3-frozen/ovn-pools/internal/pool"
)

const beefyAPI = "https://api.beefy.finance"

var beefyChains = map[string]pool.Chain{
	"optimism": pool.Optimism,
	"arbitrum": pool.Arbitrum,
	"base":     pool.Base,
	"bsc":      pool.BSC,
	"zksync":   pool.ZkSync,
	"linea":    pool.Linea,
}

type beefyVault struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	Chain               string   `json:"chain"`
	Status              string   `json:"status"`
	Assets              []string `json:"assets"`
	EarnContractAddress string   `json:"earnContractAddress"`
	TokenDecimals       *int     `json:"tokenDecimals"`
}

// Beefy joins vaults with their APY and TVL, fetched concurrently.
type Beefy struct {
	client  *http.Client
	baseURL string
	logger  *slog.Logger
}

func NewBeefy(client *http.Client, logger *slog.Logger) *Beefy {
	return &Beefy{client: client, baseURL: beefyAPI, logger: logger}
}

func (b *Beefy) Pools(ctx context.Context) ([]pool.Record, error) {
	var (
		vaults []beefyVault
		apy    map[string]*decimal.Decimal
		tvl    map[string]map[string]decimal.Decimal
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return getJSON(gctx, b.client, pool.Beefy, b.baseURL+"/vaults", &vaults) })
	g.Go(func() error { return getJSON(gctx, b.client, pool.Beefy, b.baseURL+"/apy", &apy) })
	g.Go(func() error { return getJSON(gctx, b.client, pool.Beefy, b.baseURL+"/tvl", &tvl) })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []pool.Record
	for _, v := range vaults {
		chain, ok := beefyChains[v.Chain]
		if !ok || v.Status != "active" {
			continue
		}
		name := v.Name
		if len(v.Assets) > 0 {
			name = strings.Join(v.Assets, "/")
		}
		if !pool.Watched(name) {
			continue
		}

		vaultTVL, ok := tvl[strconv.FormatInt(chain.ID(), 10)][v.ID]
		if !ok {
			b.logger.Debug("vault without tvl dropped", "vault", v.ID)
			continue
		}
		r := pool.Record{
			Address:  v.EarnContractAddress,
			Name:     name,
			Decimals: v.TokenDecimals,
			TVL:      vaultTVL,
			Chain:    chain,
			MetaData: v.ID,
		}
		if a := apy[v.ID]; a != nil {
			r.APR = pool.APRPtr(pool.RatioToPercent(*a).Round(2))
		}
		out = append(out, r)
	}
	return out, nil
}
