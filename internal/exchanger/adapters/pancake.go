package adapters

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/web3-frozen/ovn-pools/internal/pool"
)

const (
	pancakeExplorerAPI = "https://explorer.pancakeswap.com/api/cached/pools/list"
	pancakeFarmsAPI    = "https://farms-api.pancakeswap.com/v3/apr"
)

var pancakeChains = []pool.Chain{pool.BSC, pool.Arbitrum, pool.Base, pool.ZkSync, pool.Linea}

type pancakePool struct {
	ID       string `json:"id"`
	ChainID  int64  `json:"chainId"`
	Protocol string `json:"protocol"`
	FarmPid  *int   `json:"farmPid"`
	Token0   struct {
		Symbol string `json:"symbol"`
	} `json:"token0"`
	Token1 struct {
		Symbol string `json:"symbol"`
	} `json:"token1"`
	TvlUSD decimal.Decimal `json:"tvlUSD"`
}

// Pancake lists pools from the explorer, then joins farm APRs keyed by
// "chainId-address-pid". Pools without a farm entry keep a null APR.
type Pancake struct {
	client      *http.Client
	explorerURL string
	farmsURL    string
	logger      *slog.Logger
}

func NewPancake(client *http.Client, logger *slog.Logger) *Pancake {
	return &Pancake{client: client, explorerURL: pancakeExplorerAPI, farmsURL: pancakeFarmsAPI, logger: logger}
}

func pancakeKey(chainID int64, address, pid string) string {
	return fmt.Sprintf("%d-%s-%s", chainID, strings.ToLower(address), pid)
}

func (p *Pancake) Pools(ctx context.Context) ([]pool.Record, error) {
	chainIDs := make([]string, len(pancakeChains))
	for i, c := range pancakeChains {
		chainIDs[i] = strconv.FormatInt(c.ID(), 10)
	}

	var listing []pancakePool
	url := p.explorerURL + "?chains=" + strings.Join(chainIDs, ",")
	if err := getJSON(ctx, p.client, pool.Pancake, url, &listing); err != nil {
		return nil, err
	}

	var out []pool.Record
	for _, lp := range listing {
		chain, ok := pool.ChainByID(lp.ChainID)
		if !ok {
			continue
		}
		name := lp.Token0.Symbol + "/" + lp.Token1.Symbol
		if !pool.Watched(name) {
			continue
		}
		r := pool.Record{
			Address:     lp.ID,
			Name:        name,
			TVL:         lp.TvlUSD,
			Chain:       chain,
			PoolVersion: lp.Protocol,
		}
		if lp.FarmPid != nil {
			r.MetaData = strconv.Itoa(*lp.FarmPid)
		}
		out = append(out, r)
	}
	if len(out) == 0 {
		return nil, nil
	}

	aprs, err := p.farmAPRs(ctx)
	if err != nil {
		p.logger.Warn("pancake farm apr unavailable, apr left empty", "error", err)
		return out, nil
	}
	for i := range out {
		if out[i].MetaData == "" {
			continue
		}
		if apr, ok := aprs[pancakeKey(out[i].Chain.ID(), out[i].Address, out[i].MetaData)]; ok {
			out[i].APR = pool.APRPtr(apr.Round(2))
		}
	}
	return out, nil
}

func (p *Pancake) farmAPRs(ctx context.Context) (map[string]decimal.Decimal, error) {
	var raw map[string]decimal.Decimal
	if err := getJSON(ctx, p.client, pool.Pancake, p.farmsURL, &raw); err != nil {
		return nil, err
	}
	out := make(map[string]decimal.Decimal, len(raw))
	for k, v := range raw {
		out[strings.ToLower(k)] = v
	}
	return out, nil
}
