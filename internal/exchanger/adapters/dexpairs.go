package adapters

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/web3-frozen/ovn-pools/internal/pool"
)

const dexScreenerSearchAPI = "https://api.dexscreener.com/latest/dex/search"

// dexSearchTerms are the tokens searched for; results are deduplicated by
// pair address.
var dexSearchTerms = []string{"USD+", "DAI+", "USDT+"}

// DexPairs lists an exchange's pairs from the DexScreener search API, then
// joins APR from the DefiLlama yields of the same exchange by chain and
// token pair. A yields failure leaves APR null.
type DexPairs struct {
	exchanger pool.ExchangerType
	dexID     string
	projects  map[string]bool
	client    *http.Client
	searchURL string
	yieldsURL string
	logger    *slog.Logger
}

func newDexPairs(ex pool.ExchangerType, dexID string, client *http.Client, logger *slog.Logger, projects ...string) *DexPairs {
	set := make(map[string]bool, len(projects))
	for _, p := range projects {
		set[p] = true
	}
	return &DexPairs{
		exchanger: ex,
		dexID:     dexID,
		projects:  set,
		client:    client,
		searchURL: dexScreenerSearchAPI,
		yieldsURL: defiLlamaYieldsAPI,
		logger:    logger,
	}
}

func NewKyberSwap(client *http.Client, logger *slog.Logger) *DexPairs {
	return newDexPairs(pool.KyberSwap, "kyberswap", client, logger, "kyberswap-elastic", "kyberswap-classic")
}

func NewSushiswap(client *http.Client, logger *slog.Logger) *DexPairs {
	return newDexPairs(pool.Sushiswap, "sushiswap", client, logger, "sushiswap", "sushiswap-v3")
}

func NewEqualizer(client *http.Client, logger *slog.Logger) *DexPairs {
	return newDexPairs(pool.Equalizer, "equalizer", client, logger, "equalizer-exchange")
}

type dexPair struct {
	ChainID     string   `json:"chainId"`
	DexID       string   `json:"dexId"`
	PairAddress string   `json:"pairAddress"`
	Labels      []string `json:"labels"`
	BaseToken   struct {
		Symbol string `json:"symbol"`
	} `json:"baseToken"`
	QuoteToken struct {
		Symbol string `json:"symbol"`
	} `json:"quoteToken"`
	Liquidity *struct {
		USD decimal.Decimal `json:"usd"`
	} `json:"liquidity"`
}

func (d *DexPairs) Pools(ctx context.Context) ([]pool.Record, error) {
	seen := make(map[string]bool)
	var out []pool.Record
	for _, term := range dexSearchTerms {
		var resp struct {
			Pairs []dexPair `json:"pairs"`
		}
		u := d.searchURL + "?q=" + url.QueryEscape(term)
		if err := getJSON(ctx, d.client, d.exchanger, u, &resp); err != nil {
			return nil, err
		}
		for _, p := range resp.Pairs {
			addr := strings.ToLower(p.PairAddress)
			if p.DexID != d.dexID || p.Liquidity == nil || seen[addr] {
				continue
			}
			chain, ok := pool.ParseChain(p.ChainID)
			if !ok {
				continue
			}
			name := p.BaseToken.Symbol + "/" + p.QuoteToken.Symbol
			if !pool.Watched(name) {
				continue
			}
			seen[addr] = true
			r := pool.Record{Address: addr, Name: name, TVL: p.Liquidity.USD, Chain: chain}
			if len(p.Labels) > 0 {
				r.PoolVersion = p.Labels[0]
			}
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return nil, nil
	}

	yields, err := fetchYields(ctx, d.client, d.exchanger, d.yieldsURL)
	if err != nil {
		d.logger.Warn("defillama apr unavailable, apr left empty", "error", err)
		return out, nil
	}
	aprs := make(map[string]decimal.Decimal)
	for _, y := range yields {
		if !d.projects[y.Project] || y.APY == nil {
			continue
		}
		chain, ok := pool.ParseChain(y.Chain)
		if !ok {
			continue
		}
		k := pairKey(chain, strings.ReplaceAll(y.Symbol, "-", "/"))
		// Several pools can share a pair; the highest APR wins.
		if cur, dup := aprs[k]; !dup || y.APY.GreaterThan(cur) {
			aprs[k] = *y.APY
		}
	}
	for i := range out {
		if apr, ok := aprs[pairKey(out[i].Chain, out[i].Name)]; ok {
			out[i].APR = pool.APRPtr(apr.Round(2))
		}
	}
	return out, nil
}

// pairKey is order-insensitive: "USD+/USDC" and "USDC/USD+" collide.
func pairKey(chain pool.Chain, name string) string {
	tokens := strings.Split(strings.ToLower(pool.CleanName(name)), "/")
	for i := range tokens {
		tokens[i] = strings.TrimSpace(tokens[i])
	}
	slices.Sort(tokens)
	return string(chain) + ":" + strings.Join(tokens, "/")
}
