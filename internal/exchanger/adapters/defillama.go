package adapters

import (
	"context"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/web3-frozen/ovn-pools/internal/pool"
)

const defiLlamaYieldsAPI = "https://yields.llama.fi/pools"

// defiLlamaProjects are the DefiLlama project slugs tracked by the generic
// fallback. Projects with a dedicated adapter stay off this list so one pool
// is never reported by two exchangers.
var defiLlamaProjects = map[string]bool{
	"aerodrome-slipstream": true,
	"fraxswap":             true,
}

var leadingAddress = regexp.MustCompile(`^0x[0-9a-fA-F]{40}`)

type llamaPool struct {
	Pool    string           `json:"pool"`
	Chain   string           `json:"chain"`
	Project string           `json:"project"`
	Symbol  string           `json:"symbol"`
	TvlUsd  decimal.Decimal  `json:"tvlUsd"`
	APY     *decimal.Decimal `json:"apy"`
}

func fetchYields(ctx context.Context, client *http.Client, ex pool.ExchangerType, url string) ([]llamaPool, error) {
	var resp struct {
		Status string      `json:"status"`
		Data   []llamaPool `json:"data"`
	}
	if err := getJSON(ctx, client, ex, url, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// llamaRecords maps watched pools of the given projects to records.
func llamaRecords(pools []llamaPool, projects map[string]bool, logger *slog.Logger) []pool.Record {
	var out []pool.Record
	for _, p := range pools {
		if !projects[p.Project] || !pool.Watched(p.Symbol) {
			continue
		}
		chain, ok := pool.ParseChain(p.Chain)
		if !ok {
			continue
		}
		// Pool ids are "<address>-<chain>" for EVM pools, UUIDs otherwise.
		addr := leadingAddress.FindString(p.Pool)
		if addr == "" {
			logger.Debug("pool id without address skipped", "pool", p.Pool, "project", p.Project)
			continue
		}
		r := pool.Record{
			Address:  addr,
			Name:     strings.ReplaceAll(p.Symbol, "-", "/"),
			TVL:      p.TvlUsd,
			Chain:    chain,
			MetaData: p.Project,
		}
		if p.APY != nil {
			r.APR = pool.APRPtr(p.APY.Round(2))
		}
		out = append(out, r)
	}
	return out
}

// DefiLlama is the generic fallback over the yields API, limited to an
// allow-list of projects.
type DefiLlama struct {
	client *http.Client
	url    string
	logger *slog.Logger
}

func NewDefiLlama(client *http.Client, logger *slog.Logger) *DefiLlama {
	return &DefiLlama{client: client, url: defiLlamaYieldsAPI, logger: logger}
}

func (d *DefiLlama) Pools(ctx context.Context) ([]pool.Record, error) {
	pools, err := fetchYields(ctx, d.client, pool.DefiLlama, d.url)
	if err != nil {
		return nil, err
	}
	return llamaRecords(pools, defiLlamaProjects, d.logger), nil
}

// LlamaProject reports one exchange whose pools only DefiLlama publishes
// with addresses, under that exchange's own type.
type LlamaProject struct {
	exchanger pool.ExchangerType
	projects  map[string]bool
	client    *http.Client
	url       string
	logger    *slog.Logger
}

func newLlamaProject(ex pool.ExchangerType, client *http.Client, logger *slog.Logger, projects ...string) *LlamaProject {
	set := make(map[string]bool, len(projects))
	for _, p := range projects {
		set[p] = true
	}
	return &LlamaProject{exchanger: ex, projects: set, client: client, url: defiLlamaYieldsAPI, logger: logger}
}

// NewWombat tracks Wombat stable pools.
func NewWombat(client *http.Client, logger *slog.Logger) *LlamaProject {
	return newLlamaProject(pool.Wombat, client, logger, "wombat-exchange")
}

// NewSommelier tracks Sommelier cellars holding USD+.
func NewSommelier(client *http.Client, logger *slog.Logger) *LlamaProject {
	return newLlamaProject(pool.Sommelier, client, logger, "sommelier")
}

func (l *LlamaProject) Pools(ctx context.Context) ([]pool.Record, error) {
	pools, err := fetchYields(ctx, l.client, l.exchanger, l.url)
	if err != nil {
		return nil, err
	}
	return llamaRecords(pools, l.projects, l.logger), nil
}
