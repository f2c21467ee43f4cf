package adapters

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/web3-frozen/ovn-pools/internal/pool"
)

// solidlyPair is the pair shape served by Velodrome-style ve(3,3) DEX APIs.
type solidlyPair struct {
	Address  string           `json:"address"`
	Symbol   string           `json:"symbol"`
	Decimals *int             `json:"decimals"`
	TVL      decimal.Decimal  `json:"tvl"`
	APR      *decimal.Decimal `json:"apr"`
	Gauge    *struct {
		APR *decimal.Decimal `json:"apr"`
	} `json:"gauge"`
}

func (p solidlyPair) record(chain pool.Chain, gaugeAPR bool) pool.Record {
	r := pool.Record{
		Address:  p.Address,
		Name:     p.Symbol,
		Decimals: p.Decimals,
		TVL:      p.TVL,
		Chain:    chain,
	}
	apr := p.APR
	if gaugeAPR {
		apr = nil
		if p.Gauge != nil {
			apr = p.Gauge.APR
		}
	}
	if apr != nil {
		r.APR = pool.APRPtr(apr.Round(2))
	}
	return r
}

func fetchSolidly(ctx context.Context, client *http.Client, ex pool.ExchangerType, url string, chain pool.Chain, gaugeAPR bool) ([]pool.Record, error) {
	var resp struct {
		Data []solidlyPair `json:"data"`
	}
	if err := getJSON(ctx, client, ex, url, &resp); err != nil {
		return nil, err
	}
	var out []pool.Record
	for _, p := range resp.Data {
		if !pool.Watched(p.Symbol) {
			continue
		}
		out = append(out, p.record(chain, gaugeAPR))
	}
	return out, nil
}

const (
	velodromeAPI = "https://api.velodrome.finance/api/v1/pairs"
	thenaAPI     = "https://api.thena.fi/api/v1/fusions"
	lynexAPI     = "https://api.lynex.fi/api/v1/fusions"
)

// Velodrome serves sAMM-/vAMM- symbols, cleaned on normalization.
type Velodrome struct {
	client *http.Client
	url    string
}

func NewVelodrome(client *http.Client) *Velodrome {
	return &Velodrome{client: client, url: velodromeAPI}
}

func (v *Velodrome) Pools(ctx context.Context) ([]pool.Record, error) {
	return fetchSolidly(ctx, v.client, pool.Velodrome, v.url, pool.Optimism, false)
}

// Thena takes APR from the pair's gauge.
type Thena struct {
	client *http.Client
	url    string
}

func NewThena(client *http.Client) *Thena {
	return &Thena{client: client, url: thenaAPI}
}

func (t *Thena) Pools(ctx context.Context) ([]pool.Record, error) {
	return fetchSolidly(ctx, t.client, pool.Thena, t.url, pool.BSC, true)
}

// Lynex is Thena's shape on Linea; failures are logged and yield no pools.
type Lynex struct {
	client *http.Client
	url    string
	logger *slog.Logger
}

func NewLynex(client *http.Client, logger *slog.Logger) *Lynex {
	return &Lynex{client: client, url: lynexAPI, logger: logger}
}

func (l *Lynex) Pools(ctx context.Context) ([]pool.Record, error) {
	records, err := fetchSolidly(ctx, l.client, pool.Lynex, l.url, pool.Linea, true)
	return quietly(l.logger, records, err)
}
