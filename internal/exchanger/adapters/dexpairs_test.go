package adapters

import (
	"context"
	"net/http"
	"testing"

	"github.com/web3-frozen/ovn-pools/internal/pool"
)

const dexSearchBody = `{"pairs":[
	{"chainId":"arbitrum","dexId":"kyberswap","pairAddress":"0xAB01","labels":["v2"],"baseToken":{"symbol":"USD+"},"quoteToken":{"symbol":"USDC"},"liquidity":{"usd":1500.25}},
	{"chainId":"base","dexId":"kyberswap","pairAddress":"0xab02","baseToken":{"symbol":"DAI+"},"quoteToken":{"symbol":"USD+"},"liquidity":{"usd":20}},
	{"chainId":"arbitrum","dexId":"sushiswap","pairAddress":"0xab03","baseToken":{"symbol":"USD+"},"quoteToken":{"symbol":"USDC"},"liquidity":{"usd":9}},
	{"chainId":"ethereum","dexId":"kyberswap","pairAddress":"0xab04","baseToken":{"symbol":"USD+"},"quoteToken":{"symbol":"USDC"},"liquidity":{"usd":9}},
	{"chainId":"arbitrum","dexId":"kyberswap","pairAddress":"0xab05","baseToken":{"symbol":"USD+"},"quoteToken":{"symbol":"ARB"}}
]}`

const dexYieldsBody = `{"status":"success","data":[
	{"pool":"x1","chain":"Arbitrum","project":"kyberswap-elastic","symbol":"USDC-USD+","tvlUsd":1,"apy":4.5},
	{"pool":"x2","chain":"Arbitrum","project":"kyberswap-classic","symbol":"USD+-USDC","tvlUsd":1,"apy":6.123},
	{"pool":"x3","chain":"Base","project":"sushiswap","symbol":"DAI+-USD+","tvlUsd":1,"apy":50}
]}`

func newTestDexPairs(t *testing.T, routes map[string]route) *DexPairs {
	srv := newServer(t, routes)
	d := NewKyberSwap(srv.Client(), discardLogger())
	d.searchURL = srv.URL + "/search"
	d.yieldsURL = srv.URL + "/pools"
	return d
}

func TestDexPairs(t *testing.T) {
	d := newTestDexPairs(t, map[string]route{
		"/search": ok(dexSearchBody),
		"/pools":  ok(dexYieldsBody),
	})

	records, err := d.Pools(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Every search term returns the same body; pairs must not repeat.
	if len(records) != 2 {
		t.Fatalf("records = %+v", records)
	}
	got := byAddress(records)

	arb := got["0xab01"]
	if arb.Chain != pool.Arbitrum || arb.Name != "USD+/USDC" || !arb.TVL.Equal(dec("1500.25")) || arb.PoolVersion != "v2" {
		t.Errorf("unexpected arbitrum record %+v", arb)
	}
	assertAPR(t, arb, "6.12")

	// The Base APR belongs to another project.
	assertAPR(t, got["0xab02"], "")
}

func TestDexPairs_YieldsDown(t *testing.T) {
	d := newTestDexPairs(t, map[string]route{
		"/search": ok(dexSearchBody),
		"/pools":  {status: http.StatusServiceUnavailable, body: "down"},
	})

	records, err := d.Pools(context.Background())
	if err != nil {
		t.Fatalf("yields failure must not fail the adapter: %v", err)
	}
	for _, r := range records {
		assertAPR(t, r, "")
	}
}

func TestDexPairs_SearchDown(t *testing.T) {
	d := newTestDexPairs(t, map[string]route{
		"/search": {status: http.StatusTooManyRequests, body: "slow down"},
	})

	_, err := d.Pools(context.Background())
	if pool.KindOf(err) != pool.SourceUnavailable {
		t.Errorf("err = %v, want source unavailable", err)
	}
}

func TestPairKey(t *testing.T) {
	if pairKey(pool.Base, "USD+/USDbC") != pairKey(pool.Base, "usdbc / USD+") {
		t.Error("pair key must ignore order and case")
	}
	if pairKey(pool.Base, "vAMM-USD+/USDC") != pairKey(pool.Base, "USD+/USDC") {
		t.Error("pair key must ignore AMM prefixes")
	}
	if pairKey(pool.Base, "USD+/USDC") == pairKey(pool.Optimism, "USD+/USDC") {
		t.Error("pair key must include the chain")
	}
}
