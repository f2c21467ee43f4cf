package adapters

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"

	"github.com/web3-frozen/ovn-pools/internal/onchain"
	"github.com/web3-frozen/ovn-pools/internal/pool"
)

const (
	testPoolAddr  = "0x1111111111111111111111111111111111111111"
	testGaugeAddr = "0x2222222222222222222222222222222222222222"
)

// stubChain answers view calls with fixed uint256 values by contract and
// method signature.
type stubChain struct {
	values map[string]*big.Int
}

func stubKey(to common.Address, selector []byte) string {
	return strings.ToLower(to.Hex()) + ":" + common.Bytes2Hex(selector)
}

func selector(sig string) []byte { return crypto.Keccak256([]byte(sig))[:4] }

func (s *stubChain) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	v, ok := s.values[stubKey(*msg.To, msg.Data[:4])]
	if !ok {
		return nil, errors.New("execution reverted")
	}
	return common.LeftPadBytes(v.Bytes(), 32), nil
}

func (s *stubChain) For(context.Context, pool.Chain) (onchain.Caller, error) { return s, nil }

type fixedPrice decimal.Decimal

func (p fixedPrice) USD(context.Context, string) (decimal.Decimal, error) {
	return decimal.Decimal(p), nil
}

func tokens(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

func newTestGauge(t *testing.T, chain *stubChain, dexBody string) *GaugeAdapter {
	srv := newServer(t, map[string]route{
		"/polygon/" + testPoolAddr: ok(dexBody),
	})
	return &GaugeAdapter{
		exchanger:   pool.Pearl,
		pools:       map[string]gaugePool{testPoolAddr: {gauge: testGaugeAddr, chain: pool.Polygon, name: "USD+/USDC"}},
		rewardCoin:  "pearl",
		client:      srv.Client(),
		dexScreener: srv.URL,
		chains:      chain,
		prices:      fixedPrice(dec("0.1")),
		logger:      discardLogger(),
	}
}

func healthyChain() *stubChain {
	p := common.HexToAddress(testPoolAddr)
	g := common.HexToAddress(testGaugeAddr)
	return &stubChain{values: map[string]*big.Int{
		stubKey(p, selector("decimals()")):    big.NewInt(18),
		stubKey(p, selector("totalSupply()")): tokens(500_000),
		stubKey(g, selector("totalSupply()")): tokens(250_000),
		stubKey(g, selector("rewardRate()")):  tokens(1),
	}}
}

const dexPairJSON = `{"pairs":[{"pairAddress":"` + testPoolAddr + `","baseToken":{"symbol":"USD+"},"quoteToken":{"symbol":"USDC"},"liquidity":{"usd":1000000}}]}`

func TestGaugeAdapter(t *testing.T) {
	g := newTestGauge(t, healthyChain(), dexPairJSON)

	records, err := g.Pools(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %+v", records)
	}
	r := records[0]
	if r.Name != "USD+/USDC" || r.Chain != pool.Polygon || !r.TVL.Equal(dec("1000000")) {
		t.Errorf("unexpected record %+v", r)
	}
	assertAPR(t, r, "630.72")
}

func TestGaugeAdapter_AllPoolsFail(t *testing.T) {
	g := newTestGauge(t, &stubChain{}, dexPairJSON)

	_, err := g.Pools(context.Background())
	if pool.KindOf(err) != pool.SourceUnavailable {
		t.Errorf("err = %v, want source unavailable", err)
	}
}

func TestGaugeAdapter_PairNotListed(t *testing.T) {
	g := newTestGauge(t, healthyChain(), `{"pairs":[]}`)

	_, err := g.Pools(context.Background())
	if pool.KindOf(err) != pool.SourceShapeChanged {
		t.Errorf("err = %v, want shape changed", err)
	}
}
