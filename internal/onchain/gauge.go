package onchain

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/web3-frozen/ovn-pools/internal/pool"
)

// SecondsPerYear is the annualization factor for per-second emissions.
const SecondsPerYear = 31536000

// GaugeState is what the APR formula needs from a pool and its gauge.
type GaugeState struct {
	LPSupply   decimal.Decimal // pool LP totalSupply
	Staked     decimal.Decimal // LP staked in the gauge (its total weight)
	RewardRate decimal.Decimal // reward tokens emitted per second
}

// ReadGauge reads LP supply from the pool and staked supply plus reward rate
// from its gauge. Reward tokens are assumed to use 18 decimals.
func ReadGauge(ctx context.Context, c Caller, poolAddr, gaugeAddr common.Address) (GaugeState, error) {
	erc20, err := erc20ABI.get()
	if err != nil {
		return GaugeState{}, fmt.Errorf("parse erc20 abi: %w", err)
	}
	gauge, err := gaugeABI.get()
	if err != nil {
		return GaugeState{}, fmt.Errorf("parse gauge abi: %w", err)
	}

	values, err := call(ctx, c, poolAddr, erc20, "decimals")
	if err != nil {
		return GaugeState{}, err
	}
	lpDecimals, ok := values[0].(uint8)
	if !ok {
		return GaugeState{}, fmt.Errorf("decimals: unexpected type %T", values[0])
	}

	supply, err := callBigInt(ctx, c, poolAddr, erc20, "totalSupply")
	if err != nil {
		return GaugeState{}, err
	}
	staked, err := callBigInt(ctx, c, gaugeAddr, gauge, "totalSupply")
	if err != nil {
		return GaugeState{}, err
	}
	rate, err := callBigInt(ctx, c, gaugeAddr, gauge, "rewardRate")
	if err != nil {
		return GaugeState{}, err
	}

	return GaugeState{
		LPSupply:   pool.FromUnits(supply, int(lpDecimals)),
		Staked:     pool.FromUnits(staked, int(lpDecimals)),
		RewardRate: pool.FromUnits(rate, 18),
	}, nil
}

// GaugeAPR annualizes gauge emissions for $100 of LP:
//
//	lpShare = 100 / (tvlUSD / lpSupply)
//	apr     = (lpShare / staked) * rewardRate * rewardPriceUSD * SecondsPerYear
func GaugeAPR(tvlUSD decimal.Decimal, g GaugeState, rewardPriceUSD decimal.Decimal) (decimal.Decimal, error) {
	if !tvlUSD.IsPositive() || !g.LPSupply.IsPositive() {
		return decimal.Zero, errors.New("tvl and lp supply must be positive")
	}
	if !g.Staked.IsPositive() {
		return decimal.Zero, errors.New("nothing staked in gauge")
	}

	lpPrice := tvlUSD.Div(g.LPSupply)
	lpShare := decimal.NewFromInt(100).Div(lpPrice)
	return lpShare.Div(g.Staked).
		Mul(g.RewardRate).
		Mul(rewardPriceUSD).
		Mul(decimal.NewFromInt(SecondsPerYear)).
		Round(2), nil
}
