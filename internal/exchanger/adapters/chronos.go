package adapters

import "github.com/web3-frozen/ovn-pools/internal/pool"

var chronosSpec = browserSpec{
	exchanger: pool.Chronos,
	pages:     []page{{url: "https://app.chronos.exchange/liquidity", chain: pool.Arbitrum}},
	poll:      true,
	minRows:   1,
	quiet:     true,
}
