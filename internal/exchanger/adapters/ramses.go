package adapters

import "github.com/web3-frozen/ovn-pools/internal/pool"

var ramsesSpec = browserSpec{
	exchanger: pool.Ramses,
	pages:     []page{{url: "https://app.ramses.exchange/liquidity", chain: pool.Arbitrum}},
}
