package adapters

import "github.com/web3-frozen/ovn-pools/internal/pool"

var aerodromeSpec = browserSpec{
	exchanger: pool.Aerodrome,
	pages:     []page{{url: "https://aerodrome.finance/liquidity?query=usd%2B&filters=all", chain: pool.Base}},
	poll:      true,
	minRows:   1,
}
