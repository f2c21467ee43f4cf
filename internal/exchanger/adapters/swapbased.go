package adapters

import "github.com/web3-frozen/ovn-pools/internal/pool"

var swapBasedSpec = browserSpec{
	exchanger: pool.SwapBased,
	pages:     []page{{url: "https://swapbased.finance/#/farm", chain: pool.Base}},
}
