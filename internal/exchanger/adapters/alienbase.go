package adapters

import "github.com/web3-frozen/ovn-pools/internal/pool"

var alienBaseSpec = browserSpec{
	exchanger: pool.AlienBase,
	pages:     []page{{url: "https://app.alienbase.xyz/farms", chain: pool.Base}},
}
