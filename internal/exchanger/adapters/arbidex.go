package adapters

import "github.com/web3-frozen/ovn-pools/internal/pool"

var arbidexSpec = browserSpec{
	exchanger: pool.Arbidex,
	pages:     []page{{url: "https://arbidex.fi/farms", chain: pool.Arbitrum}},
}
