package adapters

import "github.com/web3-frozen/ovn-pools/internal/pool"

var spaceFiSpec = browserSpec{
	exchanger: pool.SpaceFi,
	pages:     []page{{url: "https://swap-zksync.spacefi.io/#/farm", chain: pool.ZkSync}},
	poll:      true,
	minRows:   1,
}
