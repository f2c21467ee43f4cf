package adapters

import "github.com/web3-frozen/ovn-pools/internal/pool"

var vesyncSpec = browserSpec{
	exchanger: pool.Vesync,
	pages:     []page{{url: "https://app.vesync.finance/liquidity", chain: pool.ZkSync}},
	poll:      true,
	minRows:   1,
	quiet:     true,
}
