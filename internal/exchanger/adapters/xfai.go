package adapters

import "github.com/web3-frozen/ovn-pools/internal/pool"

var xfaiSpec = browserSpec{
	exchanger: pool.Xfai,
	pages:     []page{{url: "https://app.xfai.com/pools", chain: pool.Linea}},
	poll:      true,
	minRows:   1,
}
