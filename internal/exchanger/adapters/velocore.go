package adapters

import "github.com/web3-frozen/ovn-pools/internal/pool"

var velocoreSpec = browserSpec{
	exchanger: pool.Velocore,
	pages: []page{
		{url: "https://zksync.velocore.xyz/pools", chain: pool.ZkSync},
		{url: "https://linea.velocore.xyz/pools", chain: pool.Linea},
	},
	poll:    true,
	minRows: 1,
}
