package onchain

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const erc20ABIJSON = `[
  {"inputs": [], "name": "totalSupply", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "decimals", "outputs": [{"type": "uint8"}], "stateMutability": "view", "type": "function"}
]`

// Solidly-style gauge: emissions per second and staked LP.
const gaugeABIJSON = `[
  {"inputs": [], "name": "rewardRate", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "totalSupply", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"}
]`

const payoutListenerABIJSON = `[
  {
    "inputs": [],
    "name": "getItems",
    "outputs": [
      {
        "components": [
          {"internalType": "address", "name": "pool", "type": "address"},
          {"internalType": "address", "name": "token", "type": "address"},
          {"internalType": "string", "name": "poolName", "type": "string"},
          {"internalType": "address", "name": "bribe", "type": "address"},
          {"internalType": "uint8", "name": "operation", "type": "uint8"},
          {"internalType": "address", "name": "to", "type": "address"},
          {"internalType": "string", "name": "dexName", "type": "string"},
          {"internalType": "uint24", "name": "feePercent", "type": "uint24"},
          {"internalType": "address", "name": "feeReceiver", "type": "address"}
        ],
        "internalType": "struct PayoutListener.Item[]",
        "name": "",
        "type": "tuple[]"
      }
    ],
    "stateMutability": "view",
    "type": "function"
  }
]`

type lazyABI struct {
	src  string
	once sync.Once
	abi  abi.ABI
	err  error
}

func (l *lazyABI) get() (abi.ABI, error) {
	l.once.Do(func() {
		l.abi, l.err = abi.JSON(strings.NewReader(l.src))
	})
	return l.abi, l.err
}

var (
	erc20ABI          = &lazyABI{src: erc20ABIJSON}
	gaugeABI          = &lazyABI{src: gaugeABIJSON}
	payoutListenerABI = &lazyABI{src: payoutListenerABIJSON}
)
