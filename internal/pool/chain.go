package pool

import "strings"

// Chain identifies the network a pool lives on.
type Chain string

const (
	Optimism Chain = "OPTIMISM"
	Arbitrum Chain = "ARBITRUM"
	Base     Chain = "BASE"
	BSC      Chain = "BSC"
	ZkSync   Chain = "ZKSYNC"
	Polygon  Chain = "POLYGON"
	Blast    Chain = "BLAST"
	Linea    Chain = "LINEA"
)

// Chains lists every supported chain in a stable order.
var Chains = []Chain{Optimism, Arbitrum, Base, BSC, ZkSync, Polygon, Blast, Linea}

var chainIDs = map[Chain]int64{
	Optimism: 10,
	Arbitrum: 42161,
	Base:     8453,
	BSC:      56,
	ZkSync:   324,
	Polygon:  137,
	Blast:    81457,
	Linea:    59144,
}

// upstream APIs disagree on chain naming; these are the spellings seen so far.
var chainAliases = map[string]Chain{
	"optimism":     Optimism,
	"op":           Optimism,
	"op mainnet":   Optimism,
	"arbitrum":     Arbitrum,
	"arbitrum one": Arbitrum,
	"arb":          Arbitrum,
	"base":         Base,
	"bsc":          BSC,
	"bnb":          BSC,
	"binance":      BSC,
	"bnb chain":    BSC,
	"zksync":       ZkSync,
	"zksync era":   ZkSync,
	"era":          ZkSync,
	"polygon":      Polygon,
	"matic":        Polygon,
	"blast":        Blast,
	"linea":        Linea,
}

// Valid reports whether c is one of the supported chains.
func (c Chain) Valid() bool {
	_, ok := chainIDs[c]
	return ok
}

// ID returns the EVM chain id, or 0 for an unknown chain.
func (c Chain) ID() int64 { return chainIDs[c] }

// ParseChain maps an upstream chain label to a Chain.
func ParseChain(s string) (Chain, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	if c, ok := chainAliases[key]; ok {
		return c, true
	}
	c := Chain(strings.ToUpper(key))
	return c, c.Valid()
}

// ChainByID maps an EVM chain id to a Chain.
func ChainByID(id int64) (Chain, bool) {
	for c, cid := range chainIDs {
		if cid == id {
			return c, true
		}
	}
	return "", false
}
