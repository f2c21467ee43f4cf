package adapters

import (
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"

	"github.com/web3-frozen/ovn-pools/internal/pool"
)

// AddressBook is the operator-maintained data the browser and gauge adapters
// cannot discover: DOM selectors, name → pool address tables and gauge
// addresses. Entries must be checked against live deployments before they
// are added; an exchanger without an entry is not registered.
//
//	browser:
//	  AERODROME:
//	    marker: "div.pools"
//	    rows: "div.pools .row"
//	    name: "div.pools .row .symbol"
//	    tvl: "div.pools .row .tvl"
//	    apr: "div.pools .row .apr"
//	    pools:
//	      BASE:
//	        usd+/usdc: "0x..."
//	gauges:
//	  PEARL:
//	    - pool: "0x..."
//	      gauge: "0x..."
//	      chain: POLYGON
//	      name: USD+/USDC
type AddressBook struct {
	browser map[pool.ExchangerType]browserTable
	gauges  map[pool.ExchangerType]map[string]gaugePool
}

// selectors locate one rendered pool table. name, tvl and apr yield one node
// per row, in row order.
type selectors struct {
	marker string
	rows   string
	name   string
	tvl    string
	apr    string
}

type browserTable struct {
	selectors selectors
	// addresses maps chain → nameKey → lower-cased pool address.
	addresses map[pool.Chain]map[string]string
}

type addressBookFile struct {
	Browser map[string]struct {
		Marker string                       `yaml:"marker"`
		Rows   string                       `yaml:"rows"`
		Name   string                       `yaml:"name"`
		TVL    string                       `yaml:"tvl"`
		APR    string                       `yaml:"apr"`
		Pools  map[string]map[string]string `yaml:"pools"`
	} `yaml:"browser"`
	Gauges map[string][]struct {
		Pool  string `yaml:"pool"`
		Gauge string `yaml:"gauge"`
		Chain string `yaml:"chain"`
		Name  string `yaml:"name"`
	} `yaml:"gauges"`
}

// LoadAddressBook reads path. An empty path yields an empty book.
func LoadAddressBook(path string) (*AddressBook, error) {
	if path == "" {
		return &AddressBook{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read address book: %w", err)
	}
	book, err := ParseAddressBook(data)
	if err != nil {
		return nil, fmt.Errorf("address book %s: %w", path, err)
	}
	return book, nil
}

// ParseAddressBook decodes and validates YAML address book data.
func ParseAddressBook(data []byte) (*AddressBook, error) {
	var f addressBookFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	book := &AddressBook{
		browser: make(map[pool.ExchangerType]browserTable),
		gauges:  make(map[pool.ExchangerType]map[string]gaugePool),
	}
	for exName, e := range f.Browser {
		ex, ok := pool.ParseExchanger(exName)
		if !ok {
			return nil, fmt.Errorf("browser: unknown exchanger %q", exName)
		}
		sel := selectors{marker: e.Marker, rows: e.Rows, name: e.Name, tvl: e.TVL, apr: e.APR}
		if sel.marker == "" || sel.rows == "" || sel.name == "" || sel.tvl == "" || sel.apr == "" {
			return nil, fmt.Errorf("browser %s: marker, rows, name, tvl and apr selectors are required", ex)
		}
		table := browserTable{selectors: sel, addresses: make(map[pool.Chain]map[string]string)}
		for chainName, names := range e.Pools {
			chain, ok := pool.ParseChain(chainName)
			if !ok {
				return nil, fmt.Errorf("browser %s: unknown chain %q", ex, chainName)
			}
			m := make(map[string]string, len(names))
			for name, addr := range names {
				if !common.IsHexAddress(addr) {
					return nil, fmt.Errorf("browser %s %s: %q has invalid address %q", ex, chain, name, addr)
				}
				m[nameKey(name)] = strings.ToLower(addr)
			}
			table.addresses[chain] = m
		}
		book.browser[ex] = table
	}

	for exName, entries := range f.Gauges {
		ex, ok := pool.ParseExchanger(exName)
		if !ok {
			return nil, fmt.Errorf("gauges: unknown exchanger %q", exName)
		}
		pools := make(map[string]gaugePool, len(entries))
		for _, e := range entries {
			chain, ok := pool.ParseChain(e.Chain)
			if !ok {
				return nil, fmt.Errorf("gauges %s: unknown chain %q", ex, e.Chain)
			}
			if !common.IsHexAddress(e.Pool) || !common.IsHexAddress(e.Gauge) {
				return nil, fmt.Errorf("gauges %s: invalid pool %q or gauge %q", ex, e.Pool, e.Gauge)
			}
			pools[strings.ToLower(e.Pool)] = gaugePool{gauge: strings.ToLower(e.Gauge), chain: chain, name: e.Name}
		}
		book.gauges[ex] = pools
	}
	return book, nil
}

// browserTable returns the table for t when it maps at least one pool.
func (b *AddressBook) browserTable(t pool.ExchangerType) (browserTable, bool) {
	if b == nil {
		return browserTable{}, false
	}
	table, ok := b.browser[t]
	if !ok {
		return browserTable{}, false
	}
	for _, m := range table.addresses {
		if len(m) > 0 {
			return table, true
		}
	}
	return browserTable{}, false
}

func (b *AddressBook) gaugePools(t pool.ExchangerType) map[string]gaugePool {
	if b == nil {
		return nil
	}
	return b.gauges[t]
}
