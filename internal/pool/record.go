package pool

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// WatchList holds the token substrings every adapter filters on.
var WatchList = []string{"usd+", "dai+", "usdt+", "eth+", "ovn"}

// namePrefixes are stripped from each side of a pair label.
var namePrefixes = []string{"sAMM-", "vAMM-", "bb-", "LP-"}

// Record is the normalized pool row every adapter produces.
type Record struct {
	Address     string           `json:"address"`
	Name        string           `json:"name"`
	Decimals    *int             `json:"decimals"`
	TVL         decimal.Decimal  `json:"tvl"`
	APR         *decimal.Decimal `json:"apr"`
	Chain       Chain            `json:"chain"`
	PoolVersion string           `json:"pool_version,omitempty"`
	MetaData    string           `json:"metaData,omitempty"`
}

// Watched reports whether name contains a watch-list token, ignoring case.
// "susd+" matches too.
func Watched(name string, extra ...string) bool {
	lower := strings.ToLower(name)
	for _, token := range WatchList {
		if strings.Contains(lower, token) {
			return true
		}
	}
	for _, token := range extra {
		if strings.Contains(lower, strings.ToLower(token)) {
			return true
		}
	}
	return false
}

// CleanName strips AMM/wrapper prefixes from every side of a pair label,
// so "vAMM-USD+/USDC" becomes "USD+/USDC".
func CleanName(name string) string {
	parts := strings.Split(strings.TrimSpace(name), "/")
	for i, p := range parts {
		p = strings.TrimSpace(p)
		for stripped := true; stripped; {
			stripped = false
			for _, prefix := range namePrefixes {
				if len(p) > len(prefix) && strings.EqualFold(p[:len(prefix)], prefix) {
					p = p[len(prefix):]
					stripped = true
				}
			}
		}
		parts[i] = p
	}
	return strings.Join(parts, "/")
}

// Normalize cleans the name, lower-cases hex addresses and checks the
// persistence invariants. A negative APR is treated as unavailable.
func (r Record) Normalize() (Record, error) {
	r.Name = CleanName(r.Name)
	r.Address = strings.TrimSpace(r.Address)
	if strings.HasPrefix(r.Address, "0x") || strings.HasPrefix(r.Address, "0X") {
		r.Address = strings.ToLower(r.Address)
	}
	if r.APR != nil && r.APR.IsNegative() {
		r.APR = nil
	}

	switch {
	case r.Address == "":
		return r, errors.New("empty address")
	case r.Name == "":
		return r, fmt.Errorf("pool %s: empty name", r.Address)
	case r.TVL.IsNegative():
		return r, fmt.Errorf("pool %s: negative tvl %s", r.Address, r.TVL)
	case !r.Chain.Valid():
		return r, fmt.Errorf("pool %s: invalid chain %q", r.Address, r.Chain)
	}
	return r, nil
}

// Key is the pool identity used to collapse duplicates within one adapter run.
func (r Record) Key() string {
	return string(r.Chain) + ":" + strings.ToLower(r.Address)
}

// Dedupe keeps the first record per pool identity, preserving order.
func Dedupe(records []Record) []Record {
	seen := make(map[string]bool, len(records))
	out := records[:0:0]
	for _, r := range records {
		k := r.Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, r)
	}
	return out
}

// APRPtr is a helper for adapters that always have an APR value.
func APRPtr(d decimal.Decimal) *decimal.Decimal { return &d }
