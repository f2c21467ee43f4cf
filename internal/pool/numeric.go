package pool

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// numberPattern finds the first number in scraped text, with an optional
// magnitude suffix: "$1,234.56", "12.3%", "TVL~$1.2k", "<$0.01". The suffix
// must end a word, so "$100 Base" is 100.
var numberPattern = regexp.MustCompile(`(\d[\d,]*(?:\.\d+)?|\.\d+)\s*([kKmMbB])?\b`)

var magnitudes = map[string]decimal.Decimal{
	"k": decimal.New(1, 3),
	"m": decimal.New(1, 6),
	"b": decimal.New(1, 9),
}

// ParseAmount extracts a non-negative decimal from display text.
func ParseAmount(s string) (decimal.Decimal, error) {
	m := numberPattern.FindStringSubmatch(s)
	if m == nil {
		return decimal.Zero, fmt.Errorf("no number in %q", s)
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", ""))
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse %q: %w", s, err)
	}
	if mul, ok := magnitudes[strings.ToLower(m[2])]; ok {
		d = d.Mul(mul)
	}
	return d, nil
}

// ParseDecimal parses an API-provided numeric string, treating "" as zero.
func ParseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// FromUnits scales an on-chain integer amount by its token decimals.
func FromUnits(v *big.Int, decimals int) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(v, -int32(decimals))
}

// RatioToPercent turns a 0.1234 style rate into "12.34" percent units.
func RatioToPercent(d decimal.Decimal) decimal.Decimal {
	return d.Mul(decimal.NewFromInt(100))
}
