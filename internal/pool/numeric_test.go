package pool

import (
	"math/big"
	"testing"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"$1,234.56", "1234.56"},
		{"12.3%", "12.3"},
		{"TVL~$1.2k", "1200"},
		{"$3.45M", "3450000"},
		{"1.5B", "1500000000"},
		{"<$0.01", "0.01"},
		{"APR 0%", "0"},
		{"$.5", "0.5"},
		{"$100 Base", "100"},
		{"$2.5m on Blast", "2500000"},
	}
	for _, tt := range tests {
		got, err := ParseAmount(tt.input)
		if err != nil {
			t.Errorf("ParseAmount(%q) error: %v", tt.input, err)
			continue
		}
		if got.String() != tt.want {
			t.Errorf("ParseAmount(%q) = %s, want %s", tt.input, got, tt.want)
		}
	}
}

func TestParseAmountNoNumber(t *testing.T) {
	for _, s := range []string{"", "N/A", "$"} {
		if _, err := ParseAmount(s); err == nil {
			t.Errorf("ParseAmount(%q) expected error", s)
		}
	}
}

func TestFromUnits(t *testing.T) {
	v, _ := new(big.Int).SetString("1500000000000000000", 10)
	if got := FromUnits(v, 18).String(); got != "1.5" {
		t.Errorf("FromUnits = %s, want 1.5", got)
	}
	if got := FromUnits(big.NewInt(2500000), 6).String(); got != "2.5" {
		t.Errorf("FromUnits = %s, want 2.5", got)
	}
	if got := FromUnits(nil, 6).String(); got != "0" {
		t.Errorf("FromUnits(nil) = %s, want 0", got)
	}
}

func TestParseChain(t *testing.T) {
	tests := []struct {
		input string
		want  Chain
		ok    bool
	}{
		{"optimism", Optimism, true},
		{"Arbitrum One", Arbitrum, true},
		{"BASE", Base, true},
		{"bnb", BSC, true},
		{"zkSync Era", ZkSync, true},
		{"linea", Linea, true},
		{"solana", "SOLANA", false},
	}
	for _, tt := range tests {
		got, ok := ParseChain(tt.input)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("ParseChain(%q) = %q, %v; want %q, %v", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestChainByID(t *testing.T) {
	if c, ok := ChainByID(8453); !ok || c != Base {
		t.Errorf("ChainByID(8453) = %q, %v", c, ok)
	}
	if _, ok := ChainByID(1); ok {
		t.Error("ChainByID(1) should be unknown")
	}
}

func TestParseExchanger(t *testing.T) {
	if got, ok := ParseExchanger("velodrome"); !ok || got != Velodrome {
		t.Errorf("ParseExchanger(velodrome) = %q, %v", got, ok)
	}
	if _, ok := ParseExchanger("sushi"); ok {
		t.Error("ParseExchanger(sushi) should fail")
	}
}
