package main

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/web3-frozen/ovn-pools/internal/exchanger"
	"github.com/web3-frozen/ovn-pools/internal/pool"
	"github.com/web3-frozen/ovn-pools/internal/skim"
	"github.com/web3-frozen/ovn-pools/internal/store"
)

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	writeSummary(&buf, exchanger.Summary{
		RunID: "run-1",
		Results: []exchanger.Result{
			{Exchanger: pool.Velodrome, Returned: 4, Inserted: 1, Updated: 3, Duration: 1500 * time.Millisecond},
			{Exchanger: pool.Ramses, Error: "page not found"},
		},
	})

	out := buf.String()
	for _, want := range []string{"EXCHANGER", "VELODROME", "1.5s", "RAMSES", "page not found"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWritePools(t *testing.T) {
	apr := decimal.RequireFromString("7.456")
	pools := []store.Pool{
		{Record: pool.Record{Address: "0xaa", Name: "USD+/USDC", TVL: decimal.RequireFromString("1000.5"), APR: &apr, Chain: pool.Base}, Exchanger: pool.Aerodrome, Enabled: true},
		{Record: pool.Record{Address: "0xbb", Name: "DAI+/DAI", TVL: decimal.Zero, Chain: pool.Optimism}, Exchanger: pool.Velodrome},
	}

	var buf bytes.Buffer
	writePools(&buf, pools)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d:\n%s", len(lines), buf.String())
	}
	if !strings.Contains(lines[1], "1000.50") || !strings.Contains(lines[1], "7.46") {
		t.Errorf("row = %q", lines[1])
	}
	if !strings.Contains(lines[2], " - ") {
		t.Errorf("null apr row = %q", lines[2])
	}
}

func TestFilterExchanger(t *testing.T) {
	pools := []store.Pool{{Exchanger: pool.Aerodrome}, {Exchanger: pool.Velodrome}, {Exchanger: pool.Aerodrome}}
	if got := filterExchanger(pools, pool.Aerodrome); len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
}

func TestWriteSkim(t *testing.T) {
	var buf bytes.Buffer
	writeSkim(&buf, skim.Report{Chains: []skim.ChainReport{
		{Chain: pool.Base, Checked: 2, Listed: 1, Missing: []store.Pool{{Record: pool.Record{Address: "0xcc", Name: "USD+/WETH", Chain: pool.Base}, Exchanger: pool.Aerodrome}}},
		{Chain: pool.Linea, Error: "dial: connection refused"},
	}})
	out := buf.String()
	if !strings.Contains(out, "missing: BASE AERODROME USD+/WETH 0xcc") || !strings.Contains(out, "connection refused") {
		t.Errorf("output:\n%s", out)
	}
}

func TestNewLogger(t *testing.T) {
	if _, err := newLogger("debug", io.Discard); err != nil {
		t.Errorf("debug: %v", err)
	}
	if _, err := newLogger("loud", io.Discard); err == nil {
		t.Error("expected error for unknown level")
	}
}
