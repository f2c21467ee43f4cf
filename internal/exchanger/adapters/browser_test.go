package adapters

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/web3-frozen/ovn-pools/internal/pool"
	"github.com/web3-frozen/ovn-pools/internal/scrape"
)

type fakePage struct {
	texts   map[string][]string
	navErr  error
	waitErr error
	visited []string
	closed  bool
}

func (p *fakePage) Navigate(_ context.Context, url string) error {
	p.visited = append(p.visited, url)
	return p.navErr
}

func (p *fakePage) WaitForSelector(context.Context, string, time.Duration) error { return p.waitErr }

func (p *fakePage) ExtractText(_ context.Context, selector string) ([]string, error) {
	return p.texts[selector], nil
}

func (p *fakePage) Count(_ context.Context, selector string) (int, error) {
	return len(p.texts[selector]), nil
}

func (p *fakePage) Close() error {
	p.closed = true
	return nil
}

type fakeFetcher struct {
	page    *fakePage
	openErr error
}

func (f *fakeFetcher) Open(context.Context) (scrape.Page, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	return f.page, nil
}

var testSelectors = selectors{marker: ".pools", rows: ".row", name: ".name", tvl: ".tvl", apr: ".apr"}

const (
	testUSDbCPool  = "0x00000000000000000000000000000000000000a1"
	testUSDCPool   = "0x00000000000000000000000000000000000000a2"
	testLineaPool  = "0x00000000000000000000000000000000000000a3"
	testZkSyncPool = "0x00000000000000000000000000000000000000a4"
)

func testTable(addresses map[pool.Chain]map[string]string) browserTable {
	return browserTable{selectors: testSelectors, addresses: addresses}
}

var aerodromeTable = testTable(map[pool.Chain]map[string]string{
	pool.Base: {"usd+/usdbc": testUSDbCPool, "usd+/usdc": testUSDCPool},
})

func aerodromePage() *fakePage {
	s := testSelectors
	return &fakePage{texts: map[string][]string{
		s.rows: {"r1", "r2", "r3"},
		s.name: {"USD+ / USDbC", "XYZ/ABC", "vAMM-USD+/USDC"},
		s.tvl:  {"$1,234.5", "$10", "~$1.2k"},
		s.apr:  {"12.3%", "1%", "—"},
	}}
}

func TestBrowserAdapter_MapsScrapedRows(t *testing.T) {
	pg := aerodromePage()
	a := newBrowserAdapter(aerodromeSpec, aerodromeTable, &fakeFetcher{page: pg}, time.Second, discardLogger())

	records, err := a.Pools(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected unmapped XYZ/ABC to be dropped, got %+v", records)
	}
	first := records[0]
	if first.Address != testUSDbCPool || first.Name != "USD+/USDbC" {
		t.Errorf("unexpected first record %+v", first)
	}
	if !first.TVL.Equal(dec("1234.5")) || first.Chain != pool.Base {
		t.Errorf("unexpected first record %+v", first)
	}
	assertAPR(t, first, "12.3")

	second := records[1]
	if second.Address != testUSDCPool || !second.TVL.Equal(dec("1200")) {
		t.Errorf("unexpected second record %+v", second)
	}
	assertAPR(t, second, "")

	if !pg.closed {
		t.Error("page was not closed")
	}
	if len(pg.visited) != 1 || pg.visited[0] != aerodromeSpec.pages[0].url {
		t.Errorf("visited = %v", pg.visited)
	}
}

func TestBrowserAdapter_MarkerMissing(t *testing.T) {
	pg := aerodromePage()
	pg.waitErr = context.DeadlineExceeded
	a := newBrowserAdapter(aerodromeSpec, aerodromeTable, &fakeFetcher{page: pg}, time.Second, discardLogger())

	_, err := a.Pools(context.Background())
	if pool.KindOf(err) != pool.SourceShapeChanged {
		t.Errorf("err = %v, want shape changed", err)
	}
	if !pg.closed {
		t.Error("page must be closed on failure")
	}
}

func TestBrowserAdapter_NavigateFails(t *testing.T) {
	pg := aerodromePage()
	pg.navErr = errors.New("net::ERR_NAME_NOT_RESOLVED")
	table := testTable(map[pool.Chain]map[string]string{pool.Arbitrum: {"usd+/usdc": testUSDCPool}})
	a := newBrowserAdapter(ramsesSpec, table, &fakeFetcher{page: pg}, time.Second, discardLogger())

	_, err := a.Pools(context.Background())
	if pool.KindOf(err) != pool.SourceUnavailable {
		t.Errorf("err = %v, want source unavailable", err)
	}
	if !pg.closed {
		t.Error("page must be closed on failure")
	}
}

func TestBrowserAdapter_ColumnMismatch(t *testing.T) {
	pg := aerodromePage()
	pg.texts[testSelectors.apr] = []string{"1%"}
	a := newBrowserAdapter(aerodromeSpec, aerodromeTable, &fakeFetcher{page: pg}, time.Second, discardLogger())

	_, err := a.Pools(context.Background())
	if pool.KindOf(err) != pool.SourceShapeChanged {
		t.Errorf("err = %v, want shape changed", err)
	}
}

func TestBrowserAdapter_QuietFailure(t *testing.T) {
	table := testTable(map[pool.Chain]map[string]string{pool.Arbitrum: {"usd+/usdc": testUSDCPool}})
	a := newBrowserAdapter(chronosSpec, table, &fakeFetcher{openErr: errors.New("chrome not found")}, time.Second, discardLogger())

	records, err := a.Pools(context.Background())
	if err != nil || records != nil {
		t.Errorf("got %v, %v; want nil, nil", records, err)
	}
}

func TestBrowserAdapter_EveryPageVisited(t *testing.T) {
	s := testSelectors
	pg := &fakePage{texts: map[string][]string{
		s.rows: {"r1"},
		s.name: {"USD+/USDC"},
		s.tvl:  {"$5"},
		s.apr:  {"2%"},
	}}
	table := testTable(map[pool.Chain]map[string]string{
		pool.ZkSync: {"usd+/usdc": testZkSyncPool},
		pool.Linea:  {"usd+/usdc": testLineaPool},
	})
	a := newBrowserAdapter(velocoreSpec, table, &fakeFetcher{page: pg}, time.Second, discardLogger())

	records, err := a.Pools(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 || records[0].Chain != pool.ZkSync || records[1].Chain != pool.Linea {
		t.Fatalf("records = %+v", records)
	}
	if records[0].Address != testZkSyncPool || records[1].Address != testLineaPool {
		t.Error("each chain should use its own address table")
	}
}

func TestBrowserAdapter_UnmappedChainSkipped(t *testing.T) {
	pg := aerodromePage()
	table := testTable(map[pool.Chain]map[string]string{pool.Linea: {"usd+/usdc": testLineaPool}})
	a := newBrowserAdapter(velocoreSpec, table, &fakeFetcher{page: pg}, time.Second, discardLogger())

	if _, err := a.Pools(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pg.visited) != 1 || pg.visited[0] != velocoreSpec.pages[1].url {
		t.Errorf("visited = %v, want only the linea page", pg.visited)
	}
}

func TestBrowserAdapters_OnlyBookEntries(t *testing.T) {
	book, err := ParseAddressBook([]byte(testBook))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	got := browserAdapters(book, &fakeFetcher{}, time.Second, discardLogger())
	if len(got) != 1 || got[0].spec.exchanger != pool.Aerodrome {
		t.Errorf("adapters = %+v, want aerodrome only", got)
	}
	if got := browserAdapters(nil, &fakeFetcher{}, time.Second, discardLogger()); len(got) != 0 {
		t.Errorf("nil book built %d adapters", len(got))
	}
}

func TestParsePercent(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"12.34%", "12.34"},
		{"APR 5.1% - 12.3%", "12.3"},
		{"1,024%", "1024"},
	}
	for _, tt := range tests {
		got, err := parsePercent(tt.in)
		if err != nil {
			t.Errorf("parsePercent(%q): %v", tt.in, err)
			continue
		}
		if !got.Equal(dec(tt.want)) {
			t.Errorf("parsePercent(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
	if _, err := parsePercent("—"); err == nil {
		t.Error("expected error for dash")
	}
}
