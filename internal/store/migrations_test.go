package store

import (
	"strings"
	"testing"

	"github.com/web3-frozen/ovn-pools/internal/pool"
)

func TestSeedSQL_CoversEveryExchanger(t *testing.T) {
	sql := seedSQL()
	for _, ex := range pool.ExchangerTypes {
		if !strings.Contains(sql, "'"+string(ex)+"'") {
			t.Errorf("seed missing %s", ex)
		}
	}
	if !strings.Contains(sql, "ON CONFLICT (exchanger_type) DO NOTHING") {
		t.Error("seed must be idempotent")
	}
}
