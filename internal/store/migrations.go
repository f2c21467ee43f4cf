package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/web3-frozen/ovn-pools/internal/pool"
)

const migrationSQL = `
CREATE TABLE IF NOT EXISTS exchangers (
    id SERIAL PRIMARY KEY,
    exchanger_type TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    enable BOOLEAN NOT NULL DEFAULT true,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS pools (
    address TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    decimals INT,
    tvl NUMERIC NOT NULL DEFAULT 0,
    apr NUMERIC,
    chain TEXT NOT NULL,
    pool_version TEXT NOT NULL DEFAULT '',
    meta_data TEXT NOT NULL DEFAULT '',
    exchanger_type TEXT NOT NULL REFERENCES exchangers(exchanger_type),
    enable BOOLEAN NOT NULL DEFAULT true,
    add_to_sync BOOLEAN NOT NULL DEFAULT false,
    skim_enabled BOOLEAN NOT NULL DEFAULT false,
    update_date TIMESTAMPTZ NOT NULL DEFAULT now(),
    skim_update_date TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_pools_exchanger ON pools (exchanger_type);
CREATE INDEX IF NOT EXISTS idx_pools_update_date ON pools (update_date) WHERE enable;
`

// seedSQL inserts one enabled exchanger row per known type (idempotent).
func seedSQL() string {
	values := make([]string, len(pool.ExchangerTypes))
	for i, t := range pool.ExchangerTypes {
		values[i] = fmt.Sprintf("('%s', '%s')", t, t.DisplayName())
	}
	return `INSERT INTO exchangers (exchanger_type, name) VALUES
    ` + strings.Join(values, ",\n    ") + `
ON CONFLICT (exchanger_type) DO NOTHING;`
}

func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, migrationSQL); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx, seedSQL())
	return err
}
