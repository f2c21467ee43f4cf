package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/web3-frozen/ovn-pools/internal/pool"
)

// ErrNotFound is returned when a pool row does not exist.
var ErrNotFound = errors.New("not found")

type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2

	p, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{pool: p}, nil
}

func (s *Store) Close() { s.pool.Close() }

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

// --- Exchangers ---

type Exchanger struct {
	ID      int                `json:"id"`
	Type    pool.ExchangerType `json:"exchanger_type"`
	Name    string             `json:"name"`
	Enabled bool               `json:"enable"`
}

func (s *Store) ListExchangers(ctx context.Context) ([]Exchanger, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, exchanger_type, name, enable FROM exchangers ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Exchanger
	for rows.Next() {
		var e Exchanger
		if err := rows.Scan(&e.ID, &e.Type, &e.Name, &e.Enabled); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) SetExchangerEnabled(ctx context.Context, t pool.ExchangerType, enabled bool) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE exchangers SET enable = $2 WHERE exchanger_type = $1`, t, enabled)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Pools ---

// Pool is a persisted pool row.
type Pool struct {
	pool.Record
	Exchanger      pool.ExchangerType `json:"exchanger"`
	Enabled        bool               `json:"enable"`
	AddToSync      bool               `json:"add_to_sync"`
	SkimEnabled    bool               `json:"skim_enabled"`
	UpdateDate     time.Time          `json:"update_date"`
	SkimUpdateDate *time.Time         `json:"skim_update_date"`
	CreatedAt      time.Time          `json:"created_at"`
}

const poolColumns = `address, name, decimals, tvl::text, apr::text, chain, pool_version, meta_data,
	exchanger_type, enable, add_to_sync, skim_enabled, update_date, skim_update_date, created_at`

func scanPool(row pgx.Row) (*Pool, error) {
	var (
		p        Pool
		decimals *int32
		tvl      string
		apr      *string
	)
	err := row.Scan(&p.Address, &p.Name, &decimals, &tvl, &apr, &p.Chain, &p.PoolVersion, &p.MetaData,
		&p.Exchanger, &p.Enabled, &p.AddToSync, &p.SkimEnabled, &p.UpdateDate, &p.SkimUpdateDate, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	if decimals != nil {
		d := int(*decimals)
		p.Decimals = &d
	}
	if p.TVL, err = decimal.NewFromString(tvl); err != nil {
		return nil, fmt.Errorf("pool %s tvl: %w", p.Address, err)
	}
	if apr != nil {
		a, err := decimal.NewFromString(*apr)
		if err != nil {
			return nil, fmt.Errorf("pool %s apr: %w", p.Address, err)
		}
		p.APR = &a
	}
	return &p, nil
}

func collectPools(rows pgx.Rows) ([]Pool, error) {
	defer rows.Close()
	var out []Pool
	for rows.Next() {
		p, err := scanPool(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// GetPool looks a pool up by its (lower-cased) address.
func (s *Store) GetPool(ctx context.Context, address string) (*Pool, error) {
	p, err := scanPool(s.pool.QueryRow(ctx,
		`SELECT `+poolColumns+` FROM pools WHERE address = $1`, address))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

// ListPools returns all pools, optionally only enabled ones.
func (s *Store) ListPools(ctx context.Context, enabledOnly bool) ([]Pool, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+poolColumns+` FROM pools WHERE (NOT $1 OR enable) ORDER BY exchanger_type, name`, enabledOnly)
	if err != nil {
		return nil, err
	}
	return collectPools(rows)
}

// ListStalePools returns enabled pools not refreshed since before.
func (s *Store) ListStalePools(ctx context.Context, before time.Time) ([]Pool, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+poolColumns+` FROM pools WHERE enable AND update_date < $1 ORDER BY update_date`, before)
	if err != nil {
		return nil, err
	}
	return collectPools(rows)
}

func aprArg(apr *decimal.Decimal) *string {
	if apr == nil {
		return nil
	}
	s := apr.String()
	return &s
}

// MergeOp is what UpsertPool did with one record.
type MergeOp string

const (
	OpInserted MergeOp = "inserted"
	OpUpdated  MergeOp = "updated"
	OpSkipped  MergeOp = "skipped"
)

// UpsertPool inserts a new enabled pool first observed by ex, or refreshes
// the observed fields of an existing enabled one. Disabled rows, exchanger
// and address are never touched. It is a single statement, so concurrent
// writers of one address cannot collide on the primary key.
func (s *Store) UpsertPool(ctx context.Context, ex pool.ExchangerType, r pool.Record, at time.Time) (MergeOp, error) {
	var inserted bool
	err := s.pool.QueryRow(ctx, `
		INSERT INTO pools (address, name, decimals, tvl, apr, chain, pool_version, meta_data,
			exchanger_type, enable, update_date)
		VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6, $7, $8, $9, true, $10)
		ON CONFLICT (address) DO UPDATE SET
			name = EXCLUDED.name,
			tvl = EXCLUDED.tvl,
			apr = EXCLUDED.apr,
			update_date = EXCLUDED.update_date
		WHERE pools.enable
		RETURNING (xmax = 0)`,
		r.Address, r.Name, r.Decimals, r.TVL.String(), aprArg(r.APR), r.Chain, r.PoolVersion, r.MetaData, ex, at,
	).Scan(&inserted)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		// The conflicting row is disabled.
		return OpSkipped, nil
	case err != nil:
		return "", err
	case inserted:
		return OpInserted, nil
	}
	return OpUpdated, nil
}

func (s *Store) SetPoolEnabled(ctx context.Context, address string, enabled bool) error {
	tag, err := s.pool.Exec(ctx, `UPDATE pools SET enable = $2 WHERE address = $1`, address, enabled)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetSkimStatus records whether a pool is configured in its payout listener.
func (s *Store) SetSkimStatus(ctx context.Context, address string, enabled bool, at time.Time) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE pools SET skim_enabled = $2, skim_update_date = $3 WHERE address = $1`,
		address, enabled, at)
	return err
}
