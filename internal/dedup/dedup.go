package dedup

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ovn_pools:"

// StaleKey marks a stale-pool alert for address.
func StaleKey(address string) string { return keyPrefix + "stale:" + strings.ToLower(address) }

// SkimKey marks a missing-skim alert for address.
func SkimKey(address string) string { return keyPrefix + "skim:" + strings.ToLower(address) }

// StalePattern and SkimPattern match every key of their kind.
const (
	StalePattern = keyPrefix + "stale:*"
	SkimPattern  = keyPrefix + "skim:*"
)

// Deduplicator checks and records whether an alert has been sent.
type Deduplicator struct {
	rdb *redis.Client
}

// New creates a Deduplicator backed by Redis.
func New(redisURL, password string) (*Deduplicator, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	if password != "" {
		opts.Password = password
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, err
	}
	return &Deduplicator{rdb: rdb}, nil
}

// Close shuts down the Redis connection.
func (d *Deduplicator) Close() error {
	return d.rdb.Close()
}

// Ping reports whether Redis is reachable.
func (d *Deduplicator) Ping(ctx context.Context) error {
	return d.rdb.Ping(ctx).Err()
}

// AlreadySent returns true if key was recorded. When Redis is unreachable it
// fails closed and reports true, so an outage never turns into an alert storm.
func (d *Deduplicator) AlreadySent(ctx context.Context, key string) bool {
	exists, err := d.rdb.Exists(ctx, key).Result()
	if err != nil {
		return true
	}
	return exists > 0
}

// Record marks key as sent until cleared.
func (d *Deduplicator) Record(ctx context.Context, key string) {
	d.rdb.Set(ctx, key, "1", 0)
}

// Clear removes a dedup key so the alert can fire again when the condition resets.
func (d *Deduplicator) Clear(ctx context.Context, key string) {
	d.rdb.Del(ctx, key) //nolint:errcheck
}

// Keys lists the recorded keys matching pattern.
func (d *Deduplicator) Keys(ctx context.Context, pattern string) ([]string, error) {
	var (
		keys   []string
		cursor uint64
	)
	for {
		batch, next, err := d.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, err
		}
		keys = append(keys, batch...)
		if next == 0 {
			return keys, nil
		}
		cursor = next
	}
}

// ClearByPattern removes every key matching pattern.
func (d *Deduplicator) ClearByPattern(ctx context.Context, pattern string) {
	keys, err := d.Keys(ctx, pattern)
	if err != nil || len(keys) == 0 {
		return
	}
	d.rdb.Del(ctx, keys...) //nolint:errcheck
}
