package dedup

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func setupTestDedup(t *testing.T) (*Deduplicator, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	d, err := New("redis://"+mr.Addr(), "")
	if err != nil {
		mr.Close()
		t.Fatalf("New: %v", err)
	}
	return d, mr
}

func TestAlreadySentNewKey(t *testing.T) {
	d, mr := setupTestDedup(t)
	defer mr.Close()
	defer d.Close()

	ctx := context.Background()
	if d.AlreadySent(ctx, StaleKey("0x1")) {
		t.Error("AlreadySent should return false for new key")
	}
}

func TestRecordAndAlreadySent(t *testing.T) {
	d, mr := setupTestDedup(t)
	defer mr.Close()
	defer d.Close()

	ctx := context.Background()
	d.Record(ctx, StaleKey("0x2"))

	if !d.AlreadySent(ctx, StaleKey("0x2")) {
		t.Error("AlreadySent should return true after Record")
	}
}

func TestClear(t *testing.T) {
	d, mr := setupTestDedup(t)
	defer mr.Close()
	defer d.Close()

	ctx := context.Background()
	d.Record(ctx, SkimKey("0x3"))

	if !d.AlreadySent(ctx, SkimKey("0x3")) {
		t.Fatal("should be sent after Record")
	}

	d.Clear(ctx, SkimKey("0x3"))
	if d.AlreadySent(ctx, SkimKey("0x3")) {
		t.Error("AlreadySent should return false after Clear")
	}
}

func TestClearByPattern(t *testing.T) {
	d, mr := setupTestDedup(t)
	defer mr.Close()
	defer d.Close()

	ctx := context.Background()
	d.Record(ctx, StaleKey("0xaaa"))
	d.Record(ctx, StaleKey("0xbbb"))
	d.Record(ctx, SkimKey("0xaaa"))

	d.ClearByPattern(ctx, StalePattern)

	if d.AlreadySent(ctx, StaleKey("0xaaa")) {
		t.Error("stale key 0xaaa should be cleared")
	}
	if d.AlreadySent(ctx, StaleKey("0xbbb")) {
		t.Error("stale key 0xbbb should be cleared")
	}
	if !d.AlreadySent(ctx, SkimKey("0xaaa")) {
		t.Error("skim key should NOT be cleared")
	}
}

func TestKeys(t *testing.T) {
	d, mr := setupTestDedup(t)
	defer mr.Close()
	defer d.Close()

	ctx := context.Background()
	d.Record(ctx, SkimKey("0xAAA"))
	d.Record(ctx, SkimKey("0xbbb"))
	d.Record(ctx, StaleKey("0xccc"))

	keys, err := d.Keys(ctx, SkimPattern)
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("expected 2 skim keys, got %v", keys)
	}
	for _, k := range keys {
		if k != SkimKey("0xaaa") && k != SkimKey("0xbbb") {
			t.Errorf("unexpected key %q", k)
		}
	}
}

func TestAlreadySentFailClosed(t *testing.T) {
	d, mr := setupTestDedup(t)
	defer d.Close()

	// Stop Redis to simulate failure
	mr.Close()

	ctx := context.Background()
	if !d.AlreadySent(ctx, "any:key") {
		t.Error("AlreadySent should return true (fail-closed) when Redis is down")
	}
}
