// Package scrape provides the page-fetching capability browser adapters
// run against, plus a headless Chrome implementation of it.
package scrape

import (
	"context"
	"fmt"
	"time"
)

// Page is one rendered browser tab.
type Page interface {
	Navigate(ctx context.Context, url string) error
	WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error
	// ExtractText returns the visible text of every node matching selector.
	ExtractText(ctx context.Context, selector string) ([]string, error)
	// Count returns the number of nodes matching selector.
	Count(ctx context.Context, selector string) (int, error)
	Close() error
}

// Fetcher opens pages. Every opened page must be closed by the caller.
type Fetcher interface {
	Open(ctx context.Context) (Page, error)
}

// PollCount re-queries selector every interval until at least min nodes are
// present or tries is exhausted. SPA row rendering is not otherwise
// observable, so a single wait is not enough.
func PollCount(ctx context.Context, p Page, selector string, min int, interval time.Duration, tries int) (int, error) {
	var n int
	for i := 0; i < tries; i++ {
		var err error
		n, err = p.Count(ctx, selector)
		if err != nil {
			return 0, fmt.Errorf("count %s: %w", selector, err)
		}
		if n >= min {
			return n, nil
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return n, ctx.Err()
		case <-timer.C:
		}
	}
	return n, fmt.Errorf("selector %s: %d nodes after %d tries, want %d", selector, n, tries, min)
}
