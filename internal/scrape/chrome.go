package scrape

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/chromedp/chromedp"
	"golang.org/x/sync/semaphore"
)

// Chrome launches one headless browser per opened page. Concurrent sessions
// are capped because each launch costs a full Chrome process.
type Chrome struct {
	execPath string
	sem      *semaphore.Weighted
}

func NewChrome(execPath string, maxSessions int) *Chrome {
	if maxSessions <= 0 {
		maxSessions = 1
	}
	return &Chrome{
		execPath: execPath,
		sem:      semaphore.NewWeighted(int64(maxSessions)),
	}
}

// Open blocks until a session slot is free, then starts a browser.
func (c *Chrome) Open(ctx context.Context) (Page, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("acquire browser slot: %w", err)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-crash-reporter", true),
		chromedp.Flag("crash-dumps-dir", "/tmp"),
		chromedp.WindowSize(1440, 2000),
	)
	if c.execPath != "" {
		opts = append(opts, chromedp.ExecPath(c.execPath))
	}

	// The browser outlives individual Run calls, so it hangs off the
	// background context and is torn down only by Close. Startup alone is
	// bounded by ctx.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	start := func(ctx context.Context) error { return chromedp.Run(ctx) }
	if err := launch(ctx, tabCtx, tabCancel, start); err != nil {
		tabCancel()
		allocCancel()
		c.sem.Release(1)
		return nil, err
	}

	return &chromePage{
		ctx: tabCtx,
		release: func() {
			tabCancel()
			allocCancel()
			c.sem.Release(1)
		},
	}, nil
}

// launch runs start on browserCtx, cancelling it if ctx ends first.
// browserCtx is left detached from ctx once start returns.
func launch(ctx, browserCtx context.Context, cancel context.CancelFunc, start func(context.Context) error) error {
	stop := context.AfterFunc(ctx, cancel)
	err := start(browserCtx)
	if !stop() {
		return fmt.Errorf("start chrome: %w", context.Cause(ctx))
	}
	if err != nil {
		return fmt.Errorf("start chrome: %w", err)
	}
	return nil
}

type chromePage struct {
	ctx     context.Context
	release func()
	closed  bool
}

// run executes actions on the tab, bounded by the caller's deadline.
func (p *chromePage) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(p.ctx)
	defer cancel()
	if deadline, ok := ctx.Deadline(); ok {
		var c2 context.CancelFunc
		runCtx, c2 = context.WithDeadline(runCtx, deadline)
		defer c2()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

func (p *chromePage) Navigate(ctx context.Context, url string) error {
	return p.run(ctx, chromedp.Navigate(url))
}

func (p *chromePage) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.run(waitCtx, chromedp.WaitVisible(selector, chromedp.ByQuery))
}

func (p *chromePage) ExtractText(ctx context.Context, selector string) ([]string, error) {
	var out []string
	js := fmt.Sprintf(`Array.from(document.querySelectorAll(%s)).map(e => (e.innerText || e.textContent || '').trim())`,
		strconv.Quote(selector))
	if err := p.run(ctx, chromedp.Evaluate(js, &out)); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *chromePage) Count(ctx context.Context, selector string) (int, error) {
	var n int
	js := fmt.Sprintf(`document.querySelectorAll(%s).length`, strconv.Quote(selector))
	if err := p.run(ctx, chromedp.Evaluate(js, &n)); err != nil {
		return 0, err
	}
	return n, nil
}

func (p *chromePage) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	p.release()
	return nil
}
