// Package price looks up token USD prices. Lookups made while a Session is
// attached to the context are fetched once per session.
package price

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

const coingeckoAPI = "https://api.coingecko.com/api/v3/simple/price"

// Oracle fetches USD prices from CoinGecko's simple price endpoint.
type Oracle struct {
	client  *http.Client
	baseURL string
	apiKey  string
	limiter *rate.Limiter
}

// NewOracle returns an Oracle limited to the free-tier request rate.
func NewOracle(apiKey string) *Oracle {
	return &Oracle{
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: coingeckoAPI,
		apiKey:  apiKey,
		limiter: rate.NewLimiter(rate.Every(2*time.Second), 3),
	}
}

// USD returns the price of coinID, using the context's Session if any.
func (o *Oracle) USD(ctx context.Context, coinID string) (decimal.Decimal, error) {
	s := SessionFrom(ctx)
	if s != nil {
		if p, ok := s.get(coinID); ok {
			return p, nil
		}
	}

	p, err := o.fetch(ctx, coinID)
	if err != nil {
		return decimal.Zero, err
	}
	if s != nil {
		s.set(coinID, p)
	}
	return p, nil
}

func (o *Oracle) fetch(ctx context.Context, coinID string) (decimal.Decimal, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return decimal.Zero, err
	}

	q := url.Values{"ids": {coinID}, "vs_currencies": {"usd"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return decimal.Zero, err
	}
	if o.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", o.apiKey)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("coingecko: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("coingecko status: %d", resp.StatusCode)
	}

	var body map[string]map[string]json.Number
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, fmt.Errorf("decode coingecko: %w", err)
	}
	v, ok := body[coinID]["usd"]
	if !ok {
		return decimal.Zero, fmt.Errorf("no usd price for %s", coinID)
	}
	return decimal.NewFromString(v.String())
}

// Session is a price cache scoped to one reconciliation pass.
type Session struct {
	mu     sync.Mutex
	prices map[string]decimal.Decimal
}

func NewSession() *Session {
	return &Session{prices: make(map[string]decimal.Decimal)}
}

func (s *Session) get(id string) (decimal.Decimal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.prices[id]
	return p, ok
}

func (s *Session) set(id string, p decimal.Decimal) {
	s.mu.Lock()
	s.prices[id] = p
	s.mu.Unlock()
}

// Len reports how many prices the session holds.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prices)
}

type sessionKey struct{}

// WithSession attaches s to ctx for the duration of a run.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFrom returns the run's Session, or nil outside a run.
func SessionFrom(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionKey{}).(*Session)
	return s
}
