// Package tokeninfo resolves token mints to metadata and USD prices via the
// DexScreener API, with a short-lived in-process cache.
package tokeninfo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"wallet-sentry/internal/domain"
	"wallet-sentry/internal/solana"
)

// Default configuration values.
const (
	DefaultBaseURL    = "https://api.dexscreener.com"
	DefaultTimeout    = 10 * time.Second
	DefaultMaxRetries = 2
	DefaultRetryDelay = 500 * time.Millisecond
	DefaultMaxDelay   = 5 * time.Second
	DefaultCacheTTL   = time.Minute

	// Most SPL tokens use 6 decimals; DexScreener does not report decimals.
	defaultTokenDecimals = 6
)

// Resolution errors. The two axes are independent: metadata may resolve
// while the price feed has no quote.
var (
	// ErrResolution is returned when no metadata is known for the mint.
	ErrResolution = errors.New("token metadata unknown")

	// ErrPriceUnavailable is returned alongside a usable TokenInfo when
	// metadata resolved but the feed has no USD quote.
	ErrPriceUnavailable = errors.New("token price unavailable")
)

// Resolver resolves token mints with caching. Safe for concurrent use; a
// cache-miss stampede resolves redundantly but never corrupts the cache.
type Resolver struct {
	baseURL    string
	client     *http.Client
	maxRetries int
	retryDelay time.Duration
	maxDelay   time.Duration

	cacheTTL time.Duration
	mu       sync.RWMutex
	cache    map[string]cacheEntry
	now      func() time.Time
}

type cacheEntry struct {
	info      domain.TokenInfo
	expiresAt time.Time
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithBaseURL overrides the DexScreener API base URL.
func WithBaseURL(u string) Option {
	return func(r *Resolver) {
		r.baseURL = u
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		r.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) Option {
	return func(r *Resolver) {
		r.maxRetries = n
	}
}

// WithCacheTTL sets how long successful resolutions are cached.
// Price volatility bounds cache usefulness to seconds-to-minutes.
func WithCacheTTL(d time.Duration) Option {
	return func(r *Resolver) {
		r.cacheTTL = d
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(r *Resolver) {
		r.client = client
	}
}

// NewResolver creates a token resolver.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		baseURL:    DefaultBaseURL,
		client:     &http.Client{Timeout: DefaultTimeout},
		maxRetries: DefaultMaxRetries,
		retryDelay: DefaultRetryDelay,
		maxDelay:   DefaultMaxDelay,
		cacheTTL:   DefaultCacheTTL,
		cache:      make(map[string]cacheEntry),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns metadata and a USD quote for the mint. On metadata failure
// it returns (nil, ErrResolution). When metadata resolves without a quote it
// returns the TokenInfo together with ErrPriceUnavailable so the caller can
// still format an alert with the value line omitted.
func (r *Resolver) Resolve(ctx context.Context, mint string) (*domain.TokenInfo, error) {
	if info, ok := r.cached(mint); ok {
		if info.PriceUSD == nil {
			return info, ErrPriceUnavailable
		}
		return info, nil
	}

	info, err := r.fetch(ctx, mint)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cache[mint] = cacheEntry{info: *info, expiresAt: r.now().Add(r.cacheTTL)}
	r.mu.Unlock()

	if info.PriceUSD == nil {
		return info, ErrPriceUnavailable
	}
	return info, nil
}

// cached returns a copy of a live cache entry.
func (r *Resolver) cached(mint string) (*domain.TokenInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.cache[mint]
	if !ok || r.now().After(entry.expiresAt) {
		return nil, false
	}
	info := entry.info
	return &info, true
}

// pairsResponse mirrors the DexScreener token lookup response.
type pairsResponse struct {
	Pairs []pair `json:"pairs"`
}

type pair struct {
	ChainID   string `json:"chainId"`
	BaseToken struct {
		Address string `json:"address"`
		Symbol  string `json:"symbol"`
		Name    string `json:"name"`
	} `json:"baseToken"`
	PriceUSD  string `json:"priceUsd"`
	Liquidity struct {
		USD float64 `json:"usd"`
	} `json:"liquidity"`
}

// fetch performs the API lookup with bounded retry and backoff.
func (r *Resolver) fetch(ctx context.Context, mint string) (*domain.TokenInfo, error) {
	url := fmt.Sprintf("%s/latest/dex/tokens/%s", r.baseURL, mint)

	delay := r.retryDelay
	var lastErr error

	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
			if delay > r.maxDelay {
				delay = r.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}

		resp, err := r.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("%w: status %d", ErrResolution, resp.StatusCode)
		}

		var parsed pairsResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return nil, fmt.Errorf("%w: decode response: %v", ErrResolution, err)
		}
		return infoFromPairs(mint, parsed.Pairs)
	}

	return nil, fmt.Errorf("%w: %v", ErrResolution, lastErr)
}

// infoFromPairs picks the Solana pair with the deepest USD liquidity.
func infoFromPairs(mint string, pairs []pair) (*domain.TokenInfo, error) {
	var candidates []pair
	for _, p := range pairs {
		if p.ChainID == "solana" && p.BaseToken.Address == mint {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return nil, ErrResolution
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Liquidity.USD > candidates[j].Liquidity.USD
	})
	best := candidates[0]

	info := &domain.TokenInfo{
		Mint:     mint,
		Symbol:   best.BaseToken.Symbol,
		Name:     best.BaseToken.Name,
		Decimals: defaultTokenDecimals,
	}
	if info.Symbol == "" {
		info.Symbol = "UNKNOWN"
	}
	if mint == solana.WSOL {
		// The feed reports wrapped SOL under its mint; render it as native.
		info.Symbol = "SOL"
		info.Name = "Solana"
		info.Decimals = 9
	}

	if price, err := strconv.ParseFloat(best.PriceUSD, 64); err == nil && price > 0 {
		info.PriceUSD = &price
	}
	return info, nil
}
