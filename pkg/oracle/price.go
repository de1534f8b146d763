package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

const defaultBaseURL = "https://api.coingecko.com/api/v3"

// cacheTTL bounds how stale a memoized price may be.
const cacheTTL = 30 * time.Second

// fallbackPrices are served when the price source is unreachable, keyed by
// asset id. The oracle never returns an error.
var fallbackPrices = map[string]float64{
	"ethereum":    2000,
	"binancecoin": 600,
	"solana":      150,
}

type cacheEntry struct {
	price     float64
	updatedAt time.Time
}

// PriceOracle resolves the USD price of a native asset, memoized per asset id.
type PriceOracle struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

func NewPriceOracle() *PriceOracle {
	return &PriceOracle{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cache:      make(map[string]cacheEntry),
	}
}

// NewPriceOracleWithBaseURL is used by tests to point at a fake source.
func NewPriceOracleWithBaseURL(baseURL string) *PriceOracle {
	p := NewPriceOracle()
	p.baseURL = baseURL
	return p
}

// GetPrice returns USD per native unit for the given asset id. Cached values
// within the TTL are returned without a network call; on fetch failure the
// static fallback is served.
func (p *PriceOracle) GetPrice(ctx context.Context, assetID string) float64 {
	p.mu.RLock()
	entry, ok := p.cache[assetID]
	p.mu.RUnlock()
	if ok && time.Since(entry.updatedAt) < cacheTTL {
		return entry.price
	}

	price, err := p.fetch(ctx, assetID)
	if err != nil {
		log.Warnf("price fetch for %s failed: %v, using fallback", assetID, err)
		if ok {
			return entry.price
		}
		return fallbackPrices[assetID]
	}

	p.mu.Lock()
	p.cache[assetID] = cacheEntry{price: price, updatedAt: time.Now()}
	p.mu.Unlock()

	return price
}

func (p *PriceOracle) fetch(ctx context.Context, assetID string) (float64, error) {
	params := url.Values{}
	params.Add("ids", assetID)
	params.Add("vs_currencies", "usd")
	fullURL := fmt.Sprintf("%s/simple/price?%s", p.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return 0, err
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to make HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("HTTP request failed with status: %d", resp.StatusCode)
	}

	var data map[string]struct {
		USD float64 `json:"usd"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return 0, fmt.Errorf("failed to decode JSON response: %w", err)
	}

	price := data[assetID].USD
	if price <= 0 {
		return 0, fmt.Errorf("invalid price for %s: %f", assetID, price)
	}
	return price, nil
}
