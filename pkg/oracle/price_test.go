package oracle

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetPrice(t *testing.T) {
	t.Run("fetches and memoizes within the TTL", func(t *testing.T) {
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			fmt.Fprint(w, `{"solana":{"usd":150}}`)
		}))
		defer srv.Close()

		p := NewPriceOracleWithBaseURL(srv.URL)

		assert.Equal(t, 150.0, p.GetPrice(context.Background(), "solana"))
		assert.Equal(t, 150.0, p.GetPrice(context.Background(), "solana"))
		assert.Equal(t, int32(1), hits.Load(), "second call is served from cache")
	})

	t.Run("serves the static fallback when the source errors", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer srv.Close()

		p := NewPriceOracleWithBaseURL(srv.URL)

		assert.Equal(t, 2000.0, p.GetPrice(context.Background(), "ethereum"))
		assert.Equal(t, 600.0, p.GetPrice(context.Background(), "binancecoin"))
		assert.Equal(t, 150.0, p.GetPrice(context.Background(), "solana"))
	})

	t.Run("prefers a stale cached price over the static fallback", func(t *testing.T) {
		var fail atomic.Bool
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if fail.Load() {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			fmt.Fprint(w, `{"binancecoin":{"usd":612.5}}`)
		}))
		defer srv.Close()

		p := NewPriceOracleWithBaseURL(srv.URL)
		assert.Equal(t, 612.5, p.GetPrice(context.Background(), "binancecoin"))

		// Expire the cache entry, then break the source.
		p.mu.Lock()
		entry := p.cache["binancecoin"]
		entry.updatedAt = entry.updatedAt.Add(-2 * cacheTTL)
		p.cache["binancecoin"] = entry
		p.mu.Unlock()
		fail.Store(true)

		assert.Equal(t, 612.5, p.GetPrice(context.Background(), "binancecoin"))
	})

	t.Run("rejects a non-positive price", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"ethereum":{"usd":0}}`)
		}))
		defer srv.Close()

		p := NewPriceOracleWithBaseURL(srv.URL)
		assert.Equal(t, 2000.0, p.GetPrice(context.Background(), "ethereum"))
	})
}
