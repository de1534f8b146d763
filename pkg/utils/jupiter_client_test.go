package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"

func TestGetQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/quote", r.URL.Path)
		query := r.URL.Query()
		assert.Equal(t, "So11111111111111111111111111111111111111112", query.Get("inputMint"))
		assert.Equal(t, testMint, query.Get("outputMint"))
		assert.Equal(t, "66666666", query.Get("amount"))
		assert.Equal(t, "100", query.Get("slippageBps"))

		fmt.Fprint(w, `{"inputMint":"So11111111111111111111111111111111111111112","inAmount":"66666666","outputMint":"`+testMint+`","outAmount":"9876543","swapMode":"ExactIn","slippageBps":100,"priceImpactPct":"0.01"}`)
	}))
	defer srv.Close()

	client := NewJupiterClientWithBaseURL(srv.URL)
	quote, raw, err := client.GetQuote(context.Background(), "So11111111111111111111111111111111111111112", testMint, 66666666, 100)
	require.NoError(t, err)
	assert.Equal(t, "9876543", quote.OutAmount)
	assert.Equal(t, 100, quote.SlippageBps)
	assert.NotEmpty(t, raw, "raw quote body is preserved for the swap request")
}

func TestGetQuoteHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewJupiterClientWithBaseURL(srv.URL)
	_, _, err := client.GetQuote(context.Background(), "So11111111111111111111111111111111111111112", testMint, 1000000, 50)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestPostSwap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/swap", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, true, body["wrapAndUnwrapSol"])
		assert.Equal(t, true, body["dynamicComputeUnitLimit"])
		assert.Equal(t, "wallet-pubkey", body["userPublicKey"])
		assert.NotNil(t, body["quoteResponse"])

		fmt.Fprint(w, `{"swapTransaction":"AQID","lastValidBlockHeight":12345}`)
	}))
	defer srv.Close()

	client := NewJupiterClientWithBaseURL(srv.URL)
	swap, err := client.PostSwap(context.Background(), json.RawMessage(`{"outAmount":"9876543"}`), "wallet-pubkey")
	require.NoError(t, err)
	assert.Equal(t, "AQID", swap.SwapTransaction)
	assert.Equal(t, uint64(12345), swap.LastValidBlockHeight)
}
