package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const jupiterBaseURL = "https://lite-api.jup.ag/swap/v1"

// JupiterQuoteResponse represents the response structure from the Jupiter
// quote API.
type JupiterQuoteResponse struct {
	InputMint            string      `json:"inputMint"`
	InAmount             string      `json:"inAmount"`
	OutputMint           string      `json:"outputMint"`
	OutAmount            string      `json:"outAmount"`
	OtherAmountThreshold string      `json:"otherAmountThreshold"`
	SwapMode             string      `json:"swapMode"`
	SlippageBps          int         `json:"slippageBps"`
	PlatformFee          any         `json:"platformFee"`
	PriceImpactPct       string      `json:"priceImpactPct"`
	RoutePlan            []RoutePlan `json:"routePlan"`
	ContextSlot          int         `json:"contextSlot"`
	TimeTaken            float64     `json:"timeTaken"`
	SwapUsdValue         string      `json:"swapUsdValue"`
}

// RoutePlan represents a route plan in the Jupiter response.
type RoutePlan struct {
	SwapInfo SwapInfo `json:"swapInfo"`
	Percent  int      `json:"percent"`
	Bps      int      `json:"bps"`
}

// SwapInfo represents swap information in a route plan.
type SwapInfo struct {
	AmmKey     string `json:"ammKey"`
	Label      string `json:"label"`
	InputMint  string `json:"inputMint"`
	OutputMint string `json:"outputMint"`
	InAmount   string `json:"inAmount"`
	OutAmount  string `json:"outAmount"`
	FeeAmount  string `json:"feeAmount"`
	FeeMint    string `json:"feeMint"`
}

// JupiterSwapResponse carries the serialized transaction returned by the
// Jupiter swap API.
type JupiterSwapResponse struct {
	SwapTransaction      string `json:"swapTransaction"`
	LastValidBlockHeight uint64 `json:"lastValidBlockHeight"`
}

type jupiterSwapRequest struct {
	QuoteResponse           json.RawMessage `json:"quoteResponse"`
	UserPublicKey           string          `json:"userPublicKey"`
	WrapAndUnwrapSol        bool            `json:"wrapAndUnwrapSol"`
	DynamicComputeUnitLimit bool            `json:"dynamicComputeUnitLimit"`
}

// JupiterClient talks to the Jupiter aggregator HTTP API.
type JupiterClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewJupiterClient() *JupiterClient {
	return &JupiterClient{
		baseURL:    jupiterBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// NewJupiterClientWithBaseURL is used by tests to point at a fake API.
func NewJupiterClientWithBaseURL(baseURL string) *JupiterClient {
	c := NewJupiterClient()
	c.baseURL = baseURL
	return c
}

// GetQuote retrieves a swap quote from the Jupiter API. The raw response
// body is returned alongside the parsed struct so it can be passed back to
// the swap endpoint untouched.
func (c *JupiterClient) GetQuote(ctx context.Context, inputMint, outputMint string, amount uint64, slippageBps int) (*JupiterQuoteResponse, json.RawMessage, error) {
	params := url.Values{}
	params.Add("inputMint", inputMint)
	params.Add("outputMint", outputMint)
	params.Add("amount", strconv.FormatUint(amount, 10))
	params.Add("slippageBps", strconv.Itoa(slippageBps))
	params.Add("restrictIntermediateTokens", "true")

	fullURL := fmt.Sprintf("%s/quote?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to make HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("HTTP request failed with status: %d", resp.StatusCode)
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, nil, fmt.Errorf("failed to decode JSON response: %w", err)
	}

	var quote JupiterQuoteResponse
	if err := json.Unmarshal(raw, &quote); err != nil {
		return nil, nil, fmt.Errorf("failed to parse quote response: %w", err)
	}

	return &quote, raw, nil
}

// PostSwap requests a serialized swap transaction for a previously fetched
// quote.
func (c *JupiterClient) PostSwap(ctx context.Context, quote json.RawMessage, userPublicKey string) (*JupiterSwapResponse, error) {
	body, err := json.Marshal(jupiterSwapRequest{
		QuoteResponse:           quote,
		UserPublicKey:           userPublicKey,
		WrapAndUnwrapSol:        true,
		DynamicComputeUnitLimit: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal swap request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/swap", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP request failed with status: %d", resp.StatusCode)
	}

	var swap JupiterSwapResponse
	if err := json.NewDecoder(resp.Body).Decode(&swap); err != nil {
		return nil, fmt.Errorf("failed to decode JSON response: %w", err)
	}

	return &swap, nil
}
