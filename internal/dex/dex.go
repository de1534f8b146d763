package dex

import (
	"context"
	"math/big"

	"github.com/shopspring/decimal"
)

// Failure kinds an adapter can surface. Anything else that goes wrong at the
// adapter boundary becomes KindAdapterError.
const (
	KindInvalidToken = "InvalidToken"
	KindNoLiquidity  = "NoLiquidity"
	KindNoV3Pool     = "NoV3Pool"
	KindAdapterError = "AdapterError"
)

// SwapParams is a normalized buy-side swap request: spend AmountNative of the
// chain's base asset on TokenAddress.
type SwapParams struct {
	TokenAddress   string
	AmountNative   decimal.Decimal
	SlippagePct    decimal.Decimal
	NativePriceUsd decimal.Decimal
}

// SwapResult carries either the success fields or a failure kind and message.
type SwapResult struct {
	Success      bool
	TxHash       string
	TokenAmount  decimal.Decimal
	GasFee       decimal.Decimal
	GasFeeUsd    decimal.Decimal
	TokenPrice   decimal.Decimal
	Slippage     decimal.Decimal
	Kind         string
	ErrorMessage string
}

// Swapper converts a normalized swap request into a chain-specific
// transaction. Each implementation speaks exactly one protocol.
type Swapper interface {
	ExecuteSwap(ctx context.Context, params SwapParams) SwapResult
}

func failure(kind, message string) SwapResult {
	return SwapResult{Kind: kind, ErrorMessage: message}
}

// slippageBps converts a percent tolerance to basis points, rounded to the
// nearest whole point.
func slippageBps(slippagePct decimal.Decimal) int {
	return int(slippagePct.Mul(decimal.NewFromInt(100)).Round(0).IntPart())
}

// minOutWithSlippage applies the slippage tolerance to a quoted output using
// integer arithmetic: expectedOut * floor((1 - slippage/100) * 1000) / 1000.
func minOutWithSlippage(expectedOut *big.Int, slippagePct decimal.Decimal) *big.Int {
	factor := decimal.NewFromInt(1).
		Sub(slippagePct.Div(decimal.NewFromInt(100))).
		Mul(decimal.NewFromInt(1000)).
		Floor().
		BigInt()
	minOut := new(big.Int).Mul(expectedOut, factor)
	return minOut.Div(minOut, big.NewInt(1000))
}
