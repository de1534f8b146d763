package dex

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMinOutWithSlippage(t *testing.T) {
	expectedOut := big.NewInt(1_000_000)

	t.Run("one percent slippage", func(t *testing.T) {
		minOut := minOutWithSlippage(expectedOut, decimal.NewFromInt(1))
		assert.Equal(t, big.NewInt(990_000), minOut)
	})

	t.Run("fractional slippage floors to thousandths", func(t *testing.T) {
		// floor((1 - 0.15/100) * 1000) = 998
		minOut := minOutWithSlippage(expectedOut, decimal.NewFromFloat(0.15))
		assert.Equal(t, big.NewInt(998_000), minOut)
	})

	t.Run("fifty percent slippage", func(t *testing.T) {
		minOut := minOutWithSlippage(expectedOut, decimal.NewFromInt(50))
		assert.Equal(t, big.NewInt(500_000), minOut)
	})

	t.Run("zero slippage keeps the full quote", func(t *testing.T) {
		minOut := minOutWithSlippage(expectedOut, decimal.Zero)
		assert.Equal(t, expectedOut, minOut)
	})

	t.Run("large quotes stay in integer arithmetic", func(t *testing.T) {
		huge, ok := new(big.Int).SetString("123456789012345678901234567890", 10)
		assert.True(t, ok)
		minOut := minOutWithSlippage(huge, decimal.NewFromFloat(0.5))
		// factor is 995
		want := new(big.Int).Mul(huge, big.NewInt(995))
		want.Div(want, big.NewInt(1000))
		assert.Equal(t, want, minOut)
	})
}

func TestSlippageBps(t *testing.T) {
	assert.Equal(t, 100, slippageBps(decimal.NewFromInt(1)))
	assert.Equal(t, 50, slippageBps(decimal.NewFromFloat(0.5)))
	assert.Equal(t, 5000, slippageBps(decimal.NewFromInt(50)))
	assert.Equal(t, 13, slippageBps(decimal.NewFromFloat(0.125)), "rounds to the nearest point")
}

func TestBuildEVMResult(t *testing.T) {
	params := SwapParams{
		AmountNative:   decimal.NewFromFloat(0.005),
		SlippagePct:    decimal.NewFromInt(1),
		NativePriceUsd: decimal.NewFromInt(2000),
	}
	// 150k gas at 10 gwei.
	result := buildEVMResult("0xabc", big.NewInt(2_000_000), 6, 150_000, big.NewInt(10_000_000_000), params)

	assert.True(t, result.Success)
	assert.Equal(t, "0xabc", result.TxHash)
	assert.True(t, result.TokenAmount.Equal(decimal.NewFromInt(2)), result.TokenAmount.String())
	assert.True(t, result.GasFee.Equal(decimal.NewFromFloat(0.0015)), result.GasFee.String())
	assert.True(t, result.GasFeeUsd.Equal(decimal.NewFromFloat(3)), result.GasFeeUsd.String())
	assert.True(t, result.TokenPrice.Equal(decimal.NewFromFloat(0.0025)), result.TokenPrice.String())
}
