package handlers

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradecontrol/internal/chains"
)

func validRequest() TradeConfigRequest {
	return TradeConfigRequest{
		ContractAddress:   "0x6B175474E89094C44Da98b954EedeAC495271d0F",
		WalletAddress:     "0x47ac0Fb4F2D84898e4D9E7b4DaB3C24507a6D503",
		Network:           "ETH",
		DexVersion:        "auto",
		TradeInterval:     "5min",
		TradeAmountUsd:    decimal.NewFromInt(25),
		MaxGasRatio:       decimal.NewFromFloat(0.5),
		SlippageTolerance: decimal.NewFromInt(1),
	}
}

func TestTradeConfigValidation(t *testing.T) {
	t.Run("accepts a well-formed request", func(t *testing.T) {
		request := validRequest()
		network, err := request.validate()
		require.NoError(t, err)
		assert.Equal(t, chains.NetworkETH, network)
	})

	t.Run("rejects unknown networks and intervals", func(t *testing.T) {
		request := validRequest()
		request.Network = "DOGE"
		_, err := request.validate()
		assert.Error(t, err)

		request = validRequest()
		request.TradeInterval = "2min"
		_, err = request.validate()
		assert.Error(t, err)
	})

	t.Run("rejects addresses from the wrong family", func(t *testing.T) {
		request := validRequest()
		request.Network = "SOL"
		_, err := request.validate()
		assert.Error(t, err, "EVM addresses are invalid on Solana")

		request.ContractAddress = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
		request.WalletAddress = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
		_, err = request.validate()
		assert.NoError(t, err)
	})

	t.Run("trade amount must be at least one dollar", func(t *testing.T) {
		request := validRequest()
		request.TradeAmountUsd = decimal.NewFromFloat(0.99)
		_, err := request.validate()
		assert.Error(t, err)

		request.TradeAmountUsd = decimal.NewFromInt(1)
		_, err = request.validate()
		assert.NoError(t, err)
	})

	t.Run("gas ratio bounds are inclusive", func(t *testing.T) {
		for _, ratio := range []float64{0.1, 0.5, 1.0} {
			request := validRequest()
			request.MaxGasRatio = decimal.NewFromFloat(ratio)
			_, err := request.validate()
			assert.NoError(t, err, "ratio %v", ratio)
		}
		for _, ratio := range []float64{0.09, 1.01, 0} {
			request := validRequest()
			request.MaxGasRatio = decimal.NewFromFloat(ratio)
			_, err := request.validate()
			assert.Error(t, err, "ratio %v", ratio)
		}
	})

	t.Run("slippage boundaries", func(t *testing.T) {
		accepted := []float64{0.1, 50}
		for _, slippage := range accepted {
			request := validRequest()
			request.SlippageTolerance = decimal.NewFromFloat(slippage)
			_, err := request.validate()
			assert.NoError(t, err, "slippage %v", slippage)
		}

		rejected := []float64{0, 50.0001, -1}
		for _, slippage := range rejected {
			request := validRequest()
			request.SlippageTolerance = decimal.NewFromFloat(slippage)
			_, err := request.validate()
			assert.Error(t, err, "slippage %v", slippage)
		}
	})

	t.Run("dex version is constrained", func(t *testing.T) {
		for _, version := range []string{"", "auto", "v2", "v3", "v4"} {
			request := validRequest()
			request.DexVersion = version
			_, err := request.validate()
			assert.NoError(t, err, "version %q", version)
		}

		request := validRequest()
		request.DexVersion = "v5"
		_, err := request.validate()
		assert.Error(t, err)
	})
}
