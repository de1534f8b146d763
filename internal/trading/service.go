package trading

import (
	"context"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"tradecontrol/internal/chains"
	"tradecontrol/internal/dex"
	"tradecontrol/pkg/retry"
)

// nominalSwapGas is the gas budget assumed for the pre-trade cost check.
// No on-chain call is made before the check passes.
const nominalSwapGas = 200_000

// Oracle resolves USD prices for native assets.
type Oracle interface {
	GetPrice(ctx context.Context, assetID string) float64
}

// GasPricer supplies the current gas price on an EVM network.
type GasPricer interface {
	GasPrice(ctx context.Context) (*big.Int, error)
}

// Backend bundles everything the service needs to trade on one network.
// V2 and V3 are set on the Uniswap networks; Default is the single adapter
// on BNB (PancakeSwap) and SOL (Jupiter).
type Backend struct {
	GasPricer GasPricer
	V2        dex.Swapper
	V3        dex.Swapper
	Default   dex.Swapper
}

// Params is a fully resolved trade request.
type Params struct {
	UserID       string
	Network      chains.Network
	TokenAddress string
	DexVersion   string
	AmountUsd    decimal.Decimal
	SlippagePct  decimal.Decimal
	MaxGasRatio  decimal.Decimal
}

// Outcome is the structured result of a trade attempt. It is written into
// the trade log verbatim and surfaced to the UI.
type Outcome struct {
	Success      bool
	Dex          string
	Kind         string
	ErrorMessage string
	TxHash       string
	AmountNative decimal.Decimal
	TokenAmount  decimal.Decimal
	GasFee       decimal.Decimal
	GasFeeUsd    decimal.Decimal
	TokenPrice   decimal.Decimal
	Slippage     decimal.Decimal
}

// Service dispatches trade requests to the right adapter behind a safety
// envelope: network availability, address validation, price conversion and
// the gas ratio pre-check.
type Service struct {
	oracle   Oracle
	backends map[chains.Network]*Backend
}

func NewService(oracle Oracle) *Service {
	return &Service{
		oracle:   oracle,
		backends: make(map[chains.Network]*Backend),
	}
}

// RegisterNetwork enables trading on a network. Networks without a backend
// fail with NetworkUnavailable.
func (s *Service) RegisterNetwork(network chains.Network, backend *Backend) {
	s.backends[network] = backend
}

// Available reports whether the network has a signer and RPC client.
func (s *Service) Available(network chains.Network) bool {
	_, ok := s.backends[network]
	return ok
}

// ExecuteTrade runs the safety envelope and delegates to the selected
// adapter. It never returns an error: failures are typed outcomes.
func (s *Service) ExecuteTrade(ctx context.Context, params Params) Outcome {
	backend, ok := s.backends[params.Network]
	if !ok {
		return fail(params, KindNetworkUnavailable,
			fmt.Sprintf("network %s is not configured: missing RPC endpoint or signing key", params.Network))
	}

	if !params.Network.ValidAddress(params.TokenAddress) {
		return fail(params, KindInvalidAddress,
			fmt.Sprintf("%q is not a valid %s address", params.TokenAddress, params.Network))
	}

	price := decimal.NewFromFloat(s.oracle.GetPrice(ctx, params.Network.AssetID()))
	if price.Sign() <= 0 {
		return fail(params, KindAdapterError, "price oracle returned a non-positive price")
	}
	amountNative := params.AmountUsd.Div(price)

	if params.Network.IsEVM() {
		if outcome, blocked := s.gasPreCheck(ctx, backend, params, price, amountNative); blocked {
			return outcome
		}
	}

	swapParams := dex.SwapParams{
		TokenAddress:   params.TokenAddress,
		AmountNative:   amountNative,
		SlippagePct:    params.SlippagePct,
		NativePriceUsd: price,
	}

	result, outcome := s.dispatch(ctx, backend, params, swapParams)
	if outcome != nil {
		return *outcome
	}
	return fromSwapResult(params, amountNative, result)
}

// gasPreCheck estimates a nominal swap cost from the current gas price and
// rejects the trade when the USD cost breaches the configured ratio.
func (s *Service) gasPreCheck(ctx context.Context, backend *Backend, params Params, price, amountNative decimal.Decimal) (Outcome, bool) {
	gasPrice, err := retry.Do(ctx, params.Network.RetryPolicy(), "gas pre-check", func(ctx context.Context) (*big.Int, error) {
		return backend.GasPricer.GasPrice(ctx)
	})
	if err != nil {
		return fail(params, KindAdapterError, fmt.Sprintf("fetch gas price: %v", err)), true
	}

	gasWei := new(big.Int).Mul(gasPrice, big.NewInt(nominalSwapGas))
	gasFee := decimal.NewFromBigInt(gasWei, -18)
	gasFeeUsd := gasFee.Mul(price)
	ratio := gasFeeUsd.Div(params.AmountUsd)

	if ratio.GreaterThan(params.MaxGasRatio) {
		outcome := fail(params, KindGasTooHigh, fmt.Sprintf(
			"estimated gas cost $%s is %s of the $%s trade amount, above the %s gas ratio limit",
			gasFeeUsd.StringFixed(2), ratio.StringFixed(4), params.AmountUsd.StringFixed(2), params.MaxGasRatio.String()))
		outcome.AmountNative = amountNative
		outcome.GasFee = gasFee.Round(8)
		outcome.GasFeeUsd = gasFeeUsd.Round(8)
		return outcome, true
	}
	return Outcome{}, false
}

// dispatch selects the adapter for the network and version. Version
// fallback is a cross-adapter policy and lives here so the adapters stay
// single-protocol.
func (s *Service) dispatch(ctx context.Context, backend *Backend, params Params, swapParams dex.SwapParams) (dex.SwapResult, *Outcome) {
	switch params.Network {
	case chains.NetworkSOL, chains.NetworkBNB:
		return backend.Default.ExecuteSwap(ctx, swapParams), nil
	}

	switch params.DexVersion {
	case "v4":
		outcome := fail(params, KindNotImplemented, "Uniswap V4 support is not implemented")
		return dex.SwapResult{}, &outcome
	case "v2":
		return backend.V2.ExecuteSwap(ctx, swapParams), nil
	case "v3":
		return backend.V3.ExecuteSwap(ctx, swapParams), nil
	default: // auto
		result := backend.V3.ExecuteSwap(ctx, swapParams)
		if !result.Success && result.Kind == dex.KindNoV3Pool {
			log.Infof("no V3 pool for %s on %s, falling back to V2", params.TokenAddress, params.Network)
			return backend.V2.ExecuteSwap(ctx, swapParams), nil
		}
		return result, nil
	}
}

func fromSwapResult(params Params, amountNative decimal.Decimal, result dex.SwapResult) Outcome {
	outcome := Outcome{
		Success:      result.Success,
		Dex:          params.Network.DefaultDex(),
		Kind:         result.Kind,
		ErrorMessage: result.ErrorMessage,
		TxHash:       result.TxHash,
		AmountNative: amountNative,
		TokenAmount:  result.TokenAmount,
		GasFee:       result.GasFee.Round(8),
		GasFeeUsd:    result.GasFeeUsd.Round(8),
		TokenPrice:   result.TokenPrice.Round(8),
		Slippage:     result.Slippage,
	}
	return outcome
}

func fail(params Params, kind, message string) Outcome {
	return Outcome{
		Dex:          params.Network.DefaultDex(),
		Kind:         kind,
		ErrorMessage: message,
	}
}
