package dex

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"tradecontrol/internal/chains"
	"tradecontrol/pkg/evm"
	"tradecontrol/pkg/retry"
)

// swapDeadline is appended to every router call.
const swapDeadline = 20 * time.Minute

// UniswapV2 executes swapExactETHForTokens against a V2-style router. The
// same machinery serves PancakeSwap on BNB, which is protocol-identical.
type UniswapV2 struct {
	client  *evm.Client
	network chains.Network
	dexName string
	router  common.Address
	wrapped common.Address
	policy  retry.Policy
}

func NewUniswapV2(client *evm.Client, network chains.Network) *UniswapV2 {
	constants := network.EVM()
	return &UniswapV2{
		client:  client,
		network: network,
		dexName: chains.DexUniswap,
		router:  common.HexToAddress(constants.V2Router),
		wrapped: common.HexToAddress(constants.WrappedToken),
		policy:  network.RetryPolicy(),
	}
}

func (u *UniswapV2) ExecuteSwap(ctx context.Context, params SwapParams) SwapResult {
	token := common.HexToAddress(params.TokenAddress)

	decimals, err := u.tokenDecimals(ctx, token)
	if err != nil {
		return failure(KindInvalidToken, fmt.Sprintf("token %s does not respond to decimals(): %v", params.TokenAddress, err))
	}

	amountInWei := params.AmountNative.Shift(18).BigInt()
	path := []common.Address{u.wrapped, token}

	expectedOut, err := u.quote(ctx, amountInWei, path)
	if err != nil {
		return failure(KindNoLiquidity, fmt.Sprintf("no %s liquidity for %s: %v", u.dexName, params.TokenAddress, err))
	}
	if expectedOut.Sign() == 0 {
		return failure(KindNoLiquidity, fmt.Sprintf("no %s liquidity for %s: zero quote", u.dexName, params.TokenAddress))
	}

	minOut := minOutWithSlippage(expectedOut, params.SlippagePct)
	deadline := big.NewInt(time.Now().Add(swapDeadline).Unix())

	data, err := evm.RouterV2ABI().Pack("swapExactETHForTokens",
		minOut, path, u.client.WalletAddress(), deadline)
	if err != nil {
		return failure(KindAdapterError, fmt.Sprintf("pack swapExactETHForTokens: %v", err))
	}

	gasEstimate, err := retry.Do(ctx, u.policy, u.dexName+" estimateGas", func(ctx context.Context) (uint64, error) {
		return u.client.EstimateGas(ctx, u.router, amountInWei, data)
	})
	if err != nil {
		return failure(KindAdapterError, fmt.Sprintf("estimate gas: %v", err))
	}

	gasPrice, err := retry.Do(ctx, u.policy, u.dexName+" gasPrice", func(ctx context.Context) (*big.Int, error) {
		return u.client.GasPrice(ctx)
	})
	if err != nil {
		return failure(KindAdapterError, fmt.Sprintf("fetch gas price: %v", err))
	}

	txHash, err := retry.Do(ctx, u.policy, u.dexName+" send", func(ctx context.Context) (string, error) {
		return u.client.SignAndSend(ctx, u.router, amountInWei, gasEstimate, gasPrice, data)
	})
	if err != nil {
		return failure(KindAdapterError, fmt.Sprintf("send swap transaction: %v", err))
	}

	if err := u.client.WaitReceipt(ctx, txHash); err != nil {
		return failure(KindAdapterError, fmt.Sprintf("await receipt: %v", err))
	}

	return buildEVMResult(txHash, expectedOut, decimals, gasEstimate, gasPrice, params)
}

func (u *UniswapV2) tokenDecimals(ctx context.Context, token common.Address) (uint8, error) {
	data, err := evm.ERC20ABI().Pack("decimals")
	if err != nil {
		return 0, err
	}
	raw, err := retry.Do(ctx, u.policy, u.dexName+" decimals", func(ctx context.Context) ([]byte, error) {
		return u.client.CallContract(ctx, token, data)
	})
	if err != nil {
		return 0, err
	}
	values, err := evm.ERC20ABI().Unpack("decimals", raw)
	if err != nil || len(values) == 0 {
		return 0, fmt.Errorf("unpack decimals: %v", err)
	}
	return values[0].(uint8), nil
}

func (u *UniswapV2) quote(ctx context.Context, amountIn *big.Int, path []common.Address) (*big.Int, error) {
	data, err := evm.RouterV2ABI().Pack("getAmountsOut", amountIn, path)
	if err != nil {
		return nil, err
	}
	raw, err := retry.Do(ctx, u.policy, u.dexName+" getAmountsOut", func(ctx context.Context) ([]byte, error) {
		return u.client.CallContract(ctx, u.router, data)
	})
	if err != nil {
		return nil, err
	}
	values, err := evm.RouterV2ABI().Unpack("getAmountsOut", raw)
	if err != nil || len(values) == 0 {
		return nil, fmt.Errorf("unpack getAmountsOut: %v", err)
	}
	amounts := values[0].([]*big.Int)
	if len(amounts) < 2 {
		return nil, fmt.Errorf("getAmountsOut returned %d amounts", len(amounts))
	}
	return amounts[len(amounts)-1], nil
}

// buildEVMResult derives the reported figures from the quote and gas data.
func buildEVMResult(txHash string, expectedOut *big.Int, decimals uint8, gasEstimate uint64, gasPrice *big.Int, params SwapParams) SwapResult {
	gasWei := new(big.Int).Mul(new(big.Int).SetUint64(gasEstimate), gasPrice)
	gasFee := decimal.NewFromBigInt(gasWei, -18)
	gasFeeUsd := gasFee.Mul(params.NativePriceUsd)

	tokenAmount := decimal.NewFromBigInt(expectedOut, -int32(decimals))
	tokenPrice := decimal.Zero
	if !tokenAmount.IsZero() {
		tokenPrice = params.AmountNative.Div(tokenAmount)
	}

	return SwapResult{
		Success:     true,
		TxHash:      txHash,
		TokenAmount: tokenAmount,
		GasFee:      gasFee,
		GasFeeUsd:   gasFeeUsd,
		TokenPrice:  tokenPrice,
		Slippage:    params.SlippagePct,
	}
}
