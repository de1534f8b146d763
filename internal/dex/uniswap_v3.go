package dex

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"tradecontrol/internal/chains"
	"tradecontrol/pkg/evm"
	"tradecontrol/pkg/retry"
)

// baseTierProbePause dampens RPC rate pressure between fee tier probes on
// Base, whose public endpoints throttle hard.
const baseTierProbePause = 500 * time.Millisecond

// exactInputSingleParams mirrors ISwapRouter.ExactInputSingleParams.
type exactInputSingleParams struct {
	TokenIn           common.Address
	TokenOut          common.Address
	Fee               *big.Int
	Recipient         common.Address
	AmountIn          *big.Int
	AmountOutMinimum  *big.Int
	SqrtPriceLimitX96 *big.Int
}

// quoteExactInputSingleParams mirrors IQuoterV2.QuoteExactInputSingleParams.
type quoteExactInputSingleParams struct {
	TokenIn           common.Address
	TokenOut          common.Address
	AmountIn          *big.Int
	Fee               *big.Int
	SqrtPriceLimitX96 *big.Int
}

// UniswapV3 quotes all fee tiers through QuoterV2 and swaps through
// SwapRouter02's exactInputSingle with the winning tier.
type UniswapV3 struct {
	client  *evm.Client
	network chains.Network
	router  common.Address
	quoter  common.Address
	wrapped common.Address
	policy  retry.Policy
}

func NewUniswapV3(client *evm.Client, network chains.Network) *UniswapV3 {
	constants := network.EVM()
	return &UniswapV3{
		client:  client,
		network: network,
		router:  common.HexToAddress(constants.V3Router),
		quoter:  common.HexToAddress(constants.V3Quoter),
		wrapped: common.HexToAddress(constants.WrappedToken),
		policy:  network.RetryPolicy(),
	}
}

func (u *UniswapV3) ExecuteSwap(ctx context.Context, params SwapParams) SwapResult {
	token := common.HexToAddress(params.TokenAddress)

	decimals, err := u.tokenDecimals(ctx, token)
	if err != nil {
		return failure(KindInvalidToken, fmt.Sprintf("token %s does not respond to decimals(): %v", params.TokenAddress, err))
	}

	amountInWei := params.AmountNative.Shift(18).BigInt()

	bestTier, expectedOut := u.pickBestTier(ctx, token, amountInWei)
	if expectedOut == nil || expectedOut.Sign() == 0 {
		return failure(KindNoV3Pool, fmt.Sprintf("no V3 pool with liquidity for %s on %s", params.TokenAddress, u.network))
	}

	minOut := minOutWithSlippage(expectedOut, params.SlippagePct)

	data, err := evm.RouterV3ABI().Pack("exactInputSingle", exactInputSingleParams{
		TokenIn:           u.wrapped,
		TokenOut:          token,
		Fee:               big.NewInt(bestTier),
		Recipient:         u.client.WalletAddress(),
		AmountIn:          amountInWei,
		AmountOutMinimum:  minOut,
		SqrtPriceLimitX96: big.NewInt(0),
	})
	if err != nil {
		return failure(KindAdapterError, fmt.Sprintf("pack exactInputSingle: %v", err))
	}

	gasEstimate, err := retry.Do(ctx, u.policy, "UniswapV3 estimateGas", func(ctx context.Context) (uint64, error) {
		return u.client.EstimateGas(ctx, u.router, amountInWei, data)
	})
	if err != nil {
		return failure(KindAdapterError, fmt.Sprintf("estimate gas: %v", err))
	}

	gasPrice, err := retry.Do(ctx, u.policy, "UniswapV3 gasPrice", func(ctx context.Context) (*big.Int, error) {
		return u.client.GasPrice(ctx)
	})
	if err != nil {
		return failure(KindAdapterError, fmt.Sprintf("fetch gas price: %v", err))
	}

	txHash, err := retry.Do(ctx, u.policy, "UniswapV3 send", func(ctx context.Context) (string, error) {
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

// pickBestTier probes each fee tier and returns the one with the strictly
// largest quoted output; ties keep the first tier tried. Probe failures are
// treated as "no pool at this tier".
func (u *UniswapV3) pickBestTier(ctx context.Context, token common.Address, amountIn *big.Int) (int64, *big.Int) {
	var bestTier int64
	var bestOut *big.Int

	for i, tier := range chains.V3FeeTiers {
		if i > 0 && u.network == chains.NetworkBASE {
			select {
			case <-ctx.Done():
				return bestTier, bestOut
			case <-time.After(baseTierProbePause):
			}
		}

		out, err := u.quoteTier(ctx, token, amountIn, tier)
		if err != nil || out == nil || out.Sign() == 0 {
			continue
		}
		if bestOut == nil || out.Cmp(bestOut) > 0 {
			bestTier = tier
			bestOut = out
		}
	}
	return bestTier, bestOut
}

func (u *UniswapV3) quoteTier(ctx context.Context, token common.Address, amountIn *big.Int, tier int64) (*big.Int, error) {
	data, err := evm.QuoterV2ABI().Pack("quoteExactInputSingle", quoteExactInputSingleParams{
		TokenIn:           u.wrapped,
		TokenOut:          token,
		AmountIn:          amountIn,
		Fee:               big.NewInt(tier),
		SqrtPriceLimitX96: big.NewInt(0),
	})
	if err != nil {
		return nil, err
	}
	raw, err := retry.Do(ctx, u.policy, "UniswapV3 quote", func(ctx context.Context) ([]byte, error) {
		return u.client.CallContract(ctx, u.quoter, data)
	})
	if err != nil {
		return nil, err
	}
	values, err := evm.QuoterV2ABI().Unpack("quoteExactInputSingle", raw)
	if err != nil || len(values) == 0 {
		return nil, fmt.Errorf("unpack quoteExactInputSingle: %v", err)
	}
	return values[0].(*big.Int), nil
}

func (u *UniswapV3) tokenDecimals(ctx context.Context, token common.Address) (uint8, error) {
	data, err := evm.ERC20ABI().Pack("decimals")
	if err != nil {
		return 0, err
	}
	raw, err := retry.Do(ctx, u.policy, "UniswapV3 decimals", func(ctx context.Context) ([]byte, error) {
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
