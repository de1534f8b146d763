package dex

import (
	"context"
	"encoding/base64"
	"fmt"

	bin "github.com/gagliardetto/binary"
	solanago "github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"tradecontrol/internal/chains"
	"tradecontrol/pkg/retry"
	solanaclient "tradecontrol/pkg/solana"
	"tradecontrol/pkg/utils"
)

// jupiterGasFeeSOL is the flat transaction fee modeled for Solana swaps.
// Solana fees are not competitive with the traded notionals here.
var jupiterGasFeeSOL = decimal.NewFromFloat(0.000005)

// Jupiter is the Solana adapter. It routes through the Jupiter aggregator:
// quote, fetch a serialized swap transaction, sign and submit it, then
// confirm against a fresh blockhash bound.
type Jupiter struct {
	client  *solanaclient.Client
	jupiter *utils.JupiterClient
	policy  retry.Policy
}

func NewJupiter(client *solanaclient.Client, jupiter *utils.JupiterClient) *Jupiter {
	return &Jupiter{
		client:  client,
		jupiter: jupiter,
		policy:  chains.NetworkSOL.RetryPolicy(),
	}
}

func (j *Jupiter) ExecuteSwap(ctx context.Context, params SwapParams) SwapResult {
	lamports := params.AmountNative.Shift(9).BigInt()
	if lamports.Sign() <= 0 {
		return failure(KindAdapterError, "swap amount rounds to zero lamports")
	}
	bps := slippageBps(params.SlippagePct)

	type quoteResult struct {
		quote *utils.JupiterQuoteResponse
		raw   []byte
	}
	quoted, err := retry.Do(ctx, j.policy, "Jupiter quote", func(ctx context.Context) (quoteResult, error) {
		quote, raw, err := j.jupiter.GetQuote(ctx, chains.WrappedSOLMint, params.TokenAddress, lamports.Uint64(), bps)
		return quoteResult{quote: quote, raw: raw}, err
	})
	if err != nil {
		return failure(KindNoLiquidity, fmt.Sprintf("no Jupiter route for %s: %v", params.TokenAddress, err))
	}
	outAmount, err := decimal.NewFromString(quoted.quote.OutAmount)
	if err != nil || outAmount.Sign() <= 0 {
		return failure(KindNoLiquidity, fmt.Sprintf("no Jupiter route for %s: zero quote", params.TokenAddress))
	}

	swapResp, err := retry.Do(ctx, j.policy, "Jupiter swap", func(ctx context.Context) (*utils.JupiterSwapResponse, error) {
		return j.jupiter.PostSwap(ctx, quoted.raw, j.client.WalletAddress().String())
	})
	if err != nil {
		return failure(KindAdapterError, fmt.Sprintf("request swap transaction: %v", err))
	}

	rawTx, err := base64.StdEncoding.DecodeString(swapResp.SwapTransaction)
	if err != nil {
		return failure(KindAdapterError, fmt.Sprintf("decode swap transaction: %v", err))
	}
	tx, err := solanago.TransactionFromDecoder(bin.NewBinDecoder(rawTx))
	if err != nil {
		return failure(KindAdapterError, fmt.Sprintf("deserialize swap transaction: %v", err))
	}

	signer := j.client.Signer()
	if _, err := tx.Sign(func(key solanago.PublicKey) *solanago.PrivateKey {
		if key.Equals(j.client.WalletAddress()) {
			return &signer
		}
		return nil
	}); err != nil {
		return failure(KindAdapterError, fmt.Sprintf("sign swap transaction: %v", err))
	}

	signed, err := tx.MarshalBinary()
	if err != nil {
		return failure(KindAdapterError, fmt.Sprintf("serialize signed transaction: %v", err))
	}

	bound, err := retry.Do(ctx, j.policy, "Jupiter blockhash", func(ctx context.Context) (solanaclient.BlockhashBound, error) {
		return j.client.LatestBlockhash(ctx)
	})
	if err != nil {
		return failure(KindAdapterError, fmt.Sprintf("fetch blockhash bound: %v", err))
	}

	sig, err := retry.Do(ctx, j.policy, "Jupiter send", func(ctx context.Context) (solanago.Signature, error) {
		return j.client.SendRawTransaction(ctx, signed)
	})
	if err != nil {
		return failure(KindAdapterError, fmt.Sprintf("submit transaction: %v", err))
	}

	if err := j.client.ConfirmTransaction(ctx, sig, bound); err != nil {
		return failure(KindAdapterError, fmt.Sprintf("confirm transaction: %v", err))
	}

	mint, err := solanago.PublicKeyFromBase58(params.TokenAddress)
	decimals := uint8(9)
	if err == nil {
		decimals = j.client.MintDecimals(ctx, mint)
	}

	tokenAmount := outAmount.Shift(-int32(decimals))
	tokenPrice := decimal.Zero
	if !tokenAmount.IsZero() {
		tokenPrice = params.AmountNative.Div(tokenAmount)
	}

	return SwapResult{
		Success:     true,
		TxHash:      sig.String(),
		TokenAmount: tokenAmount,
		GasFee:      jupiterGasFeeSOL,
		GasFeeUsd:   jupiterGasFeeSOL.Mul(params.NativePriceUsd),
		TokenPrice:  tokenPrice,
		Slippage:    params.SlippagePct,
	}
}
