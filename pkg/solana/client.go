package solana

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// confirmPollInterval is how often transaction confirmation is polled.
const confirmPollInterval = 2 * time.Second

// Client wraps a Solana JSON-RPC connection together with the signing
// keypair for the trading wallet. Safe for concurrent use.
type Client struct {
	rpc    *rpc.Client
	signer solana.PrivateKey
}

func NewClient(rpcURL, privateKeyBase58 string) (*Client, error) {
	signer, err := solana.PrivateKeyFromBase58(privateKeyBase58)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return &Client{
		rpc:    rpc.New(rpcURL),
		signer: signer,
	}, nil
}

func (c *Client) WalletAddress() solana.PublicKey { return c.signer.PublicKey() }
func (c *Client) Signer() solana.PrivateKey       { return c.signer }

// BlockhashBound is the validity window a submitted transaction is confirmed
// against.
type BlockhashBound struct {
	Blockhash            solana.Hash
	LastValidBlockHeight uint64
}

// LatestBlockhash fetches a fresh blockhash bound for confirmation.
func (c *Client) LatestBlockhash(ctx context.Context) (BlockhashBound, error) {
	out, err := c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return BlockhashBound{}, fmt.Errorf("get latest blockhash: %w", err)
	}
	return BlockhashBound{
		Blockhash:            out.Value.Blockhash,
		LastValidBlockHeight: out.Value.LastValidBlockHeight,
	}, nil
}

// SendRawTransaction submits a fully signed serialized transaction.
func (c *Client) SendRawTransaction(ctx context.Context, raw []byte) (solana.Signature, error) {
	sig, err := c.rpc.SendRawTransactionWithOpts(ctx, raw, rpc.TransactionOpts{
		SkipPreflight:       false,
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("send raw transaction: %w", err)
	}
	return sig, nil
}

// ConfirmTransaction polls the signature status until the transaction is
// confirmed, fails, or the blockhash bound expires.
func (c *Client) ConfirmTransaction(ctx context.Context, sig solana.Signature, bound BlockhashBound) error {
	ticker := time.NewTicker(confirmPollInterval)
	defer ticker.Stop()

	for {
		statuses, err := c.rpc.GetSignatureStatuses(ctx, true, sig)
		if err == nil && len(statuses.Value) > 0 && statuses.Value[0] != nil {
			status := statuses.Value[0]
			if status.Err != nil {
				errJSON, _ := json.Marshal(status.Err)
				return fmt.Errorf("transaction failed: %s", string(errJSON))
			}
			switch status.ConfirmationStatus {
			case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
				return nil
			}
		}

		height, err := c.rpc.GetBlockHeight(ctx, rpc.CommitmentConfirmed)
		if err == nil && height > bound.LastValidBlockHeight {
			return fmt.Errorf("transaction %s expired: blockhash no longer valid", sig)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("confirm %s: %w", sig, ctx.Err())
		case <-ticker.C:
		}
	}
}

// MintDecimals reads the decimals field from an SPL mint account. On lookup
// failure the SPL default of 9 is returned.
func (c *Client) MintDecimals(ctx context.Context, mint solana.PublicKey) uint8 {
	info, err := c.rpc.GetAccountInfo(ctx, mint)
	if err != nil || info == nil || info.Value == nil {
		return 9
	}
	data := info.Value.Data.GetBinary()
	// SPL mint layout: decimals is the byte after authority option (4),
	// authority (32) and supply (8).
	if len(data) < 45 {
		return 9
	}
	return data[44]
}
