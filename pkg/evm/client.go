package evm

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// receiptTimeout bounds the post-send receipt wait.
const receiptTimeout = 60 * time.Second

// Client wraps an EVM JSON-RPC connection together with the signing key for
// one network. Safe for concurrent use.
type Client struct {
	rpc        *ethclient.Client
	privateKey *ecdsa.PrivateKey
	wallet     common.Address
	chainID    *big.Int
}

func NewClient(rpcURL, privateKeyHex string, chainID int64) (*Client, error) {
	rpc, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial RPC: %w", err)
	}

	pkHex := strings.TrimPrefix(privateKeyHex, "0x")
	pk, err := crypto.HexToECDSA(pkHex)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	return &Client{
		rpc:        rpc,
		privateKey: pk,
		wallet:     crypto.PubkeyToAddress(pk.PublicKey),
		chainID:    big.NewInt(chainID),
	}, nil
}

func (c *Client) WalletAddress() common.Address { return c.wallet }
func (c *Client) Close()                        { c.rpc.Close() }

func (c *Client) GasPrice(ctx context.Context) (*big.Int, error) {
	return c.rpc.SuggestGasPrice(ctx)
}

// EstimateGas estimates the gas for a call from the trading wallet.
func (c *Client) EstimateGas(ctx context.Context, to common.Address, value *big.Int, data []byte) (uint64, error) {
	return c.rpc.EstimateGas(ctx, ethereum.CallMsg{
		From:  c.wallet,
		To:    &to,
		Value: value,
		Data:  data,
	})
}

// CallContract performs a read-only eth_call and returns the raw result.
func (c *Client) CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	return c.rpc.CallContract(ctx, ethereum.CallMsg{
		To:   &to,
		Data: data,
	}, nil)
}

// SignAndSend signs a legacy transaction and broadcasts it, returning the
// transaction hash.
func (c *Client) SignAndSend(ctx context.Context, to common.Address, value *big.Int, gasLimit uint64, gasPrice *big.Int, data []byte) (string, error) {
	nonce, err := c.rpc.PendingNonceAt(ctx, c.wallet)
	if err != nil {
		return "", fmt.Errorf("get nonce: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    value,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})

	signer := types.NewEIP155Signer(c.chainID)
	signed, err := types.SignTx(tx, signer, c.privateKey)
	if err != nil {
		return "", fmt.Errorf("sign tx: %w", err)
	}

	if err := c.rpc.SendTransaction(ctx, signed); err != nil {
		return "", fmt.Errorf("send tx: %w", err)
	}

	return signed.Hash().Hex(), nil
}

// WaitReceipt polls for the transaction receipt until it lands or the
// receipt timeout elapses. A mined-but-reverted transaction is an error.
func (c *Client) WaitReceipt(ctx context.Context, txHash string) error {
	ctx, cancel := context.WithTimeout(ctx, receiptTimeout)
	defer cancel()

	hash := common.HexToHash(txHash)
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		receipt, err := c.rpc.TransactionReceipt(ctx, hash)
		if err == nil {
			if receipt.Status != types.ReceiptStatusSuccessful {
				return fmt.Errorf("transaction %s reverted", txHash)
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("receipt wait for %s: %w", txHash, ctx.Err())
		case <-ticker.C:
		}
	}
}
