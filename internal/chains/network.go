package chains

import (
	"fmt"
	"regexp"

	"tradecontrol/pkg/retry"
)

// Network identifies one of the supported blockchains.
type Network string

const (
	NetworkETH  Network = "ETH"
	NetworkBASE Network = "BASE"
	NetworkBNB  Network = "BNB"
	NetworkSOL  Network = "SOL"
)

// All lists every supported network in a stable order.
var All = []Network{NetworkETH, NetworkBASE, NetworkBNB, NetworkSOL}

// Dex names as persisted in trade logs and configs.
const (
	DexUniswap     = "Uniswap"
	DexPancakeSwap = "PancakeSwap"
	DexJupiter     = "Jupiter"
)

var (
	evmAddressRe    = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	solanaAddressRe = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{32,44}$`)
)

// Parse validates a network string from a request or config row.
func Parse(s string) (Network, error) {
	switch Network(s) {
	case NetworkETH, NetworkBASE, NetworkBNB, NetworkSOL:
		return Network(s), nil
	}
	return "", fmt.Errorf("unsupported network: %q", s)
}

// IsEVM reports whether the network uses the Ethereum address and
// transaction format.
func (n Network) IsEVM() bool {
	return n == NetworkETH || n == NetworkBASE || n == NetworkBNB
}

// DefaultDex returns the exchange used on this network.
func (n Network) DefaultDex() string {
	switch n {
	case NetworkBNB:
		return DexPancakeSwap
	case NetworkSOL:
		return DexJupiter
	default:
		return DexUniswap
	}
}

// NativeSymbol returns the chain's base asset symbol.
func (n Network) NativeSymbol() string {
	switch n {
	case NetworkBNB:
		return "BNB"
	case NetworkSOL:
		return "SOL"
	default:
		return "ETH"
	}
}

// AssetID returns the price source identifier for the native asset.
// ETH and BASE share the same underlying asset.
func (n Network) AssetID() string {
	switch n {
	case NetworkBNB:
		return "binancecoin"
	case NetworkSOL:
		return "solana"
	default:
		return "ethereum"
	}
}

// RetryPolicy selects the backoff profile for RPC calls on this network.
func (n Network) RetryPolicy() retry.Policy {
	if n == NetworkBASE {
		return retry.Base
	}
	return retry.Default
}

// ValidAddress checks the address against the network's address family:
// 20-byte hex for EVM chains, base58 of 32-44 characters for Solana.
func (n Network) ValidAddress(addr string) bool {
	if n.IsEVM() {
		return evmAddressRe.MatchString(addr)
	}
	return solanaAddressRe.MatchString(addr)
}

// EnvSuffix is the per-network suffix of RPC_URL_* and PRIVATE_KEY_*.
func (n Network) EnvSuffix() string {
	return string(n)
}
