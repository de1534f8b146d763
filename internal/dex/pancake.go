package dex

import (
	"tradecontrol/internal/chains"
	"tradecontrol/pkg/evm"
)

// PancakeV2 is the BNB Smart Chain adapter. PancakeSwap's V2 router is
// protocol-identical to Uniswap V2, so it reuses that machinery with the
// PancakeSwap router and WBNB constants.
type PancakeV2 struct {
	*UniswapV2
}

func NewPancakeV2(client *evm.Client) *PancakeV2 {
	inner := NewUniswapV2(client, chains.NetworkBNB)
	inner.dexName = chains.DexPancakeSwap
	return &PancakeV2{UniswapV2: inner}
}
