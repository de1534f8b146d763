package evm

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Minimal ABIs for the contracts the adapters call — only the methods we use.

const routerV2ABIJSON = `[
	{
		"name": "getAmountsOut",
		"type": "function",
		"stateMutability": "view",
		"inputs": [
			{"name": "amountIn", "type": "uint256"},
			{"name": "path",     "type": "address[]"}
		],
		"outputs": [
			{"name": "amounts", "type": "uint256[]"}
		]
	},
	{
		"name": "swapExactETHForTokens",
		"type": "function",
		"stateMutability": "payable",
		"inputs": [
			{"name": "amountOutMin", "type": "uint256"},
			{"name": "path",         "type": "address[]"},
			{"name": "to",           "type": "address"},
			{"name": "deadline",     "type": "uint256"}
		],
		"outputs": [
			{"name": "amounts", "type": "uint256[]"}
		]
	}
]`

const routerV3ABIJSON = `[
	{
		"name": "exactInputSingle",
		"type": "function",
		"stateMutability": "payable",
		"inputs": [
			{
				"components": [
					{"name": "tokenIn",           "type": "address"},
					{"name": "tokenOut",          "type": "address"},
					{"name": "fee",               "type": "uint24"},
					{"name": "recipient",         "type": "address"},
					{"name": "amountIn",          "type": "uint256"},
					{"name": "amountOutMinimum",  "type": "uint256"},
					{"name": "sqrtPriceLimitX96", "type": "uint160"}
				],
				"name": "params",
				"type": "tuple"
			}
		],
		"outputs": [
			{"name": "amountOut", "type": "uint256"}
		]
	}
]`

const quoterV2ABIJSON = `[
	{
		"name": "quoteExactInputSingle",
		"type": "function",
		"stateMutability": "nonpayable",
		"inputs": [
			{
				"components": [
					{"name": "tokenIn",           "type": "address"},
					{"name": "tokenOut",          "type": "address"},
					{"name": "amountIn",          "type": "uint256"},
					{"name": "fee",               "type": "uint24"},
					{"name": "sqrtPriceLimitX96", "type": "uint160"}
				],
				"name": "params",
				"type": "tuple"
			}
		],
		"outputs": [
			{"name": "amountOut",               "type": "uint256"},
			{"name": "sqrtPriceX96After",       "type": "uint160"},
			{"name": "initializedTicksCrossed", "type": "uint32"},
			{"name": "gasEstimate",             "type": "uint256"}
		]
	}
]`

const erc20ABIJSON = `[
	{
		"name": "decimals",
		"type": "function",
		"stateMutability": "view",
		"inputs": [],
		"outputs": [{"name": "", "type": "uint8"}]
	}
]`

var (
	abiOnce     sync.Once
	routerV2ABI abi.ABI
	routerV3ABI abi.ABI
	quoterV2ABI abi.ABI
	erc20ABI    abi.ABI
)

func parseABIs() {
	abiOnce.Do(func() {
		routerV2ABI = mustParse(routerV2ABIJSON)
		routerV3ABI = mustParse(routerV3ABIJSON)
		quoterV2ABI = mustParse(quoterV2ABIJSON)
		erc20ABI = mustParse(erc20ABIJSON)
	})
}

func mustParse(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}

// RouterV2ABI returns the Uniswap/PancakeSwap V2 router ABI.
func RouterV2ABI() abi.ABI { parseABIs(); return routerV2ABI }

// RouterV3ABI returns the Uniswap V3 SwapRouter02 ABI.
func RouterV3ABI() abi.ABI { parseABIs(); return routerV3ABI }

// QuoterV2ABI returns the Uniswap V3 QuoterV2 ABI.
func QuoterV2ABI() abi.ABI { parseABIs(); return quoterV2ABI }

// ERC20ABI returns the ERC20 ABI.
func ERC20ABI() abi.ABI { parseABIs(); return erc20ABI }
