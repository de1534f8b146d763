package chains

// EVMConstants holds the per-network contract addresses the adapters need.
type EVMConstants struct {
	ChainID      int64
	V2Router     string
	V3Router     string
	V3Quoter     string
	WrappedToken string
}

// evmConstants is keyed by network. V3 entries are zero-valued on BNB where
// only the PancakeSwap V2 router is used.
var evmConstants = map[Network]EVMConstants{
	NetworkETH: {
		ChainID:      1,
		V2Router:     "0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D",
		V3Router:     "0x68b3465833fb72A70ecDF485E0e4C7bD8665Fc45",
		V3Quoter:     "0x61fFE014bA17989E743c5F6cB21bF9697530B21e",
		WrappedToken: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2",
	},
	NetworkBASE: {
		ChainID:      8453,
		V2Router:     "0x4752ba5DBc23f44D87826276BF6Fd6b1C372aD24",
		V3Router:     "0x2626664c2603336E57B271c5C0b26F421741e481",
		V3Quoter:     "0x3d4e44Eb1374240CE5F1B871ab261CD16335B76a",
		WrappedToken: "0x4200000000000000000000000000000000000006",
	},
	NetworkBNB: {
		ChainID:      56,
		V2Router:     "0x10ED43C718714eb63d5aA57B78B54704E256024E",
		WrappedToken: "0xbb4CdB9CBd36B01bD1cBaEF60aF814a3f6F0Ee75",
	},
}

// WrappedSOLMint is the wrapped SOL mint used as Jupiter's input.
const WrappedSOLMint = "So11111111111111111111111111111111111111112"

// EVM returns the contract constants for an EVM network.
func (n Network) EVM() EVMConstants {
	return evmConstants[n]
}

// V3FeeTiers are the Uniswap V3 pool fee tiers probed in ascending order.
var V3FeeTiers = []int64{100, 500, 3000, 10000}
