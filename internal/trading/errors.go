package trading

import "tradecontrol/internal/dex"

// Failure kinds at the core's public surface. Adapter-level kinds are the
// same strings the adapters produce.
const (
	KindNetworkUnavailable = "NetworkUnavailable"
	KindInvalidAddress     = "InvalidAddress"
	KindGasTooHigh         = "GasTooHigh"
	KindInvalidInterval    = "InvalidInterval"
	KindNotImplemented     = "NotImplemented"
	KindNoActiveConfig     = "NoActiveConfig"

	KindInvalidToken = dex.KindInvalidToken
	KindNoLiquidity  = dex.KindNoLiquidity
	KindNoV3Pool     = dex.KindNoV3Pool
	KindAdapterError = dex.KindAdapterError
)
