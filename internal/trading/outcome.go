package trading

import (
	"tradecontrol/internal/models"
)

// TerminalLog converts an outcome into the terminal fields of a trade log.
func TerminalLog(outcome Outcome) *models.TradeLog {
	terminal := &models.TradeLog{}
	if outcome.Success {
		terminal.Status = models.TradeStatusSuccess
	} else {
		terminal.Status = models.TradeStatusFailed
		if outcome.ErrorMessage != "" {
			msg := outcome.ErrorMessage
			terminal.ErrorMessage = &msg
		}
	}
	if outcome.TxHash != "" {
		hash := outcome.TxHash
		terminal.TxHash = &hash
	}
	if outcome.Success || outcome.Kind == KindGasTooHigh {
		gasFee := outcome.GasFee
		gasFeeUsd := outcome.GasFeeUsd
		terminal.GasFee = &gasFee
		terminal.GasFeeUsd = &gasFeeUsd
	}
	if outcome.Success {
		tokenAmount := outcome.TokenAmount
		tokenPrice := outcome.TokenPrice
		slippage := outcome.Slippage
		terminal.TokenAmount = &tokenAmount
		terminal.TokenPrice = &tokenPrice
		terminal.Slippage = &slippage
	}
	return terminal
}
