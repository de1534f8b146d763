package ws

import "tradecontrol/internal/models"

// NewBotStatus builds a bot_status event.
func NewBotStatus(network string, isRunning bool) BotStatusEvent {
	return BotStatusEvent{Type: "bot_status", Network: network, IsRunning: isRunning}
}

// NewTrade builds a new_trade event. A nil trade produces the lightweight
// variant without the full payload.
func NewTrade(trade *models.TradeLog) NewTradeEvent {
	return NewTradeEvent{Type: "new_trade", Trade: trade}
}
