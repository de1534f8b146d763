package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade log status values. A log is created pending and moves to success or
// failed exactly once; terminal rows are never mutated again.
const (
	TradeStatusPending = "pending"
	TradeStatusSuccess = "success"
	TradeStatusFailed  = "failed"
)

// Trade types.
const (
	TradeTypeAutomated = "automated"
	TradeTypeManual    = "manual"
)

// TradeLog records a single trade attempt.
type TradeLog struct {
	ID           uint             `gorm:"primarykey" json:"id"`
	UserID       string           `gorm:"size:64;not null;index" json:"user_id"`
	ConfigID     *uint            `json:"config_id"`
	Network      string           `gorm:"size:8;not null;index" json:"network"`
	Dex          string           `gorm:"size:20;not null" json:"dex"`
	TokenAddress string           `gorm:"size:64;not null" json:"token_address"`
	TradeType    string           `gorm:"size:10;not null" json:"trade_type"`
	AmountUsd    decimal.Decimal  `gorm:"type:numeric(18,2);not null" json:"amount_usd"`
	TokenAmount  *decimal.Decimal `gorm:"type:numeric(38,18)" json:"token_amount"`
	GasFee       *decimal.Decimal `gorm:"type:numeric(20,8)" json:"gas_fee"`
	GasFeeUsd    *decimal.Decimal `gorm:"type:numeric(20,8)" json:"gas_fee_usd"`
	Status       string           `gorm:"size:10;not null;default:pending" json:"status"`
	TxHash       *string          `gorm:"size:128" json:"tx_hash"`
	ErrorMessage *string          `gorm:"type:text" json:"error_message"`
	Slippage     *decimal.Decimal `gorm:"type:numeric(6,2)" json:"slippage"`
	TokenPrice   *decimal.Decimal `gorm:"type:numeric(30,8)" json:"token_price"`
	CreatedAt    time.Time        `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time        `json:"updated_at" gorm:"autoUpdateTime"`
}

func (TradeLog) TableName() string {
	return "trade_logs"
}

// Terminal reports whether the log has reached a final state.
func (t *TradeLog) Terminal() bool {
	return t.Status == TradeStatusSuccess || t.Status == TradeStatusFailed
}
