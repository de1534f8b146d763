package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BotStatus is the durable per-(user, network) bot state. Counters are
// monotonic; pending trades are counted only after they resolve.
type BotStatus struct {
	ID                    uint            `gorm:"primarykey" json:"id"`
	UserID                string          `gorm:"size:64;not null;uniqueIndex:idx_bot_statuses_user_network" json:"user_id"`
	Network               string          `gorm:"size:8;not null;uniqueIndex:idx_bot_statuses_user_network" json:"network"`
	IsRunning             bool            `gorm:"default:false" json:"is_running"`
	ActiveConfigID        *uint           `json:"active_config_id"`
	LastTradeAt           *time.Time      `json:"last_trade_at"`
	NextTradeAt           *time.Time      `json:"next_trade_at"`
	TotalTradesCount      int64           `gorm:"default:0" json:"total_trades_count"`
	SuccessfulTradesCount int64           `gorm:"default:0" json:"successful_trades_count"`
	FailedTradesCount     int64           `gorm:"default:0" json:"failed_trades_count"`
	TotalVolumeUsd        decimal.Decimal `gorm:"type:numeric(18,2);default:0" json:"total_volume_usd"`
	CreatedAt             time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt             time.Time       `json:"updated_at" gorm:"autoUpdateTime"`
}

func (BotStatus) TableName() string {
	return "bot_statuses"
}
