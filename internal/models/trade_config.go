package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeConfig is the per-(user, network) bot configuration. At most one row
// per (user, network) is active, enforced by a partial unique index.
type TradeConfig struct {
	ID                uint            `gorm:"primarykey" json:"id"`
	UserID            string          `gorm:"size:64;not null;index:idx_trade_configs_user_network" json:"user_id"`
	Network           string          `gorm:"size:8;not null;index:idx_trade_configs_user_network" json:"network"`
	ContractAddress   string          `gorm:"size:64;not null" json:"contract_address"`
	WalletAddress     string          `gorm:"size:64;not null" json:"wallet_address"`
	Dex               string          `gorm:"size:20;not null" json:"dex"`
	DexVersion        string          `gorm:"size:8;default:auto" json:"dex_version"`
	TradeInterval     string          `gorm:"size:8;not null" json:"trade_interval"`
	TradeAmountUsd    decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"trade_amount_usd"`
	MaxGasRatio       decimal.Decimal `gorm:"type:numeric(4,2);not null" json:"max_gas_ratio"`
	SlippageTolerance decimal.Decimal `gorm:"type:numeric(6,2);not null" json:"slippage_tolerance"`
	IsActive          bool            `gorm:"default:true" json:"is_active"`
	CreatedAt         time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt         time.Time       `json:"updated_at" gorm:"autoUpdateTime"`
}

func (TradeConfig) TableName() string {
	return "trade_configs"
}
