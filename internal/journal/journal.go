package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tradecontrol/internal/chains"
	"tradecontrol/internal/models"
)

// Journal owns all durable trading state: configs, trade logs and bot
// statuses. Everyone else holds transient copies.
type Journal struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Journal {
	return &Journal{db: db}
}

// --- trade configs ---

// CreateConfig deactivates any prior active config for the same
// (user, network) and inserts the new row as active, in one transaction.
func (j *Journal) CreateConfig(ctx context.Context, cfg *models.TradeConfig) error {
	return j.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.TradeConfig{}).
			Where("user_id = ? AND network = ? AND is_active", cfg.UserID, cfg.Network).
			Update("is_active", false).Error; err != nil {
			return fmt.Errorf("deactivate prior configs: %w", err)
		}
		cfg.IsActive = true
		if err := tx.Create(cfg).Error; err != nil {
			return fmt.Errorf("insert config: %w", err)
		}
		return nil
	})
}

// GetActiveConfig returns the active config for (user, network), or nil when
// none exists.
func (j *Journal) GetActiveConfig(ctx context.Context, userID string, network chains.Network) (*models.TradeConfig, error) {
	var cfg models.TradeConfig
	err := j.db.WithContext(ctx).
		Where("user_id = ? AND network = ? AND is_active", userID, network).
		First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (j *Journal) GetConfigByID(ctx context.Context, id uint) (*models.TradeConfig, error) {
	var cfg models.TradeConfig
	err := j.db.WithContext(ctx).First(&cfg, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (j *Journal) GetAllActiveConfigs(ctx context.Context, userID string) ([]models.TradeConfig, error) {
	var configs []models.TradeConfig
	err := j.db.WithContext(ctx).
		Where("user_id = ? AND is_active", userID).
		Order("network").
		Find(&configs).Error
	return configs, err
}

func (j *Journal) GetAllConfigs(ctx context.Context, userID string) ([]models.TradeConfig, error) {
	var configs []models.TradeConfig
	err := j.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&configs).Error
	return configs, err
}

// --- trade logs ---

func (j *Journal) CreateTradeLog(ctx context.Context, trade *models.TradeLog) error {
	trade.Status = models.TradeStatusPending
	return j.db.WithContext(ctx).Create(trade).Error
}

// ErrTradeLogTerminal is returned when a terminal trade log is written again.
var ErrTradeLogTerminal = errors.New("trade log is already terminal")

// ResolveTradeLog moves a pending trade log to its terminal state. Writing a
// terminal row again is a bug and is rejected.
func (j *Journal) ResolveTradeLog(ctx context.Context, id uint, terminal *models.TradeLog) error {
	if terminal.Status != models.TradeStatusSuccess && terminal.Status != models.TradeStatusFailed {
		return fmt.Errorf("resolve trade log %d: %q is not a terminal status", id, terminal.Status)
	}
	return j.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.TradeLog
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&current, id).Error; err != nil {
			return fmt.Errorf("load trade log %d: %w", id, err)
		}
		if current.Terminal() {
			return fmt.Errorf("trade log %d (%s): %w", id, current.Status, ErrTradeLogTerminal)
		}
		updates := map[string]interface{}{
			"status":        terminal.Status,
			"tx_hash":       terminal.TxHash,
			"token_amount":  terminal.TokenAmount,
			"gas_fee":       terminal.GasFee,
			"gas_fee_usd":   terminal.GasFeeUsd,
			"token_price":   terminal.TokenPrice,
			"slippage":      terminal.Slippage,
			"error_message": terminal.ErrorMessage,
		}
		return tx.Model(&models.TradeLog{}).Where("id = ?", id).Updates(updates).Error
	})
}

func (j *Journal) GetTradeLog(ctx context.Context, id uint) (*models.TradeLog, error) {
	var trade models.TradeLog
	if err := j.db.WithContext(ctx).First(&trade, id).Error; err != nil {
		return nil, err
	}
	return &trade, nil
}

func (j *Journal) GetRecentTrades(ctx context.Context, userID string, limit int) ([]models.TradeLog, error) {
	if limit <= 0 {
		limit = 10
	}
	var trades []models.TradeLog
	err := j.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&trades).Error
	return trades, err
}

func (j *Journal) GetAllTrades(ctx context.Context, userID string) ([]models.TradeLog, error) {
	var trades []models.TradeLog
	err := j.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&trades).Error
	return trades, err
}

// --- bot statuses ---

// UpsertBotStatus inserts or updates the (user, network) status row.
func (j *Journal) UpsertBotStatus(ctx context.Context, status *models.BotStatus) error {
	return j.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "network"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"is_running", "active_config_id", "next_trade_at", "updated_at",
		}),
	}).Create(status).Error
}

// UpdateBotStatus applies partial updates to the (user, network) status row.
func (j *Journal) UpdateBotStatus(ctx context.Context, userID string, network chains.Network, updates map[string]interface{}) error {
	return j.db.WithContext(ctx).Model(&models.BotStatus{}).
		Where("user_id = ? AND network = ?", userID, network).
		Updates(updates).Error
}

// ApplyTradeResolution advances the status counters for one resolved trade.
// Volume accumulates only on success.
func (j *Journal) ApplyTradeResolution(ctx context.Context, userID string, network chains.Network, amountUsd decimal.Decimal, success bool, nextTradeAt *time.Time) error {
	updates := map[string]interface{}{
		"total_trades_count": gorm.Expr("total_trades_count + 1"),
		"last_trade_at":      time.Now(),
	}
	// Manual trades pass nil and leave the schedule's next fire time alone.
	if nextTradeAt != nil {
		updates["next_trade_at"] = nextTradeAt
	}
	if success {
		updates["successful_trades_count"] = gorm.Expr("successful_trades_count + 1")
		updates["total_volume_usd"] = gorm.Expr("total_volume_usd + ?", amountUsd)
	} else {
		updates["failed_trades_count"] = gorm.Expr("failed_trades_count + 1")
	}
	return j.db.WithContext(ctx).Model(&models.BotStatus{}).
		Where("user_id = ? AND network = ?", userID, network).
		Updates(updates).Error
}

func (j *Journal) GetBotStatus(ctx context.Context, userID string, network chains.Network) (*models.BotStatus, error) {
	var status models.BotStatus
	err := j.db.WithContext(ctx).
		Where("user_id = ? AND network = ?", userID, network).
		First(&status).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &status, nil
}

func (j *Journal) GetBotStatuses(ctx context.Context, userID string) ([]models.BotStatus, error) {
	var statuses []models.BotStatus
	err := j.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("network").
		Find(&statuses).Error
	return statuses, err
}

// GetRunningStatuses lists every status row marked running, for startup
// reconciliation.
func (j *Journal) GetRunningStatuses(ctx context.Context) ([]models.BotStatus, error) {
	var statuses []models.BotStatus
	err := j.db.WithContext(ctx).
		Where("is_running").
		Find(&statuses).Error
	return statuses, err
}

// --- aggregations ---

// NetworkStats is the per-network aggregation over a user's trade logs.
type NetworkStats struct {
	Network          string          `json:"network"`
	TotalTrades      int64           `json:"total_trades"`
	SuccessfulTrades int64           `json:"successful_trades"`
	FailedTrades     int64           `json:"failed_trades"`
	TotalGasFee      decimal.Decimal `json:"total_gas_fee"`
	TotalGasFeeUsd   decimal.Decimal `json:"total_gas_fee_usd"`
	TotalVolumeUsd   decimal.Decimal `json:"total_volume_usd"`
}

// GetNetworkStats aggregates trade logs per network. Every supported network
// appears in the result, zero-valued when the user has no trades there.
func (j *Journal) GetNetworkStats(ctx context.Context, userID string) ([]NetworkStats, error) {
	var rows []NetworkStats
	err := j.db.WithContext(ctx).Raw(`
		SELECT network,
		       COUNT(*)                                                  AS total_trades,
		       COUNT(*) FILTER (WHERE status = 'success')                AS successful_trades,
		       COUNT(*) FILTER (WHERE status = 'failed')                 AS failed_trades,
		       COALESCE(SUM(gas_fee), 0)                                 AS total_gas_fee,
		       COALESCE(SUM(gas_fee_usd), 0)                             AS total_gas_fee_usd,
		       COALESCE(SUM(amount_usd), 0)                              AS total_volume_usd
		FROM trade_logs
		WHERE user_id = ?
		GROUP BY network`, userID).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	byNetwork := make(map[string]NetworkStats, len(rows))
	for _, row := range rows {
		byNetwork[row.Network] = row
	}

	stats := make([]NetworkStats, 0, len(chains.All))
	for _, network := range chains.All {
		if row, ok := byNetwork[string(network)]; ok {
			stats = append(stats, row)
		} else {
			stats = append(stats, NetworkStats{
				Network:        string(network),
				TotalGasFee:    decimal.Zero,
				TotalGasFeeUsd: decimal.Zero,
				TotalVolumeUsd: decimal.Zero,
			})
		}
	}
	return stats, nil
}

// --- system logs ---

func (j *Journal) CreateSystemLog(ctx context.Context, entry *models.SystemLog) error {
	return j.db.WithContext(ctx).Create(entry).Error
}
