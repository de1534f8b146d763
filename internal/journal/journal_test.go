package journal

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"tradecontrol/internal/chains"
	"tradecontrol/internal/models"
)

// setupJournal connects to the test database, or skips when none is
// configured.
func setupJournal(t *testing.T) *Journal {
	t.Helper()

	_ = godotenv.Load("../../.env")
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping journal tests")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.TradeConfig{},
		&models.BotStatus{},
		&models.TradeLog{},
		&models.SystemLog{},
	))

	t.Cleanup(func() {
		db.Exec("DELETE FROM trade_logs")
		db.Exec("DELETE FROM bot_statuses")
		db.Exec("DELETE FROM trade_configs")
		db.Exec("DELETE FROM system_logs")
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	return New(db)
}

func newConfig(userID, network string) *models.TradeConfig {
	return &models.TradeConfig{
		UserID:            userID,
		Network:           network,
		ContractAddress:   "0x6B175474E89094C44Da98b954EedeAC495271d0F",
		WalletAddress:     "0x47ac0Fb4F2D84898e4D9E7b4DaB3C24507a6D503",
		Dex:               chains.Network(network).DefaultDex(),
		DexVersion:        "auto",
		TradeInterval:     "5min",
		TradeAmountUsd:    decimal.NewFromInt(20),
		MaxGasRatio:       decimal.NewFromFloat(0.5),
		SlippageTolerance: decimal.NewFromInt(1),
	}
}

func TestCreateConfigDeactivatesPrior(t *testing.T) {
	j := setupJournal(t)
	ctx := context.Background()

	first := newConfig("user-1", "BNB")
	require.NoError(t, j.CreateConfig(ctx, first))
	second := newConfig("user-1", "BNB")
	require.NoError(t, j.CreateConfig(ctx, second))

	active, err := j.GetActiveConfig(ctx, "user-1", chains.NetworkBNB)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, second.ID, active.ID)

	all, err := j.GetAllConfigs(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	activeCount := 0
	for _, cfg := range all {
		if cfg.IsActive {
			activeCount++
		}
	}
	assert.Equal(t, 1, activeCount, "at most one active config per (user, network)")
}

func TestCreateConfigIsScopedToNetwork(t *testing.T) {
	j := setupJournal(t)
	ctx := context.Background()

	bnb := newConfig("user-1", "BNB")
	require.NoError(t, j.CreateConfig(ctx, bnb))
	eth := newConfig("user-1", "ETH")
	require.NoError(t, j.CreateConfig(ctx, eth))

	actives, err := j.GetAllActiveConfigs(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, actives, 2, "configs on other networks stay active")
}

func TestTradeLogStateMachine(t *testing.T) {
	j := setupJournal(t)
	ctx := context.Background()

	trade := &models.TradeLog{
		UserID:       "user-1",
		Network:      "SOL",
		Dex:          chains.DexJupiter,
		TokenAddress: "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		TradeType:    models.TradeTypeManual,
		AmountUsd:    decimal.NewFromInt(10),
	}
	require.NoError(t, j.CreateTradeLog(ctx, trade))

	stored, err := j.GetTradeLog(ctx, trade.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TradeStatusPending, stored.Status)

	hash := "5VERYLONGBASE58SIG"
	amount := decimal.NewFromFloat(66.6)
	require.NoError(t, j.ResolveTradeLog(ctx, trade.ID, &models.TradeLog{
		Status:      models.TradeStatusSuccess,
		TxHash:      &hash,
		TokenAmount: &amount,
	}))

	stored, err = j.GetTradeLog(ctx, trade.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TradeStatusSuccess, stored.Status)
	require.NotNil(t, stored.TxHash)

	// Terminal rows are immutable.
	err = j.ResolveTradeLog(ctx, trade.ID, &models.TradeLog{Status: models.TradeStatusFailed})
	assert.ErrorIs(t, err, ErrTradeLogTerminal)

	// Only terminal statuses are accepted.
	err = j.ResolveTradeLog(ctx, trade.ID, &models.TradeLog{Status: models.TradeStatusPending})
	assert.Error(t, err)
}

func TestBotStatusCounters(t *testing.T) {
	j := setupJournal(t)
	ctx := context.Background()

	require.NoError(t, j.UpsertBotStatus(ctx, &models.BotStatus{
		UserID:    "user-1",
		Network:   "BNB",
		IsRunning: true,
	}))

	next := time.Now().Add(5 * time.Minute)
	require.NoError(t, j.ApplyTradeResolution(ctx, "user-1", chains.NetworkBNB, decimal.NewFromInt(20), true, &next))
	require.NoError(t, j.ApplyTradeResolution(ctx, "user-1", chains.NetworkBNB, decimal.NewFromInt(20), false, &next))

	status, err := j.GetBotStatus(ctx, "user-1", chains.NetworkBNB)
	require.NoError(t, err)
	require.NotNil(t, status)
	assert.Equal(t, int64(2), status.TotalTradesCount)
	assert.Equal(t, int64(1), status.SuccessfulTradesCount)
	assert.Equal(t, int64(1), status.FailedTradesCount)
	assert.True(t, status.TotalVolumeUsd.Equal(decimal.NewFromInt(20)), "volume accrues only on success")
}

func TestUpsertBotStatusIsIdempotentPerKey(t *testing.T) {
	j := setupJournal(t)
	ctx := context.Background()

	configID := uint(1)
	for i := 0; i < 3; i++ {
		require.NoError(t, j.UpsertBotStatus(ctx, &models.BotStatus{
			UserID:         "user-1",
			Network:        "ETH",
			IsRunning:      i%2 == 0,
			ActiveConfigID: &configID,
		}))
	}

	statuses, err := j.GetBotStatuses(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, statuses, 1, "one row per (user, network)")
}

func TestGetNetworkStats(t *testing.T) {
	j := setupJournal(t)
	ctx := context.Background()

	gasFee := decimal.NewFromFloat(0.001)
	gasFeeUsd := decimal.NewFromInt(2)
	for i, status := range []string{models.TradeStatusSuccess, models.TradeStatusFailed} {
		trade := &models.TradeLog{
			UserID:       "user-1",
			Network:      "BNB",
			Dex:          chains.DexPancakeSwap,
			TokenAddress: fmt.Sprintf("0x%040d", i),
			TradeType:    models.TradeTypeAutomated,
			AmountUsd:    decimal.NewFromInt(20),
		}
		require.NoError(t, j.CreateTradeLog(ctx, trade))
		require.NoError(t, j.ResolveTradeLog(ctx, trade.ID, &models.TradeLog{
			Status:    status,
			GasFee:    &gasFee,
			GasFeeUsd: &gasFeeUsd,
		}))
	}

	stats, err := j.GetNetworkStats(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, stats, len(chains.All), "every network appears in the result")

	byNetwork := make(map[string]NetworkStats)
	for _, row := range stats {
		byNetwork[row.Network] = row
	}

	bnb := byNetwork["BNB"]
	assert.Equal(t, int64(2), bnb.TotalTrades)
	assert.Equal(t, int64(1), bnb.SuccessfulTrades)
	assert.Equal(t, int64(1), bnb.FailedTrades)
	assert.True(t, bnb.TotalGasFeeUsd.Equal(decimal.NewFromInt(4)))

	sol := byNetwork["SOL"]
	assert.Zero(t, sol.TotalTrades)
	assert.True(t, sol.TotalVolumeUsd.IsZero())
}
