package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	logrus "github.com/sirupsen/logrus"

	"tradecontrol/internal/journal"
	"tradecontrol/internal/models"
	"tradecontrol/pkg/config"
)

// The worker drains resolved trade events from the broker and journals an
// audit row for each, keeping the write off the trading hot path.
func main() {
	_ = godotenv.Load()

	// Initialize logger
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(logrus.InfoLevel)

	// Initialize database
	config.InitDB()

	// Initialize RabbitMQ
	config.InitRabbitMQ()
	defer config.RabbitMQ.Close()

	tradeJournal := journal.New(config.DB)

	msgConsumer, err := config.NewConsumer("trade_events")
	if err != nil {
		logrus.Fatal("Failed to create consumer: ", err)
	}
	defer msgConsumer.Close()

	logrus.Info("Trade audit worker started, waiting for messages...")

	err = msgConsumer.Consume(func(msg []byte) error {
		var trade models.TradeLog
		if err := json.Unmarshal(msg, &trade); err != nil {
			logrus.Errorf("Failed to unmarshal trade event: %v", err)
			return err
		}

		level := "INFO"
		message := fmt.Sprintf("trade %d resolved %s on %s (%s)", trade.ID, trade.Status, trade.Network, trade.TradeType)
		if trade.Status == models.TradeStatusFailed {
			level = "WARN"
		}

		meta := models.JSONMap{
			"trade_id":   trade.ID,
			"dex":        trade.Dex,
			"token":      trade.TokenAddress,
			"amount_usd": trade.AmountUsd.String(),
		}
		if trade.TxHash != nil {
			meta["tx_hash"] = *trade.TxHash
		}
		if trade.ErrorMessage != nil {
			meta["error"] = *trade.ErrorMessage
		}

		if err := tradeJournal.CreateSystemLog(context.Background(), &models.SystemLog{
			UserID:  trade.UserID,
			Network: trade.Network,
			Level:   level,
			Message: message,
			Module:  "trade_audit",
			Meta:    meta,
		}); err != nil {
			logrus.Errorf("Failed to write audit row: %v", err)
			return err
		}

		logrus.WithFields(logrus.Fields{
			"trade_id": trade.ID,
			"user_id":  trade.UserID,
			"network":  trade.Network,
			"status":   trade.Status,
		}).Info("Trade event journaled")
		return nil
	})

	if err != nil {
		log.Fatal("Failed to start consumer: ", err)
	}
}
