package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"tradecontrol/internal/chains"
	"tradecontrol/internal/models"
	"tradecontrol/internal/trading"
	"tradecontrol/internal/ws"
)

// defaultManualGasRatio caps the gas pre-check for manual trades on
// networks without an active config to borrow the ratio from.
var defaultManualGasRatio = decimal.NewFromFloat(0.5)

// ManualTradeRequest is the request body for an on-demand trade.
type ManualTradeRequest struct {
	ContractAddress   string          `json:"contract_address" binding:"required"`
	Network           string          `json:"network" binding:"required"`
	DexVersion        string          `json:"dex_version"`
	AmountUsd         decimal.Decimal `json:"amount_usd"`
	SlippageTolerance decimal.Decimal `json:"slippage_tolerance"`
}

// ExecuteManualTrade runs a trade synchronously and returns its terminal
// log. The pending row is created before execution so a crash mid-trade
// still leaves an auditable record.
func ExecuteManualTrade(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var request ManualTradeRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	network, err := chains.Parse(request.Network)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if request.AmountUsd.LessThan(decimal.NewFromInt(1)) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount_usd must be at least 1"})
		return
	}
	if err := validateSlippage(request.SlippageTolerance); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()

	maxGasRatio := defaultManualGasRatio
	if cfg, err := Journal.GetActiveConfig(ctx, userID, network); err == nil && cfg != nil {
		maxGasRatio = cfg.MaxGasRatio
	}

	trade := &models.TradeLog{
		UserID:       userID,
		Network:      string(network),
		Dex:          network.DefaultDex(),
		TokenAddress: request.ContractAddress,
		TradeType:    models.TradeTypeManual,
		AmountUsd:    request.AmountUsd,
	}
	if err := Journal.CreateTradeLog(ctx, trade); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	outcome := Trading.ExecuteTrade(ctx, trading.Params{
		UserID:       userID,
		Network:      network,
		TokenAddress: request.ContractAddress,
		DexVersion:   request.DexVersion,
		AmountUsd:    request.AmountUsd,
		SlippagePct:  request.SlippageTolerance,
		MaxGasRatio:  maxGasRatio,
	})

	if err := Journal.ResolveTradeLog(ctx, trade.ID, trading.TerminalLog(outcome)); err != nil {
		log.Errorf("resolve manual trade log %d: %v", trade.ID, err)
	}

	// Manual trades count toward the network's bot statistics as well.
	if status, err := Journal.GetBotStatus(ctx, userID, network); err == nil {
		if status == nil {
			if err := Journal.UpsertBotStatus(ctx, &models.BotStatus{
				UserID:  userID,
				Network: string(network),
			}); err != nil {
				log.Warnf("create bot status for manual trade: %v", err)
			}
		}
		if err := Journal.ApplyTradeResolution(ctx, userID, network, request.AmountUsd, outcome.Success, nil); err != nil {
			log.Warnf("advance bot status for manual trade: %v", err)
		}
	}

	resolved, err := Journal.GetTradeLog(ctx, trade.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	Hub.Broadcast(userID, ws.NewTrade(resolved))
	if Publisher != nil {
		if err := Publisher.Publish("trade_events", resolved); err != nil {
			log.Warnf("publish trade event: %v", err)
		}
	}

	if !outcome.Success {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"kind":  outcome.Kind,
			"error": outcome.ErrorMessage,
			"trade": resolved,
		})
		return
	}
	c.JSON(http.StatusOK, resolved)
}

// GetRecentTrades returns the user's latest trades, newest first.
func GetRecentTrades(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	limit := 10
	if limitParam := c.Query("limit"); limitParam != "" {
		parsed, err := strconv.Atoi(limitParam)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit format"})
			return
		}
		limit = parsed
	}

	trades, err := Journal.GetRecentTrades(c.Request.Context(), userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, trades)
}

// GetAllTrades returns the user's full trade history.
func GetAllTrades(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	trades, err := Journal.GetAllTrades(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, trades)
}

// GetNetworkStats returns per-network aggregates over the user's trades.
func GetNetworkStats(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	stats, err := Journal.GetNetworkStats(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// WebSocketHandler upgrades the connection and hands it to the hub.
func WebSocketHandler(c *gin.Context) {
	Hub.HandleConnection(c.Writer, c.Request)
}
