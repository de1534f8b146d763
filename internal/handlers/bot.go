package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tradecontrol/internal/chains"
	"tradecontrol/internal/scheduler"
	"tradecontrol/internal/trading"
)

// BotCommandRequest selects the network a start/stop command applies to.
type BotCommandRequest struct {
	Network string `json:"network" binding:"required"`
}

// GetBotStatuses returns the user's bot status rows across all networks.
func GetBotStatuses(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	statuses, err := Journal.GetBotStatuses(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, statuses)
}

// StartBot installs the recurring trade task for the network's active
// config.
func StartBot(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var request BotCommandRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	network, err := chains.Parse(request.Network)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !Trading.Available(network) {
		c.JSON(http.StatusConflict, gin.H{
			"kind":  trading.KindNetworkUnavailable,
			"error": "network " + string(network) + " is not configured",
		})
		return
	}

	cfg, err := Journal.GetActiveConfig(c.Request.Context(), userID, network)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if cfg == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"kind":  trading.KindNoActiveConfig,
			"error": "no active trade config for network " + string(network),
		})
		return
	}

	if err := Scheduler.StartBot(c.Request.Context(), userID, cfg); err != nil {
		if errors.Is(err, scheduler.ErrInvalidInterval) {
			c.JSON(http.StatusBadRequest, gin.H{
				"kind":  trading.KindInvalidInterval,
				"error": err.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// StopBot cancels the network's recurring trade task. Stopping a bot that
// is not running is a no-op.
func StopBot(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var request BotCommandRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	network, err := chains.Parse(request.Network)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := Scheduler.StopBot(c.Request.Context(), userID, network); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
