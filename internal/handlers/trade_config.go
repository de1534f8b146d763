package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"tradecontrol/internal/chains"
	"tradecontrol/internal/models"
	"tradecontrol/internal/scheduler"
)

// TradeConfigRequest is the request body for creating a trade config.
type TradeConfigRequest struct {
	ContractAddress   string          `json:"contract_address" binding:"required"`
	WalletAddress     string          `json:"wallet_address" binding:"required"`
	Network           string          `json:"network" binding:"required"`
	DexVersion        string          `json:"dex_version"`
	TradeInterval     string          `json:"trade_interval" binding:"required"`
	TradeAmountUsd    decimal.Decimal `json:"trade_amount_usd"`
	MaxGasRatio       decimal.Decimal `json:"max_gas_ratio"`
	SlippageTolerance decimal.Decimal `json:"slippage_tolerance"`
}

func (r *TradeConfigRequest) validate() (chains.Network, error) {
	network, err := chains.Parse(r.Network)
	if err != nil {
		return "", err
	}
	if !network.ValidAddress(r.ContractAddress) {
		return "", fmt.Errorf("%q is not a valid %s address", r.ContractAddress, network)
	}
	if !network.ValidAddress(r.WalletAddress) {
		return "", fmt.Errorf("%q is not a valid %s address", r.WalletAddress, network)
	}
	if _, err := scheduler.CronSpecFor(r.TradeInterval); err != nil {
		return "", err
	}
	if r.TradeAmountUsd.LessThan(decimal.NewFromInt(1)) {
		return "", fmt.Errorf("trade_amount_usd must be at least 1")
	}
	if r.MaxGasRatio.LessThan(decimal.NewFromFloat(0.1)) || r.MaxGasRatio.GreaterThan(decimal.NewFromInt(1)) {
		return "", fmt.Errorf("max_gas_ratio must be between 0.1 and 1.0")
	}
	if err := validateSlippage(r.SlippageTolerance); err != nil {
		return "", err
	}
	switch r.DexVersion {
	case "", "auto", "v2", "v3", "v4":
	default:
		return "", fmt.Errorf("dex_version must be one of auto, v2, v3, v4")
	}
	return network, nil
}

func validateSlippage(slippage decimal.Decimal) error {
	if slippage.LessThanOrEqual(decimal.Zero) || slippage.GreaterThan(decimal.NewFromInt(50)) {
		return fmt.Errorf("slippage_tolerance must be greater than 0 and at most 50")
	}
	return nil
}

// CreateTradeConfig persists a new config as the network's active one. A
// bot currently running on the network is atomically restarted with it.
func CreateTradeConfig(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var request TradeConfigRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	network, err := request.validate()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dexVersion := request.DexVersion
	if dexVersion == "" {
		dexVersion = "auto"
	}

	cfg := models.TradeConfig{
		UserID:            userID,
		Network:           string(network),
		ContractAddress:   request.ContractAddress,
		WalletAddress:     request.WalletAddress,
		Dex:               network.DefaultDex(),
		DexVersion:        dexVersion,
		TradeInterval:     request.TradeInterval,
		TradeAmountUsd:    request.TradeAmountUsd,
		MaxGasRatio:       request.MaxGasRatio,
		SlippageTolerance: request.SlippageTolerance,
	}

	if err := Journal.CreateConfig(c.Request.Context(), &cfg); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// Reconfiguration: a running bot picks up the new config immediately.
	if Scheduler.IsRunning(userID, network) {
		if err := Scheduler.StartBot(c.Request.Context(), userID, &cfg); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}

	c.JSON(http.StatusCreated, cfg)
}

// GetActiveConfigs returns the active config for ?network=, or the active
// configs across all networks when the query is omitted.
func GetActiveConfigs(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	if networkParam := c.Query("network"); networkParam != "" {
		network, err := chains.Parse(networkParam)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		cfg, err := Journal.GetActiveConfig(c.Request.Context(), userID, network)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if cfg == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "no active config for network " + string(network)})
			return
		}
		c.JSON(http.StatusOK, cfg)
		return
	}

	configs, err := Journal.GetAllActiveConfigs(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, configs)
}

// GetAllConfigs returns every config the user has saved, newest first.
func GetAllConfigs(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	configs, err := Journal.GetAllConfigs(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, configs)
}
