package routes

import (
	"tradecontrol/internal/handlers"
	"tradecontrol/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupTradeRoutes sets up trade execution, history and streaming routes
func SetupTradeRoutes(r *gin.Engine) {
	trades := r.Group("/trades")
	{
		trades.POST("/manual", middleware.RateLimiterMiddleware(middleware.RateLimiterConfig{
			RequestsPerSecond: 1,
			Burst:             3,
		}), handlers.ExecuteManualTrade)
		trades.GET("/recent", handlers.GetRecentTrades)
		trades.GET("", handlers.GetAllTrades)
		trades.GET("/network-stats", handlers.GetNetworkStats)
	}

	r.GET("/ws", handlers.WebSocketHandler)
}
