package routes

import (
	"tradecontrol/internal/handlers"

	"github.com/gin-gonic/gin"
)

// SetupTradeConfigRoutes sets up all routes related to trade config
// management
func SetupTradeConfigRoutes(r *gin.Engine) {
	configs := r.Group("/trade-config")
	{
		configs.POST("", handlers.CreateTradeConfig)
		configs.GET("/active", handlers.GetActiveConfigs)
		configs.GET("", handlers.GetAllConfigs)
	}
}
