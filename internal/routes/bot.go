package routes

import (
	"tradecontrol/internal/handlers"

	"github.com/gin-gonic/gin"
)

// SetupBotRoutes sets up all routes related to bot lifecycle management
func SetupBotRoutes(r *gin.Engine) {
	bot := r.Group("/bot")
	{
		bot.GET("/statuses", handlers.GetBotStatuses)
		bot.POST("/start", handlers.StartBot)
		bot.POST("/stop", handlers.StopBot)
	}
}
