package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tradecontrol/internal/journal"
	"tradecontrol/internal/scheduler"
	"tradecontrol/internal/trading"
	"tradecontrol/internal/ws"
)

// Package-level collaborators, wired once at startup.
var (
	Journal   *journal.Journal
	Trading   *trading.Service
	Scheduler *scheduler.Scheduler
	Hub       *ws.Hub
	Publisher scheduler.Publisher
)

// Init wires the handler package to its collaborators.
func Init(j *journal.Journal, t *trading.Service, s *scheduler.Scheduler, h *ws.Hub, p scheduler.Publisher) {
	Journal = j
	Trading = t
	Scheduler = s
	Hub = h
	Publisher = p
}

// requireUserID extracts the authenticated user from the X-User-Id header
// the session layer injects. Requests without it are rejected.
func requireUserID(c *gin.Context) (string, bool) {
	userID := c.GetHeader("X-User-Id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user identity"})
		return "", false
	}
	return userID, true
}
