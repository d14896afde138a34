package api

import (
	"github.com/gin-gonic/gin"

	"github.com/x402-demos/agent-launchpad/api/handlers"
)

// SetupRoutes initializes all API endpoints
func SetupRoutes(router *gin.Engine, h *handlers.Handlers) {
	api := router.Group("/api")
	{
		api.GET("/agents", h.ListAgents)
		api.POST("/agents/create", h.CreateAgent)
		api.GET("/agents/:id/address", h.AgentAddress)
		api.POST("/agents/:id/run", h.RunAgent)
		api.GET("/purchases", h.ListPurchases)
		api.POST("/create-agent-wallet", h.CreateWallet)
		api.GET("/storage/status", h.StorageStatus)
	}
	router.GET("/ws", handlers.HandleWebSocket)
}
