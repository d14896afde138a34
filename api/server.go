package api

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/x402-demos/agent-launchpad/api/handlers"
)

// NewRouter builds the gin engine with all routes wired.
func NewRouter(h *handlers.Handlers) *gin.Engine {
	router := gin.Default()
	SetupRoutes(router, h)
	return router
}

// StartServer runs the REST API on the given port. Blocks.
func StartServer(port int, h *handlers.Handlers) error {
	return NewRouter(h).Run(fmt.Sprintf(":%d", port))
}
