package http

import (
	"github.com/gin-gonic/gin"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies, improving testability
// and reducing parameter count.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	health := NewHealthController(cfg.Database, cfg.Version)
	events := NewEventsController(cfg.Orchestrator)
	deadLetters := NewDeadLettersController(cfg.DeadLetters, cfg.Orchestrator, cfg.TaskClient)
	mappingsController := NewMappingsController(cfg.Mappings)
	configController := NewSyncConfigController(cfg.SyncConfigs)
	stats := NewStatsController(cfg.Ledger, cfg.DeadLetters)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// Event intake. Platform webhooks land here, so it stays outside
	// the admin token guard.
	router.POST("/api/events", events.Submit)

	// Read-only inspection endpoints
	router.GET("/api/stats", stats.Get)
	router.GET("/api/events/recent", stats.Recent)
	router.GET("/api/mappings", mappingsController.List)
	router.GET("/api/mappings/:id", mappingsController.Get)
	router.GET("/api/deadletters", deadLetters.List)
	router.GET("/api/deadletters/:id", deadLetters.Get)
	router.GET("/api/config", configController.List)

	// Mutating admin endpoints
	admin := router.Group("/api", AdminAuthMiddleware(cfg.AdminToken))
	admin.POST("/mappings/:id/enable", mappingsController.Enable)
	admin.POST("/mappings/:id/disable", mappingsController.Disable)
	admin.POST("/deadletters/:id/replay", deadLetters.Replay)
	admin.POST("/deadletters/replay", deadLetters.ReplayAll)
	admin.PUT("/config/:key", configController.Update)

	return router
}
