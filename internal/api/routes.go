package api

import (
	"github.com/Migui-6/Launcher-VRacing/internal/api/handlers"
	"github.com/Migui-6/Launcher-VRacing/internal/api/middleware"
	"github.com/Migui-6/Launcher-VRacing/internal/config"
	"github.com/Migui-6/Launcher-VRacing/internal/websocket"
	"github.com/gin-gonic/gin"
)

// maxPinFailures is how many wrong PINs a client may send per minute.
const maxPinFailures = 5

// SetupRouter configures and returns the HTTP router
func SetupRouter(
	cfg *config.Config,
	manager handlers.Supervisor,
	games handlers.Catalog,
	store handlers.HistoryStore,
	hub *websocket.Hub,
) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())

	supervisorHandler := handlers.NewSupervisorHandler(manager, games)
	historyHandler := handlers.NewHistoryHandler(store)
	eventsHandler := handlers.NewEventsHandler(hub, manager)

	public := router.Group("/api/v1")
	{
		public.GET("/status", supervisorHandler.GetStatus)
		public.GET("/games", supervisorHandler.ListGames)
		public.GET("/history", historyHandler.ListSessions)
		public.GET("/history/:session/events", historyHandler.ListEvents)
		public.GET("/ws", eventsHandler.HandleWebSocket)
	}

	protected := router.Group("/api/v1")
	protected.Use(middleware.AdminPIN(cfg.Server.AdminPinHash, maxPinFailures))
	{
		protected.POST("/games/:id/launch", supervisorHandler.LaunchGame)
		protected.POST("/kill", supervisorHandler.KillCurrent)
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return router
}
