package api

import (
	"net/http"

	authDelivery "feedbox-backend/internal/auth/delivery"
	syncDelivery "feedbox-backend/internal/sync/delivery"
	"feedbox-backend/pkg/config"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, syncHandler *syncDelivery.SyncHandler, cfg *config.Config) {
	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		protected := api.Group("")
		protected.Use(authDelivery.AuthMiddleware(cfg.JWTSecret))
		{
			// Change ingestion
			protected.POST("/changes", syncHandler.EnqueueChange)

			// Sync control and progress
			syncGroup := protected.Group("/sync")
			{
				syncGroup.POST("/trigger", syncHandler.TriggerSync)
				syncGroup.GET("/runs/:id", syncHandler.GetRun)
				syncGroup.GET("/queue", syncHandler.GetQueue)
				syncGroup.POST("/queue/reset", syncHandler.ResetStuck)
				syncGroup.POST("/downlink-complete", syncHandler.DownlinkCompleted)
			}

			// Downlink snapshot ingestion
			protected.POST("/articles/snapshots", syncHandler.ApplySnapshots)

			// FCM routes
			fcmGroup := protected.Group("/fcm")
			{
				fcmGroup.POST("/register", syncHandler.RegisterDeviceToken)
				fcmGroup.DELETE("/:token", syncHandler.UnregisterDeviceToken)
			}
		}
	}
}
