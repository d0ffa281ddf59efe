package api

import (
	syncDelivery "feedbox-backend/internal/sync/delivery"
	"feedbox-backend/internal/sync/repository"
	"feedbox-backend/internal/sync/usecase"
	"feedbox-backend/pkg/config"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Handler struct {
	syncHandler *syncDelivery.SyncHandler
	config      *config.Config
}

func NewHandler(syncUc usecase.SyncUsecase, tokenRepo repository.DeviceTokenRepository, cfg *config.Config) *Handler {
	return &Handler{
		syncHandler: syncDelivery.NewSyncHandler(syncUc, tokenRepo),
		config:      cfg,
	}
}

func (h *Handler) Start(addr string) error {
	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "Cache-Control"},
		AllowCredentials: false,
	}))

	SetupRoutes(r, h.syncHandler, h.config)

	return r.Run(addr)
}
