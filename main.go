package main

import (
	"context"
	"log"
	"strings"

	api "feedbox-backend/cmd/api"
	articledomain "feedbox-backend/internal/article/domain"
	articleRepo "feedbox-backend/internal/article/repository"
	"feedbox-backend/internal/notification"
	syncdomain "feedbox-backend/internal/sync/domain"
	syncRepo "feedbox-backend/internal/sync/repository"
	"feedbox-backend/internal/sync/scheduler"
	syncUsecase "feedbox-backend/internal/sync/usecase"
	"feedbox-backend/pkg/config"
	"feedbox-backend/pkg/database"
	"feedbox-backend/pkg/fcm"
	"feedbox-backend/pkg/greader"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database schemas
	if err := db.AutoMigrate(
		&syncdomain.PendingChange{},
		&syncdomain.SyncRun{},
		&syncdomain.ConflictRecord{},
		&syncdomain.UsageCounter{},
		&syncdomain.SyncBoundary{},
		&syncdomain.DeviceToken{},
		&syncdomain.RemoteAccount{},
		&articledomain.Article{},
	); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize Redis (fast progress store)
	redisClient, err := database.NewRedisClient(context.Background(), cfg)
	if err != nil {
		log.Fatal("Failed to connect to redis:", err)
	}

	// Initialize repositories (dependency injection)
	queueRepo := syncRepo.NewChangeQueueRepository(db)
	runRepo := syncRepo.NewSyncRunRepository(db)
	usageRepo := syncRepo.NewUsageCounterRepository(db)
	conflictRepo := syncRepo.NewConflictRecordRepository(db)
	boundaryRepo := syncRepo.NewBoundaryRepository(db)
	tokenRepo := syncRepo.NewDeviceTokenRepository(db)
	accountRepo := syncRepo.NewAccountRepository(db)
	runCache := syncRepo.NewRunCache(redisClient)
	articleRepository := articleRepo.NewArticleRepository(db)

	// Initialize reader service client
	readerService := greader.NewService(cfg.ReaderBaseURL, cfg.ReaderClientID, cfg.ReaderClientSecret, cfg.RemoteCallTimeout)

	// Initialize FCM Client (optional, stuck-queue alerts are disabled without it)
	var fcmClient *fcm.Client
	if cfg.FirebaseCredentials != "" {
		fcmClient, err = fcm.NewClient(cfg.FirebaseCredentials)
		if err != nil {
			log.Printf("[WARN] Failed to initialize FCM client (alerts disabled): %v", err)
			fcmClient = nil
		}
	}

	// Initialize use cases (dependency injection)
	tracker := syncUsecase.NewProgressTracker(runCache, runRepo, cfg.FastStoreLinger, cfg.RunRetention)
	guard := syncUsecase.NewUsageGuard(usageRepo, cfg.ReaderDailyQuota)
	backoff := syncUsecase.NewBackoff(cfg.BackoffBase, cfg.BackoffCap)
	resolver := syncUsecase.NewConflictResolver(articleRepository, boundaryRepo, conflictRepo)

	processor := syncUsecase.NewBatchProcessor(queueRepo, accountRepo, tokenRepo, readerService, guard, backoff, tracker, fcmClient, syncUsecase.BatchProcessorConfig{
		MinBatchSize: cfg.MinBatchSize,
		MaxStaleness: cfg.MaxStaleness,
		ChunkSize:    cfg.ChunkSize,
		CallTimeout:  cfg.RemoteCallTimeout,
	})

	syncService := syncUsecase.NewSyncService(queueRepo, articleRepository, boundaryRepo, resolver, tracker)

	// Scheduler owns run execution; the usecase's trigger goes through it
	syncScheduler := scheduler.NewSyncScheduler(processor, tracker, cfg.SyncInterval, cfg.TriggerDebounce)
	syncService.SetTriggerFunc(syncScheduler.TriggerSync)
	syncScheduler.Start()
	defer syncScheduler.Stop()

	// Initialize Notification Service (Pub/Sub push triggers)
	// Only start if project ID is configured
	if cfg.GoogleProjectID != "" {
		topicName := cfg.GooglePubSubTopic
		if parts := strings.Split(topicName, "/"); len(parts) > 1 {
			topicName = parts[len(parts)-1]
		}

		notifService, err := notification.NewService(cfg.GoogleProjectID, topicName, syncService, cfg.GoogleCredentials)
		if err != nil {
			log.Printf("[ERROR] Failed to initialize notification service: %v", err)
		} else {
			go notifService.Start(context.Background())
		}
	} else {
		log.Printf("[WARN] GoogleProjectID not configured, push triggers disabled")
	}

	// Initialize HTTP handler
	handler := api.NewHandler(syncService, tokenRepo, cfg)

	log.Printf("Server starting on port %s", cfg.Port)
	if err := handler.Start(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
