package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appconv "github.com/storefront/backend/internal/application/conversation"
	appsync "github.com/storefront/backend/internal/application/sync"
	"github.com/storefront/backend/internal/infrastructure/brains"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/internal/infrastructure/scheduler"
	"github.com/storefront/backend/internal/infrastructure/whatsapp"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"github.com/storefront/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Storefront Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	stateRepo := persistence.NewGormStateRepository(db.DB)

	// Optional Redis cache in front of catalog search. The storefront works
	// without it; every lookup just hits Postgres.
	var searchCache *cache.ProductSearchCache
	if cfg.Redis.Enabled {
		searchCache, err = cache.NewProductSearchCache(
			cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB,
			cache.WithCacheLogger(log),
		)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() {
			if err := searchCache.Close(); err != nil {
				log.Error("Error closing Redis client", zap.Error(err))
			}
		}()
		log.Info("Redis connected successfully", zap.String("addr", cfg.Redis.Addr()))
	}

	cachedProducts := cache.NewCachedProductRepository(productRepo, searchPageCache(searchCache))

	// Brains ERP feed sync
	brainsClient := brains.NewClient(brains.Config{
		BaseURL: cfg.Brains.BaseURL,
		APIKey:  cfg.Brains.APIKey,
		Timeout: cfg.Brains.Timeout,
	})
	syncService := appsync.NewBrainsSyncService(brainsClient, productRepo, customerRepo, cacheInvalidator(searchCache))
	syncScheduler := scheduler.NewSyncScheduler(scheduler.SyncSchedulerConfig{
		Interval: cfg.Scheduler.SyncInterval,
	}, syncService, log)

	if cfg.Scheduler.Enabled {
		if cfg.Brains.BaseURL == "" {
			log.Warn("Scheduler enabled but brains.base_url is empty, sync runs will fail")
		}
		if err := syncScheduler.Start(context.Background()); err != nil {
			log.Fatal("Failed to start sync scheduler", zap.Error(err))
		}
		log.Info("Brains sync scheduler started", zap.Duration("interval", cfg.Scheduler.SyncInterval))
	}

	// Conversation services
	identityService := appconv.NewIdentityService(customerRepo)
	stateService := appconv.NewStateService(stateRepo, appconv.WithStateTTL(cfg.Conversation.StateTTL))
	dialogService := appconv.NewDialogService(identityService, stateService, cachedProducts, orderRepo, customerRepo)

	// Outbound WhatsApp gateway
	var sender whatsapp.Sender
	if cfg.WhatsApp.BaseURL != "" {
		sender = whatsapp.NewHTTPSender(whatsapp.Config{
			BaseURL: cfg.WhatsApp.BaseURL,
			Token:   cfg.WhatsApp.Token,
			Timeout: cfg.WhatsApp.Timeout,
		}, log)
	} else {
		log.Warn("WhatsApp gateway not configured, outbound messages are dropped")
		sender = whatsapp.NopSender{}
	}

	// HTTP handlers and router
	webhookHandler := handler.NewWebhookHandler(dialogService, sender)
	adminHandler := handler.NewAdminHandler(customerRepo, cachedProducts, orderRepo, syncScheduler)

	engine := router.New(router.Config{
		Logger:      log,
		WebhookPath: cfg.WhatsApp.WebhookPath,
		MaxBodySize: cfg.HTTP.MaxBodySize,
	}, webhookHandler, adminHandler)

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if cfg.Scheduler.Enabled {
		if err := syncScheduler.Stop(ctx); err != nil {
			log.Error("Error stopping sync scheduler", zap.Error(err))
		}
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// searchPageCache adapts the nilable concrete cache to the repository
// decorator's interface. A typed nil inside a non-nil interface would defeat
// the decorator's nil check.
func searchPageCache(c *cache.ProductSearchCache) cache.SearchPageCache {
	if c == nil {
		return nil
	}
	return c
}

// cacheInvalidator does the same for the sync service's invalidation hook.
func cacheInvalidator(c *cache.ProductSearchCache) appsync.CacheInvalidator {
	if c == nil {
		return nil
	}
	return c
}
