package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gateguard/gateguard/audit"
	"github.com/gateguard/gateguard/cache"
	"github.com/gateguard/gateguard/config"
	"github.com/gateguard/gateguard/controller"
	"github.com/gateguard/gateguard/db"
	"github.com/gateguard/gateguard/engine"
	"github.com/gateguard/gateguard/lapi"
	logger "github.com/gateguard/gateguard/logging"
	"github.com/gateguard/gateguard/middleware"
	"github.com/gateguard/gateguard/router"
	"github.com/gateguard/gateguard/util"
)

const version = "1.0.0"

func main() {
	// Initialize configuration
	if err := config.InitConfig(); err != nil {
		log.Fatalf("Failed to initialize config: %v", err)
	}

	// Initialize logger
	logger.InitLogger()
	defer logger.Sync()

	// Resolve the decision-service endpoint
	endpoint, err := lapi.ParseBaseURL(config.GetString("decision.url"))
	if err != nil {
		logger.Fatal("Failed to parse decision service url", zap.Error(err))
	}

	// Resolve admission policies
	policies, err := config.BuildPolicySet()
	if err != nil {
		logger.Fatal("Failed to resolve admission policies", zap.Error(err))
	}

	// Initialize the decision cache
	var store cache.Store
	var lock cache.TryLocker
	switch backend := config.GetString("decision.cacheBackend"); backend {
	case "redis":
		if err := db.InitRedis(); err != nil {
			logger.Fatal("Failed to initialize Redis", zap.Error(err))
		}
		defer db.CloseRedis()
		store = cache.NewRedisStore(db.RedisClient)
		lock = cache.NewRedisLock(db.RedisClient)
	case "memory":
		store = cache.NewMemoryStore()
		lock = cache.NewMutexLock()
	default:
		logger.Fatal("Unknown cache backend", zap.String("backend", backend))
	}
	adapter := cache.NewAdapter(store, lock, config.GetDuration("decision.cacheTTL"))

	// Initialize the decision-service client
	client := lapi.NewClient(
		endpoint,
		config.GetString("decision.apiKey"),
		fmt.Sprintf("gateguard/%s", version),
		&http.Client{Timeout: config.GetDuration("decision.timeout")},
	)

	eng := engine.New(adapter, client)

	// Initialize EventBus
	eventBus := util.NewEventBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	eventBus.Start(ctx)

	// Initialize the decision audit trail
	var auditController *controller.AuditController
	if config.GetBool("audit.enabled") {
		auditRepository, err := audit.NewElasticsearchRepository(config.GetString("audit.url"))
		if err != nil {
			logger.Fatal("Failed to initialize audit repository", zap.Error(err))
		}
		auditService := audit.NewService(auditRepository)
		auditController = controller.NewAuditController(auditService)

		logDecision := func(ctx context.Context, event util.Event) error {
			record, ok := event.Payload.(audit.DecisionRecord)
			if !ok {
				return fmt.Errorf("invalid event payload type: %T", event.Payload)
			}
			return auditService.LogDecision(ctx, record)
		}
		eventBus.Subscribe(middleware.EventDecisionBlocked, logDecision)
		eventBus.Subscribe(middleware.EventDecisionError, logDecision)
	}

	// Set up Gin
	gin.SetMode(gin.ReleaseMode)
	engineRouter := router.SetupRouter(eng, policies, eventBus, auditController)

	// Set up the server
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", config.GetString("server.port")),
		Handler: engineRouter,
	}

	// Start the server in a goroutine
	go func() {
		logger.Info("Starting server", zap.String("port", config.GetString("server.port")))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting")
}
