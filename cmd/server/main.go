// Package main runs the attendance reconciliation HTTP server with WebSocket and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/meridian-crm/attendance/config"
	"github.com/meridian-crm/attendance/internal/analysis"
	"github.com/meridian-crm/attendance/internal/attendance"
	"github.com/meridian-crm/attendance/internal/auth"
	"github.com/meridian-crm/attendance/internal/clients"
	"github.com/meridian-crm/attendance/internal/delivery"
	"github.com/meridian-crm/attendance/internal/identity"
	"github.com/meridian-crm/attendance/internal/integrations"
	"github.com/meridian-crm/attendance/internal/middleware"
	"github.com/meridian-crm/attendance/internal/realtime"
	"github.com/meridian-crm/attendance/internal/schedule"
	"github.com/meridian-crm/attendance/internal/sessions"
	"github.com/meridian-crm/attendance/internal/webhooks"
	"github.com/meridian-crm/attendance/internal/worker"
	"github.com/meridian-crm/attendance/pkg/database"
	"github.com/meridian-crm/attendance/pkg/queue"
	"github.com/meridian-crm/attendance/pkg/redis"
	"github.com/meridian-crm/attendance/pkg/response"
	"github.com/meridian-crm/attendance/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var s3Client *storage.S3
	if cfg.AWS.Region != "" {
		s3Cfg := storage.S3Config{
			Region:          cfg.AWS.Region,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			ArchiveBucket:   cfg.AWS.ArchiveBucket,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret)
	redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
	hub := realtime.NewHub(logger, redisPubSub, redisPubSub)
	jobQueue := queue.NewQueue(rdb.Client, logger)

	// Integrations and tenant resolution
	integrationRepo := integrations.NewRepository(pool)
	accountResolver := webhooks.NewAccountResolver(integrationRepo, cfg.Webhooks.AllowIntegrationLookup, logger)

	// Identity resolution over the CRM client directory
	clientRepo := clients.NewRepository(pool)
	resolver := identity.NewResolver(clientRepo, logger)

	// Session lifecycle
	sessionRepo := sessions.NewRepository(pool)
	sessionManager := sessions.NewManager(sessionRepo, logger)
	sessionHandler := sessions.NewHandler(sessionRepo)

	// Delivery reconciliation
	scheduleRepo := schedule.NewRepository(pool)
	deliveryRepo := delivery.NewRepository(pool)
	deliveryHandler := delivery.NewHandler(deliveryRepo)
	reconciler := delivery.NewReconciler(clientRepo, scheduleRepo, deliveryRepo,
		time.Duration(cfg.Reconcile.WindowMinutes)*time.Minute, logger)
	reconciler.SetPublisher(hub)

	// Attendance tracking
	attendanceRepo := attendance.NewRepository(pool)
	tracker := attendance.NewTracker(attendanceRepo, sessionRepo, resolver, reconciler, jobQueue, hub, logger)
	attendanceHandler := attendance.NewHandler(attendanceRepo)

	// Webhook ingestion
	verifier := webhooks.NewVerifier(cfg.Webhooks.ZoomSecretToken)
	webhookHandler := webhooks.NewHandler(verifier, accountResolver, sessionManager, tracker, jobQueue, hub, webhooks.Options{
		RequireSignature:       cfg.Webhooks.RequireSignature,
		RequireCapabilityToken: cfg.Webhooks.RequireCapabilityToken,
	}, logger)

	// Background jobs (score recompute, webhook archival)
	analysisClient := analysis.NewClient(cfg.Analysis.BaseURL, cfg.Analysis.APIKey, logger)
	processor := worker.NewProcessor(analysisClient, s3Client, jobQueue, logger)

	jwtValidate := func(token string) (userID string, err error) {
		claims, err := jwtService.Validate(token)
		if err != nil {
			return "", err
		}
		return claims.UserID.String(), nil
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Metrics())

	// Health and metrics
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Webhooks (no JWT; provider signature or capability token validated in handler)
	router.POST("/webhooks/zoom", webhookHandler.HandleZoom)
	router.POST("/webhooks/meet", webhookHandler.HandleMeet)

	// Protected read API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		api.GET("/accounts/:id/sessions", sessionHandler.ListByAccount)
		api.GET("/sessions/:id", sessionHandler.GetByID)
		api.GET("/sessions/:id/attendance", attendanceHandler.ListBySession)
		api.GET("/accounts/:id/deliveries", deliveryHandler.ListByAccount)
	}

	// WebSocket (token in query; no Authorization header required)
	router.GET("/ws", func(c *gin.Context) {
		realtime.ServeWs(hub, logger, jwtValidate)(c)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Background worker (in-process; run cmd/worker separately to scale out)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	go processor.Run(workerCtx)
	logger.Info("job worker started")

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	workerCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
