// Package main runs the interview platform HTTP server with WebSocket
// captions and graceful shutdown.
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
	"go.uber.org/zap/zapcore"

	"github.com/hireloop/backend/config"
	"github.com/hireloop/backend/internal/auth"
	"github.com/hireloop/backend/internal/captions"
	"github.com/hireloop/backend/internal/interviews"
	"github.com/hireloop/backend/internal/lifecycle"
	"github.com/hireloop/backend/internal/middleware"
	"github.com/hireloop/backend/internal/questions"
	"github.com/hireloop/backend/internal/transcripts"
	"github.com/hireloop/backend/internal/voice"
	"github.com/hireloop/backend/internal/worker"
	"github.com/hireloop/backend/pkg/database"
	"github.com/hireloop/backend/pkg/queue"
	"github.com/hireloop/backend/pkg/redis"
	"github.com/hireloop/backend/pkg/response"
	"github.com/hireloop/backend/pkg/storage"
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
			logger.Warn("s3 archival disabled", zap.Error(err))
		}
	}

	// Admin auth
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)

	// Interviews
	interviewRepo := interviews.NewRepository(pool)
	if err := interviewRepo.SeedDemo(ctx, logger); err != nil {
		logger.Warn("seed demo interview failed", zap.Error(err))
	}
	interviewHandler := interviews.NewHandler(interviewRepo, logger)

	// Session lifecycle
	lifecycleEngine := lifecycle.NewEngine(interviewRepo, lifecycle.PlainVerifier{}, questions.Count(), logger)
	lifecycleHandler := lifecycle.NewHandler(lifecycleEngine, logger)

	// Transcripts
	transcriptStore := transcripts.NewStore(rdb.Client,
		time.Duration(cfg.Interview.TranscriptTTLHours)*time.Hour, logger)
	transcriptHandler := transcripts.NewHandler(transcriptStore)

	// Captions + voice conversation
	hub := captions.NewHub(logger)
	jobQueue := queue.NewQueue(rdb.Client, logger)
	var archive voice.ArchiveEnqueuer
	if s3Client != nil {
		archive = jobQueue
	}
	voiceEngine := voice.NewEngine(transcriptStore, archive, hub,
		time.Duration(cfg.Interview.SessionIdleTTLMinutes)*time.Minute, logger)
	voiceHandler := voice.NewHandler(voiceEngine)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
	}

	// Candidate flow (gated by interview password, not JWT)
	router.POST("/interviews/login", lifecycleHandler.Login)
	router.PATCH("/interviews/:id/progress", lifecycleHandler.SyncProgress)

	// Voice sessions
	router.POST("/voice/sessions", voiceHandler.Start)
	router.POST("/voice/sessions/:sid/turns", voiceHandler.SubmitTurn)
	router.GET("/voice/sessions/:sid", voiceHandler.GetState)
	router.DELETE("/voice/sessions/:sid", voiceHandler.End)

	// Admin API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		api.GET("/interviews", interviewHandler.List)
		api.POST("/interviews", interviewHandler.Create)
		api.GET("/interviews/:id", interviewHandler.GetByID)
		api.PATCH("/interviews/:id", interviewHandler.Update)
		api.DELETE("/interviews/:id", interviewHandler.Delete)
		api.GET("/interviews/:id/transcripts/:sid", transcriptHandler.Get)
	}

	// WebSocket caption feed (session-scoped, no JWT)
	router.GET("/ws/captions", captions.ServeWs(hub, voiceEngine, logger))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Background goroutines: session janitor, transcript archiver.
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	go voiceEngine.RunJanitor(workerCtx,
		time.Duration(cfg.Interview.JanitorIntervalMinutes)*time.Minute)
	if s3Client != nil {
		archiver := worker.NewTranscriptArchiver(transcriptStore, s3Client, jobQueue, logger)
		go archiver.Run(workerCtx)
		logger.Info("transcript archiver worker started")
	}

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
