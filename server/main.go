package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/phambaophuc/image-variants/internal/config"
	"github.com/phambaophuc/image-variants/internal/http/handlers"
	"github.com/phambaophuc/image-variants/internal/http/routes"
	"github.com/phambaophuc/image-variants/internal/services/pipeline"
	"github.com/phambaophuc/image-variants/internal/services/processor"
	"github.com/phambaophuc/image-variants/internal/services/queue"
	"github.com/phambaophuc/image-variants/internal/services/storage"
	"go.uber.org/zap"
)

func main() {
	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize services
	store, err := storage.NewObjectStore(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize object store", zap.Error(err))
	}
	storageService := storage.NewStorageService(store, cfg.Storage, logger)

	proc := processor.NewImageProcessor(processor.WithMaxFileSize(cfg.Storage.MaxFileSize))

	pool := pipeline.NewWorkerPool(cfg.Pipeline.EncodeWorkers)
	defer pool.Close()

	pipe, err := pipeline.NewPipeline(proc, storageService, pool, logger, pipeline.Options{
		SizeClasses:       cfg.Pipeline.SizeClasses,
		Formats:           cfg.Pipeline.Formats,
		UploadConcurrency: cfg.Pipeline.UploadConcurrency,
		MaxInFlight:       cfg.Pipeline.MaxInFlight,
	})
	if err != nil {
		logger.Fatal("Failed to initialize pipeline", zap.Error(err))
	}

	logger.Info("Pipeline ready",
		zap.String("store", store.Name()),
		zap.Int("pairs", pipe.Pairs()),
		zap.Int("encode_workers", pool.Size()),
		zap.Int("upload_concurrency", cfg.Pipeline.UploadConcurrency))

	// Async jobs need both Redis and RabbitMQ; without them only the
	// synchronous endpoint is served.
	var (
		jobQueue handlers.JobQueue
		redis    handlers.Pinger
	)

	redisClient := storage.NewRedisClient(cfg.Redis)
	defer redisClient.Close()
	jobStore := storage.NewJobStore(redisClient, cfg.Storage.CacheDuration)

	if err := jobStore.Ping(ctx); err != nil {
		logger.Warn("Redis unavailable, async jobs disabled", zap.Error(err))
	} else {
		redis = jobStore

		queueService, err := queue.NewQueueService(cfg.RabbitMQ.URL, pipe, jobStore, cfg.Storage.MaxFileSize, logger)
		if err != nil {
			logger.Warn("Failed to initialize queue service", zap.Error(err))
			// Continue without queue service for basic functionality
		} else {
			defer queueService.Close()
			jobQueue = queueService

			for i := 0; i < cfg.RabbitMQ.Workers; i++ {
				if err := queueService.StartWorker(ctx, i); err != nil {
					logger.Error("Failed to start worker", zap.Int("worker_id", i), zap.Error(err))
				}
			}
		}
	}

	// Initialize handlers
	imageHandler := handlers.NewImageHandler(pipe, storageService, jobQueue, redis, logger, cfg)

	router := routes.NewRouter(imageHandler, logger, cfg.Storage.MaxFileSize)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Handler:      router.SetupRoutes(),
	}

	// Start server
	go func() {
		logger.Info("Starting server", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	<-ctx.Done()

	logger.Info("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
