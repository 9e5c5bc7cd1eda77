package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"review-hub/api"
	"review-hub/internal/config"
	"review-hub/internal/database"
	"review-hub/internal/domain"
	"review-hub/internal/handler"
	"review-hub/internal/hub"
	"review-hub/internal/metrics"
	"review-hub/internal/repository"
	"review-hub/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

func main() {
	// Логгер
	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Конфиг
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Warnf("Config loaded with defaults: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	} else {
		logger.Warnf("Unknown log level %q, using info", cfg.LogLevel)
	}

	// Хранилище статусов
	reviewRepo, db := newReviewRepository(cfg, logger)
	if db != nil {
		defer db.Close()
	}

	// Метрики
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewRecorder(registry)

	// Хаб
	statusRecorder := usecase.NewStatusRecorder(reviewRepo, logger)
	reviewHub := hub.New(hub.Config{
		DefaultCapacity:   cfg.Hub.DefaultCapacity,
		OutboxSize:        cfg.Hub.OutboxSize,
		HeartbeatTimeout:  cfg.Hub.HeartbeatTimeout,
		WriteTimeout:      cfg.Hub.WriteTimeout,
		AssignmentTimeout: cfg.Hub.AssignmentTimeout,
		CancelAckTimeout:  cfg.Hub.CancelAckTimeout,
		StatusBuffer:      cfg.Hub.StatusBuffer,
	}, logger,
		hub.WithRecorder(recorder),
		hub.WithStatusListener(statusRecorder.OnStatusChange),
	)
	if err := metrics.RegisterHubCollector(registry, reviewHub); err != nil {
		logger.Fatalf("Metrics registration failed: %v", err)
	}
	if err := reviewHub.Start(context.Background()); err != nil {
		logger.Fatalf("Review hub start failed: %v", err)
	}
	logger.WithFields(logrus.Fields{
		"default_capacity":   reviewHub.Config().DefaultCapacity,
		"heartbeat_timeout":  reviewHub.Config().HeartbeatTimeout.String(),
		"assignment_timeout": reviewHub.Config().AssignmentTimeout.String(),
	}).Info("Review hub started")

	// Use Cases
	reviewUC := usecase.NewReviewUseCase(reviewHub, reviewRepo)
	statsUC := usecase.NewStatsUseCase(reviewHub)

	// Echo + Handlers
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(handler.LoggingMiddleware(logger))

	apiHandler := handler.NewAPIHandler(reviewUC, statsUC, hub.NewSupervisor(reviewHub, logger), logger)
	api.RegisterHandlers(e, apiHandler)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})))

	// Запуск сервера
	go func() {
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server failed: %v", err)
		}
		logger.Info("Server stopped")
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Хаб первым: закрывает websocket-сессии, которые Shutdown не ждет
	if err := reviewHub.Stop(); err != nil {
		logger.Errorf("Review hub stop failed: %v", err)
	}
	if err := e.Shutdown(ctx); err != nil {
		logger.Fatalf("Shutdown failed: %v", err)
	}

	logger.Info("Server exited")
}

// newReviewRepository выбирает хранилище статусов по REVIEW_STORE.
func newReviewRepository(cfg config.Config, logger *logrus.Logger) (domain.ReviewRepository, *sql.DB) {
	if cfg.Store == config.StoreMemory {
		logger.Info("Using in-memory review store")
		return repository.NewMemoryReviewRepository(), nil
	}

	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		logger.Fatalf("Database connection failed: %v", err)
	}
	logger.Info("Database connected")

	return repository.NewReviewRepository(db, database.New(db)), db
}
