package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/cache"
	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/config"
	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/events"
	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/handlers"
	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/metrics"
	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/realtime"
	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/repositories"
	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/repositories/postgres"
	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/services"
	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/upstream"
	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/utils"
	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/validator"
	"github.com/MuhammadsolihGofurov/404online.uz-sub002/pkg"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Environment, os.Stdout)
	slog.SetDefault(logger.Slog())

	var sessions repositories.SessionRepository
	if cfg.DatabaseURL != "" {
		db, err := pkg.InitDatabase(cfg)
		if err != nil {
			logger.LogError(err, "Failed to initialize database")
			os.Exit(1)
		}
		sessions = postgres.NewSessionPostgreSQL(db)
	} else {
		logger.Warn("DATABASE_URL not set, sessions are kept in memory")
		sessions = repositories.NewMemorySessionRepository()
	}

	cacheService := cache.NewNoopCache()
	if cfg.RedisURL != "" {
		client, err := pkg.NewRedisClient(cfg)
		if err != nil {
			logger.LogError(err, "Redis unavailable, caching disabled")
		} else {
			defer client.Close()
			cacheService = cache.NewRedisCache(client, logger.Slog())
		}
	}

	publisher, err := cfg.Events.CreateEventPublisher(logger.Slog())
	if err != nil {
		logger.LogError(err, "Failed to create event publisher, falling back to mock")
		publisher = events.NewMockEventPublisher(logger.Slog())
	}
	defer publisher.Close()

	serviceManager := services.NewServiceManager(services.Dependencies{
		Client: upstream.NewClient(upstream.ClientConfig{
			BaseURL: cfg.APIBaseURL,
			Timeout: cfg.UpstreamTimeout,
			Logger:  logger.Slog(),
		}),
		Sessions:  sessions,
		Cache:     cacheService,
		Publisher: publisher,
		Relay: services.RelayConfig{
			WSBaseURL:    cfg.WSURL,
			PingInterval: cfg.Realtime.PingInterval,
			PongTimeout:  cfg.Realtime.PongTimeout,
			ChatBackoff:  backoff(cfg.Realtime, cfg.Realtime.ChatMaxRetries),
			ExamBackoff:  backoff(cfg.Realtime, cfg.Realtime.ExamMaxRetries),
			ChatRate:     cfg.Realtime.ChatRate,
			ChatBurst:    3,
		},
		CacheTTL: cfg.CacheTTL,
		Logger:   logger.Slog(),
	})

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		gin.Recovery(),
		utils.ContextLogger(logger),
		utils.LoggerMiddleware(logger),
		metrics.Middleware(),
		cors.New(corsConfig(cfg.CORSOrigins)),
	)

	handlers.NewHandlerManager(serviceManager, validator.New(), handlers.RouterConfig{
		JWTSecret:      cfg.JWTSecret,
		AllowedOrigins: cfg.CORSOrigins,
	}, logger).SetupRoutes(router)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Port, "environment", cfg.Environment, "upstream", cfg.APIBaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.LogError(err, "Server failed")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	serviceManager.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.LogError(err, "Server forced to shutdown")
	}
	logger.Info("Server exiting")
}

func backoff(rt config.RealtimeConfig, maxRetries int) realtime.Backoff {
	return realtime.Backoff{
		Initial:    rt.ReconnectInitial,
		Max:        rt.ReconnectMax,
		Multiplier: 2,
		Jitter:     0.2,
		MaxRetries: maxRetries,
	}
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", utils.RequestIDHeader},
		ExposeHeaders: []string{utils.RequestIDHeader, "Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
