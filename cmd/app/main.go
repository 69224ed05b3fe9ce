package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eduverse/tutorhub-server-go/internal/bootstrap"
	"github.com/eduverse/tutorhub-server-go/internal/http/routes"
	"github.com/eduverse/tutorhub-server-go/internal/store"
	"github.com/eduverse/tutorhub-server-go/pkg/cache"
	"github.com/eduverse/tutorhub-server-go/pkg/config"
	"github.com/eduverse/tutorhub-server-go/pkg/database"
	"github.com/eduverse/tutorhub-server-go/pkg/logger"
	"github.com/eduverse/tutorhub-server-go/pkg/metrics"
	"github.com/eduverse/tutorhub-server-go/pkg/middleware"
	socketioserver "github.com/eduverse/tutorhub-server-go/pkg/socketio"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	appLogger, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	backend, err := newBackend(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Error("storage backend initialization failed",
			slog.String("driver", cfg.Storage.Driver),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	st := store.New(backend, appLogger)
	defer func() {
		if err := st.Close(); err != nil {
			appLogger.Error("store close failed", slog.String("error", err.Error()))
		}
	}()

	appLogger.Info("storage backend ready", slog.String("driver", cfg.Storage.Driver))

	if err := bootstrap.SeedDemoCatalog(ctx, st, appLogger); err != nil {
		appLogger.Error("demo catalog seeding failed", slog.String("error", err.Error()))
	}

	cacheClient, err := cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		appLogger.Error("cache initialization failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer cacheClient.Close()

	socketIOServer, err := socketioserver.NewServer(st, appLogger, cfg.JWTSecret)
	if err != nil {
		appLogger.Error("socket.io server initialization failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer socketIOServer.Close()

	appLogger.Info("socket.io server initialized")

	router := gin.New()

	// Socket.IO mounts before the full middleware stack; it only needs
	// recovery and CORS
	router.Use(middleware.Recovery(appLogger))
	router.Use(middleware.CORS(cfg.AllowedOrigins))

	router.GET("/socket.io/*any", gin.WrapH(socketIOServer.GetHandler()))
	router.POST("/socket.io/*any", gin.WrapH(socketIOServer.GetHandler()))

	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(appLogger))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.RequestSizeLimit(10 * 1024 * 1024))
	router.Use(metrics.Middleware())

	rateLimiter := middleware.NewRateLimiter(100, time.Minute)
	router.Use(rateLimiter.Middleware())

	routes.Register(router, cfg, st, appLogger, cacheClient, socketIOServer)

	srv := &http.Server{
		Addr:              cfg.ServerAddress(),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		appLogger.Info("server starting",
			slog.String("addr", cfg.ServerAddress()),
			slog.String("env", cfg.Env),
			slog.String("log_level", cfg.LogLevel),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("server listen failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	appLogger.Info("server started successfully")

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("server shutdown failed", slog.String("error", err.Error()))
	} else {
		appLogger.Info("server stopped gracefully")
	}
}

// newBackend selects the collection store backend from configuration. The
// file driver is the embedded default; postgres and redis suit multi-instance
// deployments.
func newBackend(ctx context.Context, cfg *config.Config, appLogger *slog.Logger) (store.Backend, error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		db, err := database.ConnectWithRetry(ctx, cfg.Database, appLogger, 5, time.Second)
		if err != nil {
			return nil, err
		}
		return store.NewPostgresBackend(db)

	case config.DriverRedis:
		return store.NewRedisBackend(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)

	case config.DriverMemory:
		return store.NewMemoryBackend(), nil

	default:
		return store.NewFileBackend(cfg.Storage.DataDir)
	}
}
