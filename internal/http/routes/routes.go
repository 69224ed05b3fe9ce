package routes

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/eduverse/tutorhub-server-go/internal/features/catalog"
	"github.com/eduverse/tutorhub-server-go/internal/features/commerce"
	"github.com/eduverse/tutorhub-server-go/internal/features/identity"
	"github.com/eduverse/tutorhub-server-go/internal/features/messaging"
	"github.com/eduverse/tutorhub-server-go/internal/features/progress"
	"github.com/eduverse/tutorhub-server-go/internal/features/social"
	"github.com/eduverse/tutorhub-server-go/internal/middleware"
	"github.com/eduverse/tutorhub-server-go/internal/store"
	"github.com/eduverse/tutorhub-server-go/pkg/cache"
	"github.com/eduverse/tutorhub-server-go/pkg/config"
	"github.com/eduverse/tutorhub-server-go/pkg/health"
)

// Register wires all feature routes onto the engine.
func Register(engine *gin.Engine, cfg *config.Config, st *store.Store, logger *slog.Logger, cacheClient cache.Client, notifier messaging.Notifier) {
	// Probe endpoints stay outside /api for orchestration
	healthHandler := health.NewHandler(st, logger)
	engine.GET("/health", healthHandler.Health)
	engine.GET("/ready", healthHandler.Ready)
	engine.GET("/version", healthHandler.VersionInfo)

	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := engine.Group("/api")

	auth := middleware.NewAuth(st, cfg.JWTSecret, logger)
	authed := auth.Authenticated()
	adminOnly := auth.AdminOnly()

	identityHandler := identity.NewHandler(st, logger, cfg)
	identity.RegisterRoutes(api, identityHandler, authed, adminOnly)

	socialHandler := social.NewHandler(st, logger)
	social.RegisterRoutes(api, socialHandler, authed)

	catalogHandler := catalog.NewHandler(st, logger)
	catalog.RegisterRoutes(api, catalogHandler, authed, adminOnly)

	progressHandler := progress.NewHandler(st, logger, cacheClient)
	progress.RegisterRoutes(api, progressHandler, authed, adminOnly)

	commerceHandler := commerce.NewHandler(st, logger)
	commerce.RegisterRoutes(api, commerceHandler, authed, adminOnly)

	messagingHandler := messaging.NewHandler(st, logger, notifier)
	messaging.RegisterRoutes(api, messagingHandler, authed)
}
