package http

import (
	"ludo_arena/internal/config"
	"ludo_arena/internal/http/handlers"
	"ludo_arena/internal/http/middleware"
	"ludo_arena/internal/repository"
	"ludo_arena/internal/service"
	"ludo_arena/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RegisterRoutes wires the REST surface and the websocket endpoint. The
// returned hub is shared so main can start its cleanup sweep.
func RegisterRoutes(r *gin.Engine, db *pgxpool.Pool, identities *service.IdentityRegistry, cfg *config.Config) *ws.Hub {
	h := handlers.NewHandler(db, identities)
	healthHandler := handlers.NewHealthHandler(db, "dev")

	// Health checks (no rate limiting)
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)

	v1 := r.Group("/api/v1")
	v1.Use(middleware.Metrics())
	v1.Use(middleware.RedisRateLimit(cfg.APIRateLimit, cfg.APIRateWindow))

	v1.POST("/auth/anonymous",
		middleware.RedisRateLimit(cfg.AuthRateLimit, cfg.AuthRateWindow),
		h.AnonymousLogin)
	v1.GET("/leaderboard", h.Leaderboard)

	authed := v1.Group("")
	authed.Use(middleware.JWTAuth())
	authed.Use(middleware.IdentityRateLimit(cfg.ActionRateLimit, cfg.APIRateWindow))
	authed.GET("/me", h.Me)
	authed.GET("/history", h.History)

	hub := ws.NewHub(identities, repository.NewMatchRepository(db), ws.HubConfig{
		SettleDelay:   cfg.SettleDelay,
		AutoSkipDelay: cfg.AutoSkipDelay,
		IdleTimeout:   cfg.RoomIdleTimeout,
	})
	r.GET("/ws", h.WS(hub))

	return hub
}
