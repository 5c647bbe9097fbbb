package http

import (
	"time"

	"minigames/internal/config"
	"minigames/internal/http/handlers"
	"minigames/internal/http/middleware"
	"minigames/internal/room"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RegisterRoutes wires the whole public surface: room lifecycle, actions,
// and the per-room snapshot subscription. db may be nil (in-memory store);
// it is only used by the readiness probe.
func RegisterRoutes(r *gin.Engine, m *room.Manager, db *pgxpool.Pool, cfg *config.Config) {
	h := handlers.NewHandler(m)
	healthHandler := handlers.NewHealthHandler(db, cfg.Version)

	r.Use(middleware.Metrics())

	// Probes, unthrottled.
	r.GET("/health", healthHandler.Liveness)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)

	apiRL := middleware.RedisRateLimit(cfg.APIRateLimit, time.Duration(cfg.APIRateWindow)*time.Second)

	v1 := r.Group("/api/v1")
	v1.Use(apiRL)
	{
		v1.POST("/rooms", h.CreateRoom)
		v1.GET("/rooms", h.ListRooms)
		v1.GET("/rooms/:id", h.GetRoom)
		v1.POST("/rooms/:id/join", h.JoinRoom)
		v1.POST("/rooms/:id/act", h.Act)
		v1.POST("/rooms/:id/reset", h.ResetRoom)
	}

	// Realtime snapshot stream.
	r.GET("/ws/rooms/:id", h.Subscribe)
}
