package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"minigames/internal/config"
	"minigames/internal/db"
	httpServer "minigames/internal/http"
	"minigames/internal/http/middleware"
	"minigames/internal/logger"
	"minigames/internal/notify"
	"minigames/internal/room"
	"minigames/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	redis "github.com/redis/go-redis/v9"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)

	// Session store: Postgres in production, in-memory without a DSN.
	var pool *pgxpool.Pool
	var sessions store.SessionStore
	if cfg.DatabaseURL != "" {
		pool = db.Connect(cfg.DatabaseURL)
		defer pool.Close()
		sessions = store.NewPostgresStore(pool, time.Duration(cfg.StoreTimeoutMS)*time.Millisecond)
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory store")
		sessions = store.NewMemoryStore()
	}

	// Change notifier: Redis pub/sub across nodes, in-process without it.
	var notifier notify.Notifier
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatal("failed to ping redis", "error", err)
		}
		cancel()
		defer rdb.Close()
		notifier = notify.NewRedisNotifier(rdb)
	} else {
		logger.Warn("REDIS_ADDR not set, using in-process notifier")
		notifier = notify.NewMemoryNotifier()
	}

	manager := room.NewManager(sessions, notifier, cfg.WriteRetries)
	defer manager.Close()

	r := gin.Default()

	// CORS for browsers on another origin.
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		}
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	middleware.InitRedisRateLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	httpServer.RegisterRoutes(r, manager, pool, cfg)

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
