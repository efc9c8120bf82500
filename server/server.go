package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"SipSound/config"
	"SipSound/core/aidj"
	"SipSound/core/recommender"
	"SipSound/db"
	"SipSound/logger"
	"SipSound/repository"
	"SipSound/storage"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// NewEngine assembles the session engine over gorm repositories. rdb may be
// nil, which disables the recommender response cache.
func NewEngine(cfg *config.Config, gdb *gorm.DB, rdb *redis.Client) (*aidj.Engine, *recommender.Client) {
	client := recommender.NewClient(recommender.Settings{
		BaseURL: cfg.AIDJServiceURL,
		Timeout: cfg.AIDJTimeout,
	}, nil)

	var rec recommender.Recommender = client
	if rdb != nil && cfg.AIDJCacheTTL > 0 {
		rec = recommender.NewCachedRecommender(client, rdb, cfg.AIDJCacheTTL,
			recommender.WithCallDeadline(func() time.Duration { return client.Settings().Timeout }))
	}

	engine := aidj.NewEngine(
		repository.NewGormEngagementRepository(gdb),
		repository.NewGormTrackRepository(gdb),
		rec,
		aidj.WithLimits(aidj.Limits{Default: cfg.AIDJDefaultLimit, Max: cfg.AIDJMaxLimit}),
	)
	return engine, client
}

// applyConfig 热更新可调参数
func applyConfig(cfg *config.Config, engine *aidj.Engine, client *recommender.Client) {
	client.Update(recommender.Settings{BaseURL: cfg.AIDJServiceURL, Timeout: cfg.AIDJTimeout})
	engine.SetLimits(aidj.Limits{Default: cfg.AIDJDefaultLimit, Max: cfg.AIDJMaxLimit})
	logger.Info("AI DJ settings reloaded",
		logger.String("service_url", cfg.AIDJServiceURL),
		logger.Duration("timeout", cfg.AIDJTimeout),
		logger.Int("default_limit", cfg.AIDJDefaultLimit),
		logger.Int("max_limit", cfg.AIDJMaxLimit))
}

// Start initializes and starts the HTTP server.
func Start() {
	cfg := config.Load()
	logger.InitLogger(logger.DefaultConfig(cfg.LogLevel, cfg.LogFile))
	defer logger.Sync()

	if err := db.ConnectGormDB(cfg); err != nil {
		logger.Fatal("Failed to connect to database", logger.ErrorField(err))
	}
	defer db.CloseGormDB()

	// Redis 只用于缓存推荐结果，连接失败时降级为不缓存
	if err := db.ConnectRedis(cfg); err != nil {
		logger.Warn("Redis unavailable, recommender cache disabled", logger.ErrorField(err))
		db.CloseRedis()
		db.RedisClient = nil
	} else {
		defer db.CloseRedis()
		logger.Info("Successfully connected to Redis")
	}

	engine, client := NewEngine(cfg, db.GormDB, db.RedisClient)

	covers, err := storage.NewCoverSigner(cfg)
	if err != nil {
		logger.Warn("Cover signing disabled", logger.ErrorField(err))
		covers = nil
	}

	watcher, err := config.Watch(".env", func(c *config.Config) {
		applyConfig(c, engine, client)
	})
	if err != nil {
		logger.Warn("Config hot reload disabled", logger.ErrorField(err))
	} else {
		defer watcher.Close()
	}

	handler := NewAIDJHandler(engine, client, covers, func(ctx context.Context) error {
		return db.Ping(ctx, db.GormDB)
	})

	// 设置服务器超时
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      NewRouter(handler, cfg.JWTSecret),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 创建一个通道来接收操作系统信号
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Server starting",
			logger.String("addr", server.Addr),
			logger.String("recommender", cfg.AIDJServiceURL))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", logger.ErrorField(err))
		}
	}()

	// 等待中断信号
	<-stop
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", logger.ErrorField(err))
	}

	logger.Info("Server stopped")
}
