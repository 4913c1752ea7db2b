package main

import (
	"context"
	"fmt"
	"io"

	goredis "github.com/redis/go-redis/v9"

	"github.com/campus-agents/campus-hub/config"
	"github.com/campus-agents/campus-hub/internal/domain/catalog"
	"github.com/campus-agents/campus-hub/internal/infrastructure/messaging"
	"github.com/campus-agents/campus-hub/internal/infrastructure/persistence/redis"
	"github.com/campus-agents/campus-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SHARED WIRING
// ══════════════════════════════════════════════════════════════════════════════

// newLogger строит логгер по настройкам наблюдаемости.
func newLogger(cfg *config.Config, out io.Writer) *logger.Logger {
	format := logger.FormatJSON
	if cfg.Observability.LogFormat == "console" {
		format = logger.FormatConsole
	}

	level := logger.ParseLevel(cfg.Observability.LogLevel)
	if cfg.App.Debug {
		level = logger.LevelDebug
	}

	return logger.New(logger.Options{
		Output:    out,
		Level:     level,
		Format:    format,
		AddCaller: !cfg.IsProduction(),
	}).With(
		logger.String("app", cfg.App.Name),
		logger.String("env", string(cfg.App.Environment)),
	)
}

// loadCatalog возвращает встроенный каталог или YAML-файл из CAMPUS_CATALOG_PATH.
func loadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	if cfg.Campus.CatalogPath == "" {
		return catalog.Default()
	}
	cat, err := catalog.Load(cfg.Campus.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", cfg.Campus.CatalogPath, err)
	}
	return cat, nil
}

// newRedisClient подключается к Redis из конфигурации.
func newRedisClient(ctx context.Context, cfg *config.Config) (*goredis.Client, error) {
	rc := redis.DefaultConfig()
	rc.Host = cfg.Redis.Host
	rc.Port = cfg.Redis.Port
	rc.Password = cfg.Redis.Password
	rc.DB = cfg.Redis.DB
	rc.PoolSize = cfg.Redis.PoolSize
	rc.DialTimeout = cfg.Redis.DialTimeout
	rc.ReadTimeout = cfg.Redis.ReadTimeout
	rc.WriteTimeout = cfg.Redis.WriteTimeout

	return redis.NewClient(ctx, rc)
}

// publisherConfig сопоставляет канал публикатора и наблюдателя.
func publisherConfig(cfg *config.Config, log *logger.Logger) messaging.RedisPublisherConfig {
	pc := messaging.DefaultRedisPublisherConfig()
	pc.Channel = cfg.Redis.Channel
	pc.Logger = log
	return pc
}
