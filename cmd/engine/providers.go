package main

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/firelater/firelater/internal/engine/conf"
	"github.com/firelater/firelater/pkg/cache"
	"github.com/firelater/firelater/pkg/ctx"
	"github.com/firelater/firelater/pkg/database"
)

/**
 * @file: providers.go
 * @description: wire providers for the engine's shared infrastructure
 */

// infra bundles the process-wide backends wire assembles at boot.
type infra struct {
	Ctx   *ctx.Context
	Cache cache.ICache
}

func provideDatabaseConfig(appConf conf.AppConfig) database.Database {
	return appConf.Database
}

func provideRedisConfig(appConf conf.AppConfig) cache.Redis {
	return appConf.Redis
}

func provideContext(db database.IDatabase, client *redis.Client, logger *zap.SugaredLogger) *ctx.Context {
	return ctx.NewContext(context.Background(), db.Database(), client, logger)
}
