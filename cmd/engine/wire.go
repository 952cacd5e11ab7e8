//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"
	"go.uber.org/zap"

	"github.com/firelater/firelater/internal/engine/conf"
	"github.com/firelater/firelater/pkg/cache"
	"github.com/firelater/firelater/pkg/database"
)

// initInfra assembles the database, redis and engine context.
func initInfra(appConf conf.AppConfig, logger *zap.SugaredLogger) (*infra, error) {
	panic(wire.Build(
		provideDatabaseConfig,
		provideRedisConfig,
		database.ProviderSet,
		cache.ProviderSet,
		provideContext,
		wire.Struct(new(infra), "*"),
	))
}
