package cache

import (
	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
)

// ProviderSet provides cache dependencies.
var ProviderSet = wire.NewSet(ProvideRedis, ProvideICache)

// ProvideRedis provides the redis client.
func ProvideRedis(conf Redis) (*redis.Client, error) {
	return NewRedis(conf)
}

// ProvideICache provides the ICache implementation.
func ProvideICache(client *redis.Client) ICache {
	return NewRedisCache(client)
}
