package config

import (
	"os"

	"github.com/go-redis/redis/v8"
)

// NewRedisClient returns a client for REDIS_ADDR, or nil when unset
// (the access service runs uncached without it).
func NewRedisClient() *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})
}
