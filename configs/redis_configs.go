package configs

import (
	"github.com/go-redis/redis/v8"
)

var RedisClient *redis.Client

func ConnectRedis() {
	RedisClient = redis.NewClient(&redis.Options{
		Addr:     Env("REDIS_ADDR", "localhost:6379"),
		Password: Env("REDIS_PASSWORD", ""),
	})
}

func GetRedisClient() *redis.Client {
	return RedisClient
}
