package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/d60-Lab/gossip-server/config"
)

// InitRedis 构造 redis 客户端；未启用时返回 nil，调用方按 nil 跳过缓存。
func InitRedis(cfg *config.Config) (*redis.Client, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return client, nil
}
