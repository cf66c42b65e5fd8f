package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/gossip-server/pkg/logger"
)

// ConnectionCache 互相关注列表的 redis 快照缓存。
// 工作流每次写到某一对用户的关注边，两侧的快照整体作废。
// rdb 为 nil 时所有操作都是空操作。
type ConnectionCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewConnectionCache(rdb *redis.Client, ttl time.Duration) *ConnectionCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ConnectionCache{rdb: rdb, ttl: ttl}
}

func connectionsKey(userID string) string { return fmt.Sprintf("connections:%s", userID) }

func (c *ConnectionCache) enabled() bool { return c != nil && c.rdb != nil }

func (c *ConnectionCache) Get(ctx context.Context, userID string) ([]*PublicUser, bool) {
	if !c.enabled() {
		return nil, false
	}
	data, err := c.rdb.Get(ctx, connectionsKey(userID)).Bytes()
	if err != nil {
		return nil, false
	}
	var out []*PublicUser
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, false
	}
	return out, true
}

func (c *ConnectionCache) Set(ctx context.Context, userID string, users []*PublicUser) {
	if !c.enabled() {
		return
	}
	payload, err := json.Marshal(users)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, connectionsKey(userID), payload, c.ttl).Err(); err != nil {
		logger.Warn("connection cache set failed", zap.String("user", userID), zap.Error(err))
	}
}

func (c *ConnectionCache) Invalidate(ctx context.Context, userIDs ...string) {
	if !c.enabled() || len(userIDs) == 0 {
		return
	}
	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = connectionsKey(id)
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		logger.Warn("connection cache invalidate failed", zap.Strings("users", userIDs), zap.Error(err))
	}
}
