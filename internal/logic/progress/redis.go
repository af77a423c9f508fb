package progress

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis key 前缀：签名级幂等标记
const signaturePrefix = "progress:tx:sig"

// 默认标记 TTL：流的重复推送集中在短时间窗口内，过期后由账本兜底判重
const defaultSignatureTTL = 24 * time.Hour

// RedisSignatureStore 管理 Redis 中的签名处理标记（幂等控制的前置缓存）。
type RedisSignatureStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisSignatureStore 创建签名判重缓存，ttl <= 0 时使用默认值。
func NewRedisSignatureStore(rdb *redis.Client, ttl time.Duration) *RedisSignatureStore {
	if ttl <= 0 {
		ttl = defaultSignatureTTL
	}
	return &RedisSignatureStore{rdb: rdb, ttl: ttl}
}

func (r *RedisSignatureStore) key(signature string) string {
	return fmt.Sprintf("%s:%s", signaturePrefix, signature)
}

// IsProcessed 查询签名是否已标记处理完成。
func (r *RedisSignatureStore) IsProcessed(ctx context.Context, signature string) (bool, error) {
	err := r.rdb.Get(ctx, r.key(signature)).Err()
	switch {
	case err == redis.Nil:
		return false, nil
	case err != nil:
		return false, fmt.Errorf("redis get error: %w", err)
	default:
		return true, nil
	}
}

// MarkProcessed 标记签名已处理。
func (r *RedisSignatureStore) MarkProcessed(ctx context.Context, signature string) error {
	return r.rdb.Set(ctx, r.key(signature), 1, r.ttl).Err()
}
