package redisstate

import (
	"context"
	"fmt"
	"time"

	// 导入 Redis 客户端库
	"github.com/go-redis/redis/v8"
)

// RedisRateLimitRepository 是 RateLimitRepository 接口的 Redis 实现：
// INCR 原子加一，窗口内第一次命中时设置过期时间，retryAfter 直接取键的剩余 TTL。
// 过期键由 Redis 的 TTL 机制自动回收，不需要显式清理。
type RedisRateLimitRepository struct {
	client *redis.Client // 依赖 Redis 客户端
	// 定义 Redis key 的前缀，方便管理
	keyPrefix string
}

// NewRedisRateLimitRepository 创建 RedisRateLimitRepository 实例
func NewRedisRateLimitRepository(client *redis.Client, keyPrefix string) *RedisRateLimitRepository {
	if client == nil {
		panic("redis client cannot be nil for RedisRateLimitRepository")
	}
	if keyPrefix == "" {
		keyPrefix = "wl:" // 默认前缀 "wl:" (waitlist)
	}
	return &RedisRateLimitRepository{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

func (r *RedisRateLimitRepository) counterKey(key string) string {
	return r.keyPrefix + "ratelimit:" + key
}

// Hit 原子地记录一次命中并返回窗口内计数与剩余时间。
func (r *RedisRateLimitRepository) Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	redisKey := r.counterKey(key)

	// 使用 TxPipeline 将 INCR 和 TTL 一次发出，减少往返
	pipe := r.client.TxPipeline()
	incrCmd := pipe.Incr(ctx, redisKey)
	ttlCmd := pipe.TTL(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, fmt.Errorf("redis: rate limit pipeline (key: %s): %w", key, err)
	}

	count := incrCmd.Val()
	if count == 1 {
		// 窗口内第一次命中：设置过期时间，键到期即窗口结束
		if err := r.client.Expire(ctx, redisKey, window).Err(); err != nil {
			return 0, 0, fmt.Errorf("redis: set counter expiry (key: %s): %w", key, err)
		}
		return count, window, nil
	}

	retryAfter := ttlCmd.Val()
	if retryAfter < 0 {
		// 无 TTL 的键：要么与第一次命中的 EXPIRE 交错，要么进程在 INCR 与
		// EXPIRE 之间退出留下了孤儿键。孤儿键永不过期，会把该键永久限流，
		// 这里补设过期时间修复它，并按整窗处理本次命中
		if err := r.client.Expire(ctx, redisKey, window).Err(); err != nil {
			return 0, 0, fmt.Errorf("redis: repair counter expiry (key: %s): %w", key, err)
		}
		retryAfter = window
	}
	return count, retryAfter, nil
}

// PurgeExpired 在 Redis 后端是空操作：计数器依赖 TTL 自动过期。
func (r *RedisRateLimitRepository) PurgeExpired(ctx context.Context, olderThan time.Time) (int64, error) {
	return 0, nil
}
