package repository

import (
	"context"
	"time"
)

// RateLimitRepository 定义限流计数器的原子操作。
type RateLimitRepository interface {
	// Hit 原子地为 key 记录一次命中：键不存在时以计数 1 建立新窗口；
	// 窗口已过期时重置为 (now, 1)；否则计数加一。
	// 返回本次命中之后的计数，以及距当前窗口结束的剩余时间。
	// 整个读-改-写在并发命中同一 key 时不得发生竞态。
	Hit(ctx context.Context, key string, window time.Duration) (count int64, retryAfter time.Duration, err error)

	// PurgeExpired 删除窗口起点早于 olderThan 的计数器行，返回删除数量。
	// 仅为存储卫生，不承担限流正确性。
	PurgeExpired(ctx context.Context, olderThan time.Time) (int64, error)
}

// SchemaEnsurer 保证持久化表结构存在。
// 实现必须幂等且可并发调用；初始化失败后允许后续调用重试。
type SchemaEnsurer interface {
	Ensure(ctx context.Context) error
}
