package gormpersistence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"waitlist-backend/internal/domain"
)

// GormRateLimitRepository 把限流计数器存放在 MySQL 中。
// 读-改-写通过 "INSERT IGNORE 占位 + SELECT ... FOR UPDATE + UPDATE"
// 在单个事务内完成：行锁保证并发命中同一 key 时串行化，不会漏计或重复计。
type GormRateLimitRepository struct {
	db *gorm.DB
}

// NewGormRateLimitRepository 创建 GormRateLimitRepository 实例
func NewGormRateLimitRepository(db *gorm.DB) *GormRateLimitRepository {
	if db == nil {
		panic("database connection cannot be nil for GormRateLimitRepository")
	}
	return &GormRateLimitRepository{db: db}
}

// Hit 原子地记录一次命中并返回窗口内计数与剩余时间。
func (r *GormRateLimitRepository) Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	var count int64
	var retryAfter time.Duration

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		// 保证行存在；count=0 表示刚占位，还没有计入任何命中
		if err := tx.Exec(
			"INSERT IGNORE INTO rate_limit_counters (rl_key, window_start, count) VALUES (?, ?, 0)",
			key, now,
		).Error; err != nil {
			return fmt.Errorf("gorm: ensure counter row (key: %s): %w", key, err)
		}

		var counter domain.RateLimitCounter
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("rl_key = ?", key).
			First(&counter).Error; err != nil {
			return fmt.Errorf("gorm: lock counter row (key: %s): %w", key, err)
		}

		if counter.Count == 0 || now.Sub(counter.WindowStart) >= window {
			// 新键或窗口已过期：重置为当前窗口的第一次命中，而不是递增
			counter.WindowStart = now
			counter.Count = 1
		} else {
			counter.Count++
		}

		if err := tx.Model(&domain.RateLimitCounter{}).
			Where("rl_key = ?", key).
			Updates(map[string]interface{}{
				"window_start": counter.WindowStart,
				"count":        counter.Count,
			}).Error; err != nil {
			return fmt.Errorf("gorm: update counter row (key: %s): %w", key, err)
		}

		// retryAfter 按刚写入的窗口计算: max(0, W - floor(now - windowStart))
		count = counter.Count
		elapsed := now.Sub(counter.WindowStart).Truncate(time.Second)
		retryAfter = window - elapsed
		if retryAfter < 0 {
			retryAfter = 0
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return count, retryAfter, nil
}

// PurgeExpired 删除窗口起点早于 olderThan 的计数器行。
func (r *GormRateLimitRepository) PurgeExpired(ctx context.Context, olderThan time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("window_start < ?", olderThan).
		Delete(&domain.RateLimitCounter{})
	if result.Error != nil {
		return 0, fmt.Errorf("gorm: purge expired counters: %w", result.Error)
	}
	return result.RowsAffected, nil
}
