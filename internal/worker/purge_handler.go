package worker

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"waitlist-backend/internal/repository"
)

// RateLimitPurgeHandler 处理周期性的限流计数器清理任务
type RateLimitPurgeHandler struct {
	rateLimitRepo repository.RateLimitRepository
	window        time.Duration // 限流窗口长度；早于两倍窗口的行才会被删除
}

// NewRateLimitPurgeHandler 创建 Handler 实例
func NewRateLimitPurgeHandler(rateLimitRepo repository.RateLimitRepository, window time.Duration) *RateLimitPurgeHandler {
	if rateLimitRepo == nil {
		panic("RateLimitRepository cannot be nil for RateLimitPurgeHandler")
	}
	if window <= 0 {
		panic("window duration must be positive for RateLimitPurgeHandler")
	}
	return &RateLimitPurgeHandler{
		rateLimitRepo: rateLimitRepo,
		window:        window,
	}
}

// ProcessTask 实现 asynq.Handler 接口。
// 删除窗口起点早于两倍窗口之前的计数器行。
// 这只是存储卫生，命中路径自身是原子的，清理晚到不影响限流正确性。
func (h *RateLimitPurgeHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	logCtx := logrus.WithField("task_type", t.Type())

	purged, err := h.rateLimitRepo.PurgeExpired(ctx, time.Now().Add(-2*h.window))
	if err != nil {
		logCtx.WithError(err).Error("Failed to purge expired rate limit counters")
		return err // 返回错误，Asynq 会按策略重试
	}

	if purged > 0 {
		logCtx.Infof("Purged %d expired rate limit counters", purged)
	}
	return nil
}
