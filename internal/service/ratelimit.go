package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"waitlist-backend/internal/repository"
)

// RateLimiter 按 IP 与邮箱两个键空间检查请求频率。
// 两个键空间共享同一窗口长度；IP 键的上限更宽松，邮箱键更严格。
type RateLimiter struct {
	repo     repository.RateLimitRepository
	window   time.Duration
	ipMax    int64
	emailMax int64
}

// NewRateLimiter 创建 RateLimiter 实例。
func NewRateLimiter(repo repository.RateLimitRepository, window time.Duration, ipMax, emailMax int64) *RateLimiter {
	// 启动时检查依赖
	if repo == nil {
		panic("RateLimitRepository cannot be nil for RateLimiter")
	}
	if window <= 0 {
		panic("window duration must be positive for RateLimiter")
	}
	if ipMax <= 0 || emailMax <= 0 {
		panic("rate limit ceilings must be positive for RateLimiter")
	}
	return &RateLimiter{
		repo:     repo,
		window:   window,
		ipMax:    ipMax,
		emailMax: emailMax,
	}
}

// Check 先查 IP 键，再查邮箱键；任一超限即返回 RateLimitError。
// clientIP 为空表示无法确定来源地址，此时跳过 IP 检查 (对 IP 失败开放)；
// 邮箱检查永远执行。IP 检查超限时不再触碰邮箱计数器。
func (l *RateLimiter) Check(ctx context.Context, clientIP, email string) error {
	// 顺带清理过期计数器。这只是存储卫生：清理晚到不会造成漏计或重复计，
	// 因此失败只记日志，不影响限流判定。
	if _, err := l.repo.PurgeExpired(ctx, time.Now().Add(-2*l.window)); err != nil {
		logrus.WithError(err).Warn("RateLimiter: failed to purge expired counters")
	}

	if clientIP != "" {
		if err := l.hit(ctx, "ip:"+clientIP, l.ipMax); err != nil {
			return err
		}
	}
	return l.hit(ctx, "email:"+email, l.emailMax)
}

func (l *RateLimiter) hit(ctx context.Context, key string, max int64) error {
	count, retryAfter, err := l.repo.Hit(ctx, key, l.window)
	if err != nil {
		// 限流检查出错时不放行请求
		logrus.WithError(err).WithField("key", key).Error("RateLimiter: counter store failure")
		return ErrInternalServer
	}
	if count > max {
		seconds := int(retryAfter / time.Second)
		if seconds < 0 {
			seconds = 0
		}
		return &RateLimitError{RetryAfterSeconds: seconds}
	}
	return nil
}
