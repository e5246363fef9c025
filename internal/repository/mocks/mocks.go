// Package mocks 提供 repository 接口的 testify Mock 实现，供 service 层测试使用。
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"waitlist-backend/internal/domain"
)

// SignupRepository 是 repository.SignupRepository 的 Mock 实现。
type SignupRepository struct {
	mock.Mock
}

func (m *SignupRepository) Upsert(ctx context.Context, signup *domain.WaitlistSignup) (bool, error) {
	args := m.Called(ctx, signup)
	return args.Bool(0), args.Error(1)
}

// RateLimitRepository 是 repository.RateLimitRepository 的 Mock 实现。
type RateLimitRepository struct {
	mock.Mock
}

func (m *RateLimitRepository) Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	args := m.Called(ctx, key, window)
	return args.Get(0).(int64), args.Get(1).(time.Duration), args.Error(2)
}

func (m *RateLimitRepository) PurgeExpired(ctx context.Context, olderThan time.Time) (int64, error) {
	args := m.Called(ctx, olderThan)
	return args.Get(0).(int64), args.Error(1)
}

// SchemaEnsurer 是 repository.SchemaEnsurer 的 Mock 实现。
type SchemaEnsurer struct {
	mock.Mock
}

func (m *SchemaEnsurer) Ensure(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
