package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInternalServer 表示依赖故障 (数据库不可达、配置缺失等)，对客户端呈现为 500。
	ErrInternalServer = errors.New("internal server error")
)

// ValidationError 表示客户端输入未通过校验，Message 可直接展示给用户。
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func newValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// RateLimitError 表示请求被限流，RetryAfterSeconds 告知客户端多久之后可以重试。
type RateLimitError struct {
	RetryAfterSeconds int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited, retry after %ds", e.RetryAfterSeconds)
}
