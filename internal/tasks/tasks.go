package tasks

import (
	"encoding/json"
)

// 定义任务类型常量
const (
	TypeRateLimitPurge = "ratelimit:purge" // 周期清理过期限流计数器的任务类型
)

// RateLimitPurgePayload 目前不携带数据，保留结构体便于将来扩展。
type RateLimitPurgePayload struct{}

// NewRateLimitPurgeTask 创建清理任务的 payload。
func NewRateLimitPurgeTask() ([]byte, error) {
	payloadBytes, err := json.Marshal(RateLimitPurgePayload{})
	if err != nil {
		return nil, err
	}
	return payloadBytes, nil
}
