// Package domain 定义了应用程序中使用的数据结构 (数据库模型)。
package domain

import (
	"strings"
	"time"
)

// FeatureSignalSeparator 是多选字段持久化时使用的分隔符。
// 注册表中的取值不包含该字符。
const FeatureSignalSeparator = "|"

// WaitlistSignup 表示一条候补名单报名记录，每个规范化邮箱至多一条。
// 重复提交会覆盖除 Email 和 CreatedAt 以外的全部字段。
type WaitlistSignup struct {
	ID            uint      `gorm:"primaryKey"`
	Email         string    `gorm:"type:varchar(191);uniqueIndex:idx_email;not null"` // 规范化后的邮箱 (小写、去空格)
	Identity      string    `gorm:"type:varchar(120);not null"`
	IdentityOther *string   `gorm:"type:varchar(120)"` // 仅当 Identity 为 "Other" 时填充
	EmotionalHook string    `gorm:"type:varchar(32);not null"`
	GoldInsight   string    `gorm:"type:text;not null"`
	FeatureSignal string    `gorm:"type:varchar(255);not null"` // 1-2 个选项，以 "|" 分隔
	Commitment    string    `gorm:"type:varchar(64);not null"`
	CreatedAt     time.Time `gorm:"autoCreateTime"` // 首次插入时设置，此后不可变
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

// TableName 指定 WaitlistSignup 对应的表名。
func (WaitlistSignup) TableName() string { return "waitlist_signups" }

// RateLimitCounter 表示一个限流键 (ip:<addr> 或 email:<addr>) 在当前窗口内的计数。
// 每个键至多一行；过期窗口在下一次命中时被原子地重置而不是递增。
type RateLimitCounter struct {
	Key         string    `gorm:"column:rl_key;type:varchar(191);primaryKey"`
	WindowStart time.Time `gorm:"column:window_start;not null"`
	Count       int64     `gorm:"column:count;not null"`
}

// TableName 指定 RateLimitCounter 对应的表名。
func (RateLimitCounter) TableName() string { return "rate_limit_counters" }

// JoinFeatureSignals 把多选取值序列化为持久化形式。
func JoinFeatureSignals(signals []string) string {
	return strings.Join(signals, FeatureSignalSeparator)
}

// SplitFeatureSignals 是 JoinFeatureSignals 的逆操作。
func SplitFeatureSignals(joined string) []string {
	if joined == "" {
		return nil
	}
	return strings.Split(joined, FeatureSignalSeparator)
}
