package repository

import (
	"context"

	"waitlist-backend/internal/domain"
)

// SignupRepository 定义候补报名记录的存储操作。
type SignupRepository interface {
	// Upsert 以 email 唯一键保存记录：不存在则插入，已存在则覆盖除
	// email 和 created_at 以外的全部字段 (覆盖语义，不做合并)。
	// 返回 created=true 表示本次插入了新行。
	// 创建/更新的裁决必须在并发下保持无竞态：两个同邮箱的并发首次提交
	// 恰好产生一个 created 结果。
	Upsert(ctx context.Context, signup *domain.WaitlistSignup) (created bool, err error)
}
