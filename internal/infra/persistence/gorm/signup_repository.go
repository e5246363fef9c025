package gormpersistence

import (
	"context"
	"errors"
	"fmt"
	"strings" // 用于检查错误字符串 (临时方案)

	"gorm.io/gorm"

	"waitlist-backend/internal/domain"
	"waitlist-backend/internal/repository"
)

// GormSignupRepository 是 SignupRepository 接口的 GORM 实现
type GormSignupRepository struct {
	db *gorm.DB // 依赖 GORM DB 连接
}

// NewGormSignupRepository 创建 GormSignupRepository 实例
// db *gorm.DB 通过依赖注入传入
func NewGormSignupRepository(db *gorm.DB) *GormSignupRepository {
	if db == nil {
		// 早期失败比运行时 panic 更好
		panic("database connection cannot be nil for GormSignupRepository")
	}
	return &GormSignupRepository{db: db}
}

// Upsert 先尝试插入；email 唯一索引冲突说明该邮箱已报名，转为覆盖更新。
// 两个并发的同邮箱首次提交依靠唯一约束裁决：恰好一个走插入分支 (created)，
// 输掉的那个收到冲突错误后落到更新分支 (updated)。
func (r *GormSignupRepository) Upsert(ctx context.Context, signup *domain.WaitlistSignup) (bool, error) {
	err := r.insert(ctx, signup)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, repository.ErrDuplicateEntry) {
		return false, err
	}

	// 覆盖除 email 和 created_at 以外的全部字段
	updates := map[string]interface{}{
		"identity":       signup.Identity,
		"identity_other": signup.IdentityOther,
		"emotional_hook": signup.EmotionalHook,
		"gold_insight":   signup.GoldInsight,
		"feature_signal": signup.FeatureSignal,
		"commitment":     signup.Commitment,
	}
	result := r.db.WithContext(ctx).Model(&domain.WaitlistSignup{}).
		Where("email = ?", signup.Email).
		Updates(updates)
	if result.Error != nil {
		return false, fmt.Errorf("gorm: update signup (email: %s): %w", signup.Email, result.Error)
	}
	return false, nil
}

// insert 尝试插入新行，把驱动的唯一约束冲突统一映射为 repository.ErrDuplicateEntry。
func (r *GormSignupRepository) insert(ctx context.Context, signup *domain.WaitlistSignup) error {
	err := r.db.WithContext(ctx).Create(signup).Error
	if err == nil {
		return nil
	}
	if isDuplicateEntryError(err) {
		return fmt.Errorf("gorm: insert signup (email: %s): %w: %v",
			signup.Email, repository.ErrDuplicateEntry, err)
	}
	return fmt.Errorf("gorm: insert signup (email: %s): %w", signup.Email, err)
}

// isDuplicateEntryError 是一个临时的辅助函数，用于检查常见的唯一约束错误字符串。
// 强烈建议替换为特定数据库驱动的错误检查。
func isDuplicateEntryError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	// 常见的错误信息片段
	return strings.Contains(msg, "UNIQUE constraint failed") || // SQLite
		strings.Contains(msg, "Duplicate entry") || // MySQL
		strings.Contains(msg, "duplicate key value violates unique constraint") // PostgreSQL
}
