package gormpersistence

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"waitlist-backend/internal/domain"
	"waitlist-backend/internal/repository"
)

// newTestDB 打开一个内存 SQLite 数据库并建表。
// 限制为单连接，避免连接池里每个连接各自拿到一份独立的内存库。
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&domain.WaitlistSignup{}))
	return db
}

func strPtr(s string) *string { return &s }

func TestGormSignupRepository_Upsert_CreateThenUpdate(t *testing.T) {
	// Arrange
	db := newTestDB(t)
	repo := NewGormSignupRepository(db)
	ctx := context.Background()

	first := &domain.WaitlistSignup{
		Email:         "user@example.com",
		Identity:      "Other",
		IdentityOther: strPtr("Executive assistant"),
		EmotionalHook: "Often",
		GoldInsight:   "First answer.",
		FeatureSignal: "Search across people",
		Commitment:    "Just keep me updated",
	}

	// Act: 首次提交走插入分支
	created, err := repo.Upsert(ctx, first)
	require.NoError(t, err)
	assert.True(t, created)

	// Act: 同邮箱再次提交走唯一索引冲突 → 覆盖更新分支
	second := &domain.WaitlistSignup{
		Email:         "user@example.com",
		Identity:      "Investor",
		IdentityOther: nil,
		EmotionalHook: "Too often",
		GoldInsight:   "Second answer.",
		FeatureSignal: "One-tap voice capture|AI call prep before meetings",
		Commitment:    "Yes, I want early access",
	}
	created, err = repo.Upsert(ctx, second)
	require.NoError(t, err)
	assert.False(t, created)

	// Assert: 仍只有一行，除 email 外的全部字段被覆盖 (包括清空 identity_other)
	var count int64
	require.NoError(t, db.Model(&domain.WaitlistSignup{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	var stored domain.WaitlistSignup
	require.NoError(t, db.Where("email = ?", "user@example.com").First(&stored).Error)
	assert.Equal(t, "Investor", stored.Identity)
	assert.Nil(t, stored.IdentityOther)
	assert.Equal(t, "Too often", stored.EmotionalHook)
	assert.Equal(t, "Second answer.", stored.GoldInsight)
	assert.Equal(t, "One-tap voice capture|AI call prep before meetings", stored.FeatureSignal)
	assert.Equal(t, "Yes, I want early access", stored.Commitment)
}

func TestGormSignupRepository_Upsert_DifferentEmailsBothCreated(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormSignupRepository(db)
	ctx := context.Background()

	for _, email := range []string{"a@example.com", "b@example.com"} {
		created, err := repo.Upsert(ctx, &domain.WaitlistSignup{
			Email:         email,
			Identity:      "Investor",
			EmotionalHook: "Rarely",
			GoldInsight:   "x",
			FeatureSignal: "Search across people",
			Commitment:    "Just keep me updated",
		})
		require.NoError(t, err)
		assert.True(t, created)
	}
}

func TestGormSignupRepository_Insert_ConflictMapsToSentinel(t *testing.T) {
	// 冲突裁决依赖插入路径把驱动错误统一映射为 repository.ErrDuplicateEntry
	db := newTestDB(t)
	repo := NewGormSignupRepository(db)
	ctx := context.Background()

	signup := func() *domain.WaitlistSignup {
		return &domain.WaitlistSignup{
			Email:         "dup@example.com",
			Identity:      "Investor",
			EmotionalHook: "Rarely",
			GoldInsight:   "x",
			FeatureSignal: "Search across people",
			Commitment:    "Just keep me updated",
		}
	}

	require.NoError(t, repo.insert(ctx, signup()))

	err := repo.insert(ctx, signup())
	require.Error(t, err)
	assert.True(t, errors.Is(err, repository.ErrDuplicateEntry))
}

func TestIsDuplicateEntryError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"mysql duplicate", errors.New("Error 1062: Duplicate entry 'user@example.com' for key 'idx_email'"), true},
		{"sqlite unique", errors.New("UNIQUE constraint failed: waitlist_signups.email"), true},
		{"postgres unique", errors.New(`ERROR: duplicate key value violates unique constraint "idx_email" (SQLSTATE 23505)`), true},
		{"unrelated", errors.New("Error 1045: Access denied"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, isDuplicateEntryError(tc.err))
		})
	}
}
