package setup

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SchemaManager 惰性地保证两张持久化表存在。
// DDL 本身幂等 (CREATE TABLE IF NOT EXISTS)，因此多个请求并发触发初始化是安全的；
// done 标记只是避免每个请求都向数据库发送 DDL。初始化失败时标记保持未设置，
// 后续请求会重试而不是永久卡死。
type SchemaManager struct {
	db   *gorm.DB
	mu   sync.Mutex
	done bool
}

// NewSchemaManager 创建 SchemaManager 实例。
func NewSchemaManager(db *gorm.DB) *SchemaManager {
	if db == nil {
		panic("database connection cannot be nil for SchemaManager")
	}
	return &SchemaManager{db: db}
}

// Ensure 实现 repository.SchemaEnsurer。
func (m *SchemaManager) Ensure(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.done {
		return nil
	}

	if err := m.createSignupsTable(ctx); err != nil {
		return err
	}
	if err := m.createRateLimitTable(ctx); err != nil {
		return err
	}

	m.done = true
	logrus.Info("Database schema ensured")
	return nil
}

func (m *SchemaManager) createSignupsTable(ctx context.Context) error {
	sql := `
	CREATE TABLE IF NOT EXISTS waitlist_signups (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		email VARCHAR(191) NOT NULL, -- 限制长度以匹配索引
		identity VARCHAR(120) NOT NULL,
		identity_other VARCHAR(120) NULL,
		emotional_hook VARCHAR(32) NOT NULL,
		gold_insight TEXT NOT NULL,
		feature_signal VARCHAR(255) NOT NULL,
		commitment VARCHAR(64) NOT NULL,
		created_at DATETIME(3),
		updated_at DATETIME(3),
		UNIQUE INDEX idx_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_general_ci;
	`
	if err := m.db.WithContext(ctx).Exec(sql).Error; err != nil {
		logrus.Errorf("Failed to create waitlist_signups table: %v", err)
		return fmt.Errorf("failed to create waitlist_signups table: %w", err)
	}
	return nil
}

func (m *SchemaManager) createRateLimitTable(ctx context.Context) error {
	// count 在 MySQL 中不是保留字，可以直接作为列名使用
	sql := `
	CREATE TABLE IF NOT EXISTS rate_limit_counters (
		rl_key VARCHAR(191) NOT NULL PRIMARY KEY,
		window_start DATETIME(3) NOT NULL,
		count INT UNSIGNED NOT NULL,
		INDEX idx_window_start (window_start) -- 供周期清理扫描
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_general_ci;
	`
	if err := m.db.WithContext(ctx).Exec(sql).Error; err != nil {
		logrus.Errorf("Failed to create rate_limit_counters table: %v", err)
		return fmt.Errorf("failed to create rate_limit_counters table: %w", err)
	}
	return nil
}
