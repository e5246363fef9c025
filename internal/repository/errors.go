package repository

import "errors"

// 通用的存储库错误
var (
	// ErrDuplicateEntry 表示尝试插入的数据违反了唯一约束。
	// 实现把各数据库驱动的冲突错误统一包装为该哨兵，调用方用 errors.Is 判断。
	ErrDuplicateEntry = errors.New("repository: duplicate entry")
)
