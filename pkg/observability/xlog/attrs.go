package xlog

import (
	"log/slog"
	"time"
)

// =============================================================================
// 常用属性 Key 常量
// =============================================================================

const (
	KeyError     = "error"
	KeyDuration  = "duration"
	KeyCount     = "count"
	KeyComponent = "component"
	KeyOperation = "operation"

	// KeyCacheKey 缓存键（规范表示或摘要）
	KeyCacheKey = "cache_key"
	// KeyTier 后端层名称
	KeyTier = "tier"
	// KeyBucket 时间桶编号
	KeyBucket = "bucket"
)

// Err 错误属性，err 为 nil 时返回空 Attr（slog 会忽略）
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Duration 耗时属性
func Duration(d time.Duration) slog.Attr {
	return slog.Duration(KeyDuration, d)
}

// Component 组件名称属性
func Component(name string) slog.Attr {
	return slog.String(KeyComponent, name)
}

// Operation 操作名称属性
func Operation(name string) slog.Attr {
	return slog.String(KeyOperation, name)
}

// Count 计数属性
func Count(n int64) slog.Attr {
	return slog.Int64(KeyCount, n)
}

// CacheKey 缓存键属性
func CacheKey(key string) slog.Attr {
	return slog.String(KeyCacheKey, key)
}

// Tier 后端层属性
func Tier(name string) slog.Attr {
	return slog.String(KeyTier, name)
}

// Bucket 时间桶属性
func Bucket(b int64) slog.Attr {
	return slog.Int64(KeyBucket, b)
}
