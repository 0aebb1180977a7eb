package xtier

import (
	"context"
	"time"
)

//go:generate mockgen -source=backend.go -destination=backend_mock_test.go -package=xtier

// Backend 缓存后端层
type Backend interface {
	// Name 层名称，用于日志与指标，Chain 内唯一
	Name() string

	// Get 读取 key，不存在或已过期时返回 (nil, false, nil)
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set 写入 key，ttl 后过期；ttl <= 0 时不写入
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete 删除 key，不存在不算错误
	Delete(ctx context.Context, key string) error

	// Clear 删除本层管理的所有键
	Clear(ctx context.Context) error
}

// Pinger 支持健康检查的后端
type Pinger interface {
	Ping(ctx context.Context) error
}
