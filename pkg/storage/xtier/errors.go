package xtier

import "errors"

var (
	// ErrBackendUnavailable 后端不可达或操作失败。只在层内部和 Chain 之间流转，
	// Chain 记录日志后降级，不会返回给缓存调用方。
	ErrBackendUnavailable = errors.New("xtier: backend unavailable")

	// ErrNilClient 客户端为 nil。
	ErrNilClient = errors.New("xtier: nil client")

	// ErrNilBackend Chain 中存在 nil 后端。
	ErrNilBackend = errors.New("xtier: nil backend")

	// ErrDuplicateName Chain 中存在同名后端。
	ErrDuplicateName = errors.New("xtier: duplicate backend name")

	// ErrEmptyDir 文件层目录为空。
	ErrEmptyDir = errors.New("xtier: empty directory")

	// ErrEmptyPrefix 前缀为空时 Redis 层拒绝 Clear，避免清空整个库。
	ErrEmptyPrefix = errors.New("xtier: clear requires a non-empty key prefix")

	// ErrClosed 后端已关闭。
	ErrClosed = errors.New("xtier: backend closed")

	// ErrUnknownTier 配置中出现未知的层类型。
	ErrUnknownTier = errors.New("xtier: unknown tier")

	// ErrNoAddrs Redis 层配置缺少地址。
	ErrNoAddrs = errors.New("xtier: redis tier requires addrs")
)
