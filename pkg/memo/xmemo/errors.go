package xmemo

import "errors"

var (
	// ErrInvalidConfig 配置非法，由 New 返回，包装具体原因。
	ErrInvalidConfig = errors.New("xmemo: invalid config")

	// ErrInvalidMaxSize MaxSize 既不是正数也不是 Unbounded。
	// MaxSize 为 0 同样非法：不缓存请使用 TTL 0。
	ErrInvalidMaxSize = errors.New("xmemo: maxsize must be positive or Unbounded")

	// ErrInvalidComputeTimeout 计算超时为负数。
	ErrInvalidComputeTimeout = errors.New("xmemo: compute timeout must not be negative")

	// ErrOptionType 泛型选项的值类型与引擎不一致。
	ErrOptionType = errors.New("xmemo: option value type does not match engine")

	// ErrComputePanic 被记忆化的函数发生 panic。
	ErrComputePanic = errors.New("xmemo: computation panicked")

	// ErrNilComputation 计算函数为 nil。
	ErrNilComputation = errors.New("xmemo: nil computation")

	// ErrNilEngine 引擎为 nil。
	ErrNilEngine = errors.New("xmemo: nil engine")
)
