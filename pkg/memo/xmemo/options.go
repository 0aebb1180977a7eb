package xmemo

import (
	"fmt"
	"time"

	"github.com/omeyang/xmemo/pkg/memo/xbucket"
	"github.com/omeyang/xmemo/pkg/memo/xevict"
	"github.com/omeyang/xmemo/pkg/memo/xkey"
	"github.com/omeyang/xmemo/pkg/observability/xlog"
	"github.com/omeyang/xmemo/pkg/observability/xmetrics"
	"github.com/omeyang/xmemo/pkg/storage/xtier"
)

const defaultName = "xmemo"

// Option 引擎选项
//
// 与值类型相关的选项（WithCodec、WithCloner、WithOnEvict）在 New 时检查类型，
// 不一致时返回 ErrInvalidConfig。
type Option func(*options)

type options struct {
	clock          xbucket.Clock
	name           string
	logger         xlog.Logger
	observer       xmetrics.Observer
	tiers          *xtier.Chain
	computeTimeout time.Duration

	// 以下字段保存泛型值，New[V] 中断言为具体类型
	codec   any
	cloner  any
	onEvict any
}

func defaultOptions() *options {
	return &options{
		clock:    xbucket.SystemClock{},
		name:     defaultName,
		logger:   xlog.Discard(),
		observer: xmetrics.NoopObserver{},
	}
}

// WithClock 设置时间源，默认系统时钟。测试中使用 xbucket.FakeClock。
func WithClock(c xbucket.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithName 设置函数标识，作为缓存键前缀和日志组件名，默认 "xmemo"。
//
// 共享同一个后端层的不同引擎必须使用不同的名称。
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithLogger 设置日志，默认丢弃
func WithLogger(l xlog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithObserver 设置观测器，默认 Noop
func WithObserver(obs xmetrics.Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observer = obs
		}
	}
}

// WithTiers 接入后端层
func WithTiers(c *xtier.Chain) Option {
	return func(o *options) {
		o.tiers = c
	}
}

// WithComputeTimeout 为计算函数的 ctx 设置超时，0 表示不设超时。
//
// 超时通过 ctx 传给函数，函数需要自行响应 ctx.Done()。
func WithComputeTimeout(d time.Duration) Option {
	return func(o *options) {
		o.computeTimeout = d
	}
}

// WithCodec 设置后端层的编解码器，默认 xtier.JSONCodec[V]
func WithCodec[V any](c xtier.Codec[V]) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithCloner 设置读取时的复制函数。
//
// 缓存值归存储所有，调用方拿到的是共享引用；值可变时用 cloner 做读时复制。
func WithCloner[V any](fn func(V) V) Option {
	return func(o *options) {
		if fn != nil {
			o.cloner = fn
		}
	}
}

// WithOnEvict 设置条目离开本地存储时的回调。
//
// 回调在存储锁内同步执行，不能调用同一个引擎的方法。
func WithOnEvict[V any](fn func(key xkey.Key, value V, reason xevict.EvictReason)) Option {
	return func(o *options) {
		if fn != nil {
			o.onEvict = fn
		}
	}
}

func typed[T any](v any, name string) (T, error) {
	var zero T
	if v == nil {
		return zero, nil
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %w: %s %T", ErrInvalidConfig, ErrOptionType, name, v)
	}
	return t, nil
}
