package xmetrics

import (
	"context"
	"time"
)

// Kind span 类型
type Kind int

const (
	KindInternal Kind = iota
	KindClient
)

// Status 操作状态
type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// Attr 属性键值对
type Attr struct {
	Key   string
	Value any
}

// String 字符串属性
func String(key, value string) Attr { return Attr{Key: key, Value: value} }

// Int64 整数属性
func Int64(key string, value int64) Attr { return Attr{Key: key, Value: value} }

// Bool 布尔属性
func Bool(key string, value bool) Attr { return Attr{Key: key, Value: value} }

// Duration 耗时属性，以纳秒记录
func Duration(key string, value time.Duration) Attr { return Attr{Key: key, Value: value} }

// SpanOptions 开始操作时的参数
type SpanOptions struct {
	Component string
	Operation string
	Kind      Kind
	Attrs     []Attr
}

// Result 操作结果
//
// Status 为空时按 Err 推断。Outcome 非空时作为指标标签。
type Result struct {
	Status  Status
	Err     error
	Outcome string
	Attrs   []Attr
}

// Span 一次操作
type Span interface {
	End(result Result)
}

// Observer 观测器
type Observer interface {
	Start(ctx context.Context, opts SpanOptions) (context.Context, Span)
}

// NoopObserver 空实现
type NoopObserver struct{}

func (NoopObserver) Start(ctx context.Context, _ SpanOptions) (context.Context, Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	return ctx, NoopSpan{}
}

// NoopSpan 空实现
type NoopSpan struct{}

func (NoopSpan) End(Result) {}

// Start 安全地开始一次操作，observer 为 nil 时退化为 Noop
func Start(ctx context.Context, observer Observer, opts SpanOptions) (context.Context, Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	if observer == nil {
		return ctx, NoopSpan{}
	}
	retCtx, span := observer.Start(ctx, opts)
	if retCtx == nil {
		retCtx = ctx
	}
	if span == nil {
		span = NoopSpan{}
	}
	return retCtx, span
}

func resolveStatus(result Result) Status {
	if result.Status != "" {
		return result.Status
	}
	if result.Err != nil {
		return StatusError
	}
	return StatusOK
}
