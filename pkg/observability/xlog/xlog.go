package xlog

import (
	"context"
	"log/slog"
)

// Logger 上下文优先的结构化日志。
//
// 只接受 slog.Attr，不接受松散的 key/value 参数，属性名集中在 attrs.go。
type Logger interface {
	Debug(ctx context.Context, msg string, attrs ...slog.Attr)
	Info(ctx context.Context, msg string, attrs ...slog.Attr)
	Warn(ctx context.Context, msg string, attrs ...slog.Attr)
	Error(ctx context.Context, msg string, attrs ...slog.Attr)

	// With 派生带固定属性的 Logger，与父级共享级别
	With(attrs ...slog.Attr) Logger
	WithGroup(name string) Logger
}

// Leveler 运行时调整级别
type Leveler interface {
	SetLevel(level Level)
	GetLevel() Level
	Enabled(ctx context.Context, level Level) bool
}

// LoggerWithLevel Build 与 Default 的返回类型
type LoggerWithLevel interface {
	Logger
	Leveler
}
