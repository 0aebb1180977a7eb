package xlog

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// ErrUnknownLevel 无法识别的级别字符串
var ErrUnknownLevel = errors.New("xlog: unknown level")

// Level 日志级别，数值与 slog.Level 相同
type Level slog.Level

const (
	LevelDebug = Level(slog.LevelDebug)
	LevelInfo  = Level(slog.LevelInfo)
	LevelWarn  = Level(slog.LevelWarn)
	LevelError = Level(slog.LevelError)
)

// String 输出 slog 的表示，如 "WARN"、"INFO+2"
func (l Level) String() string { return slog.Level(l).String() }

func (l Level) MarshalText() ([]byte, error) { return slog.Level(l).MarshalText() }

// UnmarshalText 使 Level 可以直接出现在 koanf 配置结构体中
func (l *Level) UnmarshalText(data []byte) error {
	parsed, err := ParseLevel(string(data))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ParseLevel 大小写不敏感，接受 "warning" 别名和 slog 的偏移写法（"debug+2"）
func ParseLevel(s string) (Level, error) {
	text := strings.ToLower(strings.TrimSpace(s))
	if rest, ok := strings.CutPrefix(text, "warning"); ok {
		text = "warn" + rest
	}
	var sl slog.Level
	if err := sl.UnmarshalText([]byte(text)); err != nil {
		return LevelInfo, fmt.Errorf("%w: %q", ErrUnknownLevel, s)
	}
	return Level(sl), nil
}
