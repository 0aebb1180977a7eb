package xretry

import (
	"context"
	"math"
	"time"
)

// RetryPolicy 重试策略
type RetryPolicy interface {
	// MaxAttempts 最大尝试次数（包含首次），最小为 1
	MaxAttempts() int

	// ShouldRetry 第 attempt 次（从 1 开始）失败后是否重试
	ShouldRetry(ctx context.Context, attempt int, err error) bool
}

// BackoffPolicy 退避策略
type BackoffPolicy interface {
	// NextDelay 第 attempt 次（从 1 开始）失败后的等待时间
	NextDelay(attempt int) time.Duration
}

// FixedRetryPolicy 固定次数重试
type FixedRetryPolicy struct {
	maxAttempts int
}

// NewFixedRetry 创建固定次数重试策略，maxAttempts 小于 1 时按 1 处理
func NewFixedRetry(maxAttempts int) *FixedRetryPolicy {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &FixedRetryPolicy{maxAttempts: maxAttempts}
}

func (p *FixedRetryPolicy) MaxAttempts() int { return p.maxAttempts }

func (p *FixedRetryPolicy) ShouldRetry(ctx context.Context, attempt int, err error) bool {
	if ctx.Err() != nil || attempt >= p.maxAttempts {
		return false
	}
	return IsRetryable(err)
}

// NeverRetryPolicy 不重试
type NeverRetryPolicy struct{}

// NewNeverRetry 创建不重试策略
func NewNeverRetry() *NeverRetryPolicy { return &NeverRetryPolicy{} }

func (NeverRetryPolicy) MaxAttempts() int { return 1 }

func (NeverRetryPolicy) ShouldRetry(context.Context, int, error) bool { return false }

// FixedBackoff 固定间隔
type FixedBackoff struct {
	delay time.Duration
}

// NewFixedBackoff 创建固定间隔退避，负数按 0 处理
func NewFixedBackoff(delay time.Duration) *FixedBackoff {
	return &FixedBackoff{delay: max(delay, 0)}
}

func (b *FixedBackoff) NextDelay(int) time.Duration { return b.delay }

// ExponentialBackoff 指数退避
// delay = min(initial * multiplier^(attempt-1), max)
type ExponentialBackoff struct {
	initialDelay time.Duration
	maxDelay     time.Duration
	multiplier   float64
}

// ExponentialBackoffOption 指数退避选项
type ExponentialBackoffOption func(*ExponentialBackoff)

// WithInitialDelay 设置初始延迟，d <= 0 时忽略
func WithInitialDelay(d time.Duration) ExponentialBackoffOption {
	return func(b *ExponentialBackoff) {
		if d > 0 {
			b.initialDelay = d
		}
	}
}

// WithMaxDelay 设置最大延迟，d <= 0 时忽略
func WithMaxDelay(d time.Duration) ExponentialBackoffOption {
	return func(b *ExponentialBackoff) {
		if d > 0 {
			b.maxDelay = d
		}
	}
}

// WithMultiplier 设置乘数，小于 1 时忽略
func WithMultiplier(m float64) ExponentialBackoffOption {
	return func(b *ExponentialBackoff) {
		if m >= 1 {
			b.multiplier = m
		}
	}
}

// NewExponentialBackoff 创建指数退避，默认 100ms 起步、翻倍、上限 5s
func NewExponentialBackoff(opts ...ExponentialBackoffOption) *ExponentialBackoff {
	b := &ExponentialBackoff{
		initialDelay: 100 * time.Millisecond,
		maxDelay:     5 * time.Second,
		multiplier:   2,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.maxDelay < b.initialDelay {
		b.maxDelay = b.initialDelay
	}
	return b
}

func (b *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := float64(b.initialDelay) * math.Pow(b.multiplier, float64(attempt-1))
	if d >= float64(b.maxDelay) || math.IsInf(d, 0) {
		return b.maxDelay
	}
	return time.Duration(d)
}

var (
	_ RetryPolicy   = (*FixedRetryPolicy)(nil)
	_ RetryPolicy   = NeverRetryPolicy{}
	_ BackoffPolicy = (*FixedBackoff)(nil)
	_ BackoffPolicy = (*ExponentialBackoff)(nil)
)
