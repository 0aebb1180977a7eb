package xbreaker

import (
	"context"
	"time"

	"github.com/sony/gobreaker/v2"
)

// 类型别名，调用方无需直接引入 gobreaker
type (
	Counts = gobreaker.Counts
	State  = gobreaker.State
)

// 熔断器状态
const (
	StateClosed   = gobreaker.StateClosed
	StateHalfOpen = gobreaker.StateHalfOpen
	StateOpen     = gobreaker.StateOpen
)

// TripPolicy 熔断判定策略
type TripPolicy interface {
	ReadyToTrip(counts Counts) bool
}

// Breaker 熔断器，并发安全
type Breaker struct {
	name          string
	tripPolicy    TripPolicy
	isSuccessful  func(err error) bool
	timeout       time.Duration
	interval      time.Duration
	maxRequests   uint32
	onStateChange func(name string, from, to State)

	cb *gobreaker.CircuitBreaker[any]
}

// BreakerOption 熔断器选项
type BreakerOption func(*Breaker)

// WithTripPolicy 设置熔断判定策略，默认连续 5 次失败
func WithTripPolicy(p TripPolicy) BreakerOption {
	return func(b *Breaker) {
		if p != nil {
			b.tripPolicy = p
		}
	}
}

// WithSuccessPolicy 设置成功判定函数，返回 true 的错误不计入失败
//
// 例如缓存未命中不应计为下游故障。
func WithSuccessPolicy(fn func(err error) bool) BreakerOption {
	return func(b *Breaker) {
		b.isSuccessful = fn
	}
}

// WithTimeout 设置 Open 状态持续时间，默认 60s
func WithTimeout(d time.Duration) BreakerOption {
	return func(b *Breaker) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// WithInterval 设置 Closed 状态下计数清零周期，0 表示不清零
func WithInterval(d time.Duration) BreakerOption {
	return func(b *Breaker) {
		if d >= 0 {
			b.interval = d
		}
	}
}

// WithMaxRequests 设置 HalfOpen 状态允许的试探请求数，默认 1
func WithMaxRequests(n uint32) BreakerOption {
	return func(b *Breaker) {
		if n > 0 {
			b.maxRequests = n
		}
	}
}

// WithOnStateChange 设置状态变化回调
func WithOnStateChange(f func(name string, from, to State)) BreakerOption {
	return func(b *Breaker) {
		b.onStateChange = f
	}
}

// NewBreaker 创建熔断器
func NewBreaker(name string, opts ...BreakerOption) *Breaker {
	b := &Breaker{
		name:        name,
		tripPolicy:  NewConsecutiveFailures(5),
		timeout:     60 * time.Second,
		maxRequests: 1,
	}
	for _, opt := range opts {
		opt(b)
	}

	st := gobreaker.Settings{
		Name:        b.name,
		MaxRequests: b.maxRequests,
		Interval:    b.interval,
		Timeout:     b.timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return b.tripPolicy.ReadyToTrip(counts)
		},
	}
	if b.isSuccessful != nil {
		st.IsSuccessful = b.isSuccessful
	}
	if b.onStateChange != nil {
		st.OnStateChange = func(name string, from, to gobreaker.State) {
			b.onStateChange(name, from, to)
		}
	}
	b.cb = gobreaker.NewCircuitBreaker[any](st)
	return b
}

// Do 在熔断器保护下执行 fn
func (b *Breaker) Do(ctx context.Context, fn func() error) error {
	if b == nil {
		return ErrNilBreaker
	}
	if fn == nil {
		return ErrNilFunc
	}
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	_, err := b.cb.Execute(func() (any, error) {
		return nil, fn()
	})
	return wrapBreakerError(err, b.name)
}

// Execute 在熔断器保护下执行有返回值的 fn
func Execute[T any](ctx context.Context, b *Breaker, fn func() (T, error)) (T, error) {
	var zero T
	if b == nil {
		return zero, ErrNilBreaker
	}
	if fn == nil {
		return zero, ErrNilFunc
	}
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
	}

	var result T
	_, err := b.cb.Execute(func() (any, error) {
		v, err := fn()
		result = v
		return nil, err
	})
	if err != nil {
		// fn 失败时也把结果交给调用方（如 miss 标志），由调用方决定是否使用
		return result, wrapBreakerError(err, b.name)
	}
	return result, nil
}

// Name 熔断器名称
func (b *Breaker) Name() string { return b.name }

// State 当前状态
func (b *Breaker) State() State { return b.cb.State() }

// Counts 当前计数
func (b *Breaker) Counts() Counts { return b.cb.Counts() }
