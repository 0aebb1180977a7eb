package xbreaker

import (
	"errors"
	"fmt"

	"github.com/sony/gobreaker/v2"
)

var (
	// ErrNilBreaker 熔断器为 nil。
	ErrNilBreaker = errors.New("xbreaker: nil breaker")
	// ErrNilFunc 待执行函数为 nil。
	ErrNilFunc = errors.New("xbreaker: nil func")
)

// BreakerError 熔断器拒绝执行时返回的错误
//
// 实现 Retryable() 返回 false：熔断期间重试没有意义。
type BreakerError struct {
	Err   error
	Name  string
	State State
}

func (e *BreakerError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("breaker %s: %v", e.Name, e.Err)
	}
	return e.Err.Error()
}

func (e *BreakerError) Unwrap() error { return e.Err }

// Retryable 始终返回 false
func (e *BreakerError) Retryable() bool { return false }

func wrapBreakerError(err error, name string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gobreaker.ErrOpenState):
		return &BreakerError{Err: err, Name: name, State: StateOpen}
	case errors.Is(err, gobreaker.ErrTooManyRequests):
		return &BreakerError{Err: err, Name: name, State: StateHalfOpen}
	default:
		return err
	}
}

// IsOpen 报告 err 是否因熔断器拒绝（Open 或 HalfOpen 限流）产生
func IsOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
