package xretry

import (
	"errors"

	retry "github.com/avast/retry-go/v5"
)

var (
	// ErrNilRetryer 执行器为 nil。
	ErrNilRetryer = errors.New("xretry: nil retryer")
	// ErrNilFunc 待执行函数为 nil。
	ErrNilFunc = errors.New("xretry: nil func")
)

// RetryableError 可重试错误接口
type RetryableError interface {
	error
	Retryable() bool
}

// PermanentError 永久性错误，不会重试
type PermanentError struct {
	Err error
}

// NewPermanentError 创建永久性错误
func NewPermanentError(err error) *PermanentError {
	return &PermanentError{Err: err}
}

func (e *PermanentError) Error() string {
	if e.Err == nil {
		return "permanent error"
	}
	return e.Err.Error()
}

func (e *PermanentError) Unwrap() error { return e.Err }

// Retryable 始终返回 false
func (e *PermanentError) Retryable() bool { return false }

// IsRetryable 检查错误是否可重试
//   - nil：不需要重试
//   - retry-go Unrecoverable 包装：不重试
//   - 实现 RetryableError：按 Retryable() 判断
//   - 其他：可重试
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if !retry.IsRecoverable(err) {
		return false
	}
	var re RetryableError
	if errors.As(err, &re) {
		return re.Retryable()
	}
	return true
}
