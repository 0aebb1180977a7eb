// Package xretry 基于 avast/retry-go/v5 提供重试执行器。
//
// Retryer 组合 RetryPolicy（是否重试、最多几次）和 BackoffPolicy（间隔多久）：
//
//	r := xretry.NewRetryer(
//		xretry.WithRetryPolicy(xretry.NewFixedRetry(3)),
//		xretry.WithBackoffPolicy(xretry.NewExponentialBackoff(xretry.WithInitialDelay(10*time.Millisecond))),
//	)
//	err := r.Do(ctx, func(ctx context.Context) error {
//		return tier.Set(ctx, key, value, ttl)
//	})
//
// 错误分类：实现 RetryableError 的错误按 Retryable() 判断，PermanentError 不重试，
// 其余错误默认可重试。
package xretry
