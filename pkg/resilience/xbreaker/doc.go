// Package xbreaker 基于 sony/gobreaker/v2 提供熔断器。
//
// Breaker 包装一个下游依赖（如远程缓存层）。连续失败达到阈值后进入 Open 状态，
// 此后的调用立即返回 BreakerError，不再访问下游；Timeout 之后进入 HalfOpen 试探。
//
//	b := xbreaker.NewBreaker("redis",
//		xbreaker.WithTripPolicy(xbreaker.NewConsecutiveFailures(5)),
//		xbreaker.WithTimeout(30*time.Second),
//	)
//	v, err := xbreaker.Execute(ctx, b, func() ([]byte, error) {
//		return client.Get(ctx, key).Bytes()
//	})
//	if xbreaker.IsOpen(err) {
//		// 跳过该下游
//	}
package xbreaker
