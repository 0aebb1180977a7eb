// Package xmetrics 提供统一的可观测性接口。
//
// Observer.Start 开始一次操作并返回 Span，Span.End 结束并记录结果。
// NoopObserver 什么也不做；NewOTelObserver 基于 OpenTelemetry 同时产生 trace span
// 和两个指标：
//
//   - xmemo.operation.total      计数，标签 component/operation/status/outcome
//   - xmemo.operation.duration   直方图（秒），标签同上
//
// outcome 标签来自 Result.Outcome，缓存引擎用它区分 hit/miss/stale/bypass 等结果。
package xmetrics
