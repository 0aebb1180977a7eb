package tieropt

import (
	"context"
	"sync/atomic"
	"time"
)

// DefaultHealthTimeout 健康检查默认超时
const DefaultHealthTimeout = 2 * time.Second

// DefaultSlowThreshold 慢操作默认阈值
const DefaultSlowThreshold = 100 * time.Millisecond

// HealthContext 为健康检查派生带超时的 context，timeout <= 0 时不设超时
func HealthContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// Counters 单个后端层的操作计数，零值可用，并发安全
type Counters struct {
	gets      atomic.Int64
	hits      atomic.Int64
	sets      atomic.Int64
	errors    atomic.Int64
	slow      atomic.Int64
	pings     atomic.Int64
	pingFails atomic.Int64
}

// Snapshot 计数快照
type Snapshot struct {
	Gets      int64
	Hits      int64
	Sets      int64
	Errors    int64
	Slow      int64
	Pings     int64
	PingFails int64
}

// IncGet 记录一次读取，hit 表示是否命中
func (c *Counters) IncGet(hit bool) {
	c.gets.Add(1)
	if hit {
		c.hits.Add(1)
	}
}

// IncSet 记录一次成功写入
func (c *Counters) IncSet() { c.sets.Add(1) }

// IncError 记录一次失败的操作（含熔断拒绝）
func (c *Counters) IncError() { c.errors.Add(1) }

// IncPing 记录一次健康检查，err 非 nil 计为失败
func (c *Counters) IncPing(err error) {
	c.pings.Add(1)
	if err != nil {
		c.pingFails.Add(1)
	}
}

// Observe 记录一次耗时，超过 threshold 计为慢操作并返回 true
func (c *Counters) Observe(start time.Time, threshold time.Duration) bool {
	if threshold > 0 && time.Since(start) >= threshold {
		c.slow.Add(1)
		return true
	}
	return false
}

// Snapshot 返回当前计数
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		Gets:      c.gets.Load(),
		Hits:      c.hits.Load(),
		Sets:      c.sets.Load(),
		Errors:    c.errors.Load(),
		Slow:      c.slow.Load(),
		Pings:     c.pings.Load(),
		PingFails: c.pingFails.Load(),
	}
}
