package xmemo

import "sync/atomic"

type counters struct {
	hits      atomic.Uint64
	misses    atomic.Uint64
	bypass    atomic.Uint64
	computes  atomic.Uint64
	tierHits  atomic.Uint64
	shared    atomic.Uint64
	errors    atomic.Uint64
	evictions atomic.Uint64
	waiting   atomic.Int64
}

// Stats 引擎统计快照
type Stats struct {
	// Hits 本地存储命中
	Hits uint64
	// Misses 本地存储未命中（含过期）
	Misses uint64
	// Stale 读取时发现并删除的过期条目
	Stale uint64
	// Bypass TTL 为 0 时的直接调用
	Bypass uint64
	// Computes 实际执行计算的次数
	Computes uint64
	// TierHits 后端层命中，免去了一次计算
	TierHits uint64
	// Shared 拿到共享计算结果的调用数（含发起者）
	Shared uint64
	// Errors 返回错误的调用数
	Errors uint64
	// Evictions 容量淘汰次数
	Evictions uint64
	// Waiting 当前正在等待共享计算结果的调用数
	Waiting int64

	Size     int
	Capacity int
}

// HitRatio 本地命中率，没有请求时返回 0
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Stats 返回统计快照
func (e *Engine[V]) Stats() Stats {
	if e == nil {
		return Stats{}
	}
	_, stale := e.store.Counters()
	return Stats{
		Hits:      e.stats.hits.Load(),
		Misses:    e.stats.misses.Load(),
		Stale:     stale,
		Bypass:    e.stats.bypass.Load(),
		Computes:  e.stats.computes.Load(),
		TierHits:  e.stats.tierHits.Load(),
		Shared:    e.stats.shared.Load(),
		Errors:    e.stats.errors.Load(),
		Evictions: e.stats.evictions.Load(),
		Waiting:   e.stats.waiting.Load(),
		Size:      e.store.Len(),
		Capacity:  e.store.Capacity(),
	}
}
