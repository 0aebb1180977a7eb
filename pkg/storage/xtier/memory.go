package xtier

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// MemoryOptions 内存层参数
type MemoryOptions struct {
	// NumCounters 频率统计计数器数量，建议为预期条目数的 10 倍
	NumCounters int64
	// MaxCost 总成本上限，成本按值的字节数计算
	MaxCost int64
	// BufferItems Get 缓冲区大小
	BufferItems int64
}

// MemoryOption 内存层选项
type MemoryOption func(*MemoryOptions)

// WithMemoryNumCounters 设置计数器数量
func WithMemoryNumCounters(n int64) MemoryOption {
	return func(o *MemoryOptions) {
		if n > 0 {
			o.NumCounters = n
		}
	}
}

// WithMemoryMaxCost 设置总字节上限
func WithMemoryMaxCost(cost int64) MemoryOption {
	return func(o *MemoryOptions) {
		if cost > 0 {
			o.MaxCost = cost
		}
	}
}

// MemoryStats 内存层统计
type MemoryStats struct {
	Hits        uint64
	Misses      uint64
	KeysAdded   uint64
	KeysEvicted uint64
}

// Memory 基于 ristretto 的进程内层。
//
// 与引擎自身的 LRU 存储不同，它按字节成本准入和淘汰，适合作为远程层之后的兜底。
// ristretto 写入是异步的，Set 之后立即 Get 可能未命中，测试中调用 Wait。
type Memory struct {
	cache  *ristretto.Cache[string, []byte]
	name   string
	closed atomic.Bool
}

// NewMemory 创建内存层，默认 1e6 计数器、64MB
func NewMemory(opts ...MemoryOption) (*Memory, error) {
	o := &MemoryOptions{
		NumCounters: 1e6,
		MaxCost:     64 << 20,
		BufferItems: 64,
	}
	for _, opt := range opts {
		opt(o)
	}

	cache, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: o.NumCounters,
		MaxCost:     o.MaxCost,
		BufferItems: o.BufferItems,
		Metrics:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("xtier: create memory tier: %w", err)
	}
	return &Memory{cache: cache, name: "memory"}, nil
}

// Name 返回层名称
func (m *Memory) Name() string { return m.name }

// Get 读取 key，关闭后返回 ErrClosed
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	if m.closed.Load() {
		return nil, false, ErrClosed
	}
	v, ok := m.cache.Get(key)
	return v, ok, nil
}

// Set 写入 key；被 ristretto 准入策略拒绝不算错误
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if m.closed.Load() {
		return ErrClosed
	}
	if ttl <= 0 {
		return nil
	}
	m.cache.SetWithTTL(key, value, int64(len(value))+1, ttl)
	return nil
}

// Delete 删除 key
func (m *Memory) Delete(_ context.Context, key string) error {
	if m.closed.Load() {
		return ErrClosed
	}
	m.cache.Del(key)
	return nil
}

// Clear 清空所有条目
func (m *Memory) Clear(context.Context) error {
	if m.closed.Load() {
		return ErrClosed
	}
	m.cache.Clear()
	return nil
}

// Wait 等待缓冲中的写入生效
func (m *Memory) Wait() {
	if !m.closed.Load() {
		m.cache.Wait()
	}
}

// Stats 返回统计信息
func (m *Memory) Stats() MemoryStats {
	if m.closed.Load() || m.cache.Metrics == nil {
		return MemoryStats{}
	}
	mt := m.cache.Metrics
	return MemoryStats{
		Hits:        mt.Hits(),
		Misses:      mt.Misses(),
		KeysAdded:   mt.KeysAdded(),
		KeysEvicted: mt.KeysEvicted(),
	}
}

// Close 释放 ristretto 的后台 goroutine，重复调用返回 ErrClosed
func (m *Memory) Close() error {
	if !m.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	m.cache.Close()
	return nil
}

var _ Backend = (*Memory)(nil)
