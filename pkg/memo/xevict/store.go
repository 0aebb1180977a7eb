package xevict

import (
	"errors"
	"fmt"
	"math"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// Unbounded 不限容量。
const Unbounded = -1

// ErrInvalidCapacity 容量既不是正数也不是 Unbounded。
var ErrInvalidCapacity = errors.New("xevict: capacity must be positive or Unbounded")

// EvictReason 条目离开存储的原因
type EvictReason int

const (
	// ReasonCapacity 容量已满，淘汰最久未使用的条目
	ReasonCapacity EvictReason = iota
	// ReasonStale 读取时发现桶编号已过期
	ReasonStale
	// ReasonInvalidated 显式失效
	ReasonInvalidated
	// ReasonCleared 整体清空
	ReasonCleared
)

func (r EvictReason) String() string {
	switch r {
	case ReasonCapacity:
		return "capacity"
	case ReasonStale:
		return "stale"
	case ReasonInvalidated:
		return "invalidated"
	case ReasonCleared:
		return "cleared"
	default:
		return fmt.Sprintf("EvictReason(%d)", int(r))
	}
}

// Entry 缓存条目
type Entry[V any] struct {
	Value  V
	Bucket int64
}

// Option 存储选项
type Option[K comparable, V any] func(*Store[K, V])

// WithOnEvict 设置条目离开存储时的回调。
//
// 回调在调用方持锁期间同步执行，禁止在回调中访问同一个 Store。
// 覆盖写入同一个键不会触发回调。
func WithOnEvict[K comparable, V any](fn func(key K, value V, reason EvictReason)) Option[K, V] {
	return func(s *Store[K, V]) {
		s.onEvict = fn
	}
}

// Store 按桶判定新鲜度的 LRU 存储，所有操作 O(1)（Keys、Clear 除外）。
type Store[K comparable, V any] struct {
	lru       *simplelru.LRU[K, Entry[V]]
	capacity  int
	onEvict   func(key K, value V, reason EvictReason)
	reason    EvictReason
	evictions uint64
	stale     uint64
}

// New 创建存储，capacity 为正数或 Unbounded。
func New[K comparable, V any](capacity int, opts ...Option[K, V]) (*Store[K, V], error) {
	if capacity <= 0 && capacity != Unbounded {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, capacity)
	}

	s := &Store[K, V]{capacity: capacity}
	for _, opt := range opts {
		opt(s)
	}

	size := capacity
	if capacity == Unbounded {
		// simplelru 不预分配，MaxInt 等价于不限容量
		size = math.MaxInt
	}
	lru, err := simplelru.NewLRU[K, Entry[V]](size, s.evicted)
	if err != nil {
		return nil, err
	}
	s.lru = lru
	return s, nil
}

// evicted simplelru 的淘汰回调，原因由触发它的操作事先设置。
func (s *Store[K, V]) evicted(key K, e Entry[V]) {
	if s.reason == ReasonCapacity {
		s.evictions++
	}
	if s.onEvict != nil {
		s.onEvict(key, e.Value, s.reason)
	}
}

// Get 返回 key 在 nowBucket 下的新鲜条目并将其移到最近使用端。
//
// 桶编号不等于 nowBucket 的条目被删除并报告未命中。
func (s *Store[K, V]) Get(key K, nowBucket int64) (Entry[V], bool) {
	e, ok := s.lru.Peek(key)
	if !ok {
		return Entry[V]{}, false
	}
	if e.Bucket != nowBucket {
		s.stale++
		s.remove(key, ReasonStale)
		return Entry[V]{}, false
	}
	s.lru.Get(key)
	return e, true
}

// Peek 与 Get 相同，但不更新使用顺序，也不删除过期条目。
func (s *Store[K, V]) Peek(key K, nowBucket int64) (Entry[V], bool) {
	e, ok := s.lru.Peek(key)
	if !ok || e.Bucket != nowBucket {
		return Entry[V]{}, false
	}
	return e, true
}

// Put 写入或覆盖 key，并将其移到最近使用端。
//
// 写入新键且容量已满时先淘汰最久未使用的条目，返回是否发生了淘汰。
func (s *Store[K, V]) Put(key K, value V, bucket int64) bool {
	s.reason = ReasonCapacity
	return s.lru.Add(key, Entry[V]{Value: value, Bucket: bucket})
}

// Invalidate 删除 key，返回它是否存在。
func (s *Store[K, V]) Invalidate(key K) bool {
	return s.remove(key, ReasonInvalidated)
}

// Clear 删除所有条目。
func (s *Store[K, V]) Clear() {
	s.reason = ReasonCleared
	s.lru.Purge()
	s.reason = ReasonCapacity
}

func (s *Store[K, V]) remove(key K, reason EvictReason) bool {
	s.reason = reason
	ok := s.lru.Remove(key)
	s.reason = ReasonCapacity
	return ok
}

// Len 当前条目数（可能包含尚未被读取删除的过期条目）。
func (s *Store[K, V]) Len() int { return s.lru.Len() }

// Keys 按最久未使用到最近使用的顺序返回所有键。
func (s *Store[K, V]) Keys() []K { return s.lru.Keys() }

// Capacity 容量上限，Unbounded 表示不限。
func (s *Store[K, V]) Capacity() int { return s.capacity }

// Evictions 因容量被淘汰的累计条目数。
func (s *Store[K, V]) Evictions() uint64 { return s.evictions }

// StaleRemovals 因过期被惰性删除的累计条目数。
func (s *Store[K, V]) StaleRemovals() uint64 { return s.stale }
