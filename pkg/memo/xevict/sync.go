package xevict

import "sync"

// SyncStore 加锁的 Store，每个方法各自是一个临界区。
type SyncStore[K comparable, V any] struct {
	mu sync.Mutex
	s  *Store[K, V]
}

// NewSync 创建加锁的存储，参数同 New。
func NewSync[K comparable, V any](capacity int, opts ...Option[K, V]) (*SyncStore[K, V], error) {
	s, err := New(capacity, opts...)
	if err != nil {
		return nil, err
	}
	return &SyncStore[K, V]{s: s}, nil
}

// Get 见 Store.Get。
func (s *SyncStore[K, V]) Get(key K, nowBucket int64) (Entry[V], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.s.Get(key, nowBucket)
}

// Put 见 Store.Put。
func (s *SyncStore[K, V]) Put(key K, value V, bucket int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.s.Put(key, value, bucket)
}

// Invalidate 见 Store.Invalidate。
func (s *SyncStore[K, V]) Invalidate(key K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.s.Invalidate(key)
}

// Clear 见 Store.Clear。
func (s *SyncStore[K, V]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.s.Clear()
}

// Len 见 Store.Len。
func (s *SyncStore[K, V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.s.Len()
}

// Keys 见 Store.Keys。
func (s *SyncStore[K, V]) Keys() []K {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.s.Keys()
}

// Counters 返回容量淘汰数与过期删除数的快照。
func (s *SyncStore[K, V]) Counters() (evictions, stale uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.s.Evictions(), s.s.StaleRemovals()
}

// Capacity 见 Store.Capacity。
func (s *SyncStore[K, V]) Capacity() int { return s.s.Capacity() }
