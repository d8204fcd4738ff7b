package state

import "sync"

const shardCount = 64

// Map is a string-keyed concurrent map sharded by key hash. Access to
// different keys never contends on the same lock; access to the same key is
// serialized by its shard. All per-guild and per-actor engine state
// (histories, dedup entries, lockdown flags, spam-channel records) lives in
// these.
type Map[V any] struct {
	shards [shardCount]shard[V]
}

type shard[V any] struct {
	mu    sync.RWMutex
	items map[string]V
}

func NewMap[V any]() *Map[V] {
	m := &Map[V]{}
	for i := range m.shards {
		m.shards[i].items = make(map[string]V)
	}
	return m
}

func (m *Map[V]) shardFor(key string) *shard[V] {
	return &m.shards[fnv32(key)%shardCount]
}

func (m *Map[V]) Get(key string) (V, bool) {
	s := m.shardFor(key)
	s.mu.RLock()
	v, ok := s.items[key]
	s.mu.RUnlock()
	return v, ok
}

func (m *Map[V]) Set(key string, value V) {
	s := m.shardFor(key)
	s.mu.Lock()
	s.items[key] = value
	s.mu.Unlock()
}

func (m *Map[V]) Delete(key string) {
	s := m.shardFor(key)
	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()
}

// Update applies fn to the current value for key under the shard's write
// lock and stores the result. ok reports whether a value already existed.
// This is the per-key serialization point for the history tracker.
func (m *Map[V]) Update(key string, fn func(current V, ok bool) V) V {
	s := m.shardFor(key)
	s.mu.Lock()
	current, ok := s.items[key]
	next := fn(current, ok)
	s.items[key] = next
	s.mu.Unlock()
	return next
}

// SetIfAbsent stores value only when no entry exists and reports whether it
// stored. Used as the dedup gate's atomic check-and-insert.
func (m *Map[V]) SetIfAbsent(key string, value V) bool {
	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[key]; ok {
		return false
	}
	s.items[key] = value
	return true
}

// Range visits every entry. Each shard is read-locked independently; fn must
// not call back into the map.
func (m *Map[V]) Range(fn func(key string, value V) bool) {
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.RLock()
		for k, v := range s.items {
			if !fn(k, v) {
				s.mu.RUnlock()
				return
			}
		}
		s.mu.RUnlock()
	}
}

// DeleteIf removes every entry for which pred returns true and returns the
// number removed. Used by the periodic sweeps.
func (m *Map[V]) DeleteIf(pred func(key string, value V) bool) int {
	removed := 0
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.Lock()
		for k, v := range s.items {
			if pred(k, v) {
				delete(s.items, k)
				removed++
			}
		}
		s.mu.Unlock()
	}
	return removed
}

func (m *Map[V]) Len() int {
	n := 0
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.RLock()
		n += len(s.items)
		s.mu.RUnlock()
	}
	return n
}

func fnv32(s string) uint32 {
	const (
		offset32 = 2166136261
		prime32  = 16777619
	)
	h := uint32(offset32)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= prime32
	}
	return h
}
