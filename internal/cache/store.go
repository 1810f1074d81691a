package cache

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// sweepLimit bounds how many entries Set inspects for opportunistic eviction.
const sweepLimit = 8

type entry[V any] struct {
	value     V
	expiresAt time.Time // zero means no expiry
}

func (e *entry[V]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Stats is a point-in-time copy of a Store's counters.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Sets      uint64
	Evictions uint64
}

// Store is a thread-safe map from string keys to values of type V with a
// single store-wide TTL.
type Store[V any] struct {
	mu   sync.RWMutex
	data map[string]*entry[V]
	ttl  time.Duration
	now  func() time.Time // injectable for deterministic tests

	hits      atomic.Uint64
	misses    atomic.Uint64
	sets      atomic.Uint64
	evictions atomic.Uint64
}

// New creates a Store with the given TTL. A zero TTL disables expiry.
func New[V any](ttl time.Duration) *Store[V] {
	return &Store[V]{
		data: make(map[string]*entry[V]),
		ttl:  ttl,
		now:  time.Now,
	}
}

// WithClock replaces the store's time source. It returns s for chaining and
// must be called before the store is shared.
func (s *Store[V]) WithClock(now func() time.Time) *Store[V] {
	s.now = now
	return s
}

// TTL returns the store-wide time-to-live.
func (s *Store[V]) TTL() time.Duration { return s.ttl }

// Get returns the value for key and whether a live entry was found.
// An expired entry is reported as absent.
func (s *Store[V]) Get(key string) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.lookup(key, s.now())
	if ok {
		s.hits.Add(1)
	} else {
		s.misses.Add(1)
	}
	return v, ok
}

// Peek is Get without updating the hit/miss counters. It is meant for
// internal readers such as metrics and periodic pushes.
func (s *Store[V]) Peek(key string) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lookup(key, s.now())
}

// Set inserts or replaces the value for key and resets its expiry.
func (s *Store[V]) Set(key string, v V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store(key, v, s.now())
}

// Update atomically replaces the value for key with fn(current, found).
// found is false when the key is absent or expired, in which case current is
// the zero value. fn runs with the store locked and must not call back into s.
func (s *Store[V]) Update(key string, fn func(cur V, found bool) V) V {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	cur, ok := s.lookup(key, now)
	if ok {
		s.hits.Add(1)
	} else {
		s.misses.Add(1)
	}
	next := fn(cur, ok)
	s.store(key, next, now)
	return next
}

// Delete removes key. Deleting a missing key is a no-op.
func (s *Store[V]) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
}

// Len returns the number of entries held, including expired ones that have
// not been evicted yet.
func (s *Store[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Stats returns a copy of the store's counters.
func (s *Store[V]) Stats() Stats {
	return Stats{
		Hits:      s.hits.Load(),
		Misses:    s.misses.Load(),
		Sets:      s.sets.Load(),
		Evictions: s.evictions.Load(),
	}
}

// Evict removes every entry that is expired at now and returns how many were
// removed.
func (s *Store[V]) Evict(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for k, e := range s.data {
		if e.expired(now) {
			delete(s.data, k)
			removed++
		}
	}
	s.evictions.Add(uint64(removed))
	return removed
}

// Run starts the background eviction loop. It ticks at half the TTL
// (minimum 1 second) and blocks until ctx is cancelled. With a zero TTL
// nothing can expire, so Run only waits for cancellation.
func (s *Store[V]) Run(ctx context.Context) {
	if s.ttl <= 0 {
		<-ctx.Done()
		return
	}
	interval := s.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := s.Evict(s.now()); n > 0 {
				slog.Debug("cache: evicted expired entries", "count", n)
			}
		}
	}
}

// lookup must be called with s.mu held.
func (s *Store[V]) lookup(key string, now time.Time) (V, bool) {
	e, ok := s.data[key]
	if !ok || e.expired(now) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// store must be called with s.mu held for writing.
func (s *Store[V]) store(key string, v V, now time.Time) {
	e := &entry[V]{value: v}
	if s.ttl > 0 {
		e.expiresAt = now.Add(s.ttl)
	}
	s.data[key] = e
	s.sets.Add(1)
	s.sweep(key, now)
}

// sweep drops up to sweepLimit expired entries other than keep.
func (s *Store[V]) sweep(keep string, now time.Time) {
	if s.ttl <= 0 {
		return
	}
	seen := 0
	for k, e := range s.data {
		if seen == sweepLimit {
			return
		}
		seen++
		if k != keep && e.expired(now) {
			delete(s.data, k)
			s.evictions.Add(1)
		}
	}
}
