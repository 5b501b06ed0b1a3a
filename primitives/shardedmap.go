package primitives

import (
	"sync"
)

const defaultShardCount = 16

// ShardedMap is a concurrent hash map partitioned into a fixed number of
// mutex-guarded shards, keyed by a hash of K. It trades a single global lock
// (as used by the teacher's in-memory job store, `core/job_store.go`) for N
// independent locks so unrelated keys don't contend.
type ShardedMap[K comparable, V any] struct {
	shards []*mapShard[K, V]
	hash   func(K) uint64
}

type mapShard[K comparable, V any] struct {
	mu sync.RWMutex
	m  map[K]V
}

// NewShardedMap creates a ShardedMap with shardCount shards (a non-positive
// count is replaced by defaultShardCount) using hash to route keys to shards.
func NewShardedMap[K comparable, V any](shardCount int, hash func(K) uint64) *ShardedMap[K, V] {
	if shardCount <= 0 {
		shardCount = defaultShardCount
	}
	shards := make([]*mapShard[K, V], shardCount)
	for i := range shards {
		shards[i] = &mapShard[K, V]{m: make(map[K]V)}
	}
	return &ShardedMap[K, V]{shards: shards, hash: hash}
}

func (s *ShardedMap[K, V]) shardFor(k K) *mapShard[K, V] {
	return s.shards[s.hash(k)%uint64(len(s.shards))]
}

// Set stores v under k.
func (s *ShardedMap[K, V]) Set(k K, v V) {
	sh := s.shardFor(k)
	sh.mu.Lock()
	sh.m[k] = v
	sh.mu.Unlock()
}

// Get retrieves the value stored under k.
func (s *ShardedMap[K, V]) Get(k K) (v V, ok bool) {
	sh := s.shardFor(k)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	v, ok = sh.m[k]
	return v, ok
}

// Delete removes k, if present.
func (s *ShardedMap[K, V]) Delete(k K) {
	sh := s.shardFor(k)
	sh.mu.Lock()
	delete(sh.m, k)
	sh.mu.Unlock()
}

// Len returns the total number of entries across all shards. Advisory under
// concurrent mutation.
func (s *ShardedMap[K, V]) Len() int {
	total := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		total += len(sh.m)
		sh.mu.RUnlock()
	}
	return total
}

// Range calls fn for every entry, shard by shard. fn must not call back into
// the map. Iteration is not a consistent snapshot across shards.
func (s *ShardedMap[K, V]) Range(fn func(K, V) bool) {
	for _, sh := range s.shards {
		sh.mu.RLock()
		items := make([]struct {
			k K
			v V
		}, 0, len(sh.m))
		for k, v := range sh.m {
			items = append(items, struct {
				k K
				v V
			}{k, v})
		}
		sh.mu.RUnlock()
		for _, it := range items {
			if !fn(it.k, it.v) {
				return
			}
		}
	}
}
