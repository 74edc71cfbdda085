package cache

import (
	"sync"

	"github.com/tordrt/entitymap/internal/schema"
)

// Store is the two-level entity -> key -> instance table behind a Cache.
type Store interface {
	Get(entity *schema.Entity, key any) (any, bool)
	Put(entity *schema.Entity, key, instance any)
	Clear()
	Len() int
}

// MapStore is an unsynchronized Store for caches confined to one goroutine.
type MapStore struct {
	entries map[*schema.Entity]map[any]any
}

// NewMapStore creates an empty MapStore
func NewMapStore() *MapStore {
	return &MapStore{entries: make(map[*schema.Entity]map[any]any)}
}

func (s *MapStore) Get(entity *schema.Entity, key any) (any, bool) {
	byKey, ok := s.entries[entity]
	if !ok {
		return nil, false
	}
	instance, ok := byKey[key]
	return instance, ok
}

func (s *MapStore) Put(entity *schema.Entity, key, instance any) {
	byKey, ok := s.entries[entity]
	if !ok {
		byKey = make(map[any]any)
		s.entries[entity] = byKey
	}
	byKey[key] = instance
}

func (s *MapStore) Clear() {
	clear(s.entries)
}

func (s *MapStore) Len() int {
	n := 0
	for _, byKey := range s.entries {
		n += len(byKey)
	}
	return n
}

// SyncStore is a Store safe for concurrent use.
type SyncStore struct {
	mu    sync.RWMutex
	inner *MapStore
}

// NewSyncStore creates an empty SyncStore
func NewSyncStore() *SyncStore {
	return &SyncStore{inner: NewMapStore()}
}

func (s *SyncStore) Get(entity *schema.Entity, key any) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inner.Get(entity, key)
}

func (s *SyncStore) Put(entity *schema.Entity, key, instance any) {
	s.mu.Lock()
	s.inner.Put(entity, key, instance)
	s.mu.Unlock()
}

func (s *SyncStore) Clear() {
	s.mu.Lock()
	s.inner.Clear()
	s.mu.Unlock()
}

func (s *SyncStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inner.Len()
}
