// Package cache implements the per-session entity identity cache: within one
// unit of work, a stored record maps to exactly one in-memory instance.
//
// The cache is a lookaside table. It never loads anything; callers consult
// FindCached, load from storage on a miss, then hand the loaded instance to
// CacheEntity.
package cache

import (
	"math"
	"reflect"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/tordrt/entitymap/internal/schema"
)

// Identifiable is implemented by instances that expose their primary key.
type Identifiable interface {
	PrimaryKeyValue() any
}

// KeyFunc reads the primary-key value of instance. ok is false when the
// instance has no key yet.
type KeyFunc func(entity *schema.Entity, instance any) (key any, ok bool)

// DefaultKey understands Identifiable instances and map[string]any rows
// keyed by the primary-key column name.
func DefaultKey(entity *schema.Entity, instance any) (any, bool) {
	switch v := instance.(type) {
	case Identifiable:
		return v.PrimaryKeyValue(), true
	case map[string]any:
		pk := entity.PrimaryKey()
		if pk == nil {
			return nil, false
		}
		key, ok := v[pk.Name()]
		return key, ok
	default:
		return nil, false
	}
}

// Cache maps (entity, primary key) to a single live instance. It is open
// until Close; a closed cache ignores every call.
type Cache struct {
	store  Store
	keyOf  KeyFunc
	logger *zap.Logger
	closed atomic.Bool
}

// Option configures a Cache
type Option func(*Cache)

// WithStore sets the backing store. The default is a MapStore, suitable only
// for a cache used from one goroutine.
func WithStore(store Store) Option {
	return func(c *Cache) {
		if store != nil {
			c.store = store
		}
	}
}

// Concurrent backs the cache with a SyncStore
func Concurrent() Option {
	return WithStore(NewSyncStore())
}

// WithKeyFunc sets how primary keys are read from instances
func WithKeyFunc(fn KeyFunc) Option {
	return func(c *Cache) {
		if fn != nil {
			c.keyOf = fn
		}
	}
}

// WithLogger sets the logger for cache diagnostics
func WithLogger(logger *zap.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates an open, empty cache
func New(opts ...Option) *Cache {
	c := &Cache{
		store:  NewMapStore(),
		keyOf:  DefaultKey,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FindCached returns the instance cached for key. It misses on a nil entity,
// an empty key, an entity without a primary key, a closed cache, or when
// nothing is cached.
func (c *Cache) FindCached(entity *schema.Entity, key any) (any, bool) {
	if c.closed.Load() || entity == nil || !usableKey(key) || entity.PrimaryKey() == nil {
		return nil, false
	}

	key = normalizeKey(entity, key)
	instance, ok := c.store.Get(entity, key)
	if ok {
		c.logger.Debug("Cache hit", zap.String("entity", entity.Name()), zap.Any("key", key))
	} else {
		c.logger.Debug("Cache miss", zap.String("entity", entity.Name()), zap.Any("key", key))
	}
	return instance, ok
}

// CacheEntity stores instance under its current primary-key value, replacing
// any instance already cached for that key. It returns false when the
// instance cannot be cached, for example because it has no key yet.
func (c *Cache) CacheEntity(entity *schema.Entity, instance any) bool {
	if c.closed.Load() || entity == nil || instance == nil || entity.PrimaryKey() == nil {
		return false
	}

	key, ok := c.keyOf(entity, instance)
	if !ok || !usableKey(key) {
		c.logger.Debug("Instance has no key, not cached", zap.String("entity", entity.Name()))
		return false
	}

	c.store.Put(entity, normalizeKey(entity, key), instance)
	return true
}

// KeyOf reads the primary-key value of instance with the configured KeyFunc.
// ok is false when the instance has no key yet: the function found none, or
// the value is nil or an empty string.
func (c *Cache) KeyOf(entity *schema.Entity, instance any) (any, bool) {
	if entity == nil || instance == nil {
		return nil, false
	}
	key, ok := c.keyOf(entity, instance)
	if !ok || key == nil {
		return nil, false
	}
	if s, isString := key.(string); isString && s == "" {
		return nil, false
	}
	return key, true
}

// Clear drops every cached instance. The cache stays open.
func (c *Cache) Clear() {
	if c.closed.Load() {
		return
	}
	c.store.Clear()
}

// Close clears the cache and stops it accepting reads and writes. Closing an
// already closed cache does nothing.
func (c *Cache) Close() {
	if c.closed.Swap(true) {
		return
	}
	c.store.Clear()
	c.logger.Debug("Cache closed")
}

// Closed reports whether Close has been called
func (c *Cache) Closed() bool {
	return c.closed.Load()
}

// Len returns the number of cached instances
func (c *Cache) Len() int {
	return c.store.Len()
}

// usableKey rejects nil, empty-string and non-comparable keys; the latter
// cannot index a map. Comparability is checked on the dynamic value, so a
// struct key holding a slice in an interface field is rejected too.
func usableKey(key any) bool {
	if key == nil {
		return false
	}
	if s, ok := key.(string); ok && s == "" {
		return false
	}
	return reflect.ValueOf(key).Comparable()
}

// normalizeKey gives whole-number keys of integer and long primary keys one
// Go type, int64, so a caller's int(1) and a driver's int64(1) name the same
// instance. Other keys are used as given.
func normalizeKey(entity *schema.Entity, key any) any {
	switch entity.PrimaryKey().Type() {
	case schema.TypeInteger, schema.TypeLong:
	default:
		return key
	}

	v := reflect.ValueOf(key)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if u := v.Uint(); u <= math.MaxInt64 {
			return int64(u)
		}
	}
	return key
}
