// Package session is a minimal unit of work over a storage backend. It shows
// how a backend drives the identity cache and key generators: consult the
// cache, load on a miss, cache what was loaded.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/tordrt/entitymap/internal/cache"
	"github.com/tordrt/entitymap/internal/identity"
	"github.com/tordrt/entitymap/internal/schema"
)

var (
	ErrNotFound = errors.New("entity not found")
	ErrClosed   = errors.New("session closed")
)

// Loader is the storage backend a session delegates I/O to.
type Loader interface {
	// Load returns the stored instance for key, or nil when none exists.
	Load(ctx context.Context, entity *schema.Entity, key any) (any, error)
	Insert(ctx context.Context, entity *schema.Entity, instance any) error
}

// KeyAssigner is implemented by instances that accept a generated key.
type KeyAssigner interface {
	SetPrimaryKeyValue(key any)
}

// Session is one unit of work.
type Session struct {
	loader     Loader
	cache      *cache.Cache
	generators *identity.Strategies
	logger     *zap.Logger

	closeOnce sync.Once
}

// Option configures a Session
type Option func(*Session)

// WithCache sets the identity cache. The default is a confined cache.
func WithCache(c *cache.Cache) Option {
	return func(s *Session) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithGenerators sets the key generation strategies
func WithGenerators(g *identity.Strategies) Option {
	return func(s *Session) {
		if g != nil {
			s.generators = g
		}
	}
}

// WithLogger sets the session logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New opens a session over loader
func New(loader Loader, opts ...Option) *Session {
	s := &Session{
		loader:     loader,
		generators: identity.NewStrategies(nil),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		s.cache = cache.New(cache.WithLogger(s.logger))
	}
	return s
}

// Find returns the instance stored under key, loading it only when the
// cache misses. Repeated finds of one key return the same instance.
func (s *Session) Find(ctx context.Context, entity *schema.Entity, key any) (any, error) {
	if s.cache.Closed() {
		return nil, ErrClosed
	}
	if entity == nil {
		return nil, fmt.Errorf("entity is required")
	}

	if instance, ok := s.cache.FindCached(entity, key); ok {
		return instance, nil
	}

	instance, err := s.loader.Load(ctx, entity, key)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", entity.Name(), err)
	}
	if instance == nil {
		return nil, ErrNotFound
	}

	s.cache.CacheEntity(entity, instance)
	return instance, nil
}

// Persist inserts a new instance, generating its key first when the cache's
// key function finds none and the instance can accept one.
func (s *Session) Persist(ctx context.Context, entity *schema.Entity, instance any) error {
	if s.cache.Closed() {
		return ErrClosed
	}
	if entity == nil || instance == nil {
		return fmt.Errorf("entity and instance are required")
	}

	if _, ok := s.cache.KeyOf(entity, instance); !ok {
		if err := s.assignKey(entity, instance); err != nil {
			return err
		}
	}

	if err := s.loader.Insert(ctx, entity, instance); err != nil {
		return fmt.Errorf("failed to insert %s: %w", entity.Name(), err)
	}

	if !s.cache.CacheEntity(entity, instance) {
		s.logger.Warn("Persisted instance could not be cached", zap.String("entity", entity.Name()))
	}
	return nil
}

func (s *Session) assignKey(entity *schema.Entity, instance any) error {
	key, err := s.generators.Generate(entity)
	if err != nil {
		return err
	}

	switch v := instance.(type) {
	case KeyAssigner:
		v.SetPrimaryKeyValue(key)
	case map[string]any:
		pk := entity.PrimaryKey()
		if pk == nil {
			return schema.Configurationf(entity.Name(), "no primary key column to assign")
		}
		v[pk.Name()] = key
	default:
		return fmt.Errorf("cannot assign generated key to %T", instance)
	}

	s.logger.Debug("Generated key", zap.String("entity", entity.Name()), zap.Any("key", key))
	return nil
}

// Clear drops every cached instance; the session stays open.
func (s *Session) Clear() {
	s.cache.Clear()
}

// Close ends the unit of work and clears its cache.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.cache.Close()
		s.logger.Debug("Session closed")
	})
}
