// Package identity generates primary-key values for entities about to be
// persisted for the first time.
package identity

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/tordrt/entitymap/internal/schema"
)

// Generator produces a new primary-key value for an entity.
type Generator interface {
	Generate(entity *schema.Entity) (any, error)
}

// GeneratorFunc adapts a function to Generator
type GeneratorFunc func(entity *schema.Entity) (any, error)

func (f GeneratorFunc) Generate(entity *schema.Entity) (any, error) {
	return f(entity)
}

// GenerationError wraps a failure of the underlying key source.
type GenerationError struct {
	Entity string
	Err    error
}

func (e *GenerationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("identity: failed to generate key for %s: %v", e.Entity, e.Err)
}

func (e *GenerationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// UUIDGenerator produces random (version 4) UUIDs. The zero value is ready to
// use and may be shared freely.
type UUIDGenerator struct{}

// Generate returns a new uuid.UUID
func (UUIDGenerator) Generate(entity *schema.Entity) (any, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, &GenerationError{Entity: entityName(entity), Err: err}
	}
	return id, nil
}

// SequenceGenerator hands out increasing int64 keys. It is safe for
// concurrent use; keys are unique per generator, not per entity.
type SequenceGenerator struct {
	next atomic.Int64
}

// NewSequenceGenerator creates a sequence whose first key is start
func NewSequenceGenerator(start int64) *SequenceGenerator {
	g := &SequenceGenerator{}
	g.next.Store(start)
	return g
}

// Generate returns the next key in the sequence
func (g *SequenceGenerator) Generate(*schema.Entity) (any, error) {
	return g.next.Add(1) - 1, nil
}

// Strategies selects a generator per entity, falling back to a default.
type Strategies struct {
	fallback Generator

	mu        sync.RWMutex
	perEntity map[string]Generator
}

// NewStrategies creates a strategy table. A nil fallback means UUIDGenerator.
func NewStrategies(fallback Generator) *Strategies {
	if fallback == nil {
		fallback = UUIDGenerator{}
	}
	return &Strategies{fallback: fallback, perEntity: make(map[string]Generator)}
}

// Use assigns g to the entity with the given logical name
func (s *Strategies) Use(entityName string, g Generator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.perEntity[strings.ToLower(entityName)] = g
}

// For returns the generator configured for entity
func (s *Strategies) For(entity *schema.Entity) Generator {
	if entity != nil {
		s.mu.RLock()
		g, ok := s.perEntity[strings.ToLower(entity.Name())]
		s.mu.RUnlock()
		if ok {
			return g
		}
	}
	return s.fallback
}

// Generate delegates to the generator configured for entity
func (s *Strategies) Generate(entity *schema.Entity) (any, error) {
	return s.For(entity).Generate(entity)
}

func entityName(e *schema.Entity) string {
	if e == nil {
		return "<unknown>"
	}
	return e.Name()
}
