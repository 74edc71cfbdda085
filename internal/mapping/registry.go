package mapping

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/tordrt/entitymap/internal/schema"
)

// Registry collects the entity descriptors of many registered types.
type Registry struct {
	resolver *Resolver
	logger   *zap.Logger
	entities []*schema.Entity
	names    map[string]string
}

// NewRegistry creates a registry resolving types with resolver
func NewRegistry(resolver *Resolver, logger *zap.Logger) *Registry {
	if resolver == nil {
		resolver = NewResolver()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		resolver: resolver,
		logger:   logger,
		names:    make(map[string]string),
	}
}

// Register resolves and records each entity type. Types without the entity
// marker are skipped. Every failing type is reported; one bad type does not
// stop the others from registering.
func (r *Registry) Register(types ...*Type) error {
	var errs []error
	for _, t := range types {
		if err := r.register(t); err != nil {
			r.logger.Error("Failed to register entity type", zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Registry) register(t *Type) error {
	if t == nil {
		return schema.Configurationf("type", "type cannot be nil")
	}
	if !r.resolver.IsEntity(t) {
		r.logger.Debug("Skipping non-entity type", zap.String("type", t.QualifiedName()))
		return nil
	}

	entity, err := r.resolver.ReadEntity(t)
	if err != nil {
		return fmt.Errorf("failed to register %s: %w", t.QualifiedName(), err)
	}

	key := strings.ToLower(entity.Name())
	if owner, dup := r.names[key]; dup {
		return schema.Configurationf(t.QualifiedName(),
			"entity name %q already registered by %s", entity.Name(), owner)
	}
	r.names[key] = t.QualifiedName()
	r.entities = append(r.entities, entity)

	r.logger.Info("Registered entity",
		zap.String("entity", entity.Name()),
		zap.String("owner", entity.Owner()))
	return nil
}

// Entities returns the registered descriptors in registration order
func (r *Registry) Entities() []*schema.Entity {
	return append([]*schema.Entity(nil), r.entities...)
}

// Database builds a database descriptor from everything registered so far.
func (r *Registry) Database() (*schema.Database, error) {
	return schema.NewDatabase(r.entities)
}
