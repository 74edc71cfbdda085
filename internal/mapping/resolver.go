package mapping

import (
	"fmt"
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.uber.org/zap"

	"github.com/tordrt/entitymap/internal/schema"
)

// Resolver converts declared types into entity descriptors. It is safe for
// concurrent use and caches each type's ancestor chain after first use.
type Resolver struct {
	pluralTables        bool
	discriminatorColumn string
	logger              *zap.Logger

	mu       sync.Mutex
	lineages map[*Type][]*Type
}

// Option configures a Resolver
type Option func(*Resolver)

// WithPluralTableNames pluralizes derived table names (animal -> animals).
// Explicitly declared table names are never changed.
func WithPluralTableNames() Option {
	return func(r *Resolver) {
		r.pluralTables = true
	}
}

// WithDiscriminatorColumn sets the column name used for discriminators
// declared without one.
func WithDiscriminatorColumn(name string) Option {
	return func(r *Resolver) {
		if name != "" {
			r.discriminatorColumn = name
		}
	}
}

// WithLogger sets the logger used for resolution diagnostics
func WithLogger(logger *zap.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewResolver creates a resolver
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		discriminatorColumn: DefaultDiscriminatorColumn,
		logger:              zap.NewNop(),
		lineages:            make(map[*Type][]*Type),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// IsEntity reports whether t carries the entity marker
func (r *Resolver) IsEntity(t *Type) bool {
	return t != nil && t.Entity
}

// EntityName returns the declared entity name, falling back to the type name.
func (r *Resolver) EntityName(t *Type) string {
	if t == nil {
		return ""
	}
	if t.EntityName != "" {
		return t.EntityName
	}
	return t.Name
}

// Lineage returns t's ancestor chain from the root down to t itself.
func (r *Resolver) Lineage(t *Type) ([]*Type, error) {
	if t == nil {
		return nil, schema.Configurationf("type", "type cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if chain, ok := r.lineages[t]; ok {
		return chain, nil
	}

	seen := make(map[*Type]bool)
	var chain []*Type
	for cur := t; cur != nil; cur = cur.Parent {
		if seen[cur] {
			return nil, schema.Configurationf(t.QualifiedName(), "inheritance cycle through %s", cur.QualifiedName())
		}
		seen[cur] = true
		chain = append(chain, cur)
	}
	// root first
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}

	r.lineages[t] = chain
	return chain, nil
}

// TableName returns the first explicit table name found walking from t up to
// its root, or a name derived from t's simple name.
func (r *Resolver) TableName(t *Type) (string, error) {
	chain, err := r.Lineage(t)
	if err != nil {
		return "", err
	}
	for i := len(chain) - 1; i >= 0; i-- {
		if chain[i].Table != "" {
			return chain[i].Table, nil
		}
	}
	name := tableName(t.Name, r.pluralTables)
	if name == "" {
		return "", schema.Configurationf(t.QualifiedName(), "cannot derive table name")
	}
	return name, nil
}

// Columns resolves the mapped columns of t: inherited then local fields in
// declaration order, followed by the discriminator column when the hierarchy
// declares one.
func (r *Resolver) Columns(t *Type) ([]*schema.Column, error) {
	chain, err := r.Lineage(t)
	if err != nil {
		return nil, err
	}

	fields := collectFields(chain)

	var columns []*schema.Column
	for pair := fields.Oldest(); pair != nil; pair = pair.Next() {
		f := pair.Value
		if !f.isColumn() {
			continue
		}
		col, err := r.fieldColumn(t, f)
		if err != nil {
			return nil, err
		}
		columns = append(columns, col)
	}

	if d := discriminatorOf(chain); d != nil {
		name := d.Column
		if name == "" {
			name = r.discriminatorColumn
		}
		col, err := schema.NewColumn(name, d.Kind.ValueType(), false)
		if err != nil {
			return nil, err
		}
		columns = append(columns, col)
	}

	return columns, nil
}

// ReadEntity resolves t into an entity descriptor. Types without the entity
// marker yield nil and no error.
func (r *Resolver) ReadEntity(t *Type) (*schema.Entity, error) {
	if !r.IsEntity(t) {
		return nil, nil
	}

	name := r.EntityName(t)

	chain, err := r.Lineage(t)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve lineage of %s: %w", name, err)
	}

	table, err := r.TableName(t)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve table for %s: %w", name, err)
	}

	columns, err := r.Columns(t)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve columns for %s: %w", name, err)
	}

	tbl, err := schema.NewTable(table, columns...)
	if err != nil {
		return nil, fmt.Errorf("failed to build table for %s: %w", name, err)
	}

	var opts []schema.EntityOption
	if discriminatorOf(chain) != nil {
		value := t.DiscriminatorValue
		if value == "" {
			value = name
		}
		opts = append(opts, schema.WithDiscriminatorValue(value))
	}

	entity, err := schema.NewEntity(name, t.QualifiedName(), []*schema.Table{tbl}, opts...)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("Resolved entity",
		zap.String("entity", name),
		zap.String("table", table),
		zap.Int("columns", tbl.Len()))

	return entity, nil
}

func (r *Resolver) fieldColumn(owner *Type, f Field) (*schema.Column, error) {
	name := f.Column
	if name == "" {
		name = columnName(f.Name)
	}

	switch {
	case f.isCollection():
		if f.ElementType == "" {
			return nil, schema.Configurationf(owner.QualifiedName(),
				"cannot resolve element type of collection field %q", f.Name)
		}
		return schema.NewCollectionColumn(name, f.ElementType)
	case f.References != nil:
		keyType, err := r.keyType(f.References)
		if err != nil {
			return nil, err
		}
		return schema.NewRelationColumn(name, r.EntityName(f.References), keyType)
	default:
		return schema.NewColumn(name, f.Type, f.ID)
	}
}

// keyType finds the identifier type of a relation target without resolving
// the whole target, so mutually referencing types do not recurse.
func (r *Resolver) keyType(target *Type) (schema.ValueType, error) {
	chain, err := r.Lineage(target)
	if err != nil {
		return "", err
	}
	fields := collectFields(chain)
	for pair := fields.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value.ID {
			return pair.Value.Type, nil
		}
	}
	return "", schema.Configurationf(target.QualifiedName(), "relation target declares no identifier")
}

// collectFields merges declared fields root first. A field redeclared lower in
// the chain replaces the inherited entry in place; transient fields are skipped.
func collectFields(chain []*Type) *orderedmap.OrderedMap[string, Field] {
	fields := orderedmap.New[string, Field]()
	for _, t := range chain {
		for _, f := range t.Fields {
			if f.Transient {
				continue
			}
			fields.Set(f.Name, f)
		}
	}
	return fields
}

// discriminatorOf returns the discriminator declared on the most-derived
// concrete type of the chain.
func discriminatorOf(chain []*Type) *Discriminator {
	for i := len(chain) - 1; i >= 0; i-- {
		if chain[i].Abstract {
			continue
		}
		if chain[i].Discriminator != nil {
			return chain[i].Discriminator
		}
	}
	return nil
}
