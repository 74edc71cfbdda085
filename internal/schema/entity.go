package schema

import "strings"

// Entity describes one mapped domain type and the tables it occupies.
type Entity struct {
	name               string
	owner              string
	tables             []*Table
	discriminatorValue string
}

// EntityOption configures optional Entity attributes
type EntityOption func(*Entity)

// WithDiscriminatorValue sets the value this entity stores in its table's
// discriminator column.
func WithDiscriminatorValue(value string) EntityOption {
	return func(e *Entity) {
		e.discriminatorValue = value
	}
}

// NewEntity creates an entity descriptor. owner identifies the domain type the
// descriptor was resolved from.
func NewEntity(name, owner string, tables []*Table, opts ...EntityOption) (*Entity, error) {
	if name == "" {
		return nil, Configurationf("entity", "name cannot be empty")
	}
	if owner == "" {
		return nil, Configurationf(name, "owner type cannot be empty")
	}
	if len(tables) == 0 {
		return nil, Configurationf(name, "entity must map at least one table")
	}
	for _, t := range tables {
		if t == nil {
			return nil, Configurationf(name, "table cannot be nil")
		}
	}

	e := &Entity{
		name:   name,
		owner:  owner,
		tables: append([]*Table(nil), tables...),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Name returns the logical entity name
func (e *Entity) Name() string { return e.name }

// Owner returns the identity of the mapped domain type
func (e *Entity) Owner() string { return e.owner }

// DiscriminatorValue returns the declared discriminator value, if any
func (e *Entity) DiscriminatorValue() string { return e.discriminatorValue }

// Tables returns the tables in mapping order
func (e *Entity) Tables() []*Table {
	return append([]*Table(nil), e.tables...)
}

// Table returns the owned table with the given name, ignoring case
func (e *Entity) Table(name string) (*Table, bool) {
	for _, t := range e.tables {
		if strings.EqualFold(t.Name(), name) {
			return t, true
		}
	}
	return nil, false
}

// HasColumn reports whether any owned table has the named column
func (e *Entity) HasColumn(name string) bool {
	for _, t := range e.tables {
		if t.HasColumn(name) {
			return true
		}
	}
	return false
}

// Column finds a column by name across all owned tables
func (e *Entity) Column(name string) (*Column, bool) {
	for _, t := range e.tables {
		if col, ok := t.Column(name); ok {
			return col, true
		}
	}
	return nil, false
}

// PrimaryKey returns the first primary-key column of the primary table, or
// nil when none is declared.
func (e *Entity) PrimaryKey() *Column {
	pk := e.tables[0].PrimaryKey()
	if len(pk) == 0 {
		return nil
	}
	return pk[0]
}

// Compare orders entities by logical name, ignoring case
func (e *Entity) Compare(other *Entity) int {
	return strings.Compare(strings.ToLower(e.name), strings.ToLower(other.name))
}

func (e *Entity) String() string { return e.name }
