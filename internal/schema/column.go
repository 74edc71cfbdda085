package schema

// ColumnKind distinguishes plain columns from collection and relation columns.
type ColumnKind int

const (
	KindBasic ColumnKind = iota
	KindCollection
	KindRelation
)

func (k ColumnKind) String() string {
	switch k {
	case KindCollection:
		return "collection"
	case KindRelation:
		return "relation"
	default:
		return "basic"
	}
}

// Column describes one mapped attribute. Columns are immutable once built.
type Column struct {
	name        string
	valueType   ValueType
	primaryKey  bool
	kind        ColumnKind
	elementType ValueType
	target      string
}

// NewColumn creates a basic column
func NewColumn(name string, valueType ValueType, primaryKey bool) (*Column, error) {
	if name == "" {
		return nil, Configurationf("column", "name cannot be empty")
	}
	if valueType == "" {
		return nil, Configurationf(name, "column type cannot be empty")
	}
	return &Column{name: name, valueType: valueType, primaryKey: primaryKey}, nil
}

// NewCollectionColumn creates a column holding a homogeneous sequence of
// elementType values. Collection columns are never part of a primary key.
func NewCollectionColumn(name string, elementType ValueType) (*Column, error) {
	if name == "" {
		return nil, Configurationf("column", "name cannot be empty")
	}
	if elementType == "" {
		return nil, Configurationf(name, "collection element type cannot be empty")
	}
	return &Column{
		name:        name,
		valueType:   elementType,
		kind:        KindCollection,
		elementType: elementType,
	}, nil
}

// NewRelationColumn creates a foreign-key column referencing the entity named
// target. The column holds values of the target's primary-key type.
func NewRelationColumn(name, target string, keyType ValueType) (*Column, error) {
	if name == "" {
		return nil, Configurationf("column", "name cannot be empty")
	}
	if target == "" {
		return nil, Configurationf(name, "relation target cannot be empty")
	}
	if keyType == "" {
		return nil, Configurationf(name, "relation key type cannot be empty")
	}
	return &Column{name: name, valueType: keyType, kind: KindRelation, target: target}, nil
}

func (c *Column) Name() string           { return c.name }
func (c *Column) Type() ValueType        { return c.valueType }
func (c *Column) IsPrimaryKey() bool     { return c.primaryKey }
func (c *Column) Kind() ColumnKind       { return c.kind }
func (c *Column) IsCollection() bool     { return c.kind == KindCollection }
func (c *Column) IsRelation() bool       { return c.kind == KindRelation }
func (c *Column) ElementType() ValueType { return c.elementType }

// Target returns the logical name of the referenced entity for relation
// columns, empty otherwise. Resolve it with Database.Entity.
func (c *Column) Target() string { return c.target }
