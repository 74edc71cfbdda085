// Package mapping turns declared domain types into schema descriptors.
//
// Types are described explicitly with Type and Field values, either built in
// code or loaded from a YAML mapping file. Parent links stand in for class
// inheritance; nothing is discovered through reflection.
package mapping

import "github.com/tordrt/entitymap/internal/schema"

// Type captures the declared shape of one domain type.
type Type struct {
	Package string
	Name    string

	// Entity marks the type as mapped. EntityName overrides the logical name.
	Entity     bool
	EntityName string

	Abstract bool
	Table    string
	Parent   *Type

	// Discriminator declares single-table inheritance for this type and its
	// subtypes. DiscriminatorValue is what instances of this type store.
	Discriminator      *Discriminator
	DiscriminatorValue string

	Fields []Field
}

// QualifiedName identifies the type, package-qualified when a package is set.
func (t *Type) QualifiedName() string {
	if t.Package == "" {
		return t.Name
	}
	return t.Package + "." + t.Name
}

// Field captures one declared attribute and its mapping hints.
type Field struct {
	Name string
	Type schema.ValueType

	ID     bool
	Mapped bool
	// Column is the explicit column name; a non-empty value also marks the
	// field as mapped.
	Column    string
	Transient bool

	// Collection is set when the field's static type is a homogeneous
	// collection. ElementCollection is the explicit marker.
	Collection        bool
	ElementCollection bool
	ElementType       schema.ValueType

	// References is the mapped type this field points to by key.
	References *Type
}

func (f Field) isCollection() bool {
	return f.Collection || f.ElementCollection
}

func (f Field) isColumn() bool {
	return f.ID || f.Mapped || f.Column != "" || f.ElementCollection || f.References != nil
}

// Discriminator declares the column distinguishing subtypes sharing a table.
type Discriminator struct {
	Column string
	Kind   schema.DiscriminatorKind
}
