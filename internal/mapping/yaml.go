package mapping

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tordrt/entitymap/internal/schema"
)

// File is the on-disk form of a mapping declaration.
type File struct {
	Package string     `yaml:"package"`
	Types   []fileType `yaml:"types"`
}

type fileType struct {
	Name               string             `yaml:"name"`
	Package            string             `yaml:"package,omitempty"`
	Entity             bool               `yaml:"entity"`
	EntityName         string             `yaml:"entity_name,omitempty"`
	Abstract           bool               `yaml:"abstract,omitempty"`
	Table              string             `yaml:"table,omitempty"`
	Extends            string             `yaml:"extends,omitempty"`
	Discriminator      *fileDiscriminator `yaml:"discriminator,omitempty"`
	DiscriminatorValue string             `yaml:"discriminator_value,omitempty"`
	Fields             []fileField        `yaml:"fields"`
}

type fileDiscriminator struct {
	Column string `yaml:"column"`
	Kind   string `yaml:"kind"`
}

type fileField struct {
	Name              string `yaml:"name"`
	Type              string `yaml:"type,omitempty"`
	ID                bool   `yaml:"id,omitempty"`
	Mapped            bool   `yaml:"mapped,omitempty"`
	Column            string `yaml:"column,omitempty"`
	Transient         bool   `yaml:"transient,omitempty"`
	Collection        bool   `yaml:"collection,omitempty"`
	ElementCollection bool   `yaml:"element_collection,omitempty"`
	ElementType       string `yaml:"element_type,omitempty"`
	References        string `yaml:"references,omitempty"`
}

// LoadFile reads a YAML mapping file
func LoadFile(path string) ([]*Type, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping file: %w", err)
	}
	types, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse mapping file %s: %w", path, err)
	}
	return types, nil
}

// Parse decodes a YAML mapping declaration into linked types, in declaration
// order. Parents and relation targets may be declared in any order.
func Parse(data []byte) ([]*Type, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}

	types := make([]*Type, 0, len(f.Types))
	byName := make(map[string]*Type, len(f.Types))

	for _, ft := range f.Types {
		if ft.Name == "" {
			return nil, schema.Configurationf("type", "name cannot be empty")
		}
		if _, dup := byName[ft.Name]; dup {
			return nil, schema.Configurationf(ft.Name, "type declared twice")
		}

		t := &Type{
			Package:            ft.Package,
			Name:               ft.Name,
			Entity:             ft.Entity,
			EntityName:         ft.EntityName,
			Abstract:           ft.Abstract,
			Table:              ft.Table,
			DiscriminatorValue: ft.DiscriminatorValue,
		}
		if t.Package == "" {
			t.Package = f.Package
		}
		if ft.Discriminator != nil {
			t.Discriminator = &Discriminator{
				Column: ft.Discriminator.Column,
				Kind:   schema.DiscriminatorKind(ft.Discriminator.Kind),
			}
		}

		for _, ff := range ft.Fields {
			field, err := decodeField(ft.Name, ff)
			if err != nil {
				return nil, err
			}
			t.Fields = append(t.Fields, field)
		}

		types = append(types, t)
		byName[ft.Name] = t
	}

	// second pass: link parents and relation targets by name
	for i, ft := range f.Types {
		t := types[i]
		if ft.Extends != "" {
			parent, ok := byName[ft.Extends]
			if !ok {
				return nil, schema.Configurationf(ft.Name, "unknown parent type %q", ft.Extends)
			}
			t.Parent = parent
		}
		for j, ff := range ft.Fields {
			if ff.References == "" {
				continue
			}
			target, ok := byName[ff.References]
			if !ok {
				return nil, schema.Configurationf(ft.Name, "field %q references unknown type %q", ff.Name, ff.References)
			}
			t.Fields[j].References = target
		}
	}

	for _, t := range types {
		if err := checkCycle(t); err != nil {
			return nil, err
		}
	}

	return types, nil
}

func decodeField(typeName string, ff fileField) (Field, error) {
	field := Field{
		Name:              ff.Name,
		ID:                ff.ID,
		Mapped:            ff.Mapped,
		Column:            ff.Column,
		Transient:         ff.Transient,
		Collection:        ff.Collection,
		ElementCollection: ff.ElementCollection,
	}
	if ff.Name == "" {
		return field, schema.Configurationf(typeName, "field name cannot be empty")
	}

	if ff.Type != "" {
		vt, ok := schema.ParseValueType(ff.Type)
		if !ok {
			return field, schema.Configurationf(typeName, "field %q has unknown type %q", ff.Name, ff.Type)
		}
		field.Type = vt
	}
	if ff.ElementType != "" {
		vt, ok := schema.ParseValueType(ff.ElementType)
		if !ok {
			return field, schema.Configurationf(typeName, "field %q has unknown element type %q", ff.Name, ff.ElementType)
		}
		field.ElementType = vt
	}
	return field, nil
}

func checkCycle(t *Type) error {
	seen := make(map[*Type]bool)
	for cur := t; cur != nil; cur = cur.Parent {
		if seen[cur] {
			return schema.Configurationf(t.Name, "inheritance cycle through %s", cur.Name)
		}
		seen[cur] = true
	}
	return nil
}
