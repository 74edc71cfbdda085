package schema

import (
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Table is a named, insertion-ordered set of columns. Column names are unique
// case-insensitively.
type Table struct {
	name    string
	columns *orderedmap.OrderedMap[string, *Column]
}

// NewTable creates a table from columns in order. A later column whose name
// collides with an earlier one replaces it in place.
func NewTable(name string, columns ...*Column) (*Table, error) {
	if name == "" {
		return nil, Configurationf("table", "name cannot be empty")
	}
	if len(columns) == 0 {
		return nil, Configurationf(name, "table cannot be empty")
	}

	set := orderedmap.New[string, *Column](len(columns))
	for _, col := range columns {
		if col == nil {
			return nil, Configurationf(name, "column cannot be nil")
		}
		set.Set(strings.ToLower(col.Name()), col)
	}

	return &Table{name: name, columns: set}, nil
}

// Name returns the physical table name
func (t *Table) Name() string { return t.name }

// Columns returns the columns in declaration order
func (t *Table) Columns() []*Column {
	out := make([]*Column, 0, t.columns.Len())
	for pair := t.columns.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

// Column looks up a column by name, ignoring case
func (t *Table) Column(name string) (*Column, bool) {
	return t.columns.Get(strings.ToLower(name))
}

// HasColumn reports whether the table has a column with the given name
func (t *Table) HasColumn(name string) bool {
	_, ok := t.Column(name)
	return ok
}

// PrimaryKey returns the columns flagged as primary key, in declaration order.
func (t *Table) PrimaryKey() []*Column {
	var pk []*Column
	for pair := t.columns.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value.IsPrimaryKey() {
			pk = append(pk, pair.Value)
		}
	}
	return pk
}

// Len returns the number of columns
func (t *Table) Len() int { return t.columns.Len() }
