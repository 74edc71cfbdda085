package schema

import (
	"slices"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Database aggregates entity descriptors and indexes them by physical table.
// It is immutable; a schema change means building a new Database.
type Database struct {
	entities []*Entity
	byTable  map[string][]*Entity
	tables   []string
}

// NewDatabase indexes entities by table name. At least one entity is required;
// an entity passed more than once is kept once.
func NewDatabase(entities []*Entity) (*Database, error) {
	if len(entities) == 0 {
		return nil, Configurationf("database", "entities cannot be empty")
	}

	d := &Database{byTable: make(map[string][]*Entity)}
	for _, e := range entities {
		if e == nil {
			return nil, Configurationf("database", "entity cannot be nil")
		}
		if slices.Contains(d.entities, e) {
			continue
		}
		d.entities = append(d.entities, e)
		for _, t := range e.tables {
			key := strings.ToLower(t.Name())
			if !slices.Contains(d.byTable[key], e) {
				d.byTable[key] = append(d.byTable[key], e)
			}
		}
	}

	slices.SortFunc(d.entities, (*Entity).Compare)
	for key, list := range d.byTable {
		slices.SortFunc(list, (*Entity).Compare)
		d.tables = append(d.tables, key)
	}
	slices.Sort(d.tables)

	return d, nil
}

// Tables returns the distinct lower-cased table names in sorted order
func (d *Database) Tables() []string {
	return slices.Clone(d.tables)
}

// Entities returns every entity ordered by name
func (d *Database) Entities() []*Entity {
	return slices.Clone(d.entities)
}

// EntitiesByTable returns a fresh table-sorted map of the entities occupying
// each table. Several entities share a table under single-table inheritance.
func (d *Database) EntitiesByTable() *orderedmap.OrderedMap[string, []*Entity] {
	out := orderedmap.New[string, []*Entity](len(d.tables))
	for _, table := range d.tables {
		out.Set(table, slices.Clone(d.byTable[table]))
	}
	return out
}

// EntitiesFor returns the entities mapped to table, ignoring case. A table
// nothing maps to yields an empty result.
func (d *Database) EntitiesFor(table string) []*Entity {
	return slices.Clone(d.byTable[strings.ToLower(table)])
}

// Entity looks up an entity by logical name, ignoring case
func (d *Database) Entity(name string) (*Entity, bool) {
	for _, e := range d.entities {
		if strings.EqualFold(e.name, name) {
			return e, true
		}
	}
	return nil, false
}

// Columns returns the union of the columns of every entity sharing table, in
// entity-name then declaration order. The first declaration of a name wins.
func (d *Database) Columns(table string) []*Column {
	seen := make(map[string]bool)
	var out []*Column
	for _, e := range d.byTable[strings.ToLower(table)] {
		t, ok := e.Table(table)
		if !ok {
			continue
		}
		for _, col := range t.Columns() {
			key := strings.ToLower(col.Name())
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, col)
		}
	}
	return out
}
