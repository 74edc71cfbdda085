// Package db reads the tables and columns that actually exist in a live
// database and compares them with a schema.Database.
package db

import "context"

// LiveTable is a table found in a live database
type LiveTable struct {
	Name    string
	Columns []string
}

// Inspector lists the tables of a live database
type Inspector interface {
	Tables(ctx context.Context) ([]LiveTable, error)
	Close() error
}

// groupColumns folds (table, column) rows, already ordered by table, into
// LiveTables.
func groupColumns(rows [][2]string) []LiveTable {
	var tables []LiveTable
	for _, row := range rows {
		if n := len(tables); n == 0 || tables[n-1].Name != row[0] {
			tables = append(tables, LiveTable{Name: row[0]})
		}
		last := &tables[len(tables)-1]
		last.Columns = append(last.Columns, row[1])
	}
	return tables
}
