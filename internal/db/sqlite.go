package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteInspector reads table layouts from a SQLite file
type SQLiteInspector struct {
	db *sql.DB
}

// NewSQLiteInspector opens the SQLite database at path
func NewSQLiteInspector(ctx context.Context, path string) (*SQLiteInspector, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteInspector{db: db}, nil
}

// Tables returns every user table with its columns in declaration order
func (i *SQLiteInspector) Tables(ctx context.Context) ([]LiveTable, error) {
	names, err := i.tableNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get table names: %w", err)
	}

	tables := make([]LiveTable, 0, len(names))
	for _, name := range names {
		columns, err := i.columns(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read columns of %s: %w", name, err)
		}
		tables = append(tables, LiveTable{Name: name, Columns: columns})
	}
	return tables, nil
}

func (i *SQLiteInspector) tableNames(ctx context.Context) ([]string, error) {
	query := `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`

	rows, err := i.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (i *SQLiteInspector) columns(ctx context.Context, table string) ([]string, error) {
	rows, err := i.db.QueryContext(ctx, "SELECT name FROM pragma_table_info(?) ORDER BY cid", table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		columns = append(columns, name)
	}
	return columns, rows.Err()
}

// Close closes the database connection
func (i *SQLiteInspector) Close() error {
	return i.db.Close()
}
