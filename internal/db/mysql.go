package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// MySQLInspector reads table layouts from MySQL
type MySQLInspector struct {
	db         *sql.DB
	schemaName string
}

// NewMySQLInspector connects to MySQL. An empty schemaName means the database
// named in the DSN.
func NewMySQLInspector(ctx context.Context, dsn, schemaName string) (*MySQLInspector, error) {
	if schemaName == "" {
		name, err := ParseDatabaseName(dsn)
		if err != nil {
			return nil, err
		}
		schemaName = name
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &MySQLInspector{db: db, schemaName: schemaName}, nil
}

// ParseDatabaseName extracts the database name from a MySQL DSN
func ParseDatabaseName(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("failed to parse MySQL DSN: %w", err)
	}
	if cfg.DBName == "" {
		return "", fmt.Errorf("MySQL DSN names no database")
	}
	return cfg.DBName, nil
}

// Tables returns every base table with its columns in ordinal order
func (i *MySQLInspector) Tables(ctx context.Context) ([]LiveTable, error) {
	query := `
		SELECT c.table_name, c.column_name
		FROM information_schema.columns c
		JOIN information_schema.tables t
			ON t.table_schema = c.table_schema AND t.table_name = c.table_name
		WHERE c.table_schema = ? AND t.table_type = 'BASE TABLE'
		ORDER BY c.table_name, c.ordinal_position
	`

	rows, err := i.db.QueryContext(ctx, query, i.schemaName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pairs [][2]string
	for rows.Next() {
		var table, column string
		if err := rows.Scan(&table, &column); err != nil {
			return nil, err
		}
		pairs = append(pairs, [2]string{table, column})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return groupColumns(pairs), nil
}

// Close closes the database connection
func (i *MySQLInspector) Close() error {
	return i.db.Close()
}
