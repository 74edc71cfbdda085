package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// PostgresInspector reads table layouts from PostgreSQL
type PostgresInspector struct {
	conn   *pgx.Conn
	schema string
}

// NewPostgresInspector connects to PostgreSQL and inspects schemaName
func NewPostgresInspector(ctx context.Context, connString, schemaName string) (*PostgresInspector, error) {
	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test the connection
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if schemaName == "" {
		schemaName = "public"
	}
	return &PostgresInspector{conn: conn, schema: schemaName}, nil
}

// Tables returns every base table with its columns in ordinal order
func (i *PostgresInspector) Tables(ctx context.Context) ([]LiveTable, error) {
	query := `
		SELECT c.table_name, c.column_name
		FROM information_schema.columns c
		JOIN information_schema.tables t
			ON t.table_schema = c.table_schema AND t.table_name = c.table_name
		WHERE c.table_schema = $1 AND t.table_type = 'BASE TABLE'
		ORDER BY c.table_name, c.ordinal_position
	`

	rows, err := i.conn.Query(ctx, query, i.schema)
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
func (i *PostgresInspector) Close() error {
	return i.conn.Close(context.Background())
}
