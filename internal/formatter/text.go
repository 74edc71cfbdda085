package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/entitymap/internal/schema"
)

// TextFormatter formats descriptors as compact text
type TextFormatter struct {
	writer io.Writer
}

// NewTextFormatter creates a new text formatter
func NewTextFormatter(w io.Writer) *TextFormatter {
	return &TextFormatter{writer: w}
}

// Format writes every mapped table in compact text format
func (f *TextFormatter) Format(db *schema.Database) error {
	for i, table := range db.Tables() {
		if i > 0 {
			_, _ = fmt.Fprintln(f.writer) // Blank line between tables
		}

		if err := f.formatTable(db, table); err != nil {
			return err
		}
	}
	return nil
}

// FormatTable formats a single table (exported for use by multifile formatter)
func (f *TextFormatter) FormatTable(db *schema.Database, table string) error {
	return f.formatTable(db, table)
}

func (f *TextFormatter) formatTable(db *schema.Database, table string) error {
	columns := db.Columns(table)

	var pk []string
	for _, col := range columns {
		if col.IsPrimaryKey() {
			pk = append(pk, col.Name())
		}
	}
	pkStr := ""
	if len(pk) > 0 {
		pkStr = fmt.Sprintf(" (PK: %s)", strings.Join(pk, ", "))
	}
	_, _ = fmt.Fprintf(f.writer, "TABLE %s%s\n", table, pkStr)
	_, _ = fmt.Fprintf(f.writer, "  ENTITIES: %s\n", entityList(db.EntitiesFor(table)))

	for _, col := range columns {
		_, _ = fmt.Fprintf(f.writer, "  %s\n", f.formatColumn(col))
	}

	if refs := References(db, table); len(refs) > 0 {
		_, _ = fmt.Fprintln(f.writer)
		_, _ = fmt.Fprintln(f.writer, "  RELATIONS:")
		for _, ref := range refs {
			target := ref.Target
			if ref.TargetTable != "" {
				target = fmt.Sprintf("%s (%s)", ref.Target, ref.TargetTable)
			}
			_, _ = fmt.Fprintf(f.writer, "    %s → %s\n", ref.Column, target)
		}
	}

	return nil
}

func (f *TextFormatter) formatColumn(col *schema.Column) string {
	parts := []string{col.Name() + ":", columnType(col)}
	if col.IsPrimaryKey() {
		parts = append(parts, "PK")
	}
	return strings.Join(parts, " ")
}
