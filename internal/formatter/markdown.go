package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/entitymap/internal/schema"
)

// MarkdownFormatter formats descriptors as markdown
type MarkdownFormatter struct {
	writer io.Writer
}

// NewMarkdownFormatter creates a new markdown formatter
func NewMarkdownFormatter(w io.Writer) *MarkdownFormatter {
	return &MarkdownFormatter{writer: w}
}

// Format writes every mapped table in markdown format
func (f *MarkdownFormatter) Format(db *schema.Database) error {
	_, _ = fmt.Fprintln(f.writer, "# Entity Mapping")
	_, _ = fmt.Fprintln(f.writer)

	for _, table := range db.Tables() {
		if err := f.formatTable(db, table); err != nil {
			return err
		}
	}
	return nil
}

// FormatTable formats a single table (exported for use by multifile formatter)
func (f *MarkdownFormatter) FormatTable(db *schema.Database, table string) error {
	return f.formatTable(db, table)
}

func (f *MarkdownFormatter) formatTable(db *schema.Database, table string) error {
	entities := db.EntitiesFor(table)

	_, _ = fmt.Fprintf(f.writer, "## %s\n\n", table)
	_, _ = fmt.Fprintf(f.writer, "Entities: %s\n\n", entityList(entities))

	_, _ = fmt.Fprintln(f.writer, "### Columns")
	_, _ = fmt.Fprintln(f.writer)
	for _, col := range db.Columns(table) {
		notes := f.formatNotes(col, table, entities)
		if notes != "" {
			_, _ = fmt.Fprintf(f.writer, "- **%s:** %s, %s\n", col.Name(), columnType(col), notes)
		} else {
			_, _ = fmt.Fprintf(f.writer, "- **%s:** %s\n", col.Name(), columnType(col))
		}
	}
	_, _ = fmt.Fprintln(f.writer)

	if refs := References(db, table); len(refs) > 0 {
		_, _ = fmt.Fprintln(f.writer, "### References")
		_, _ = fmt.Fprintln(f.writer)
		for _, ref := range refs {
			if ref.TargetTable != "" {
				_, _ = fmt.Fprintf(f.writer, "- %s → %s (table %s, key %s)\n", ref.Column, ref.Target, ref.TargetTable, ref.KeyType)
			} else {
				_, _ = fmt.Fprintf(f.writer, "- %s → %s (key %s)\n", ref.Column, ref.Target, ref.KeyType)
			}
		}
		_, _ = fmt.Fprintln(f.writer)
	}

	return nil
}

// formatNotes marks primary keys and columns only some of the table's
// entities declare.
func (f *MarkdownFormatter) formatNotes(col *schema.Column, table string, entities []*schema.Entity) string {
	var notes []string
	if col.IsPrimaryKey() {
		notes = append(notes, "PK")
	}

	var owners []string
	for _, e := range entities {
		if t, ok := e.Table(table); ok && t.HasColumn(col.Name()) {
			owners = append(owners, e.Name())
		}
	}
	if len(owners) < len(entities) {
		notes = append(notes, "only "+strings.Join(owners, ", "))
	}

	return strings.Join(notes, ", ")
}
