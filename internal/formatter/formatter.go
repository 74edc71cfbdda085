// Package formatter renders database descriptors for people and for LLM
// prompts.
package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/entitymap/internal/schema"
)

const (
	formatMarkdown = "markdown"
	formatText     = "text"

	// DefaultFormat is used whenever no format is given.
	DefaultFormat = formatText
)

// Formatter writes a whole database descriptor somewhere
type Formatter interface {
	Format(db *schema.Database) error
}

// Reference is a relation column pointing at an entity
type Reference struct {
	Table   string
	Column  string
	Target  string
	KeyType schema.ValueType
	// TargetTable is empty when the target entity is not in the database.
	TargetTable string
}

// columnType renders a column's type, with element type for collections
func columnType(col *schema.Column) string {
	switch {
	case col.IsCollection():
		return fmt.Sprintf("collection<%s>", col.ElementType())
	case col.IsRelation():
		return fmt.Sprintf("%s → %s", col.Type(), col.Target())
	default:
		return string(col.Type())
	}
}

// entityList renders the entities sharing a table with their discriminator
// values, e.g. "Cat [cat], Dog [dog]".
func entityList(entities []*schema.Entity) string {
	parts := make([]string, len(entities))
	for i, e := range entities {
		if v := e.DiscriminatorValue(); v != "" {
			parts[i] = fmt.Sprintf("%s [%s]", e.Name(), v)
		} else {
			parts[i] = e.Name()
		}
	}
	return strings.Join(parts, ", ")
}

// References returns the relation columns stored in table
func References(db *schema.Database, table string) []Reference {
	var refs []Reference
	for _, col := range db.Columns(table) {
		if !col.IsRelation() {
			continue
		}
		ref := Reference{
			Table:   strings.ToLower(table),
			Column:  col.Name(),
			Target:  col.Target(),
			KeyType: col.Type(),
		}
		if target, ok := db.Entity(col.Target()); ok {
			if tables := target.Tables(); len(tables) > 0 {
				ref.TargetTable = strings.ToLower(tables[0].Name())
			}
		}
		refs = append(refs, ref)
	}
	return refs
}

// IncomingReferences finds every relation column, in any table, whose target
// entity lives in table.
func IncomingReferences(db *schema.Database, table string) []Reference {
	var incoming []Reference
	for _, source := range db.Tables() {
		for _, ref := range References(db, source) {
			if strings.EqualFold(ref.TargetTable, table) {
				incoming = append(incoming, ref)
			}
		}
	}
	return incoming
}

// New returns the single-stream formatter for format ("text" or "markdown").
// An empty format means DefaultFormat.
func New(format string, w io.Writer) (Formatter, error) {
	switch format {
	case formatText, "":
		return NewTextFormatter(w), nil
	case formatMarkdown:
		return NewMarkdownFormatter(w), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: text, markdown)", format)
	}
}
