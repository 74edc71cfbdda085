package db

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/tordrt/entitymap/internal/schema"
)

// MissingColumn is a mapped column absent from its live table
type MissingColumn struct {
	Table  string
	Column string
	Type   schema.ValueType
}

// Drift lists the differences between mapped and live tables. Names are
// compared case-insensitively.
type Drift struct {
	MissingTables  []string
	MissingColumns []MissingColumn
	// UnmappedTables exist live but no entity maps to them.
	UnmappedTables []string
}

// Empty reports whether the live database has everything the mapping needs
func (d *Drift) Empty() bool {
	return len(d.MissingTables) == 0 && len(d.MissingColumns) == 0
}

// Diff compares the tables a database descriptor needs with live tables.
func Diff(desc *schema.Database, live []LiveTable) *Drift {
	liveColumns := make(map[string]map[string]bool, len(live))
	for _, t := range live {
		cols := make(map[string]bool, len(t.Columns))
		for _, c := range t.Columns {
			cols[strings.ToLower(c)] = true
		}
		liveColumns[strings.ToLower(t.Name)] = cols
	}

	drift := &Drift{}
	mapped := make(map[string]bool)
	for _, table := range desc.Tables() {
		mapped[table] = true
		have, ok := liveColumns[table]
		if !ok {
			drift.MissingTables = append(drift.MissingTables, table)
			continue
		}
		for _, col := range desc.Columns(table) {
			if !have[strings.ToLower(col.Name())] {
				drift.MissingColumns = append(drift.MissingColumns, MissingColumn{
					Table:  table,
					Column: col.Name(),
					Type:   col.Type(),
				})
			}
		}
	}

	for _, t := range live {
		if !mapped[strings.ToLower(t.Name)] {
			drift.UnmappedTables = append(drift.UnmappedTables, t.Name)
		}
	}
	slices.Sort(drift.UnmappedTables)

	return drift
}

// Check inspects the live database and diffs it against desc
func Check(ctx context.Context, inspector Inspector, desc *schema.Database) (*Drift, error) {
	live, err := inspector.Tables(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect live tables: %w", err)
	}
	return Diff(desc, live), nil
}
