package formatter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tordrt/entitymap/internal/schema"
)

// MultiFileFormatter writes a descriptor to one file per table in a directory
type MultiFileFormatter struct {
	OutputDir    string
	OutputFormat string // "text" or "markdown"
}

// NewMultiFileFormatter creates a new multi-file formatter
func NewMultiFileFormatter(outputDir, format string) *MultiFileFormatter {
	if format == "" {
		format = DefaultFormat
	}
	return &MultiFileFormatter{
		OutputDir:    outputDir,
		OutputFormat: format,
	}
}

// Format writes the overview and per-table files
func (f *MultiFileFormatter) Format(db *schema.Database) error {
	if err := os.MkdirAll(f.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := f.writeOverview(db); err != nil {
		return fmt.Errorf("failed to write overview: %w", err)
	}

	for _, table := range db.Tables() {
		if err := f.writeTableFile(db, table); err != nil {
			return fmt.Errorf("failed to write table file for %s: %w", table, err)
		}
	}

	return nil
}

func (f *MultiFileFormatter) writeOverview(db *schema.Database) error {
	ext := f.getFileExtension()
	filename := filepath.Join(f.OutputDir, "_overview"+ext)

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	if f.OutputFormat == formatMarkdown {
		_, _ = fmt.Fprintf(file, "# Mapping Overview\n\n")
		_, _ = fmt.Fprintf(file, "Each table has a corresponding file: `<table_name>%s`\n\n", ext)
		_, _ = fmt.Fprintf(file, "## Tables\n\n")
	} else {
		_, _ = fmt.Fprintf(file, "MAPPING OVERVIEW\n")
		_, _ = fmt.Fprintf(file, "Each table has a file: <table_name>%s\n\n", ext)
	}

	for _, table := range db.Tables() {
		if f.OutputFormat == formatMarkdown {
			_, _ = fmt.Fprintf(file, "- **%s**: %s", table, entityList(db.EntitiesFor(table)))
		} else {
			_, _ = fmt.Fprintf(file, "%s: %s", table, entityList(db.EntitiesFor(table)))
		}

		var targets []string
		for _, ref := range References(db, table) {
			if ref.TargetTable != "" {
				targets = append(targets, ref.TargetTable)
			}
		}
		if len(targets) > 0 {
			_, _ = fmt.Fprintf(file, " (references: %s)", strings.Join(targets, ", "))
		}
		_, _ = fmt.Fprintln(file)
	}

	return nil
}

func (f *MultiFileFormatter) writeTableFile(db *schema.Database, table string) error {
	filename := filepath.Join(f.OutputDir, table+f.getFileExtension())

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	incoming := IncomingReferences(db, table)

	if f.OutputFormat == formatMarkdown {
		if err := NewMarkdownFormatter(file).FormatTable(db, table); err != nil {
			return err
		}
		if len(incoming) > 0 {
			_, _ = fmt.Fprintf(file, "### Referenced by\n\n")
			for _, ref := range incoming {
				_, _ = fmt.Fprintf(file, "- %s.%s → %s\n", ref.Table, ref.Column, ref.Target)
			}
			_, _ = fmt.Fprintln(file)
		}
		return nil
	}

	if err := NewTextFormatter(file).FormatTable(db, table); err != nil {
		return err
	}
	if len(incoming) > 0 {
		_, _ = fmt.Fprintln(file)
		_, _ = fmt.Fprintln(file, "  REFERENCED BY:")
		for _, ref := range incoming {
			_, _ = fmt.Fprintf(file, "    %s.%s → %s\n", ref.Table, ref.Column, ref.Target)
		}
	}
	return nil
}

func (f *MultiFileFormatter) getFileExtension() string {
	if f.OutputFormat == formatMarkdown {
		return ".md"
	}
	return ".txt"
}
