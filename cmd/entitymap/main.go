package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tordrt/entitymap"
	"github.com/tordrt/entitymap/internal/config"
	"github.com/tordrt/entitymap/internal/db"
	"github.com/tordrt/entitymap/internal/formatter"
)

type flags struct {
	configPath string
	mapping    string
	outputFile string
	outputDir  string
	format     string
	dbURL      string
	schemaName string
	exclude    string
}

func newRootCmd() *cobra.Command {
	f := &flags{}

	rootCmd := &cobra.Command{
		Use:           "entitymap",
		Short:         "Resolve persistence mappings into entity descriptors",
		Long:          `entitymap resolves YAML persistence mappings into per-table entity descriptors, renders them in a compact, token-efficient format for LLMs, and checks them against live PostgreSQL, MySQL, or SQLite databases.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&f.configPath, "config", "c", "entitymap.yaml", "Configuration file (missing file means defaults)")
	rootCmd.PersistentFlags().StringVarP(&f.mapping, "mapping", "m", "", "Mapping file (required)")
	_ = rootCmd.MarkPersistentFlagRequired("mapping")

	describeCmd := &cobra.Command{
		Use:   "describe",
		Short: "Print the resolved entity descriptors",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDescribe(cmd.OutOrStdout(), f)
		},
	}
	describeCmd.Flags().StringVarP(&f.outputFile, "output", "o", "", "Output file (default: stdout)")
	describeCmd.Flags().StringVarP(&f.outputDir, "output-dir", "d", "", "Output directory for multi-file output")
	describeCmd.Flags().StringVarP(&f.format, "format", "f", formatter.DefaultFormat, "Output format: text or markdown")

	driftCmd := &cobra.Command{
		Use:   "drift",
		Short: "Compare the resolved descriptors with a live database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDrift(cmd.Context(), cmd.OutOrStdout(), f)
		},
	}
	driftCmd.Flags().StringVar(&f.dbURL, "db-url", "", "Database URL: postgres://, mysql:// or sqlite:// (required)")
	driftCmd.Flags().StringVarP(&f.schemaName, "schema", "s", "", "Database schema name (default: public for PostgreSQL)")
	driftCmd.Flags().StringVarP(&f.exclude, "exclude", "e", "", "Live tables to ignore (comma-separated, optional)")
	_ = driftCmd.MarkFlagRequired("db-url")

	rootCmd.AddCommand(describeCmd, driftCmd)
	return rootCmd
}

// setup loads configuration and builds the logger. Logs go to stderr so they
// never mix with descriptor output.
func setup(f *flags) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, nil, err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.Encoding = "console"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return zc.Build()
}

func runDescribe(stdout io.Writer, f *flags) error {
	cfg, logger, err := setup(f)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if f.outputDir != "" && f.outputFile != "" {
		return fmt.Errorf("cannot use both --output-dir and --output flags")
	}

	d, err := entitymap.LoadMapping(f.mapping, entitymap.OptionsFromConfig(cfg, logger))
	if err != nil {
		return err
	}

	out := &entitymap.OutputOptions{Writer: stdout, OutputDir: f.outputDir, Format: f.format}
	if f.outputFile != "" {
		file, err := os.Create(f.outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() {
			if err := file.Close(); err != nil {
				logger.Warn("Failed to close output file", zap.Error(err))
			}
		}()
		out.Writer = file
	}

	if err := entitymap.FormatDatabase(d, out); err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	return nil
}

func runDrift(ctx context.Context, stdout io.Writer, f *flags) error {
	cfg, logger, err := setup(f)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	opts := entitymap.OptionsFromConfig(cfg, logger)
	opts.SchemaName = f.schemaName
	opts.ExcludeTables = splitList(f.exclude)

	d, err := entitymap.LoadMapping(f.mapping, opts)
	if err != nil {
		return err
	}

	drift, err := entitymap.CheckDrift(ctx, f.dbURL, d, opts)
	if err != nil {
		return err
	}

	writeDrift(stdout, drift)
	if !drift.Empty() {
		return fmt.Errorf("live database is missing %d tables and %d columns",
			len(drift.MissingTables), len(drift.MissingColumns))
	}
	return nil
}

func writeDrift(w io.Writer, drift *db.Drift) {
	if drift.Empty() && len(drift.UnmappedTables) == 0 {
		_, _ = fmt.Fprintln(w, "OK: live database matches the mapping")
		return
	}
	for _, table := range drift.MissingTables {
		_, _ = fmt.Fprintf(w, "MISSING TABLE %s\n", table)
	}
	for _, col := range drift.MissingColumns {
		_, _ = fmt.Fprintf(w, "MISSING COLUMN %s.%s: %s\n", col.Table, col.Column, col.Type)
	}
	for _, table := range drift.UnmappedTables {
		_, _ = fmt.Fprintf(w, "UNMAPPED TABLE %s\n", table)
	}
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
