package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"reportflow/internal/config"
	"reportflow/internal/infrastructure"
	"reportflow/pkg/contracts"
)

// globalOptions hold the persistent flags shared by every command
type globalOptions struct {
	configFile string
	envFile    string
	logLevel   string
	logFormat  string
}

// runOptions hold the pipeline flags. Unset flags leave the configured values alone.
type runOptions struct {
	outDir       string
	category     string
	headerRows   int
	workers      int
	sheetPattern string
	formats      []string
	lookupFile   string
	metricsFile  string
	traceFile    string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globalOptions{}

	root := &cobra.Command{
		Use:   config.AppName,
		Short: "Turn a multi-sheet workbook into summary and change tables",
		Long: `reportflow reads a workbook where every sheet holds one period of
observations, combines the sheets into one tidy table, attaches a category
to every entity, and writes per-category summary series and period-over-period
change figures as CSV, JSON and XLSX files.

Every run recomputes everything from the workbook.`,
		Version:       contracts.VersionString(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&g.configFile, "config", "c", "", "YAML configuration file")
	root.PersistentFlags().StringVar(&g.envFile, "env-file", "", "dotenv file with REPORTFLOW_* variables (default ./.env if present)")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&g.logFormat, "log-format", "", "log format: json or text")

	root.AddCommand(
		newSheetsCmd(),
		newRunCmd(g),
		newBatchCmd(g),
	)
	return root
}

// app is what a pipeline command needs once flags and configuration are resolved
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	telemetry *infrastructure.Telemetry
}

// setup loads configuration, applies flag overrides and starts logging and telemetry
func setup(cmd *cobra.Command, g *globalOptions, r *runOptions, args []string) (*app, error) {
	cfg, err := config.Load(config.LoadOptions{File: g.configFile, EnvFile: g.envFile})
	if err != nil {
		return nil, err
	}
	applyOverrides(cmd, cfg, g, r, args)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, err
	}

	tel, err := infrastructure.InitializeTelemetry(cfg.Telemetry, logger)
	if err != nil {
		return nil, err
	}

	logger.Debug("Configuration resolved",
		slog.String("source", cfg.Source.Path),
		slog.String("output_dir", cfg.Output.Dir),
		slog.Int("header_rows", cfg.Source.HeaderRows),
		slog.Int("workers", cfg.Source.Workers),
		slog.Any("formats", cfg.Output.Formats))

	return &app{cfg: cfg, logger: logger, telemetry: tel}, nil
}

// close flushes telemetry and the log file
func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.telemetry.Shutdown(ctx); err != nil {
		a.logger.Warn("Telemetry shutdown failed", slog.String("error", err.Error()))
	}
	infrastructure.CloseLogFile()
}

// applyOverrides copies explicitly set flags and the workbook argument over cfg
func applyOverrides(cmd *cobra.Command, cfg *config.Config, g *globalOptions, r *runOptions, args []string) {
	if len(args) > 0 {
		cfg.Source.Path = args[0]
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Logging.Level = g.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format = g.logFormat
	}
	if r == nil {
		return
	}
	if flags.Changed("out") {
		cfg.Output.Dir = r.outDir
	}
	if flags.Changed("category") {
		cfg.Changes.Category = r.category
	}
	if flags.Changed("header-rows") {
		cfg.Source.HeaderRows = r.headerRows
	}
	if flags.Changed("workers") {
		cfg.Source.Workers = r.workers
	}
	if flags.Changed("sheet-pattern") {
		cfg.Source.SheetPattern = r.sheetPattern
	}
	if flags.Changed("format") {
		cfg.Output.Formats = r.formats
	}
	if flags.Changed("lookup-file") {
		cfg.Lookup.File = r.lookupFile
	}
	if flags.Changed("metrics-file") {
		cfg.Telemetry.MetricsFile = r.metricsFile
	}
	if flags.Changed("trace-file") {
		cfg.Telemetry.TraceFile = r.traceFile
		cfg.Telemetry.Tracing = r.traceFile != ""
	}
}

// addRunFlags registers the pipeline flags shared by run and batch
func addRunFlags(cmd *cobra.Command, r *runOptions) {
	f := cmd.Flags()
	f.StringVarP(&r.outDir, "out", "o", "", "output directory")
	f.IntVar(&r.headerRows, "header-rows", config.DefaultHeaderRows, "rows above the column-name row of every sheet")
	f.IntVar(&r.workers, "workers", config.DefaultSheetWorkers, "sheets loaded in parallel")
	f.StringVar(&r.sheetPattern, "sheet-pattern", "", "regular expression selecting the sheets to load")
	f.StringSliceVar(&r.formats, "format", nil, "output formats: csv, json, xlsx")
	f.StringVar(&r.lookupFile, "lookup-file", "", "entity to category mapping file (.yaml or .csv)")
	f.StringVar(&r.metricsFile, "metrics-file", "", "write run metrics in Prometheus text format to this file")
	f.StringVar(&r.traceFile, "trace-file", "", "write trace spans as JSON to this file")
}

func printFiles(w io.Writer, files []string) {
	for _, f := range files {
		fmt.Fprintln(w, f)
	}
}
