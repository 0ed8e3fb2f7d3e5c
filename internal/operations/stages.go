package operations

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"reportflow/internal/config"
	"reportflow/internal/dataprocessing"
	"reportflow/internal/errors"
	"reportflow/internal/exporter"
	"reportflow/internal/infrastructure"
	"reportflow/internal/validation"
	"reportflow/pkg/contracts/domain"
)

// EnumerateStage checks the output directory is writable, then resolves the
// source workbook and lists the sheets to load
type EnumerateStage struct {
	baseStage
	source    string
	pattern   string
	validator *validation.FileValidator
}

// NewEnumerateStage creates the sheet enumerator stage
func NewEnumerateStage(source, pattern string, validator *validation.FileValidator) *EnumerateStage {
	return &EnumerateStage{
		baseStage: baseStage{id: StageEnumerate, name: "Sheet Enumerator"},
		source:    source,
		pattern:   pattern,
		validator: validator,
	}
}

// Execute implements Stage
func (s *EnumerateStage) Execute(ctx context.Context, state *RunState) error {
	if err := s.validator.ValidateOutputDirectory(state.Paths.OutputDir); err != nil {
		return err
	}

	path, err := s.validator.ResolveSource(s.source)
	if err != nil {
		return err
	}

	names, err := dataprocessing.ListSheets(path)
	if err != nil {
		return err
	}
	sheets, err := dataprocessing.FilterSheets(names, s.pattern)
	if err != nil {
		return err
	}

	state.Source = path
	state.Sheets = sheets
	st := state.Stage(s.ID())
	st.SetMetadata("sheets", len(sheets))
	st.SetMetadata("skipped", len(names)-len(sheets))
	return nil
}

// LoadStage reads every enumerated sheet
type LoadStage struct {
	baseStage
	opts    dataprocessing.LoadOptions
	workers int
	metrics *infrastructure.RunMetrics
}

// NewLoadStage creates the sheet loader stage
func NewLoadStage(opts dataprocessing.LoadOptions, workers int, metrics *infrastructure.RunMetrics) *LoadStage {
	return &LoadStage{
		baseStage: baseStage{id: StageLoad, name: "Sheet Loader"},
		opts:      opts,
		workers:   workers,
		metrics:   metrics,
	}
}

// Execute implements Stage
func (s *LoadStage) Execute(ctx context.Context, state *RunState) error {
	tables, err := dataprocessing.LoadAll(ctx, state.Source, state.Sheets, s.opts, s.workers)
	if err != nil {
		return err
	}

	rows := 0
	for _, t := range tables {
		rows += t.Len()
	}
	if s.metrics != nil {
		s.metrics.SheetsLoaded.Add(ctx, int64(len(tables)))
		s.metrics.RowsLoaded.Add(ctx, int64(rows))
	}

	state.Tables = tables
	state.Stage(s.ID()).SetMetadata("rows", rows)
	return nil
}

// UnionStage concatenates the loaded sheets
type UnionStage struct {
	baseStage
}

// NewUnionStage creates the unioner stage
func NewUnionStage() *UnionStage {
	return &UnionStage{baseStage: baseStage{id: StageUnion, name: "Unioner"}}
}

// Execute implements Stage
func (s *UnionStage) Execute(ctx context.Context, state *RunState) error {
	combined, err := dataprocessing.Union(state.Tables...)
	if err != nil {
		return err
	}
	state.Combined = combined
	state.Tables = nil
	state.Stage(s.ID()).SetMetadata("rows", combined.Len())
	return nil
}

// EnrichStage attaches a category to every row. Lookup misses come back as a
// non-fatal LookupMiss error; a real category spelled like the null label
// fails the run.
type EnrichStage struct {
	baseStage
	lookup    dataprocessing.CategoryLookup
	nullLabel string
	metrics   *infrastructure.RunMetrics
	logger    *slog.Logger
}

// NewEnrichStage creates the enricher stage. nullLabel is the output name of
// the null category.
func NewEnrichStage(lookup dataprocessing.CategoryLookup, nullLabel string, metrics *infrastructure.RunMetrics, logger *slog.Logger) *EnrichStage {
	return &EnrichStage{
		baseStage: baseStage{id: StageEnrich, name: "Enricher"},
		lookup:    lookup,
		nullLabel: nullLabel,
		metrics:   metrics,
		logger:    logger,
	}
}

// Execute implements Stage
func (s *EnrichStage) Execute(ctx context.Context, state *RunState) error {
	combined, report := dataprocessing.Enrich(state.Combined, s.lookup)
	state.Combined = combined
	state.Lookup = report

	categories := combined.Categories()
	st := state.Stage(s.ID())
	st.SetMetadata("categories", len(categories))
	st.SetMetadata("entities", len(combined.Entities()))
	st.SetMetadata("lookup_misses", len(report.Misses))

	if err := checkNullLabel(categories, s.nullLabel); err != nil {
		return err
	}

	err := report.Err()
	if err != nil {
		s.logger.WarnContext(ctx, "lookup_miss",
			slog.Int("entities", len(report.Misses)),
			slog.Int("rows", report.MissRows),
			slog.Any("names", report.Misses))
		if s.metrics != nil {
			s.metrics.LookupMisses.Add(ctx, int64(report.MissRows))
		}
	}
	return err
}

// checkNullLabel rejects a category that the null label would shadow in
// exported files, category selection and batch directories
func checkNullLabel(categories []string, nullLabel string) error {
	if nullLabel == "" {
		return nil
	}
	for _, c := range categories {
		if c != domain.NullCategory && strings.EqualFold(strings.TrimSpace(c), strings.TrimSpace(nullLabel)) {
			return errors.NewAppValidationError(fmt.Sprintf(
				"category %q is also the null-category label; set output.null_label to a label no category uses", c)).
				WithContext("null_label", nullLabel)
		}
	}
	return nil
}

// AggregateStage builds the per-category summary series
type AggregateStage struct {
	baseStage
	specs []domain.AggregateSpec
}

// NewAggregateStage creates the aggregator stage
func NewAggregateStage(specs []domain.AggregateSpec) *AggregateStage {
	return &AggregateStage{
		baseStage: baseStage{id: StageAggregate, name: "Aggregator"},
		specs:     specs,
	}
}

// Execute implements Stage
func (s *AggregateStage) Execute(ctx context.Context, state *RunState) error {
	summary, err := dataprocessing.Aggregate(state.Combined, s.specs)
	if err != nil {
		return err
	}
	state.Summary = summary
	state.Stage(s.ID()).SetMetadata("groups", len(summary.Rows))
	return nil
}

// ChangesStage computes change figures and the latest-figures extract, after
// the optional category filter
type ChangesStage struct {
	baseStage
	metrics []string
}

// NewChangesStage creates the change calculator stage
func NewChangesStage(metrics []string) *ChangesStage {
	return &ChangesStage{
		baseStage: baseStage{id: StageChanges, name: "Change Calculator"},
		metrics:   metrics,
	}
}

// Execute implements Stage
func (s *ChangesStage) Execute(ctx context.Context, state *RunState) error {
	if c := state.Category; c != nil && *c != domain.NullCategory {
		if category, ok := matchCategory(state.Combined.Categories(), *c, ""); ok {
			state.Category = &category
		}
	}

	changes, err := dataprocessing.Changes(state.Combined, dataprocessing.ChangeOptions{
		Metrics:  s.metrics,
		Category: state.Category,
	})
	if err != nil {
		return err
	}
	state.Changes = changes
	state.Latest = dataprocessing.Latest(changes)

	st := state.Stage(s.ID())
	st.SetMetadata("rows", len(changes.Rows))
	st.SetMetadata("entities", len(state.Latest.Rows))
	return nil
}

// ExportStage writes the run's tables for the presenter
type ExportStage struct {
	baseStage
	output config.OutputConfig
	logger *slog.Logger
}

// NewExportStage creates the exporter stage
func NewExportStage(output config.OutputConfig, logger *slog.Logger) *ExportStage {
	return &ExportStage{
		baseStage: baseStage{id: StageExport, name: "Exporter"},
		output:    output,
		logger:    logger,
	}
}

// Execute implements Stage
func (s *ExportStage) Execute(ctx context.Context, state *RunState) error {
	exp := exporter.NewExporter(state.Paths, s.output, s.logger)
	files, err := exp.Export(exporter.Report{
		Combined: state.Combined,
		Summary:  state.Summary,
		Changes:  state.Changes,
		Latest:   state.Latest,
	})
	state.Files = append(state.Files, files...)
	if err != nil {
		return err
	}
	state.Stage(s.ID()).SetMetadata("files", len(files))
	return nil
}
