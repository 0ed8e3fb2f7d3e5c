package operations

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"reportflow/internal/config"
	"reportflow/internal/dataprocessing"
	"reportflow/internal/errors"
	"reportflow/internal/infrastructure"
	"reportflow/internal/lookup"
	"reportflow/internal/validation"
	"reportflow/pkg/contracts/domain"
)

// Manager runs the pipeline stages for one configuration
type Manager struct {
	cfg       *config.Config
	logger    *slog.Logger
	tracer    trace.Tracer
	metrics   *infrastructure.RunMetrics
	validator *validation.FileValidator
	lookup    dataprocessing.CategoryLookup
}

// Option configures a Manager
type Option func(*Manager)

// WithTelemetry traces stages with the telemetry tracer and records run metrics
func WithTelemetry(t *infrastructure.Telemetry) Option {
	return func(m *Manager) {
		if t == nil {
			return
		}
		m.tracer = t.Tracer
		m.metrics = t.Metrics
	}
}

// WithLookup replaces the configured lookup sources
func WithLookup(l dataprocessing.CategoryLookup) Option {
	return func(m *Manager) {
		m.lookup = l
	}
}

// NewManager creates a manager for cfg
func NewManager(cfg *config.Config, logger *slog.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	m := &Manager{
		cfg:       cfg,
		logger:    infrastructure.WithComponent(logger, "pipeline"),
		tracer:    noop.NewTracerProvider().Tracer(infrastructure.MeterName),
		validator: validation.NewFileValidator(logger),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run executes every stage once over the whole workbook. The returned state
// is non-nil even when the run fails.
func (m *Manager) Run(ctx context.Context) (*RunState, error) {
	ctx, state, logger := m.begin(ctx, "pipeline.run")
	span := trace.SpanFromContext(ctx)
	defer span.End()

	state.Category = m.categoryFilter()

	lk, err := m.categoryLookup(ctx, logger)
	if err == nil {
		err = m.Execute(ctx, state, append(m.prepareStages(lk, logger), m.reportStages(logger)...), logger)
	}

	m.finish(ctx, state, err, logger)
	return state, err
}

// Batch prepares the combined table once, then runs the report stages per
// category into one artifact directory each. An empty categories list runs
// every category present in the data. The first state describes the shared
// preparation, the remaining ones each category.
func (m *Manager) Batch(ctx context.Context, categories []string) ([]*RunState, error) {
	ctx, parent, logger := m.begin(ctx, "pipeline.batch")
	span := trace.SpanFromContext(ctx)
	defer span.End()

	lk, err := m.categoryLookup(ctx, logger)
	if err == nil {
		err = m.Execute(ctx, parent, m.prepareStages(lk, logger), logger)
	}

	var selected []string
	if err == nil {
		selected, err = m.selectCategories(parent.Combined, categories)
	}

	states := []*RunState{parent}
	if err == nil {
		logger.InfoContext(ctx, "batch_start", slog.Int("categories", len(selected)))
		for _, category := range selected {
			label := domain.CategoryLabel(category, m.cfg.Output.NullLabel)
			child := parent.Derive(parent.ID, parent.Paths.ForCategory(label), category)
			child.Start()
			childLogger := logger.With("category", label)

			childErr := m.Execute(ctx, child, m.reportStages(childLogger), childLogger)
			m.finish(ctx, child, childErr, childLogger)
			states = append(states, child)

			parent.Files = append(parent.Files, child.Files...)
			if childErr != nil {
				err = childErr
				break
			}
		}
	}

	m.finish(ctx, parent, err, logger)
	return states, err
}

// Execute runs stages in order. A fatal stage error stops the run and the
// remaining stages are marked skipped. A non-fatal one is recorded on the
// stage and the span, and the run goes on.
func (m *Manager) Execute(ctx context.Context, state *RunState, stages []Stage, logger *slog.Logger) error {
	for _, stage := range stages {
		state.stageState(stage)
	}

	for i, stage := range stages {
		if err := ctx.Err(); err != nil {
			m.skipRemaining(state, stages[i:], "run cancelled")
			return err
		}

		st := state.Stage(stage.ID())
		logger.DebugContext(ctx, "executing_stage",
			slog.String("stage", stage.ID()),
			slog.Int("stage_number", i+1),
			slog.Int("total_stages", len(stages)))

		stageCtx, span := m.tracer.Start(ctx, "pipeline.stage."+stage.ID(),
			trace.WithAttributes(attribute.String("stage.name", stage.Name())))

		started := time.Now()
		st.Start()
		err := stage.Execute(stageCtx, state)
		m.metrics.RecordStage(stageCtx, stage.ID(), started, err)
		if err != nil {
			infrastructure.RecordError(stageCtx, err)
		}

		if errors.IsFatal(err) {
			st.Fail(err)
			span.End()

			logger.ErrorContext(ctx, "stage_failed",
				slog.String("stage", stage.ID()),
				slog.String("error_type", string(errors.TypeOf(err))),
				slog.String("error", err.Error()))
			m.skipRemaining(state, stages[i+1:], fmt.Sprintf("previous stage %s failed", stage.ID()))
			return err
		}

		st.Complete()
		if err != nil {
			st.Message = err.Error()
		}
		for k, v := range st.Metadata {
			span.SetAttributes(attribute.String("stage."+k, fmt.Sprint(v)))
		}
		span.End()

		logger.InfoContext(ctx, "stage_completed",
			slog.String("stage", stage.ID()),
			slog.Duration("duration", st.Duration()),
			slog.Any("metadata", st.Metadata))
	}
	return nil
}

// begin starts a run: it ensures a run id, opens the run span and creates the state
func (m *Manager) begin(ctx context.Context, spanName string) (context.Context, *RunState, *slog.Logger) {
	ctx = infrastructure.EnsureRunID(ctx)
	id := infrastructure.RunID(ctx)

	ctx, _ = m.tracer.Start(ctx, spanName, trace.WithAttributes(
		attribute.String("run.id", id),
		attribute.String("source.path", m.cfg.Source.Path)))

	state := NewRunState(id, config.NewPaths(m.cfg.Output.Dir))
	state.TraceID = infrastructure.TraceIDFromContext(ctx)
	state.Start()

	logger := m.logger.With("run_id", id)
	logger.InfoContext(ctx, "run_start",
		slog.String("source", m.cfg.Source.Path),
		slog.String("output_dir", state.Paths.OutputDir))
	state.Paths.LogPathResolution(logger)
	return ctx, state, logger
}

// finish closes a run: status, metrics and manifest
func (m *Manager) finish(ctx context.Context, state *RunState, err error, logger *slog.Logger) {
	if err != nil {
		state.Fail(err)
		trace.SpanFromContext(ctx).SetStatus(codes.Error, err.Error())
	} else {
		state.Complete()
	}
	m.metrics.RecordRun(ctx, err)

	if saveErr := NewManifest(state, m.cfg.Output.NullLabel).SaveToFile(state.Paths.Manifest); saveErr != nil {
		logger.WarnContext(ctx, "manifest_not_written", slog.String("error", saveErr.Error()))
	} else {
		state.Files = append(state.Files, state.Paths.Manifest)
	}

	if err != nil {
		logger.ErrorContext(ctx, "run_failed",
			slog.String("error_type", string(errors.TypeOf(err))),
			slog.String("error", err.Error()))
		return
	}
	logger.InfoContext(ctx, "run_completed",
		slog.Int("rows", state.Combined.Len()),
		slog.Int("files", len(state.Files)),
		slog.Duration("duration", state.EndTime.Sub(state.StartTime)))
}

func (m *Manager) skipRemaining(state *RunState, stages []Stage, reason string) {
	for _, stage := range stages {
		if st := state.Stage(stage.ID()); st != nil && st.Status == StageStatusPending {
			st.Skip(reason)
		}
	}
}

// prepareStages build the combined table
func (m *Manager) prepareStages(lk dataprocessing.CategoryLookup, logger *slog.Logger) []Stage {
	opts := dataprocessing.LoadOptions{
		HeaderRows: m.cfg.Source.HeaderRows,
		Schema:     m.cfg.Schema.ToSchema(),
		Logger:     logger,
	}
	return []Stage{
		NewEnumerateStage(m.cfg.Source.Path, m.cfg.Source.SheetPattern, m.validator),
		NewLoadStage(opts, m.cfg.Source.Workers, m.metrics),
		NewUnionStage(),
		NewEnrichStage(lk, m.cfg.Output.NullLabel, m.metrics, logger),
	}
}

// reportStages derive the summary and change tables and export them
func (m *Manager) reportStages(logger *slog.Logger) []Stage {
	return []Stage{
		NewAggregateStage(m.cfg.Aggregations),
		NewChangesStage(m.cfg.Changes.Metrics),
		NewExportStage(m.cfg.Output, logger),
	}
}

func (m *Manager) categoryLookup(ctx context.Context, logger *slog.Logger) (dataprocessing.CategoryLookup, error) {
	if m.lookup != nil {
		return m.lookup, nil
	}
	return lookup.Build(ctx, m.cfg.Lookup, logger)
}

// categoryFilter turns the configured change category into a filter. The
// null label selects rows without a category.
func (m *Manager) categoryFilter() *string {
	label := strings.TrimSpace(m.cfg.Changes.Category)
	if label == "" {
		return nil
	}
	if strings.EqualFold(label, m.cfg.Output.NullLabel) {
		category := domain.NullCategory
		return &category
	}
	return &label
}

// selectCategories maps requested labels onto the categories of t. Labels
// match case-insensitively and the null label names the null category. Two
// selected categories that would share an artifact directory are an error.
func (m *Manager) selectCategories(t domain.Table, labels []string) ([]string, error) {
	present := t.Categories()
	if len(labels) == 0 {
		return present, checkSlugs(present, m.cfg.Output.NullLabel)
	}

	var selected []string
	seen := make(map[string]bool)
	for _, label := range labels {
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}
		category, ok := matchCategory(present, label, m.cfg.Output.NullLabel)
		if !ok {
			return nil, errors.NewAppValidationError(fmt.Sprintf("category %q not present in the data", label))
		}
		if seen[category] {
			continue
		}
		seen[category] = true
		selected = append(selected, category)
	}
	return selected, checkSlugs(selected, m.cfg.Output.NullLabel)
}

// checkSlugs fails when two categories map to the same batch directory
func checkSlugs(categories []string, nullLabel string) error {
	owner := make(map[string]string, len(categories))
	for _, c := range categories {
		label := domain.CategoryLabel(c, nullLabel)
		slug := config.Slug(label)
		if prev, ok := owner[slug]; ok {
			return errors.NewAppValidationError(fmt.Sprintf(
				"categories %q and %q share the output directory %q", prev, label, slug))
		}
		owner[slug] = label
	}
	return nil
}

// matchCategory finds the category of present that label names
func matchCategory(present []string, label, nullLabel string) (string, bool) {
	for _, c := range present {
		if c == domain.NullCategory {
			if strings.EqualFold(label, nullLabel) {
				return c, true
			}
			continue
		}
		if strings.EqualFold(c, label) {
			return c, true
		}
	}
	return "", false
}
