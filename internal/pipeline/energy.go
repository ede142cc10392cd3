package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"labpulse/internal/config"
	"labpulse/internal/dataprocessing"
	apperrors "labpulse/internal/errors"
	"labpulse/internal/exporter"
	"labpulse/internal/infrastructure"
	"labpulse/pkg/contracts/domain"
)

// Aggregate names of the energy run
const (
	DailyTotals      = "daily_totals"
	WeeklyTotals     = "weekly_totals"
	BuildingSummary  = "building_summary"
	DailyByBuilding  = "daily_by_building"
	WeeklyByBuilding = "weekly_by_building"
)

// EnergySpecs returns the aggregates computed over meter readings
func EnergySpecs(valueColumn, entityColumn string) []domain.GroupSpec {
	return []domain.GroupSpec{
		{Name: DailyTotals, ValueColumn: valueColumn, Bucket: domain.GranularityDay},
		{Name: WeeklyTotals, ValueColumn: valueColumn, Bucket: domain.GranularityWeek},
		{Name: BuildingSummary, ValueColumn: valueColumn, CategoryColumn: entityColumn},
		{Name: DailyByBuilding, ValueColumn: valueColumn, Bucket: domain.GranularityDay, CategoryColumn: entityColumn},
		{Name: WeeklyByBuilding, ValueColumn: valueColumn, Bucket: domain.GranularityWeek, CategoryColumn: entityColumn},
	}
}

// EnergyResult is everything one energy run computed
type EnergyResult struct {
	Ingest     *dataprocessing.IngestResult
	Aggregates []domain.Aggregate
	Registry   *dataprocessing.EntityRegistry
	Summary    dataprocessing.ExecutiveSummary
	// WeeklyKeys orders WeeklyAverages, the mean weekly total per entity.
	WeeklyKeys     []string
	WeeklyAverages map[string]float64
	Files          []string
	Stages         []*StageState
}

// Aggregate returns the named aggregate of the run
func (r *EnergyResult) Aggregate(name string) (domain.Aggregate, bool) {
	for _, agg := range r.Aggregates {
		if agg.Spec.Name == name {
			return agg, true
		}
	}
	return domain.Aggregate{}, false
}

// EnergyPipeline ingests meter files, aggregates them and writes the
// campus reports
type EnergyPipeline struct {
	cfg       config.IngestConfig
	loc       *time.Location
	paths     *config.Paths
	telemetry *infrastructure.Telemetry
	out       io.Writer
	logger    *slog.Logger
}

// NewEnergyPipeline creates an energy pipeline. Console output such as the
// per-building reports goes to out. telemetry may be nil.
func NewEnergyPipeline(cfg *config.Config, paths *config.Paths, telemetry *infrastructure.Telemetry, out io.Writer, logger *slog.Logger) *EnergyPipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if out == nil {
		out = io.Discard
	}
	return &EnergyPipeline{
		cfg:       cfg.Ingest,
		loc:       cfg.TimeLocation(),
		paths:     paths,
		telemetry: telemetry,
		out:       out,
		logger:    infrastructure.WithComponent(logger, "energy"),
	}
}

// Run executes ingest, aggregate, model and report in order. Only
// configuration problems and output failures abort the run.
func (p *EnergyPipeline) Run(ctx context.Context) (*EnergyResult, error) {
	result := &EnergyResult{}
	runner := NewRunner(p.telemetry, p.logger)

	err := runner.Run(ctx,
		Stage{ID: StageIngest, Run: func(ctx context.Context) error {
			return p.ingest(ctx, result)
		}},
		Stage{ID: StageAggregate, Run: func(ctx context.Context) error {
			p.aggregate(ctx, result)
			return nil
		}},
		Stage{ID: StageModel, Run: func(ctx context.Context) error {
			p.model(ctx, result)
			return nil
		}},
		Stage{ID: StageReport, Run: func(ctx context.Context) error {
			return p.report(ctx, result)
		}},
	)
	result.Stages = runner.States()
	return result, err
}

func (p *EnergyPipeline) ingest(ctx context.Context, result *EnergyResult) error {
	opts := dataprocessing.IngestOptions{
		Parse: dataprocessing.ParseOptions{
			Delimiter:       delimiter(p.cfg.Delimiter),
			TimestampColumn: p.cfg.TimestampColumn,
			RequiredColumns: p.cfg.RequiredColumns,
			Location:        p.loc,
		},
		EntityColumn: p.cfg.EntityColumn,
		PeriodColumn: p.cfg.PeriodColumn,
	}
	if p.cfg.GenerateSample {
		opts.Sample = dataprocessing.NewSampleGenerator(p.cfg.TimestampColumn, p.cfg.ValueColumn, p.cfg.SampleSeed, p.logger)
	}

	var metrics *infrastructure.PipelineMetrics
	if p.telemetry != nil {
		metrics = p.telemetry.Pipeline
	}

	ingested, err := dataprocessing.NewIngestor(opts, metrics, p.logger).Ingest(ctx, p.paths.DataDir, p.cfg.Pattern)
	if err != nil {
		return err
	}
	result.Ingest = ingested

	for _, f := range ingested.Generated {
		fmt.Fprintf(p.out, "Generated sample file %s\n", f)
	}
	for _, s := range ingested.FilesSkipped {
		fmt.Fprintf(p.out, "Skipped %s: %s\n", s.File, s.Reason)
	}
	return nil
}

func (p *EnergyPipeline) aggregate(ctx context.Context, result *EnergyResult) {
	agg := dataprocessing.NewAggregator(p.logger)
	result.Aggregates = agg.AggregateAll(ctx, result.Ingest.Table, EnergySpecs(p.cfg.ValueColumn, p.cfg.EntityColumn))

	for _, a := range result.Aggregates {
		if p.telemetry != nil {
			p.telemetry.RecordGroups(ctx, a.Spec.Name, a.Len())
		}
		if !a.Computable {
			p.logger.WarnContext(ctx, "Aggregate not computable",
				slog.String("aggregate", a.Spec.Name),
				slog.String("reason", a.Reason))
		}
	}

	if weekly, ok := result.Aggregate(WeeklyByBuilding); ok {
		result.WeeklyKeys, result.WeeklyAverages = dataprocessing.AverageByCategory(weekly)
	}
}

func (p *EnergyPipeline) model(ctx context.Context, result *EnergyResult) {
	table := result.Ingest.Table
	result.Registry = dataprocessing.BuildRegistry(table, p.cfg.EntityColumn, p.cfg.ValueColumn, p.cfg.Unit)
	for _, line := range result.Registry.Reports() {
		fmt.Fprintln(p.out, line)
	}

	byBuilding, _ := result.Aggregate(BuildingSummary)
	result.Summary = dataprocessing.NewSummarizer(p.cfg.ValueColumn, p.cfg.Unit, p.logger).
		Summarize(ctx, table, byBuilding)

	p.logger.InfoContext(ctx, "Built entity registry", slog.Int("entities", result.Registry.Len()))
}

func (p *EnergyPipeline) report(ctx context.Context, result *EnergyResult) error {
	table := result.Ingest.Table
	csv := exporter.NewCSVWriter(p.paths, p.logger)

	if err := exporter.NewTableExporter(csv, p.logger).Export(ctx, config.CleanedEnergyCSV, table); err != nil {
		return apperrors.NewStorageError("failed to export cleaned data", err)
	}
	result.Files = append(result.Files, config.CleanedEnergyCSV)

	aggExporter := exporter.NewAggregateExporter(csv, p.logger)
	for _, agg := range result.Aggregates {
		name := agg.Spec.Name + ".csv"
		if err := aggExporter.Export(ctx, name, agg); err != nil {
			return apperrors.NewStorageError("failed to export "+name, err)
		}
		result.Files = append(result.Files, name)
	}

	if err := exporter.NewSummaryWriter(p.logger).WriteExecutiveSummary(ctx, p.paths.Output(config.SummaryTXT), result.Summary); err != nil {
		return apperrors.NewStorageError("failed to write summary", err)
	}
	result.Files = append(result.Files, config.SummaryTXT)
	fmt.Fprint(p.out, exporter.RenderExecutiveSummary(result.Summary))

	if table.Len() == 0 {
		fmt.Fprintln(p.out, "No data available for visualization.")
	} else {
		if err := p.dashboard(ctx, result); err != nil {
			return apperrors.NewStorageError("failed to build dashboard", err)
		}
		result.Files = append(result.Files, config.DashboardXLSX)
	}

	lp := exporter.NewLineProtocolExporter(exporter.LineProtocolOptions{
		Measurement: "energy",
		ValueColumn: p.cfg.ValueColumn,
		TagColumns:  []string{p.cfg.EntityColumn, p.cfg.PeriodColumn},
	}, p.logger)
	if err := lp.Export(ctx, p.paths.Output(config.ReadingsLP), table); err != nil {
		return apperrors.NewStorageError("failed to export line protocol", err)
	}
	result.Files = append(result.Files, config.ReadingsLP)

	return nil
}

// dashboard draws the daily trend, average weekly usage and hour-of-day
// scatter onto one sheet, backed by a data sheet per chart
func (p *EnergyPipeline) dashboard(ctx context.Context, result *EnergyResult) error {
	wb := exporter.NewWorkbook(p.logger)
	front, err := newChartSheet(wb, "Dashboard")
	if err != nil {
		return err
	}
	unit := p.cfg.Unit

	if daily, ok := result.Aggregate(DailyByBuilding); ok && daily.Len() > 0 {
		pivot := exporter.PivotAggregate(daily, exporter.Sum)
		if err := wb.AddDataSheet("Daily", append([]string{"day"}, pivot.Categories...), pivot.Rows()); err != nil {
			return err
		}
		var series []exporter.SeriesRef
		for i, c := range pivot.Categories {
			series = append(series, exporter.SeriesRef{
				Name: c, Sheet: "Daily", CategoryCol: 1, ValueCol: i + 2,
				FirstRow: 2, LastRow: len(pivot.Buckets) + 1,
			})
		}
		if err := front.add(exporter.ChartSpec{
			Kind: exporter.ChartLine, Title: "Daily Consumption Trend by Building",
			XTitle: "Day", YTitle: unit, Series: series,
		}); err != nil {
			return err
		}
	}

	if len(result.WeeklyKeys) > 0 {
		rows := make([][]interface{}, len(result.WeeklyKeys))
		for i, k := range result.WeeklyKeys {
			rows[i] = []interface{}{k, result.WeeklyAverages[k]}
		}
		if err := wb.AddDataSheet("Weekly", []string{p.cfg.EntityColumn, "average_weekly_" + p.cfg.ValueColumn}, rows); err != nil {
			return err
		}
		if err := front.add(exporter.ChartSpec{
			Kind: exporter.ChartBar, Title: "Average Weekly Usage by Building",
			XTitle: "Building", YTitle: unit,
			Series: []exporter.SeriesRef{{
				Name: "Average weekly " + unit, Sheet: "Weekly", CategoryCol: 1, ValueCol: 2,
				FirstRow: 2, LastRow: len(rows) + 1,
			}},
		}); err != nil {
			return err
		}
	}

	if result.Registry != nil && result.Registry.Len() > 0 {
		header, rows, series := hourScatter(result.Registry)
		if err := wb.AddDataSheet("Hourly", header, rows); err != nil {
			return err
		}
		if err := front.add(exporter.ChartSpec{
			Kind: exporter.ChartScatter, Title: "Peak-Hour Consumption per Building",
			XTitle: "Hour of Day", YTitle: unit, Series: series,
		}); err != nil {
			return err
		}
	}

	if err := wb.SetActive(front.name); err != nil {
		return err
	}
	return wb.Save(ctx, p.paths.Output(config.DashboardXLSX))
}

// hourScatter lays out one hour/value column pair per entity
func hourScatter(reg *dataprocessing.EntityRegistry) ([]string, [][]interface{}, []exporter.SeriesRef) {
	entities := reg.Entities()
	sort.Slice(entities, func(i, j int) bool { return entities[i].Name < entities[j].Name })

	longest := 0
	for _, e := range entities {
		if len(e.Readings) > longest {
			longest = len(e.Readings)
		}
	}

	header := make([]string, 0, 2*len(entities))
	rows := make([][]interface{}, longest)
	for i := range rows {
		rows[i] = make([]interface{}, 2*len(entities))
	}
	series := make([]exporter.SeriesRef, 0, len(entities))

	for n, e := range entities {
		header = append(header, e.Name+" hour", e.Name+" "+e.Unit)
		for i, r := range e.Readings {
			rows[i][2*n] = r.Timestamp.Hour()
			rows[i][2*n+1] = r.Value
		}
		series = append(series, exporter.SeriesRef{
			Name: e.Name, Sheet: "Hourly", CategoryCol: 2*n + 1, ValueCol: 2*n + 2,
			FirstRow: 2, LastRow: len(e.Readings) + 1,
		})
	}
	return header, rows, series
}
