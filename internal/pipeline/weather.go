package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"

	"labpulse/internal/config"
	"labpulse/internal/dataprocessing"
	apperrors "labpulse/internal/errors"
	"labpulse/internal/exporter"
	"labpulse/internal/infrastructure"
	"labpulse/pkg/contracts/domain"
)

// Derived weather columns
const (
	MeanTempColumn = "MeanTemp"
	SeasonColumn   = "Season"
	MonthColumn    = "Month"

	minTempColumn  = "MinTemp"
	maxTempColumn  = "MaxTemp"
	rainfallColumn = "Rainfall"
	humidityColumn = "Humidity3pm"
)

// WeatherColumns are summarized overall and per period
var WeatherColumns = []string{MeanTempColumn, rainfallColumn, humidityColumn}

// WeatherSpecs returns the monthly, yearly, month-of-year and season
// aggregates of every column
func WeatherSpecs(columns []string) []domain.GroupSpec {
	var specs []domain.GroupSpec
	for _, col := range columns {
		suffix := strings.ToLower(col)
		specs = append(specs,
			domain.GroupSpec{Name: "monthly_" + suffix, ValueColumn: col, Bucket: domain.GranularityMonth},
			domain.GroupSpec{Name: "yearly_" + suffix, ValueColumn: col, Bucket: domain.GranularityYear},
			domain.GroupSpec{Name: "by_month_" + suffix, ValueColumn: col, CategoryColumn: MonthColumn},
			domain.GroupSpec{Name: "by_season_" + suffix, ValueColumn: col, CategoryColumn: SeasonColumn},
		)
	}
	return specs
}

// WeatherResult is everything one weather run computed
type WeatherResult struct {
	Ingest      *dataprocessing.IngestResult
	Table       *domain.Table
	Dropped     int
	Synthesized bool
	Aggregates  []domain.Aggregate
	Report      exporter.WeatherReport
	Files       []string
	Stages      []*StageState
}

// Aggregate returns the named aggregate of the run
func (r *WeatherResult) Aggregate(name string) (domain.Aggregate, bool) {
	for _, agg := range r.Aggregates {
		if agg.Spec.Name == name {
			return agg, true
		}
	}
	return domain.Aggregate{}, false
}

// WeatherPipeline cleans a daily weather file and writes its statistics,
// report and charts
type WeatherPipeline struct {
	cfg       config.WeatherConfig
	delimiter rune
	loc       *time.Location
	paths     *config.Paths
	telemetry *infrastructure.Telemetry
	out       io.Writer
	logger    *slog.Logger
}

// NewWeatherPipeline creates a weather pipeline. The describe output of the
// raw and cleaned tables goes to out. telemetry may be nil.
func NewWeatherPipeline(cfg *config.Config, paths *config.Paths, telemetry *infrastructure.Telemetry, out io.Writer, logger *slog.Logger) *WeatherPipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if out == nil {
		out = io.Discard
	}
	return &WeatherPipeline{
		cfg:       cfg.Weather,
		delimiter: delimiter(cfg.Ingest.Delimiter),
		loc:       cfg.TimeLocation(),
		paths:     paths,
		telemetry: telemetry,
		out:       out,
		logger:    infrastructure.WithComponent(logger, "weather"),
	}
}

// Run executes ingest, clean, aggregate and report in order
func (p *WeatherPipeline) Run(ctx context.Context) (*WeatherResult, error) {
	result := &WeatherResult{}
	runner := NewRunner(p.telemetry, p.logger)

	err := runner.Run(ctx,
		Stage{ID: StageIngest, Run: func(ctx context.Context) error {
			return p.ingest(ctx, result)
		}},
		Stage{ID: StageClean, Run: func(ctx context.Context) error {
			p.clean(ctx, result)
			return nil
		}},
		Stage{ID: StageAggregate, Run: func(ctx context.Context) error {
			p.aggregate(ctx, result)
			return nil
		}},
		Stage{ID: StageReport, Run: func(ctx context.Context) error {
			return p.report(ctx, result)
		}},
	)
	result.Stages = runner.States()
	return result, err
}

func (p *WeatherPipeline) ingest(ctx context.Context, result *WeatherResult) error {
	var metrics *infrastructure.PipelineMetrics
	if p.telemetry != nil {
		metrics = p.telemetry.Pipeline
	}

	ingestor := dataprocessing.NewIngestor(dataprocessing.IngestOptions{
		Parse: dataprocessing.ParseOptions{
			Delimiter:       p.delimiter,
			TimestampColumn: p.cfg.DateColumn,
			Location:        p.loc,
		},
	}, metrics, p.logger)

	file := p.paths.WeatherFile
	ingested, err := ingestor.Ingest(ctx, filepath.Dir(file), filepath.Base(file))
	if err != nil {
		return err
	}
	if len(ingested.FilesRead) == 0 {
		reason := "no rows"
		if len(ingested.FilesSkipped) > 0 {
			reason = ingested.FilesSkipped[0].Reason
		}
		return apperrors.NewFileError(file, reason, nil)
	}
	result.Ingest = ingested
	table := ingested.Table

	if !table.HasColumn(p.cfg.DateColumn) {
		start, err := time.ParseInLocation("2006-01-02", p.cfg.StartDate, time.UTC)
		if err != nil {
			return apperrors.NewConfigError("invalid weather start date", err)
		}
		dataprocessing.SynthesizeTimestamps(table, p.cfg.DateColumn, start)
		result.Synthesized = true
		p.logger.InfoContext(ctx, "Date column missing, assigned daily dates",
			slog.String("column", p.cfg.DateColumn),
			slog.String("start", p.cfg.StartDate))
	}

	p.describe(ctx, "Head of the raw data", table, true)
	p.describe(ctx, "Describe of the raw data", table, false)
	return nil
}

// clean drops rows missing any key column, projects the table to the date
// and key columns and derives MeanTemp, Season and Month
func (p *WeatherPipeline) clean(ctx context.Context, result *WeatherResult) {
	raw := result.Ingest.Table

	var present []string
	for _, col := range p.cfg.KeyColumns {
		if raw.HasColumn(col) {
			present = append(present, col)
		} else {
			p.logger.WarnContext(ctx, "Key column missing",
				slog.String("error", apperrors.NewColumnError(col).Error()))
		}
	}

	cleaned := dataprocessing.Filter(raw, func(rec domain.Record) bool {
		return dataprocessing.Complete(raw, rec, present...)
	})
	result.Dropped = raw.Len() - cleaned.Len()

	table := cleaned.Project(append([]string{p.cfg.DateColumn}, present...)...)
	if err := dataprocessing.DeriveMean(table, MeanTempColumn, minTempColumn, maxTempColumn); err != nil {
		p.logger.WarnContext(ctx, "Mean temperature not derived", slog.String("error", err.Error()))
	}
	dataprocessing.DeriveTag(table, SeasonColumn, dataprocessing.SeasonTag)
	dataprocessing.DeriveTag(table, MonthColumn, dataprocessing.MonthTag)
	result.Table = table

	p.logger.InfoContext(ctx, "Cleaned weather data",
		slog.Int("rows", table.Len()),
		slog.Int("dropped", result.Dropped))
	p.describe(ctx, "Cleaned and filtered data", table, true)
}

func (p *WeatherPipeline) aggregate(ctx context.Context, result *WeatherResult) {
	agg := dataprocessing.NewAggregator(p.logger)
	result.Aggregates = agg.AggregateAll(ctx, result.Table, WeatherSpecs(WeatherColumns))
	for _, a := range result.Aggregates {
		if p.telemetry != nil {
			p.telemetry.RecordGroups(ctx, a.Spec.Name, a.Len())
		}
	}

	r := exporter.WeatherReport{
		Source:          filepath.Base(p.paths.WeatherFile),
		Rows:            result.Table.Len(),
		RowsDropped:     result.Dropped,
		DateSynthesized: result.Synthesized,
		StartDate:       p.cfg.StartDate,
		KeyColumns:      p.cfg.KeyColumns,
		Aggregates:      result.Aggregates,
	}

	for _, col := range WeatherColumns {
		if stats, ok := dataprocessing.ColumnStats(result.Table, col); ok {
			r.Overall = append(r.Overall, exporter.ColumnSummary{Column: col, Stats: stats})
			fmt.Fprintf(p.out, "%s: Mean=%.2f, Min=%.2f, Max=%.2f, Std=%.2f\n",
				col, stats.Mean, stats.Min, stats.Max, stats.Std)
		}
	}

	if rain, ok := result.Aggregate("monthly_" + strings.ToLower(rainfallColumn)); ok && rain.Len() > 0 {
		wettest := rain.Groups[0]
		for _, g := range rain.Groups[1:] {
			if g.Stats.Sum > wettest.Stats.Sum {
				wettest = g
			}
		}
		r.WettestMonth = wettest.Key.String()
		r.WettestTotal = wettest.Stats.Sum
	}

	if seasons, ok := result.Aggregate("by_season_" + strings.ToLower(MeanTempColumn)); ok && seasons.Len() > 0 {
		warm, cool := seasons.Groups[0], seasons.Groups[0]
		for _, g := range seasons.Groups[1:] {
			if g.Stats.Mean > warm.Stats.Mean {
				warm = g
			}
			if g.Stats.Mean < cool.Stats.Mean {
				cool = g
			}
		}
		r.WarmestSeason = warm.Key.Category
		r.CoolestSeason = cool.Key.Category
	}

	r.Correlation, r.HasCorrelation = dataprocessing.Correlation(result.Table, humidityColumn, MeanTempColumn)
	result.Report = r
}

func (p *WeatherPipeline) report(ctx context.Context, result *WeatherResult) error {
	csv := exporter.NewCSVWriter(p.paths, p.logger)

	if err := exporter.NewTableExporter(csv, p.logger).Export(ctx, config.CleanedWeatherCSV, result.Table); err != nil {
		return apperrors.NewStorageError("failed to export cleaned data", err)
	}
	result.Files = append(result.Files, config.CleanedWeatherCSV)

	aggExporter := exporter.NewAggregateExporter(csv, p.logger)
	for _, agg := range result.Aggregates {
		name := agg.Spec.Name + ".csv"
		if err := aggExporter.Export(ctx, name, agg); err != nil {
			return apperrors.NewStorageError("failed to export "+name, err)
		}
		result.Files = append(result.Files, name)
	}

	if result.Table.Len() == 0 {
		fmt.Fprintln(p.out, "No data available for visualization.")
	} else {
		if err := p.charts(ctx, result); err != nil {
			return apperrors.NewStorageError("failed to build charts", err)
		}
		result.Files = append(result.Files, config.WeatherChartsXLSX)
	}

	result.Files = append(result.Files, config.WeatherReportMD)
	result.Report.Files = result.Files
	md := exporter.RenderWeatherReport(result.Report)
	if err := exporter.NewSummaryWriter(p.logger).WriteMarkdown(ctx, p.paths.Output(config.WeatherReportMD), md); err != nil {
		return apperrors.NewStorageError("failed to write report", err)
	}

	fmt.Fprintf(p.out, "Analysis complete. Files exported: %s\n", strings.Join(result.Files, ", "))
	return nil
}

// charts draws the daily temperature line, the monthly rainfall bars and the
// humidity scatter, each on its own sheet, plus a combined sheet with the
// line and the bars
func (p *WeatherPipeline) charts(ctx context.Context, result *WeatherResult) error {
	table := result.Table
	wb := exporter.NewWorkbook(p.logger)

	combined, err := newChartSheet(wb, "Combined")
	if err != nil {
		return err
	}

	var dailyRows, scatterRows [][]interface{}
	for _, rec := range table.Records {
		mean, ok := table.Value(rec, MeanTempColumn)
		if !ok || !rec.Timestamp.Valid {
			continue
		}
		dailyRows = append(dailyRows, []interface{}{rec.Timestamp.Time.Format("2006-01-02"), mean})
		if h, ok := table.Value(rec, humidityColumn); ok {
			scatterRows = append(scatterRows, []interface{}{h, mean})
		}
	}

	if len(dailyRows) > 0 {
		if err := wb.AddDataSheet("Temperature", []string{p.cfg.DateColumn, MeanTempColumn}, dailyRows); err != nil {
			return err
		}
		line := exporter.ChartSpec{
			Kind: exporter.ChartLine, Title: "Daily Temperature Trends",
			XTitle: "Date", YTitle: "Temperature (°C)",
			Series: []exporter.SeriesRef{{
				Name: "Daily Mean Temperature", Sheet: "Temperature", CategoryCol: 1, ValueCol: 2,
				FirstRow: 2, LastRow: len(dailyRows) + 1,
			}},
		}
		if err := placeOwnAndCombined(wb, combined, "Temperature", line); err != nil {
			return err
		}
	}

	if rain, ok := result.Aggregate("monthly_" + strings.ToLower(rainfallColumn)); ok && rain.Len() > 0 {
		rows := make([][]interface{}, rain.Len())
		for i, g := range rain.Groups {
			rows[i] = []interface{}{g.Key.String(), g.Stats.Sum}
		}
		if err := wb.AddDataSheet("Rainfall", []string{"month", "rainfall_total"}, rows); err != nil {
			return err
		}
		bar := exporter.ChartSpec{
			Kind: exporter.ChartBar, Title: "Monthly Rainfall Totals",
			XTitle: "Month", YTitle: "Rainfall (mm)",
			Series: []exporter.SeriesRef{{
				Name: "Rainfall", Sheet: "Rainfall", CategoryCol: 1, ValueCol: 2,
				FirstRow: 2, LastRow: len(rows) + 1,
			}},
		}
		if err := placeOwnAndCombined(wb, combined, "Rainfall", bar); err != nil {
			return err
		}
	}

	if len(scatterRows) > 0 {
		if err := wb.AddDataSheet("Humidity", []string{humidityColumn, MeanTempColumn}, scatterRows); err != nil {
			return err
		}
		if err := wb.AddChart(exporter.ChartSpec{
			Sheet: "Humidity", Anchor: "D2", Kind: exporter.ChartScatter,
			Title: "Humidity vs. Temperature", XTitle: "Humidity at 3pm (%)", YTitle: "Mean Temperature (°C)",
			Series: []exporter.SeriesRef{{
				Name: "Humidity vs. Temperature", Sheet: "Humidity", CategoryCol: 1, ValueCol: 2,
				FirstRow: 2, LastRow: len(scatterRows) + 1,
			}},
		}); err != nil {
			return err
		}
	}

	if err := wb.SetActive(combined.name); err != nil {
		return err
	}
	return wb.Save(ctx, p.paths.Output(config.WeatherChartsXLSX))
}

// placeOwnAndCombined draws spec beside its data and again on the combined sheet
func placeOwnAndCombined(wb *exporter.Workbook, combined *chartSheet, sheet string, spec exporter.ChartSpec) error {
	own := spec
	own.Sheet, own.Anchor = sheet, "D2"
	if err := wb.AddChart(own); err != nil {
		return err
	}
	return combined.add(spec)
}

// describe prints a gota view of table: its first rows or its summary
// statistics. Failures only cost the console output.
func (p *WeatherPipeline) describe(ctx context.Context, title string, table *domain.Table, head bool) {
	var (
		df  dataframe.DataFrame
		err error
	)
	if head {
		df, err = dataprocessing.Head(table, 5)
	} else {
		df, err = dataprocessing.Describe(table)
	}
	if err != nil {
		p.logger.WarnContext(ctx, "Could not render table view",
			slog.String("view", title),
			slog.String("error", err.Error()))
		return
	}
	fmt.Fprintf(p.out, "\n%s:\n%v\n", title, df)
}
