package exporter

import (
	"context"
	"log/slog"

	"labpulse/pkg/contracts/domain"
)

// StatsColumns are written after the key columns of every aggregate
var StatsColumns = []string{"count", "sum", "mean", "min", "max", "std"}

// AggregateExporter writes aggregates as CSV, one row per group
type AggregateExporter struct {
	csv    *CSVWriter
	logger *slog.Logger
}

// NewAggregateExporter creates an aggregate exporter on top of w
func NewAggregateExporter(w *CSVWriter, logger *slog.Logger) *AggregateExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &AggregateExporter{csv: w, logger: logger}
}

// Header returns the CSV header for spec: the bucket granularity and/or
// category column, followed by StatsColumns
func Header(spec domain.GroupSpec) []string {
	return append(keyColumns(spec), StatsColumns...)
}

// Rows renders the groups of agg in order
func Rows(agg domain.Aggregate) [][]string {
	rows := make([][]string, 0, len(agg.Groups))
	for _, g := range agg.Groups {
		var row []string
		if g.Key.HasBucket {
			row = append(row, g.Key.Bucket.Format(g.Key.Granularity.Layout()))
		}
		if g.Key.HasCategory {
			row = append(row, g.Key.Category)
		}
		if !g.Key.HasBucket && !g.Key.HasCategory {
			row = append(row, "all")
		}
		s := g.Stats
		row = append(row,
			formatInt(s.Count),
			formatFloat(s.Sum),
			formatFloat(s.Mean),
			formatFloat(s.Min),
			formatFloat(s.Max),
			formatFloat(s.Std),
		)
		rows = append(rows, row)
	}
	return rows
}

// Export writes agg to path. A non-computable aggregate produces a file
// with the header only.
func (e *AggregateExporter) Export(ctx context.Context, path string, agg domain.Aggregate) error {
	if !agg.Computable {
		e.logger.WarnContext(ctx, "Writing empty aggregate",
			slog.String("aggregate", agg.Spec.Name),
			slog.String("reason", agg.Reason))
	}

	if err := e.csv.WriteSimpleCSV(path, Header(agg.Spec), Rows(agg)); err != nil {
		return err
	}

	e.logger.InfoContext(ctx, "Exported aggregate",
		slog.String("aggregate", agg.Spec.Name),
		slog.String("file", path),
		slog.Int("groups", agg.Len()))
	return nil
}
