package dataprocessing

import (
	"context"
	"log/slog"

	"labpulse/pkg/contracts/domain"
)

// NotAvailable is reported for summary fields that have no data
const NotAvailable = "N/A"

// ExecutiveSummary is the headline view of one pipeline run
type ExecutiveSummary struct {
	Total     float64
	Unit      string
	TopEntity string
	PeakTime  string
	PeakValue float64
	// MeanKeys orders Means by group order of the category aggregate.
	MeanKeys []string
	Means    map[string]float64
}

// Summarizer derives executive summaries from in-memory results
type Summarizer struct {
	valueColumn string
	unit        string
	logger      *slog.Logger
}

// NewSummarizer creates a summarizer for valueColumn measured in unit
func NewSummarizer(valueColumn, unit string, logger *slog.Logger) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Summarizer{valueColumn: valueColumn, unit: unit, logger: logger}
}

// Summarize computes the table total, the category with the largest sum in
// byCategory, the timestamp of the largest single value and the mean of
// every category. Ties go to the first candidate in order.
func (s *Summarizer) Summarize(ctx context.Context, table *domain.Table, byCategory domain.Aggregate) ExecutiveSummary {
	summary := ExecutiveSummary{
		Unit:      s.unit,
		TopEntity: NotAvailable,
		PeakTime:  NotAvailable,
		Means:     map[string]float64{},
	}

	peakFound := false
	for _, rec := range table.Records {
		v, ok := table.Value(rec, s.valueColumn)
		if !ok {
			continue
		}
		summary.Total += v
		if !peakFound || v > summary.PeakValue {
			peakFound = true
			summary.PeakValue = v
			summary.PeakTime = rec.Timestamp.String()
			if summary.PeakTime == "" {
				summary.PeakTime = NotAvailable
			}
		}
	}

	if byCategory.Computable && byCategory.Len() > 0 {
		best := byCategory.Groups[0]
		for _, g := range byCategory.Groups[1:] {
			if g.Stats.Sum > best.Stats.Sum {
				best = g
			}
		}
		summary.TopEntity = best.Key.String()
		summary.MeanKeys, summary.Means = Means(byCategory)
	}

	s.logger.InfoContext(ctx, "Executive summary computed",
		slog.Float64("total", summary.Total),
		slog.String("top_entity", summary.TopEntity),
		slog.String("peak_time", summary.PeakTime))

	return summary
}
