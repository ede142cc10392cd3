package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"labpulse/internal/dataprocessing"
	"labpulse/internal/files"
)

// SummaryWriter writes human-readable reports
type SummaryWriter struct {
	manager *files.Manager
	logger  *slog.Logger
}

// NewSummaryWriter creates a summary writer
func NewSummaryWriter(logger *slog.Logger) *SummaryWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SummaryWriter{manager: files.NewManager(logger), logger: logger}
}

// RenderExecutiveSummary formats s as the plain-text executive summary
func RenderExecutiveSummary(s dataprocessing.ExecutiveSummary) string {
	var b strings.Builder
	b.WriteString("Executive Summary:\n")
	fmt.Fprintf(&b, "- Total Campus Consumption: %.2f %s\n", s.Total, s.Unit)
	fmt.Fprintf(&b, "- Highest-Consuming Building: %s\n", s.TopEntity)
	fmt.Fprintf(&b, "- Peak Load Time: %s\n", s.PeakTime)
	fmt.Fprintf(&b, "- Weekly Trends (Average Consumption per Building): %s\n", formatMeans(s.MeanKeys, s.Means))
	return b.String()
}

// WriteExecutiveSummary writes the rendered summary to path
func (w *SummaryWriter) WriteExecutiveSummary(ctx context.Context, path string, s dataprocessing.ExecutiveSummary) error {
	if err := w.manager.WriteFile(path, []byte(RenderExecutiveSummary(s))); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	w.logger.InfoContext(ctx, "Summary report saved", slog.String("file", path))
	return nil
}

// WriteMarkdown writes a rendered markdown report to path
func (w *SummaryWriter) WriteMarkdown(ctx context.Context, path string, report string) error {
	if err := w.manager.WriteFile(path, []byte(report)); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	w.logger.InfoContext(ctx, "Markdown report saved", slog.String("file", path))
	return nil
}
