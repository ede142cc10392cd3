package exporter

import (
	"context"
	"fmt"
	"log/slog"

	"labpulse/pkg/contracts/domain"
)

// TableExporter writes a cleaned table as CSV
type TableExporter struct {
	csv    *CSVWriter
	logger *slog.Logger
}

// NewTableExporter creates a table exporter on top of w
func NewTableExporter(w *CSVWriter, logger *slog.Logger) *TableExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &TableExporter{csv: w, logger: logger}
}

// Export writes every record in column order. The timestamp column is
// rendered in the canonical layout and is empty when it could not be parsed.
func (e *TableExporter) Export(ctx context.Context, path string, table *domain.Table) error {
	sw, err := e.csv.CreateStreamWriter(path, table.Columns)
	if err != nil {
		return err
	}

	tsIdx, hasTS := table.Index(table.TimestampColumn)
	row := make([]string, len(table.Columns))
	for _, rec := range table.Records {
		for i := range table.Columns {
			if i < len(rec.Fields) {
				row[i] = formatField(rec.Fields[i])
			} else {
				row[i] = ""
			}
		}
		if hasTS {
			row[tsIdx] = rec.Timestamp.String()
		}
		if err := sw.WriteRecord(row); err != nil {
			sw.Close()
			return fmt.Errorf("failed to write row from %s:%d: %w", rec.Source, rec.Line, err)
		}
	}

	if err := sw.Close(); err != nil {
		return err
	}

	e.logger.InfoContext(ctx, "Exported table",
		slog.String("file", path),
		slog.Int("rows", sw.Rows()))
	return nil
}
