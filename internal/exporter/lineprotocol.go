package exporter

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	lp "github.com/influxdata/line-protocol"

	"labpulse/internal/files"
	"labpulse/pkg/contracts/domain"
)

// LineProtocolOptions selects what becomes a point
type LineProtocolOptions struct {
	Measurement string
	ValueColumn string
	TagColumns  []string
	Precision   time.Duration
}

// LineProtocolExporter writes table rows as InfluxDB line protocol for
// offline import with `influx write`
type LineProtocolExporter struct {
	opts    LineProtocolOptions
	manager *files.Manager
	logger  *slog.Logger
}

// NewLineProtocolExporter creates a line protocol exporter
func NewLineProtocolExporter(opts LineProtocolOptions, logger *slog.Logger) *LineProtocolExporter {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Precision == 0 {
		opts.Precision = time.Second
	}
	return &LineProtocolExporter{opts: opts, manager: files.NewManager(logger), logger: logger}
}

// Encode renders one point per record with a timestamp and a numeric
// value. Tag columns that are absent for a record are left off its point.
func (e *LineProtocolExporter) Encode(table *domain.Table) (string, int, error) {
	var buf bytes.Buffer
	enc := lp.NewEncoder(&buf)
	enc.SetFieldTypeSupport(lp.UintSupport)
	enc.FailOnFieldErr(true)
	enc.SetPrecision(e.opts.Precision)
	points := 0

	for _, rec := range table.Records {
		if !rec.Timestamp.Valid {
			continue
		}
		v, ok := table.Value(rec, e.opts.ValueColumn)
		if !ok {
			continue
		}

		tags := make(map[string]string, len(e.opts.TagColumns))
		for _, col := range e.opts.TagColumns {
			if tag, ok := table.Tag(rec, col); ok {
				tags[col] = tag
			}
		}

		point := write.NewPoint(
			e.opts.Measurement,
			tags,
			map[string]interface{}{e.opts.ValueColumn: v},
			rec.Timestamp.Time,
		)
		if _, err := enc.Encode(point); err != nil {
			return "", points, fmt.Errorf("failed to encode %s:%d: %w", rec.Source, rec.Line, err)
		}
		points++
	}

	return buf.String(), points, nil
}

// Export writes the encoded table to path
func (e *LineProtocolExporter) Export(ctx context.Context, path string, table *domain.Table) error {
	data, points, err := e.Encode(table)
	if err != nil {
		return err
	}
	if err := e.manager.WriteFile(path, []byte(data)); err != nil {
		return fmt.Errorf("failed to write line protocol: %w", err)
	}

	e.logger.InfoContext(ctx, "Exported line protocol",
		slog.String("file", path),
		slog.String("measurement", e.opts.Measurement),
		slog.Int("points", points))
	return nil
}
