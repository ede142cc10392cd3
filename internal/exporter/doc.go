// Package exporter writes pipeline results to disk.
//
// CSVWriter is the shared CSV layer with headers, append mode, streaming and
// an optional UTF-8 BOM for Excel. On top of it:
//
// TableExporter writes a cleaned table with canonical timestamps.
//
// AggregateExporter writes one CSV per aggregate, key columns first and the
// fixed statistics after them.
//
// SummaryWriter renders the executive summary text and markdown reports.
//
// LineProtocolExporter encodes readings as InfluxDB line protocol.
//
// Workbook builds .xlsx dashboards with native charts through excelize.
//
// Example usage:
//
//	w := exporter.NewCSVWriter(paths, logger)
//	agg := aggregator.Aggregate(ctx, table, spec)
//	err := exporter.NewAggregateExporter(w, logger).Export(ctx, "daily_totals.csv", agg)
package exporter
