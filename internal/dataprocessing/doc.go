// Package dataprocessing turns directories of tabular meter or weather files
// into aggregates, entity registries and executive summaries.
//
// # Architecture
//
// The package is organized into four stages:
//
// 1. Ingest: Parser and Ingestor read delimited or .xlsx files into one Table
// 2. Transform: derived columns, time buckets and grouped statistics
// 3. Model: BuildRegistry projects rows onto named entities
// 4. Summarize: Summarizer extracts totals, argmax entity and peak time
//
// # Usage
//
//	ingestor := dataprocessing.NewIngestor(opts, metrics, logger)
//	result, err := ingestor.Ingest(ctx, "data", "*.csv")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	agg := dataprocessing.NewAggregator(logger).Aggregate(ctx, result.Table, domain.GroupSpec{
//	    Name:        "daily_totals",
//	    ValueColumn: "kwh",
//	    Bucket:      domain.GranularityDay,
//	})
//
// # Error Handling
//
// Bad rows and files never abort ingestion. They are returned as RowSkip and
// FileSkip values in the IngestResult. A missing column makes an aggregate
// non-computable instead of failing. Only configuration problems, such as a
// missing data directory with sample generation disabled, return errors.
package dataprocessing
