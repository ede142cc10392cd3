package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	apperrors "labpulse/internal/errors"
	"labpulse/internal/files"
	"labpulse/internal/infrastructure"
	"labpulse/pkg/contracts/domain"
)

// IngestOptions configures an Ingestor
type IngestOptions struct {
	Parse ParseOptions
	// EntityColumn and PeriodColumn receive the parts of conventional
	// <entity>_<period>.<ext> file names.
	EntityColumn string
	PeriodColumn string
	// Sample, when set, is used to populate a directory with no matching
	// files. A nil Sample makes an empty or missing directory fatal.
	Sample *SampleGenerator
}

// IngestResult is the unified table plus an account of what was dropped
type IngestResult struct {
	Table        *domain.Table
	FilesRead    []string
	FilesSkipped []FileSkip
	RowsSkipped  []RowSkip
	Generated    []string
}

// RowsRead returns the number of records in the table
func (r *IngestResult) RowsRead() int {
	if r == nil || r.Table == nil {
		return 0
	}
	return r.Table.Len()
}

// Ingestor reads every matching file of a directory into one Table
type Ingestor struct {
	opts      IngestOptions
	parser    *Parser
	discovery *files.Discovery
	metrics   *infrastructure.PipelineMetrics
	logger    *slog.Logger
}

// NewIngestor creates an ingestor. metrics may be nil.
func NewIngestor(opts IngestOptions, metrics *infrastructure.PipelineMetrics, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{
		opts:      opts,
		parser:    NewParser(opts.Parse, logger),
		discovery: files.NewDiscovery(""),
		metrics:   metrics,
		logger:    logger,
	}
}

// Ingest discovers files in dir matching pattern, parses them in name order
// and concatenates their rows. Only configuration problems are returned as
// errors; bad rows and files are reported in the result.
func (i *Ingestor) Ingest(ctx context.Context, dir, pattern string) (*IngestResult, error) {
	result := &IngestResult{}

	found, err := i.discover(ctx, dir, pattern, result)
	if err != nil {
		return nil, err
	}

	var parsed []*FileResult
	for _, f := range found {
		fr, err := i.parser.ParseFile(ctx, f.Path)
		if err != nil {
			skip := FileSkip{File: f.Path, Reason: err.Error()}
			result.FilesSkipped = append(result.FilesSkipped, skip)
			i.logger.WarnContext(ctx, "Skipping file",
				slog.String("file", f.Name),
				slog.String("error", skip.AsError().Error()))
			continue
		}

		parsed = append(parsed, fr)
		result.FilesRead = append(result.FilesRead, f.Path)
		result.RowsSkipped = append(result.RowsSkipped, fr.Skipped...)

		i.logger.InfoContext(ctx, "Read file",
			slog.String("file", f.Name),
			slog.Int("rows", len(fr.Records)),
			slog.Int("skipped_rows", len(fr.Skipped)))
	}

	result.Table = i.concat(ctx, parsed)

	i.metrics.ObserveIngest(len(result.FilesRead), len(result.FilesSkipped),
		result.Table.Len(), len(result.RowsSkipped))

	i.logger.InfoContext(ctx, "Ingestion complete",
		slog.Int("files_read", len(result.FilesRead)),
		slog.Int("files_skipped", len(result.FilesSkipped)),
		slog.Int("rows", result.Table.Len()),
		slog.Int("rows_skipped", len(result.RowsSkipped)))

	return result, nil
}

// discover lists input files, generating sample data when allowed
func (i *Ingestor) discover(ctx context.Context, dir, pattern string, result *IngestResult) ([]files.FileInfo, error) {
	var found []files.FileInfo
	if i.discovery.DirExists(dir) {
		var err error
		found, err = i.discovery.FindFilesByPattern(dir, pattern)
		if err != nil {
			return nil, apperrors.NewConfigError("invalid file pattern", err)
		}
	}
	if len(found) > 0 {
		return found, nil
	}

	if i.opts.Sample == nil {
		if !i.discovery.DirExists(dir) {
			return nil, apperrors.NewConfigError(fmt.Sprintf("data directory %s does not exist", dir), nil)
		}
		return nil, apperrors.NewConfigError(fmt.Sprintf("no files matching %s in %s", pattern, dir), nil)
	}

	i.logger.InfoContext(ctx, "No input files found, generating sample data",
		slog.String("dir", dir),
		slog.String("pattern", pattern))

	generated, err := i.opts.Sample.Generate(ctx, dir)
	if err != nil {
		return nil, apperrors.NewConfigError("failed to generate sample data", err)
	}
	result.Generated = generated

	found, err = i.discovery.FindFilesByPattern(dir, pattern)
	if err != nil {
		return nil, apperrors.NewConfigError("invalid file pattern", err)
	}
	if len(found) == 0 {
		return nil, apperrors.NewConfigError(
			fmt.Sprintf("generated sample files do not match %s", pattern), nil)
	}
	return found, nil
}

// concat unions the columns of all files in first-seen order, appends the
// file name metadata columns and copies every record into one table
func (i *Ingestor) concat(ctx context.Context, parsed []*FileResult) *domain.Table {
	table := domain.NewTable(nil, i.opts.Parse.TimestampColumn)
	for _, fr := range parsed {
		for _, col := range fr.Header {
			table.AddColumn(col)
		}
	}

	metas := make([]files.FileMeta, len(parsed))
	anyMeta := false
	for n, fr := range parsed {
		metas[n] = files.ParseFileMeta(fr.Source)
		if metas[n].Valid {
			anyMeta = true
		} else {
			i.logger.InfoContext(ctx, "File name does not match <entity>_<period> format, metadata not added",
				slog.String("file", filepath.Base(fr.Source)))
		}
	}

	entityIdx, periodIdx := -1, -1
	if anyMeta {
		if i.opts.EntityColumn != "" {
			entityIdx = table.AddColumn(i.opts.EntityColumn)
		}
		if i.opts.PeriodColumn != "" {
			periodIdx = table.AddColumn(i.opts.PeriodColumn)
		}
	}

	for n, fr := range parsed {
		positions := make([]int, len(fr.Header))
		for j, col := range fr.Header {
			positions[j], _ = table.Index(col)
		}

		for _, rec := range fr.Records {
			fields := make([]domain.Field, len(table.Columns))
			for j, pos := range positions {
				if j < len(rec.Fields) {
					fields[pos] = rec.Fields[j]
				}
			}
			if metas[n].Valid {
				if entityIdx >= 0 {
					fields[entityIdx] = domain.TextField(metas[n].Entity)
				}
				if periodIdx >= 0 {
					fields[periodIdx] = domain.TextField(metas[n].Period)
				}
			}
			rec.Fields = fields
			table.Append(rec)
		}
	}

	return table
}
