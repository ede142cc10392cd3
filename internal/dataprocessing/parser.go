package dataprocessing

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	apperrors "labpulse/internal/errors"
	"labpulse/pkg/contracts/domain"
)

// ParseOptions controls how a single source file becomes records
type ParseOptions struct {
	Delimiter       rune
	TimestampColumn string
	RequiredColumns []string
	Location        *time.Location
	// Sheet selects the worksheet of .xlsx sources; empty means the first.
	Sheet string
}

// RowSkip records a row dropped during parsing
type RowSkip struct {
	File   string
	Line   int
	Reason string
}

// AsError converts the skip into a ROW application error
func (s RowSkip) AsError() error {
	return apperrors.NewRowError(s.File, s.Line, s.Reason)
}

// FileSkip records a file dropped during ingestion
type FileSkip struct {
	File   string
	Reason string
}

// AsError converts the skip into a FILE application error
func (s FileSkip) AsError() error {
	return apperrors.NewFileError(s.File, s.Reason, nil)
}

// FileResult holds the records parsed from one source
type FileResult struct {
	Source  string
	Header  []string
	Records []domain.Record
	Skipped []RowSkip
}

// Parser turns delimited text or .xlsx files into typed records
type Parser struct {
	opts   ParseOptions
	logger *slog.Logger
}

// NewParser creates a parser. A zero delimiter means comma.
func NewParser(opts ParseOptions, logger *slog.Logger) *Parser {
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{opts: opts, logger: logger}
}

// ParseFile parses path according to its extension. A returned error means
// the whole file is unusable; individual bad rows are reported in Skipped.
func (p *Parser) ParseFile(ctx context.Context, path string) (*FileResult, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return p.parseXLSX(ctx, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	return p.Parse(ctx, f, path)
}

// maxLineBytes caps a single physical line of delimited input
const maxLineBytes = 4 << 20

// Parse reads delimited records from r. source names the input in skips.
// Each physical line is one record, so a malformed line (an unterminated
// quote, for instance) is skipped on its own and never swallows the lines
// after it.
func (p *Parser) Parse(ctx context.Context, r io.Reader, source string) (*FileResult, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var result *FileResult
	line, ordinal := 0, 0
	for scanner.Scan() {
		line++
		text := strings.TrimSuffix(scanner.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}

		cells, err := p.splitLine(text)
		if result == nil {
			if err != nil {
				return nil, fmt.Errorf("failed to read header: %w", err)
			}
			if result, err = p.newResult(source, cells); err != nil {
				return nil, err
			}
			continue
		}

		if err != nil {
			reason := err.Error()
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				reason = parseErr.Err.Error()
			}
			p.skip(ctx, result, line, reason)
			ordinal++
			continue
		}

		p.addRow(ctx, result, cells, line, ordinal)
		ordinal++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}
	if result == nil {
		return nil, fmt.Errorf("file is empty")
	}

	p.logger.DebugContext(ctx, "Parsed file",
		slog.String("file", source),
		slog.Int("records", len(result.Records)),
		slog.Int("skipped", len(result.Skipped)))

	return result, nil
}

// splitLine splits one physical line into cells with strict quoting
func (p *Parser) splitLine(text string) ([]string, error) {
	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = p.opts.Delimiter
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	return reader.Read()
}

// parseXLSX reads the first (or configured) worksheet of an Excel workbook
func (p *Parser) parseXLSX(ctx context.Context, path string) (*FileResult, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := p.opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %s is empty", sheet)
	}

	result, err := p.newResult(path, rows[0])
	if err != nil {
		return nil, err
	}

	ordinal := 0
	for i, cells := range rows[1:] {
		if isBlankRow(cells) {
			continue
		}
		// Row i of the slice is spreadsheet row i+2.
		p.addRow(ctx, result, cells, i+2, ordinal)
		ordinal++
	}

	p.logger.DebugContext(ctx, "Parsed workbook",
		slog.String("file", path),
		slog.String("sheet", sheet),
		slog.Int("records", len(result.Records)),
		slog.Int("skipped", len(result.Skipped)))

	return result, nil
}

// newResult validates the header and prepares an empty result
func (p *Parser) newResult(source string, header []string) (*FileResult, error) {
	cleaned := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		cleaned[i] = strings.TrimSpace(h)
	}
	if isBlankRow(cleaned) {
		return nil, fmt.Errorf("file has no header")
	}

	for _, col := range p.opts.RequiredColumns {
		if indexOf(cleaned, col) < 0 {
			return nil, fmt.Errorf("could not find required column: %s", col)
		}
	}

	return &FileResult{Source: source, Header: cleaned}, nil
}

// addRow converts raw cells to a record, or records why it was skipped
func (p *Parser) addRow(ctx context.Context, result *FileResult, cells []string, line, ordinal int) {
	if len(cells) > len(result.Header) {
		p.skip(ctx, result, line, fmt.Sprintf("expected %d fields, saw %d", len(result.Header), len(cells)))
		return
	}

	fields := make([]domain.Field, len(result.Header))
	for i := range cells {
		fields[i] = p.parseCell(result.Header[i], cells[i])
	}

	for _, col := range p.opts.RequiredColumns {
		f := fields[indexOf(result.Header, col)]
		switch {
		case !f.Present:
			p.skip(ctx, result, line, fmt.Sprintf("column %s is empty", col))
			return
		case !f.Numeric:
			p.skip(ctx, result, line, fmt.Sprintf("column %s value %q is not numeric", col, f.Raw))
			return
		}
	}

	rec := domain.Record{
		Fields:  fields,
		Source:  result.Source,
		Line:    line,
		Ordinal: ordinal,
	}
	if idx := indexOf(result.Header, p.opts.TimestampColumn); idx >= 0 {
		rec.Timestamp = ParseTimestampIn(fields[idx].Raw, p.opts.Location)
	}
	result.Records = append(result.Records, rec)
}

// parseCell types a single cell. The timestamp column always stays text.
func (p *Parser) parseCell(column, raw string) domain.Field {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.AbsentField
	}
	if column == p.opts.TimestampColumn {
		return domain.TextField(raw)
	}
	if v, ok := parseNumber(raw); ok {
		return domain.NumberField(raw, v)
	}
	if isMissingMarker(raw) {
		return domain.AbsentField
	}
	return domain.TextField(raw)
}

func (p *Parser) skip(ctx context.Context, result *FileResult, line int, reason string) {
	s := RowSkip{File: result.Source, Line: line, Reason: reason}
	result.Skipped = append(result.Skipped, s)
	p.logger.WarnContext(ctx, "Skipping row",
		slog.String("file", s.File),
		slog.Int("line", s.Line),
		slog.String("reason", s.Reason))
}

// parseNumber accepts finite decimal numbers
func parseNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// isMissingMarker recognises the spellings spreadsheets use for no value
func isMissingMarker(s string) bool {
	switch strings.ToLower(s) {
	case "na", "n/a", "nan", "null", "none", "-":
		return true
	}
	return false
}

func isBlankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func indexOf(cols []string, name string) int {
	if name == "" {
		return -1
	}
	for i, c := range cols {
		if c == name {
			return i
		}
	}
	return -1
}
