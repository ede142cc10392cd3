// Package gradebook records student marks in an append-only CSV file.
package gradebook

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	apperrors "labpulse/internal/errors"
	"labpulse/internal/exporter"
)

// Subjects is the number of marks recorded per student
const Subjects = 4

// Console messages of the view
const (
	MsgNoData   = "No data found!"
	MsgNotFound = "File not found!"
)

var (
	validate = validator.New()

	gradeThresholds = []struct {
		min   decimal.Decimal
		grade string
	}{
		{decimal.NewFromInt(90), "A"},
		{decimal.NewFromInt(80), "B"},
		{decimal.NewFromInt(70), "C"},
		{decimal.NewFromInt(60), "D"},
	}
)

// entryInput carries the validation rules of one student's marks
type entryInput struct {
	Name  string    `validate:"required"`
	Marks []float64 `validate:"len=4,dive,gte=0,lte=100"`
}

// Entry is one student's marks
type Entry struct {
	Name  string
	Marks [Subjects]decimal.Decimal
}

// NewEntry parses and validates marks for name. Marks must be numbers
// between 0 and 100.
func NewEntry(name string, marks ...string) (Entry, error) {
	entry := Entry{Name: strings.TrimSpace(name)}
	input := entryInput{Name: entry.Name}

	for i, raw := range marks {
		d, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return Entry{}, apperrors.NewValidationError(
				fmt.Sprintf("mark %d %q is not a number", i+1, raw), err)
		}
		if i < Subjects {
			entry.Marks[i] = d
		}
		input.Marks = append(input.Marks, d.InexactFloat64())
	}

	if err := validate.Struct(input); err != nil {
		return Entry{}, apperrors.NewValidationError("invalid marks for "+name, err)
	}
	return entry, nil
}

// Average returns the exact mean of the marks
func (e Entry) Average() decimal.Decimal {
	sum := decimal.Zero
	for _, m := range e.Marks {
		sum = sum.Add(m)
	}
	return sum.Div(decimal.NewFromInt(Subjects))
}

// Grade maps the average to a letter: A from 90, B from 80, C from 70,
// D from 60, F below
func (e Entry) Grade() string {
	avg := e.Average()
	for _, t := range gradeThresholds {
		if avg.GreaterThanOrEqual(t.min) {
			return t.grade
		}
	}
	return "F"
}

// Record renders the stored row: name, marks, average and grade
func (e Entry) Record() []string {
	row := make([]string, 0, Subjects+3)
	row = append(row, e.Name)
	for _, m := range e.Marks {
		row = append(row, formatMark(m))
	}
	return append(row, e.Average().StringFixed(2), e.Grade())
}

// formatMark renders a mark with at least one decimal place, so 95 is
// written as 95.0 and 92.25 keeps both digits
func formatMark(m decimal.Decimal) string {
	if m.Equal(m.Round(1)) {
		return m.StringFixed(1)
	}
	return m.String()
}

// Book is the append-only marks file
type Book struct {
	path   string
	csv    *exporter.CSVWriter
	logger *slog.Logger
}

// New opens the grade book stored at path
func New(path string, logger *slog.Logger) *Book {
	if logger == nil {
		logger = slog.Default()
	}
	return &Book{path: path, csv: exporter.NewCSVWriter(nil, logger), logger: logger}
}

// Append adds one row per entry. The file has no header row.
func (b *Book) Append(entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	records := make([][]string, len(entries))
	for i, e := range entries {
		records[i] = e.Record()
	}
	if err := b.csv.AppendToCSV(b.path, records); err != nil {
		return apperrors.NewStorageError("failed to save marks", err)
	}
	b.logger.Info("Saved marks", slog.String("file", b.path), slog.Int("entries", len(entries)))
	return nil
}

// View returns the stored rows as written, without recomputing averages or
// grades. A missing file is a NOT_FOUND error.
func (b *Book) View() ([][]string, error) {
	f, err := os.Open(b.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.NewNotFoundError(b.path)
		}
		return nil, apperrors.NewStorageError("failed to open marks", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	var rows [][]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.NewParsingError("failed to read marks", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

const rule = "=============================================="

// RenderTable formats rows under the Name/Sub1..Sub4/Avg/Grade header.
// Short rows are padded with empty cells.
func RenderTable(rows [][]string) string {
	var b strings.Builder
	b.WriteString(rule + "\n")
	b.WriteString("Name\tSub1\tSub2\tSub3\tSub4\tAvg\tGrade\n")
	b.WriteString(rule + "\n")
	for _, row := range rows {
		cells := make([]string, Subjects+3)
		copy(cells, row)
		b.WriteString(strings.Join(cells, "\t") + "\n")
	}
	b.WriteString(rule + "\n")
	return b.String()
}

// Rows renders entries the way RenderTable expects them
func Rows(entries []Entry) [][]string {
	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = e.Record()
	}
	return rows
}
