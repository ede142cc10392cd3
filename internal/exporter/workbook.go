package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"labpulse/pkg/contracts/domain"
)

// ChartKind selects the chart drawn by AddChart
type ChartKind int

const (
	ChartLine ChartKind = iota
	ChartBar
	ChartScatter
)

// SeriesRef points a chart series at a column range of a data sheet
type SeriesRef struct {
	Name        string
	Sheet       string
	CategoryCol int // 1-based
	ValueCol    int // 1-based
	FirstRow    int
	LastRow     int
}

// ChartSpec describes one chart placed on a sheet
type ChartSpec struct {
	Sheet  string
	Anchor string
	Kind   ChartKind
	Title  string
	XTitle string
	YTitle string
	Series []SeriesRef
}

// Workbook builds an .xlsx file of data sheets and native charts
type Workbook struct {
	f      *excelize.File
	sheets []string
	logger *slog.Logger
}

// NewWorkbook creates an empty workbook
func NewWorkbook(logger *slog.Logger) *Workbook {
	if logger == nil {
		logger = slog.Default()
	}
	return &Workbook{f: excelize.NewFile(), logger: logger}
}

// AddSheet creates a sheet. The default sheet of a new file is reused for
// the first one.
func (w *Workbook) AddSheet(name string) error {
	if len(w.sheets) == 0 {
		if err := w.f.SetSheetName(w.f.GetSheetName(0), name); err != nil {
			return fmt.Errorf("failed to rename sheet: %w", err)
		}
	} else if _, err := w.f.NewSheet(name); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", name, err)
	}
	w.sheets = append(w.sheets, name)
	return nil
}

// AddDataSheet creates a sheet holding header in row 1 and rows below it.
// Nil cells are left blank.
func (w *Workbook) AddDataSheet(name string, header []string, rows [][]interface{}) error {
	if err := w.AddSheet(name); err != nil {
		return err
	}

	headerRow := make([]interface{}, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := w.f.SetSheetRow(name, "A1", &headerRow); err != nil {
		return fmt.Errorf("failed to write header of %s: %w", name, err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		r := row
		if err := w.f.SetSheetRow(name, cell, &r); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", i+2, name, err)
		}
	}
	return nil
}

// AddChart draws spec on its sheet
func (w *Workbook) AddChart(spec ChartSpec) error {
	if len(spec.Series) == 0 {
		return fmt.Errorf("chart %q has no series", spec.Title)
	}

	chart := &excelize.Chart{
		Title:        []excelize.RichTextRun{{Text: spec.Title}},
		XAxis:        excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: spec.XTitle}}},
		YAxis:        excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: spec.YTitle}}, MajorGridLines: true},
		Legend:       excelize.ChartLegend{Position: "bottom"},
		Dimension:    excelize.ChartDimension{Width: 960, Height: 400},
		ShowBlanksAs: "gap",
	}

	switch spec.Kind {
	case ChartBar:
		chart.Type = excelize.Col
	case ChartScatter:
		chart.Type = excelize.Scatter
	default:
		chart.Type = excelize.Line
	}

	for _, s := range spec.Series {
		categories, err := columnRange(s.Sheet, s.CategoryCol, s.FirstRow, s.LastRow)
		if err != nil {
			return err
		}
		values, err := columnRange(s.Sheet, s.ValueCol, s.FirstRow, s.LastRow)
		if err != nil {
			return err
		}
		series := excelize.ChartSeries{
			Name:       s.Name,
			Categories: categories,
			Values:     values,
		}
		if spec.Kind == ChartScatter {
			series.Line = excelize.ChartLine{Type: excelize.ChartLineNone}
			series.Marker = excelize.ChartMarker{Symbol: "circle", Size: 4}
		}
		chart.Series = append(chart.Series, series)
	}

	if err := w.f.AddChart(spec.Sheet, spec.Anchor, chart); err != nil {
		return fmt.Errorf("failed to add chart %q: %w", spec.Title, err)
	}
	return nil
}

// SetActive makes name the sheet shown when the file is opened
func (w *Workbook) SetActive(name string) error {
	idx, err := w.f.GetSheetIndex(name)
	if err != nil {
		return err
	}
	if idx < 0 {
		return fmt.Errorf("sheet %s not found", name)
	}
	w.f.SetActiveSheet(idx)
	return nil
}

// Save writes the workbook to path and releases it
func (w *Workbook) Save(ctx context.Context, path string) error {
	defer w.f.Close()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := w.f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	w.logger.InfoContext(ctx, "Saved workbook",
		slog.String("file", path),
		slog.Int("sheets", len(w.sheets)))
	return nil
}

// Pivot is an aggregate keyed by bucket and category laid out as a grid
type Pivot struct {
	Buckets    []time.Time
	Categories []string
	Layout     string
	// Cells[i][j] is the value for Buckets[i] and Categories[j].
	Cells [][]*float64
}

// PivotAggregate lays agg out with one row per bucket and one column per
// category, taking the value of each group from pick
func PivotAggregate(agg domain.Aggregate, pick func(domain.Stats) float64) Pivot {
	p := Pivot{Layout: agg.Spec.Bucket.Layout()}

	bucketIdx := make(map[time.Time]int)
	catSet := make(map[string]bool)
	for _, g := range agg.Groups {
		if _, ok := bucketIdx[g.Key.Bucket]; !ok {
			bucketIdx[g.Key.Bucket] = len(p.Buckets)
			p.Buckets = append(p.Buckets, g.Key.Bucket)
		}
		if !catSet[g.Key.Category] {
			catSet[g.Key.Category] = true
			p.Categories = append(p.Categories, g.Key.Category)
		}
	}
	sort.Strings(p.Categories)
	catIdx := make(map[string]int, len(p.Categories))
	for i, c := range p.Categories {
		catIdx[c] = i
	}

	p.Cells = make([][]*float64, len(p.Buckets))
	for i := range p.Cells {
		p.Cells[i] = make([]*float64, len(p.Categories))
	}
	for _, g := range agg.Groups {
		v := pick(g.Stats)
		p.Cells[bucketIdx[g.Key.Bucket]][catIdx[g.Key.Category]] = &v
	}
	return p
}

// Rows renders the pivot for AddDataSheet, bucket label first
func (p Pivot) Rows() [][]interface{} {
	rows := make([][]interface{}, len(p.Buckets))
	for i, b := range p.Buckets {
		row := make([]interface{}, 0, len(p.Categories)+1)
		row = append(row, b.Format(p.Layout))
		for _, c := range p.Cells[i] {
			if c == nil {
				row = append(row, nil)
			} else {
				row = append(row, *c)
			}
		}
		rows[i] = row
	}
	return rows
}

// Sum picks the group total for PivotAggregate
func Sum(s domain.Stats) float64 { return s.Sum }

// columnRange builds an absolute reference such as Data!$B$2:$B$10
func columnRange(sheet string, col, first, last int) (string, error) {
	from, err := excelize.CoordinatesToCellName(col, first, true)
	if err != nil {
		return "", err
	}
	to, err := excelize.CoordinatesToCellName(col, last, true)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s!%s:%s", sheet, from, to), nil
}
