package pipeline

import (
	"fmt"

	"labpulse/internal/exporter"
)

// rowsPerChart is the vertical space given to each chart on a chart sheet
const rowsPerChart = 22

// chartSheet stacks charts vertically on one sheet of a workbook
type chartSheet struct {
	wb     *exporter.Workbook
	name   string
	charts int
}

func newChartSheet(wb *exporter.Workbook, name string) (*chartSheet, error) {
	if err := wb.AddSheet(name); err != nil {
		return nil, err
	}
	return &chartSheet{wb: wb, name: name}, nil
}

// add places spec below the charts already on the sheet
func (s *chartSheet) add(spec exporter.ChartSpec) error {
	spec.Sheet = s.name
	spec.Anchor = fmt.Sprintf("A%d", 1+s.charts*rowsPerChart)
	if err := s.wb.AddChart(spec); err != nil {
		return err
	}
	s.charts++
	return nil
}

// delimiter returns the first rune of s, or 0 for the parser default
func delimiter(s string) rune {
	for _, r := range s {
		return r
	}
	return 0
}
