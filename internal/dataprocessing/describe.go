package dataprocessing

import (
	"fmt"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"labpulse/pkg/contracts/domain"
)

// Frame converts table into a gota DataFrame. Columns whose present cells
// are all numeric become float series, the rest stay strings. Absent cells
// become NaN.
func Frame(table *domain.Table) (dataframe.DataFrame, error) {
	if table.Len() == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("table has no rows")
	}

	records := make([][]string, 0, table.Len()+1)
	records = append(records, append([]string(nil), table.Columns...))

	numeric := make([]bool, len(table.Columns))
	seen := make([]bool, len(table.Columns))
	for i := range numeric {
		numeric[i] = true
	}

	for _, rec := range table.Records {
		row := make([]string, len(table.Columns))
		for i := range table.Columns {
			if i >= len(rec.Fields) || !rec.Fields[i].Present {
				continue
			}
			f := rec.Fields[i]
			row[i] = f.Raw
			seen[i] = true
			if !f.Numeric {
				numeric[i] = false
			}
		}
		records = append(records, row)
	}

	types := make(map[string]series.Type, len(table.Columns))
	for i, col := range table.Columns {
		if numeric[i] && seen[i] && col != table.TimestampColumn {
			types[col] = series.Float
		} else {
			types[col] = series.String
		}
	}

	df := dataframe.LoadRecords(records,
		dataframe.DetectTypes(false),
		dataframe.WithTypes(types),
		dataframe.NaNValues([]string{"", "NA", "NaN"}),
	)
	return df, df.Err
}

// Describe returns the per-column summary statistics of table
func Describe(table *domain.Table) (dataframe.DataFrame, error) {
	df, err := Frame(table)
	if err != nil {
		return df, err
	}
	desc := df.Describe()
	return desc, desc.Err
}

// Head returns the first n rows of table as a DataFrame
func Head(table *domain.Table, n int) (dataframe.DataFrame, error) {
	df, err := Frame(table)
	if err != nil {
		return df, err
	}
	if n > df.Nrow() {
		n = df.Nrow()
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	head := df.Subset(idx)
	return head, head.Err
}
