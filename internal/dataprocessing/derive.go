package dataprocessing

import (
	"strconv"
	"time"

	apperrors "labpulse/internal/errors"
	"labpulse/pkg/contracts/domain"
)

// DeriveMean adds column name holding the mean of columns a and b. Rows
// missing either input get an absent value.
func DeriveMean(table *domain.Table, name, a, b string) error {
	for _, col := range []string{a, b} {
		if !table.HasColumn(col) {
			return apperrors.NewColumnError(col)
		}
	}

	idx := table.AddColumn(name)
	for i := range table.Records {
		rec := &table.Records[i]
		va, okA := table.Value(*rec, a)
		vb, okB := table.Value(*rec, b)
		if !okA || !okB {
			rec.Fields[idx] = domain.AbsentField
			continue
		}
		v := (va + vb) / 2
		rec.Fields[idx] = domain.NumberField(strconv.FormatFloat(v, 'f', -1, 64), v)
	}
	return nil
}

// DeriveTag adds column name filled by fn. A false second result leaves the
// row's value absent.
func DeriveTag(table *domain.Table, name string, fn func(domain.Record) (string, bool)) {
	idx := table.AddColumn(name)
	for i := range table.Records {
		rec := &table.Records[i]
		if tag, ok := fn(*rec); ok {
			rec.Fields[idx] = domain.TextField(tag)
		} else {
			rec.Fields[idx] = domain.AbsentField
		}
	}
}

// SynthesizeTimestamps assigns each record start plus one day per source
// row and makes column the table's timestamp column. Dates follow the row's
// position in its source, so rows dropped during parsing leave gaps.
func SynthesizeTimestamps(table *domain.Table, column string, start time.Time) {
	idx := table.AddColumn(column)
	table.TimestampColumn = column
	start = start.UTC()

	for i := range table.Records {
		rec := &table.Records[i]
		ts := start.AddDate(0, 0, rec.Ordinal)
		rec.Timestamp = domain.NewNullTime(ts)
		rec.Fields[idx] = domain.TextField(ts.Format("2006-01-02"))
	}
}

// Filter returns a table holding only the records keep accepts
func Filter(table *domain.Table, keep func(domain.Record) bool) *domain.Table {
	out := domain.NewTable(table.Columns, table.TimestampColumn)
	for _, rec := range table.Records {
		if keep(rec) {
			out.Append(rec)
		}
	}
	return out
}

// Complete reports whether rec has numeric values for every column
func Complete(table *domain.Table, rec domain.Record, columns ...string) bool {
	for _, col := range columns {
		if _, ok := table.Value(rec, col); !ok {
			return false
		}
	}
	return true
}
