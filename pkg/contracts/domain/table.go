package domain

import (
	"time"
)

// TimestampLayout is the layout used whenever a timestamp is written out.
const TimestampLayout = "2006-01-02 15:04:05"

// NullTime is a timestamp that may be absent. Unparseable source values
// produce a NullTime with Valid set to false.
type NullTime struct {
	Time  time.Time
	Valid bool
}

// NewNullTime wraps a valid instant.
func NewNullTime(t time.Time) NullTime {
	return NullTime{Time: t, Valid: true}
}

// String renders the timestamp, or "" when absent.
func (n NullTime) String() string {
	if !n.Valid {
		return ""
	}
	return n.Time.Format(TimestampLayout)
}

// Field is a single typed cell of a Record. Present is false when the
// column does not exist for the record's source or the cell was empty.
type Field struct {
	Raw     string
	Number  float64
	Numeric bool
	Present bool
}

// AbsentField is the marker stored for a missing cell.
var AbsentField = Field{}

// TextField builds a present, non-numeric field.
func TextField(s string) Field {
	return Field{Raw: s, Present: s != ""}
}

// NumberField builds a present numeric field.
func NumberField(raw string, v float64) Field {
	return Field{Raw: raw, Number: v, Numeric: true, Present: true}
}

// Record is one ingested row. Fields line up with Table.Columns. Line is
// the source line number and Ordinal the zero-based data row index within
// the source, counting rows that were later skipped.
type Record struct {
	Timestamp NullTime
	Fields    []Field
	Source    string
	Line      int
	Ordinal   int
}

// Table is the unified, ordered collection of records built by ingestion.
type Table struct {
	Columns         []string
	TimestampColumn string
	Records         []Record
}

// NewTable creates an empty table with the given column order.
func NewTable(columns []string, timestampColumn string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{
		Columns:         cols,
		TimestampColumn: timestampColumn,
	}
}

// Len returns the number of records.
func (t *Table) Len() int {
	return len(t.Records)
}

// Index returns the position of a column.
func (t *Table) Index(name string) (int, bool) {
	for i, c := range t.Columns {
		if c == name {
			return i, true
		}
	}
	return -1, false
}

// HasColumn reports whether the table has the named column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.Index(name)
	return ok
}

// AddColumn appends a column and pads every existing record with an absent
// field. It returns the new column index, or the existing one if present.
func (t *Table) AddColumn(name string) int {
	if idx, ok := t.Index(name); ok {
		return idx
	}
	t.Columns = append(t.Columns, name)
	for i := range t.Records {
		t.Records[i].Fields = append(t.Records[i].Fields, AbsentField)
	}
	return len(t.Columns) - 1
}

// Append adds a record, padding or truncating its fields to the column count.
func (t *Table) Append(rec Record) {
	switch {
	case len(rec.Fields) < len(t.Columns):
		padded := make([]Field, len(t.Columns))
		copy(padded, rec.Fields)
		rec.Fields = padded
	case len(rec.Fields) > len(t.Columns):
		rec.Fields = rec.Fields[:len(t.Columns)]
	}
	t.Records = append(t.Records, rec)
}

// Field returns the cell of rec under column, or AbsentField.
func (t *Table) Field(rec Record, column string) Field {
	idx, ok := t.Index(column)
	if !ok || idx >= len(rec.Fields) {
		return AbsentField
	}
	return rec.Fields[idx]
}

// Value returns the numeric value of rec under column.
func (t *Table) Value(rec Record, column string) (float64, bool) {
	f := t.Field(rec, column)
	if !f.Present || !f.Numeric {
		return 0, false
	}
	return f.Number, true
}

// Tag returns the text value of rec under column.
func (t *Table) Tag(rec Record, column string) (string, bool) {
	f := t.Field(rec, column)
	if !f.Present {
		return "", false
	}
	return f.Raw, true
}

// Project returns a new table holding only the listed columns, in that
// order. Unknown columns are carried as absent.
func (t *Table) Project(columns ...string) *Table {
	out := NewTable(columns, t.TimestampColumn)
	idx := make([]int, len(columns))
	for i, c := range columns {
		j, ok := t.Index(c)
		if !ok {
			j = -1
		}
		idx[i] = j
	}
	for _, rec := range t.Records {
		fields := make([]Field, len(columns))
		for i, j := range idx {
			if j >= 0 && j < len(rec.Fields) {
				fields[i] = rec.Fields[j]
			}
		}
		out.Records = append(out.Records, Record{
			Timestamp: rec.Timestamp,
			Fields:    fields,
			Source:    rec.Source,
			Line:      rec.Line,
			Ordinal:   rec.Ordinal,
		})
	}
	return out
}
