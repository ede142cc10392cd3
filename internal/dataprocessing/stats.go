package dataprocessing

import (
	"math"

	"labpulse/pkg/contracts/domain"
)

// ComputeStats summarizes values. Std is the population standard deviation
// computed from the mean in a second pass, so a single value has Std 0.
func ComputeStats(values []float64) domain.Stats {
	if len(values) == 0 {
		return domain.Stats{}
	}

	s := domain.Stats{
		Count: len(values),
		Min:   values[0],
		Max:   values[0],
	}
	for _, v := range values {
		s.Sum += v
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
	}
	s.Mean = s.Sum / float64(s.Count)

	var sq float64
	for _, v := range values {
		d := v - s.Mean
		sq += d * d
	}
	s.Std = math.Sqrt(sq / float64(s.Count))

	return s
}

// ColumnStats summarizes every numeric value of column. The boolean is false
// when the column does not exist or holds no numbers.
func ColumnStats(table *domain.Table, column string) (domain.Stats, bool) {
	values := ColumnValues(table, column)
	if len(values) == 0 {
		return domain.Stats{}, false
	}
	return ComputeStats(values), true
}

// Correlation returns the Pearson correlation of columns a and b over rows
// where both are numeric. ok is false with fewer than two such rows or when
// either column is constant.
func Correlation(table *domain.Table, a, b string) (r float64, ok bool) {
	var xs, ys []float64
	for _, rec := range table.Records {
		x, okX := table.Value(rec, a)
		y, okY := table.Value(rec, b)
		if okX && okY {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}
	if len(xs) < 2 {
		return 0, false
	}

	sx, sy := ComputeStats(xs), ComputeStats(ys)
	if sx.Std == 0 || sy.Std == 0 {
		return 0, false
	}

	var cov float64
	for i := range xs {
		cov += (xs[i] - sx.Mean) * (ys[i] - sy.Mean)
	}
	cov /= float64(len(xs))

	return cov / (sx.Std * sy.Std), true
}

// ColumnValues returns the numeric values of column in table order
func ColumnValues(table *domain.Table, column string) []float64 {
	idx, ok := table.Index(column)
	if !ok {
		return nil
	}
	var values []float64
	for _, rec := range table.Records {
		if idx < len(rec.Fields) && rec.Fields[idx].Present && rec.Fields[idx].Numeric {
			values = append(values, rec.Fields[idx].Number)
		}
	}
	return values
}
