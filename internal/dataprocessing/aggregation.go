package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	apperrors "labpulse/internal/errors"
	"labpulse/pkg/contracts/domain"
)

// Aggregator groups table rows by time bucket and/or category
type Aggregator struct {
	logger *slog.Logger
}

// NewAggregator creates an aggregator
func NewAggregator(logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{logger: logger}
}

type groupAcc struct {
	key    domain.GroupKey
	values []float64
}

// Aggregate computes one Stats per non-empty group of spec. Groups are
// ordered chronologically, then by category. Rows without a numeric value,
// and for bucketed specs rows without a timestamp, are not counted. A
// missing column yields a non-computable aggregate rather than an error.
func (a *Aggregator) Aggregate(ctx context.Context, table *domain.Table, spec domain.GroupSpec) domain.Aggregate {
	agg := domain.Aggregate{Spec: spec}

	if !spec.Bucket.Valid() {
		agg.Reason = fmt.Sprintf("unknown granularity %q", spec.Bucket)
		a.logger.WarnContext(ctx, "Aggregate not computable",
			slog.String("aggregate", spec.Name),
			slog.String("reason", agg.Reason))
		return agg
	}

	required := []string{spec.ValueColumn}
	if spec.Bucketed() {
		required = append(required, table.TimestampColumn)
	}
	if spec.Categorized() {
		required = append(required, spec.CategoryColumn)
	}
	for _, col := range required {
		if col == "" || !table.HasColumn(col) {
			agg.Reason = apperrors.NewColumnError(col).Error()
			a.logger.WarnContext(ctx, "Aggregate not computable",
				slog.String("aggregate", spec.Name),
				slog.String("reason", agg.Reason))
			return agg
		}
	}

	valueIdx, _ := table.Index(spec.ValueColumn)
	catIdx := -1
	if spec.Categorized() {
		catIdx, _ = table.Index(spec.CategoryColumn)
	}

	groups := make(map[string]*groupAcc)
	for _, rec := range table.Records {
		key, ok := groupKey(rec, spec, catIdx)
		if !ok {
			continue
		}
		f := rec.Fields[valueIdx]
		if !f.Present || !f.Numeric {
			continue
		}

		id := key.String()
		acc, exists := groups[id]
		if !exists {
			acc = &groupAcc{key: key}
			groups[id] = acc
		}
		acc.values = append(acc.values, f.Number)
	}

	agg.Groups = make([]domain.Group, 0, len(groups))
	for _, acc := range groups {
		agg.Groups = append(agg.Groups, domain.Group{
			Key:   acc.key,
			Stats: ComputeStats(acc.values),
		})
	}
	sort.Slice(agg.Groups, func(i, j int) bool {
		return agg.Groups[i].Key.Less(agg.Groups[j].Key)
	})
	agg.Computable = true

	a.logger.DebugContext(ctx, "Computed aggregate",
		slog.String("aggregate", spec.Name),
		slog.Int("groups", len(agg.Groups)))

	return agg
}

// AggregateAll runs Aggregate for every spec in order
func (a *Aggregator) AggregateAll(ctx context.Context, table *domain.Table, specs []domain.GroupSpec) []domain.Aggregate {
	out := make([]domain.Aggregate, 0, len(specs))
	for _, spec := range specs {
		out = append(out, a.Aggregate(ctx, table, spec))
	}
	return out
}

// groupKey builds the key of rec, or reports that rec is not eligible
func groupKey(rec domain.Record, spec domain.GroupSpec, catIdx int) (domain.GroupKey, bool) {
	key := domain.GroupKey{Granularity: spec.Bucket}

	if spec.Bucketed() {
		if !rec.Timestamp.Valid {
			return key, false
		}
		key.Bucket = BucketStart(rec.Timestamp.Time, spec.Bucket)
		key.HasBucket = true
	}

	if catIdx >= 0 {
		if catIdx >= len(rec.Fields) || !rec.Fields[catIdx].Present {
			return key, false
		}
		key.Category = rec.Fields[catIdx].Raw
		key.HasCategory = true
	}

	return key, true
}

// Totals returns the sum over all groups of an aggregate
func Totals(agg domain.Aggregate) float64 {
	var total float64
	for _, g := range agg.Groups {
		total += g.Stats.Sum
	}
	return total
}

// Means maps each group key to its mean, preserving group order
func Means(agg domain.Aggregate) ([]string, map[string]float64) {
	keys := make([]string, 0, len(agg.Groups))
	means := make(map[string]float64, len(agg.Groups))
	for _, g := range agg.Groups {
		k := g.Key.String()
		keys = append(keys, k)
		means[k] = g.Stats.Mean
	}
	return keys, means
}

// AverageByCategory averages the group sums of a bucketed, categorized
// aggregate per category, e.g. the mean weekly total of each building.
// Buckets in which a category has no rows do not count towards its mean.
func AverageByCategory(agg domain.Aggregate) ([]string, map[string]float64) {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	var keys []string
	for _, g := range agg.Groups {
		if !g.Key.HasCategory {
			continue
		}
		c := g.Key.Category
		if _, seen := counts[c]; !seen {
			keys = append(keys, c)
		}
		sums[c] += g.Stats.Sum
		counts[c]++
	}
	sort.Strings(keys)

	means := make(map[string]float64, len(keys))
	for _, c := range keys {
		means[c] = sums[c] / float64(counts[c])
	}
	return keys, means
}
