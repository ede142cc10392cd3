package domain

import (
	"strings"
	"time"
)

// Granularity is the size of a time bucket.
type Granularity string

const (
	GranularityNone  Granularity = ""
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
	GranularityYear  Granularity = "year"
)

// Layout returns the key layout used to render buckets of this size.
func (g Granularity) Layout() string {
	switch g {
	case GranularityMonth:
		return "2006-01"
	case GranularityYear:
		return "2006"
	default:
		return "2006-01-02"
	}
}

// Valid reports whether g is a known granularity.
func (g Granularity) Valid() bool {
	switch g {
	case GranularityNone, GranularityDay, GranularityWeek, GranularityMonth, GranularityYear:
		return true
	}
	return false
}

// GroupSpec describes one aggregation: which numeric column to summarize
// and how to bucket rows. Bucket and CategoryColumn may both be set.
type GroupSpec struct {
	Name           string      `json:"name" yaml:"name" validate:"required"`
	ValueColumn    string      `json:"value_column" yaml:"value_column" validate:"required"`
	Bucket         Granularity `json:"bucket,omitempty" yaml:"bucket"`
	CategoryColumn string      `json:"category_column,omitempty" yaml:"category_column"`
}

// Bucketed reports whether the spec groups by time.
func (s GroupSpec) Bucketed() bool {
	return s.Bucket != GranularityNone
}

// Categorized reports whether the spec groups by a tag column.
func (s GroupSpec) Categorized() bool {
	return s.CategoryColumn != ""
}

// GroupKey identifies one group of an aggregate.
type GroupKey struct {
	Bucket      time.Time
	HasBucket   bool
	Category    string
	HasCategory bool
	Granularity Granularity
}

// String renders the key as "bucket", "category" or "bucket|category".
func (k GroupKey) String() string {
	parts := make([]string, 0, 2)
	if k.HasBucket {
		parts = append(parts, k.Bucket.Format(k.Granularity.Layout()))
	}
	if k.HasCategory {
		parts = append(parts, k.Category)
	}
	return strings.Join(parts, "|")
}

// Less orders keys chronologically, then lexically.
func (k GroupKey) Less(o GroupKey) bool {
	if k.HasBucket && o.HasBucket && !k.Bucket.Equal(o.Bucket) {
		return k.Bucket.Before(o.Bucket)
	}
	return k.Category < o.Category
}

// Stats is the fixed summary computed for every group. Std uses
// population semantics.
type Stats struct {
	Count int     `json:"count"`
	Sum   float64 `json:"sum"`
	Mean  float64 `json:"mean"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Std   float64 `json:"std"`
}

// Group is one key with its statistics.
type Group struct {
	Key   GroupKey
	Stats Stats
}

// Aggregate is the ordered result of grouping a table. When Computable is
// false the required columns were missing and Groups is empty.
type Aggregate struct {
	Spec       GroupSpec
	Groups     []Group
	Computable bool
	Reason     string
}

// Lookup finds the group whose rendered key equals key.
func (a Aggregate) Lookup(key string) (Group, bool) {
	for _, g := range a.Groups {
		if g.Key.String() == key {
			return g, true
		}
	}
	return Group{}, false
}

// Len returns the number of groups.
func (a Aggregate) Len() int {
	return len(a.Groups)
}
