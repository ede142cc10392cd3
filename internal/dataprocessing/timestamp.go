package dataprocessing

import (
	"strings"
	"time"

	"labpulse/pkg/contracts/domain"
)

// timestampLayouts are tried in order. Layouts without a zone are read in
// the parser's location.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"02/01/2006 15:04",
	"02/01/2006",
}

// ParseTimestamp normalizes s into a NullTime in UTC. Values that match no
// known layout yield an invalid NullTime instead of an error.
func ParseTimestamp(s string) domain.NullTime {
	return ParseTimestampIn(s, time.UTC)
}

// ParseTimestampIn is ParseTimestamp for values recorded in loc. The result
// stays in loc so buckets follow the local wall clock; values carrying an
// explicit offset are converted to loc.
func ParseTimestampIn(s string, loc *time.Location) domain.NullTime {
	s = strings.TrimSpace(s)
	if s == "" {
		return domain.NullTime{}
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return domain.NewNullTime(t.In(loc))
		}
	}
	return domain.NullTime{}
}

// BucketStart truncates t to the start of its bucket in t's own location.
// Weeks end on Sunday and are labelled by that Sunday.
func BucketStart(t time.Time, g domain.Granularity) time.Time {
	loc := t.Location()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	switch g {
	case domain.GranularityDay:
		return day
	case domain.GranularityWeek:
		offset := (7 - int(day.Weekday())) % 7
		return day.AddDate(0, 0, offset)
	case domain.GranularityMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
	case domain.GranularityYear:
		return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, loc)
	default:
		return t
	}
}
