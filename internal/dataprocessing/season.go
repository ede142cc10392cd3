package dataprocessing

import (
	"fmt"
	"time"

	"labpulse/pkg/contracts/domain"
)

// Season names used by SeasonOf
const (
	SeasonWinter = "Winter"
	SeasonSpring = "Spring"
	SeasonSummer = "Summer"
	SeasonAutumn = "Autumn"
)

// SeasonOf maps a month to its meteorological season in the northern
// calendar: Dec-Feb winter, Mar-May spring, Jun-Aug summer.
func SeasonOf(m time.Month) string {
	switch m {
	case time.December, time.January, time.February:
		return SeasonWinter
	case time.March, time.April, time.May:
		return SeasonSpring
	case time.June, time.July, time.August:
		return SeasonSummer
	default:
		return SeasonAutumn
	}
}

// SeasonTag tags a record with the season of its timestamp
func SeasonTag(rec domain.Record) (string, bool) {
	if !rec.Timestamp.Valid {
		return "", false
	}
	return SeasonOf(rec.Timestamp.Time.Month()), true
}

// MonthTag tags a record with its two-digit month of year, so lexical
// order of the tag is calendar order
func MonthTag(rec domain.Record) (string, bool) {
	if !rec.Timestamp.Valid {
		return "", false
	}
	return fmt.Sprintf("%02d", int(rec.Timestamp.Time.Month())), true
}
