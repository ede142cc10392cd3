package dataprocessing

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "labpulse/internal/errors"
	"labpulse/pkg/contracts/domain"
)

func weatherTable(t *testing.T) *domain.Table {
	t.Helper()
	p := NewParser(ParseOptions{RequiredColumns: []string{"MinTemp", "MaxTemp"}}, nil)
	input := strings.Join([]string{
		"MinTemp,MaxTemp,Rainfall",
		"8,24,0",
		"14,NA,3.6",
		"13,26,1.2",
	}, "\n")
	result, err := p.Parse(context.Background(), strings.NewReader(input), "weather.csv")
	require.NoError(t, err)

	table := domain.NewTable(result.Header, "")
	for _, rec := range result.Records {
		table.Append(rec)
	}
	return table
}

func TestSynthesizeTimestamps(t *testing.T) {
	table := weatherTable(t)
	require.Equal(t, 2, table.Len())

	SynthesizeTimestamps(table, "Date", time.Date(2008, 12, 1, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, "Date", table.TimestampColumn)
	assert.Equal(t, "2008-12-01", table.Records[0].Timestamp.Time.Format("2006-01-02"))
	// The dropped second row still consumes a date.
	assert.Equal(t, "2008-12-03", table.Records[1].Timestamp.Time.Format("2006-01-02"))
	date, ok := table.Tag(table.Records[1], "Date")
	assert.True(t, ok)
	assert.Equal(t, "2008-12-03", date)
}

func TestDeriveMean(t *testing.T) {
	table := weatherTable(t)
	require.NoError(t, DeriveMean(table, "MeanTemp", "MinTemp", "MaxTemp"))

	v, ok := table.Value(table.Records[0], "MeanTemp")
	assert.True(t, ok)
	assert.Equal(t, 16.0, v)
	v, _ = table.Value(table.Records[1], "MeanTemp")
	assert.Equal(t, 19.5, v)

	err := DeriveMean(table, "X", "MinTemp", "Humidity3pm")
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeColumn))
}

func TestDeriveTagsAndSeasons(t *testing.T) {
	table := weatherTable(t)
	SynthesizeTimestamps(table, "Date", time.Date(2008, 12, 1, 0, 0, 0, 0, time.UTC))
	DeriveTag(table, "Season", SeasonTag)
	DeriveTag(table, "Month", MonthTag)

	season, _ := table.Tag(table.Records[0], "Season")
	assert.Equal(t, SeasonWinter, season)
	month, _ := table.Tag(table.Records[0], "Month")
	assert.Equal(t, "12", month)

	tests := []struct {
		month time.Month
		want  string
	}{
		{time.January, SeasonWinter},
		{time.February, SeasonWinter},
		{time.March, SeasonSpring},
		{time.May, SeasonSpring},
		{time.June, SeasonSummer},
		{time.August, SeasonSummer},
		{time.September, SeasonAutumn},
		{time.November, SeasonAutumn},
		{time.December, SeasonWinter},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SeasonOf(tt.month), tt.month.String())
	}

	_, ok := SeasonTag(domain.Record{})
	assert.False(t, ok)
}

func TestFilterAndComplete(t *testing.T) {
	table := parseTable(t,
		"timestamp,a,b",
		"2023-01-01,1,2",
		"2023-01-02,,2",
		"2023-01-03,1,x",
	)

	kept := Filter(table, func(rec domain.Record) bool {
		return Complete(table, rec, "a", "b")
	})
	assert.Equal(t, 1, kept.Len())
	assert.Equal(t, table.Columns, kept.Columns)
}

func TestDescribeAndHead(t *testing.T) {
	table := parseTable(t,
		"timestamp,kwh,building",
		"2023-01-01,10,A",
		"2023-01-02,20,B",
		"2023-01-03,,A",
	)

	desc, err := Describe(table)
	require.NoError(t, err)
	assert.Greater(t, desc.Nrow(), 0)
	assert.Contains(t, desc.Names(), "kwh")

	head, err := Head(table, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, head.Nrow())
	assert.Equal(t, []string{"timestamp", "kwh", "building"}, head.Names())

	head, err = Head(table, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, head.Nrow())

	_, err = Describe(domain.NewTable([]string{"a"}, ""))
	assert.Error(t, err)
}
