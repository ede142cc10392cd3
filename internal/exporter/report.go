package exporter

import (
	"fmt"
	"strings"

	"labpulse/pkg/contracts/domain"
)

// ColumnSummary pairs a column with its overall statistics
type ColumnSummary struct {
	Column string
	Stats  domain.Stats
}

// WeatherReport holds the computed results the markdown report is built from
type WeatherReport struct {
	Source          string
	Rows            int
	RowsDropped     int
	DateSynthesized bool
	StartDate       string
	KeyColumns      []string

	Overall []ColumnSummary
	// Aggregates are rendered as tables in order under their spec name.
	Aggregates []domain.Aggregate

	WettestMonth   string
	WettestTotal   float64
	WarmestSeason  string
	CoolestSeason  string
	Correlation    float64
	HasCorrelation bool

	Files []string
}

// RenderWeatherReport formats r as markdown
func RenderWeatherReport(r WeatherReport) string {
	var b strings.Builder

	b.WriteString("# Weather Data Analysis Report\n\n")

	b.WriteString("## Overview\n\n")
	fmt.Fprintf(&b, "This report analyzes `%s`, focusing on temperature, rainfall and humidity.", r.Source)
	if r.DateSynthesized {
		fmt.Fprintf(&b, " The file has no date column, so daily dates starting from %s were assigned in row order.", r.StartDate)
	}
	b.WriteString("\n\n")

	b.WriteString("## Data Cleaning and Processing\n\n")
	fmt.Fprintf(&b, "- Rows kept: %d\n", r.Rows)
	fmt.Fprintf(&b, "- Rows dropped for missing %s: %d\n", strings.Join(r.KeyColumns, ", "), r.RowsDropped)
	b.WriteString("- MeanTemp is the average of MinTemp and MaxTemp.\n\n")

	b.WriteString("## Statistical Analysis\n\n")
	if len(r.Overall) > 0 {
		b.WriteString("| Column | Mean | Min | Max | Std |\n")
		b.WriteString("|---|---|---|---|---|\n")
		for _, c := range r.Overall {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n", c.Column,
				formatFloat(c.Stats.Mean), formatFloat(c.Stats.Min),
				formatFloat(c.Stats.Max), formatFloat(c.Stats.Std))
		}
		b.WriteString("\n")
	}

	for _, agg := range r.Aggregates {
		fmt.Fprintf(&b, "### %s (%s)\n\n", agg.Spec.Name, agg.Spec.ValueColumn)
		if !agg.Computable {
			fmt.Fprintf(&b, "Not computed: %s\n\n", agg.Reason)
			continue
		}
		header := Header(agg.Spec)
		b.WriteString("| " + strings.Join(header, " | ") + " |\n")
		b.WriteString("|" + strings.Repeat("---|", len(header)) + "\n")
		for _, row := range Rows(agg) {
			b.WriteString("| " + strings.Join(row, " | ") + " |\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("## Insights\n\n")
	if r.WettestMonth != "" {
		fmt.Fprintf(&b, "- The wettest month was %s with %s mm of rain.\n", r.WettestMonth, formatFloat(r.WettestTotal))
	}
	if r.WarmestSeason != "" {
		fmt.Fprintf(&b, "- %s had the highest mean temperature and %s the lowest.\n", r.WarmestSeason, r.CoolestSeason)
	}
	if r.HasCorrelation {
		direction := "positive"
		if r.Correlation < 0 {
			direction = "negative"
		}
		fmt.Fprintf(&b, "- Humidity at 3pm and mean temperature show a %s correlation (r = %s).\n",
			direction, formatFloat(r.Correlation))
	}
	b.WriteString("\n")

	if len(r.Files) > 0 {
		b.WriteString("## Files Exported\n\n")
		for _, f := range r.Files {
			fmt.Fprintf(&b, "- `%s`\n", f)
		}
	}

	return b.String()
}
