package config

// Application constants
const (
	AppName    = "labpulse"
	AppVersion = "1.0.0"
)

// Well-known output file names
const (
	CleanedEnergyCSV   = "cleaned_energy_data.csv"
	DailyTotalsCSV     = "daily_totals.csv"
	WeeklyTotalsCSV    = "weekly_totals.csv"
	BuildingSummaryCSV = "building_summary.csv"
	SummaryTXT         = "summary.txt"
	DashboardXLSX      = "dashboard.xlsx"
	ReadingsLP         = "readings.lp"

	CleanedWeatherCSV = "cleaned_weather_data.csv"
	WeatherReportMD   = "weather_analysis_report.md"
	WeatherChartsXLSX = "weather_charts.xlsx"
)
