package service

const (
	// Sync paging; Strava caps per_page at 200 but 100 keeps responses small
	SyncPageSize = 100

	// Trailing windows (days)
	WeekDays  = 7
	MonthDays = 30

	// Defaults when a LoadService is built without windows
	DefaultHistoryDays    = 180
	DefaultZoneWindowDays = 28
	DefaultChartDays      = 42

	// Longest range a single series or backfill request may cover
	MaxRangeDays = 3660

	// Recent rides shown on the dashboard
	RecentRidesLimit = 10

	// Unit conversions
	MetersPerKm   = 1000.0
	MetersPerMile = 1609.34
)
