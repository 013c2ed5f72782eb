package service

const (
	// Sync batching
	StreamBatchSize = 50

	// Time windows
	RecentActivitiesLimit = 10
	ChartDays             = 90
	ReadinessWeeks        = 8
	VDOTLookbackDays      = 90

	// Runs shorter than this are ignored when estimating VDOT
	MinVDOTDistanceM = 3000

	// Cache size in bytes
	ActivityCacheSize = 16 * 1024 * 1024

	MetersPerKm = 1000.0
)
