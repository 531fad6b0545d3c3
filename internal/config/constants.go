package config

import "time"

// Application constants for the WashPulse analytics service
const (
	// Application Info
	AppName    = "WashPulse"
	AppVersion = "1.4.0"

	// EnvPrefix is the envconfig prefix: WASH_SERVER_PORT, WASH_STORE_MYSQL_DSN, ...
	EnvPrefix = "WASH"

	// ConfigFileName is the optional YAML overlay next to the executable.
	ConfigFileName = "washpulse.yaml"

	// Store strategy names, tried in configured order.
	StrategyMySQL    = "mysql"
	StrategyPostgres = "postgres"
	StrategySnapshot = "snapshot"

	// Fact tables in the source warehouse.
	TableWashCounts        = "f_dly_wash_count"
	TableSubscriptionFacts = "f_dly_subscription_counts"
	TableSalesExpense      = "ags_sales_expense"

	// DefaultRollingWindow is the rolling-average window served to fresh
	// dashboard sessions. The window bounds live with the aggregations in
	// internal/analytics.
	DefaultRollingWindow = 7

	// Default filter hints served to fresh dashboard sessions.
	DefaultRangeDays   = 90
	DefaultSiteCount   = 5
	MaxSitesPerRequest = 200

	// Session and login limits for the access gate.
	DefaultSessionTTL      = 12 * time.Hour
	SessionSweepInterval   = 10 * time.Minute
	MaxPasswordLength      = 1024
	LoginRetryAfterSeconds = 30

	// API Endpoints (internal)
	APIBasePath       = "/api"
	AuthEndpoint      = "/api/auth"
	DashboardEndpoint = "/api/dashboard"
	ExportEndpoint    = "/api/export"
	MetaEndpoint      = "/api/meta"
	RefreshEndpoint   = "/api/refresh"
	HealthEndpoint    = "/api/health"
	MetricsEndpoint   = "/metrics"
	WebSocketEndpoint = "/ws"

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)
