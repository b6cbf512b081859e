package config

import "time"

// Fixed values of the EV Market Insights system. Tunable settings live
// in Config; these are the names and limits the code itself relies on.
const (
	AppName = "EV Market Insights"

	// Source data files (fixed names inside the data directory)
	GeoFileName      = "ev_geo_data.csv"
	ConcernsFileName = "ev_concerns_sample.csv"

	// Export files (fixed names inside the reports directory)
	TopZipsFileName        = "top_zips.csv"
	ConcernSummaryFileName = "concern_summary.csv"
	CampaignBriefFileName  = "campaign_brief.xlsx"
	ReportMetaFileName     = "report_meta.json"

	// Top-N ranking bounds
	DefaultTopN = 5
	MinTopN     = 3
	MaxTopN     = 10

	// Directory layout under the executable, shared by Default() and the
	// path resolver so the two cannot drift apart
	DefaultDataDir    = "data"
	DefaultReportsDir = "data/reports"
	DefaultWebDir     = "web"
	DefaultLogsDir    = "logs"

	// WebSocket tuning. The ping/pong pair is compile-time: the client
	// pumps read them directly, and a pong wait shorter than the ping
	// period would disconnect every idle client.
	WebSocketReadBufferSize  = 1024
	WebSocketWriteBufferSize = 1024
	WebSocketPingPeriod      = 30 * time.Second
	WebSocketPongWait        = 60 * time.Second

	// Endpoints referenced outside the router registrations
	HealthEndpoint    = "/api/health"
	MetricsEndpoint   = "/metrics"
	WebSocketEndpoint = "/ws"
)
