// Package config loads and validates the EV Market Insights
// configuration.
//
// # Precedence
//
// Load starts from the compiled-in defaults, overlays config.yaml when
// one is found near the executable, then lets EVI_-prefixed environment
// variables override both:
//
//	EVI_SERVER_PORT=8080
//	EVI_LOGGING_LEVEL=info
//	EVI_PATHS_DATA_DIR=data
//	EVI_DASHBOARD_DEFAULT_STATE=TX
//	EVI_DASHBOARD_DEFAULT_TOP_N=5
//
// # Paths
//
// The Paths type anchors every file the application touches to the
// executable directory, so a deployment can be moved as one directory:
//
//	paths, err := config.GetPaths()
//	geoCSV := paths.GeoCSV
//	briefPath := paths.GetReportPath("campaign_brief.xlsx")
//
// # Validation
//
// Load rejects out-of-range ports and timeouts as well as dashboard
// top-N bounds that contradict each other. Logging settings are
// normalized instead of rejected: an unknown output mode falls back to
// "both", and any format other than "text" renders JSON.
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
