package domain

import "time"

// FilterAll is the sentinel value that disables a state or city filter.
const FilterAll = "ALL"

// Filter narrows the dashboard to a state and/or city and sets how many
// top ZIP codes to rank. Empty state or city means FilterAll.
type Filter struct {
	State string `json:"state"`
	City  string `json:"city"`
	TopN  int    `json:"top_n"`
}

// Normalized returns a copy with empty selectors replaced by FilterAll.
func (f Filter) Normalized() Filter {
	if f.State == "" {
		f.State = FilterAll
	}
	if f.City == "" {
		f.City = FilterAll
	}
	return f
}

// AllStates reports whether the state filter is disabled.
func (f Filter) AllStates() bool { return f.State == "" || f.State == FilterAll }

// AllCities reports whether the city filter is disabled.
func (f Filter) AllCities() bool { return f.City == "" || f.City == FilterAll }

// Snapshot holds one render cycle's worth of source data. It is built
// fresh from the CSV files, read-only afterwards, and discarded at the end
// of the cycle; no state survives between cycles.
type Snapshot struct {
	Zips     []ZipRecord     `json:"zips"`
	Concerns []ConcernRecord `json:"concerns"`

	// LoadedAt is when the files were read for this cycle
	LoadedAt time.Time `json:"loaded_at"`

	// GeoFile and ConcernsFile are the resolved source paths, for display
	GeoFile      string `json:"geo_file"`
	ConcernsFile string `json:"concerns_file"`
}

// MarketSummary carries the headline metrics for the filtered ZIP set.
type MarketSummary struct {
	ZipCount             int     `json:"zip_count"`
	TotalPredictedSales  float64 `json:"total_predicted_sales"`
	MeanMedianIncome     float64 `json:"mean_median_income"`
	MeanChargingStations float64 `json:"mean_charging_stations"`
	MeanEVShare          float64 `json:"mean_ev_share"`
}

// MapPoint is the minimal per-ZIP payload the map layer needs. Marker size
// scales with PredictedSales on the client.
type MapPoint struct {
	Zip            string  `json:"zip"`
	City           string  `json:"city"`
	State          string  `json:"state"`
	Lat            float64 `json:"lat"`
	Lon            float64 `json:"lon"`
	PredictedSales float64 `json:"predicted_sales"`
}

// MapView positions the map over the filtered region. The center is the
// mean of the visible coordinates; zoom tightens as the filter narrows.
// With no visible ZIPs the view falls back to the continental US.
type MapView struct {
	CenterLat float64 `json:"center_lat"`
	CenterLon float64 `json:"center_lon"`
	Zoom      float64 `json:"zoom"`
}

// Recommendation is one actionable line of sales guidance: what to do and
// why the data supports it.
type Recommendation struct {
	Action    string `json:"action"`
	Rationale string `json:"rationale"`
}

// TalkingPoint pairs a concern category with the canned messaging line the
// sales team should lead with when that concern comes up.
type TalkingPoint struct {
	Concern string `json:"concern"`
	Message string `json:"message"`
}

// FilterOptions lists the selectable filter values for the current data,
// with FilterAll first and the rest sorted alphabetically. Cities are
// restricted to the selected state.
type FilterOptions struct {
	States []string `json:"states"`
	Cities []string `json:"cities"`
}

// DashboardView is the complete view-model for one dashboard render: every
// panel's data assembled for a single filter, in one payload.
type DashboardView struct {
	Filter          Filter           `json:"filter"`
	Options         FilterOptions    `json:"options"`
	Summary         MarketSummary    `json:"summary"`
	MapPoints       []MapPoint       `json:"map_points"`
	MapView         MapView          `json:"map_view"`
	TopZips         []ZipRecord      `json:"top_zips"`
	Concerns        []ConcernSummary `json:"concerns"`
	Recommendations []Recommendation `json:"recommendations"`
	TalkingPoints   []TalkingPoint   `json:"talking_points"`
	LoadedAt        time.Time        `json:"loaded_at"`
}
