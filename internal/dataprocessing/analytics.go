package dataprocessing

import (
	"sort"
	"strings"

	"evinsights/pkg/contracts/domain"
)

// Map view constants. The fallback center sits over the continental US for
// the empty-result case.
const (
	fallbackCenterLat = 39.5
	fallbackCenterLon = -98.35

	zoomCountry = 3.5
	zoomState   = 5
	zoomCity    = 8
)

// FilterZips returns the ZIP records matching the filter. State matching is
// case-insensitive; city matching is exact. The input is never modified.
func FilterZips(zips []domain.ZipRecord, f domain.Filter) []domain.ZipRecord {
	out := make([]domain.ZipRecord, 0, len(zips))
	for _, z := range zips {
		if !f.AllStates() && !strings.EqualFold(z.State, f.State) {
			continue
		}
		if !f.AllCities() && z.City != f.City {
			continue
		}
		out = append(out, z)
	}
	return out
}

// FilterConcerns returns the concern records matching the filter.
func FilterConcerns(concerns []domain.ConcernRecord, f domain.Filter) []domain.ConcernRecord {
	out := make([]domain.ConcernRecord, 0, len(concerns))
	for _, c := range concerns {
		if !f.AllStates() && !strings.EqualFold(c.State, f.State) {
			continue
		}
		if !f.AllCities() && c.City != f.City {
			continue
		}
		out = append(out, c)
	}
	return out
}

// AggregateConcerns groups concern records by category, summing mention
// counts and averaging sentiment weighted by mentions. Categories are
// returned sorted by total mentions descending; categories with equal
// counts keep their first-appearance order.
func AggregateConcerns(concerns []domain.ConcernRecord) []domain.ConcernSummary {
	type accum struct {
		mentions  int
		weighted  float64
		firstSeen int
	}

	byCategory := make(map[string]*accum)
	var order []string

	for i, c := range concerns {
		a, ok := byCategory[c.Concern]
		if !ok {
			a = &accum{firstSeen: i}
			byCategory[c.Concern] = a
			order = append(order, c.Concern)
		}
		a.mentions += c.MentionCount
		a.weighted += float64(c.MentionCount) * c.AvgSentiment
	}

	summaries := make([]domain.ConcernSummary, 0, len(order))
	for _, category := range order {
		a := byCategory[category]
		s := domain.ConcernSummary{
			Concern:       category,
			TotalMentions: a.mentions,
		}
		// A category whose rows all report zero mentions has no signal
		// to weight; its sentiment reads as neutral.
		if a.mentions > 0 {
			s.AvgSentiment = a.weighted / float64(a.mentions)
		}
		summaries = append(summaries, s)
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].TotalMentions > summaries[j].TotalMentions
	})

	return summaries
}

// TopZips returns the n ZIP records with the highest predicted sales,
// descending. n is clamped to the available rows; records with equal sales
// keep their input order. The input slice is never modified.
func TopZips(zips []domain.ZipRecord, n int) []domain.ZipRecord {
	if n <= 0 || len(zips) == 0 {
		return []domain.ZipRecord{}
	}

	ranked := make([]domain.ZipRecord, len(zips))
	copy(ranked, zips)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].PredictedSales > ranked[j].PredictedSales
	})

	if n > len(ranked) {
		n = len(ranked)
	}
	return ranked[:n]
}

// Summarize computes the headline metrics for a ZIP set. An empty set
// yields an all-zero summary.
func Summarize(zips []domain.ZipRecord) domain.MarketSummary {
	s := domain.MarketSummary{ZipCount: len(zips)}
	if len(zips) == 0 {
		return s
	}

	var income, stations, share float64
	for _, z := range zips {
		s.TotalPredictedSales += z.PredictedSales
		income += float64(z.MedianIncome)
		stations += float64(z.ChargingStations)
		share += z.EVShare
	}

	n := float64(len(zips))
	s.MeanMedianIncome = income / n
	s.MeanChargingStations = stations / n
	s.MeanEVShare = share / n
	return s
}

// MapPoints projects ZIP records into the map layer payload.
func MapPoints(zips []domain.ZipRecord) []domain.MapPoint {
	points := make([]domain.MapPoint, 0, len(zips))
	for _, z := range zips {
		points = append(points, domain.MapPoint{
			Zip:            z.Zip,
			City:           z.City,
			State:          z.State,
			Lat:            z.Lat,
			Lon:            z.Lon,
			PredictedSales: z.PredictedSales,
		})
	}
	return points
}

// ComputeMapView centers the map on the mean coordinate of the visible
// ZIPs and picks a zoom level for how narrow the filter is. With no
// visible ZIPs it falls back to a continental view.
func ComputeMapView(zips []domain.ZipRecord, f domain.Filter) domain.MapView {
	view := domain.MapView{
		CenterLat: fallbackCenterLat,
		CenterLon: fallbackCenterLon,
		Zoom:      zoomCountry,
	}

	switch {
	case !f.AllCities():
		view.Zoom = zoomCity
	case !f.AllStates():
		view.Zoom = zoomState
	}

	if len(zips) == 0 {
		return view
	}

	var lat, lon float64
	for _, z := range zips {
		lat += z.Lat
		lon += z.Lon
	}
	view.CenterLat = lat / float64(len(zips))
	view.CenterLon = lon / float64(len(zips))
	return view
}

// ListStates returns the selectable state codes: FilterAll first, then the
// distinct states sorted alphabetically.
func ListStates(zips []domain.ZipRecord) []string {
	seen := make(map[string]struct{})
	var states []string
	for _, z := range zips {
		if _, ok := seen[z.State]; !ok {
			seen[z.State] = struct{}{}
			states = append(states, z.State)
		}
	}
	sort.Strings(states)
	return append([]string{domain.FilterAll}, states...)
}

// ListCities returns the selectable cities for a state: FilterAll first,
// then the distinct cities sorted alphabetically. With the state filter
// disabled every city is listed.
func ListCities(zips []domain.ZipRecord, state string) []string {
	seen := make(map[string]struct{})
	var cities []string
	for _, z := range zips {
		if state != "" && state != domain.FilterAll && !strings.EqualFold(z.State, state) {
			continue
		}
		if _, ok := seen[z.City]; !ok {
			seen[z.City] = struct{}{}
			cities = append(cities, z.City)
		}
	}
	sort.Strings(cities)
	return append([]string{domain.FilterAll}, cities...)
}
