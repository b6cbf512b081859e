package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// ZipRecord represents the Single Source of Truth (SSOT) for ZIP-level EV
// market data. One record corresponds to one row of ev_geo_data.csv and
// carries the precomputed demand signals the dashboard presents. The
// application never derives new per-ZIP figures; it only aggregates,
// filters, and orders these records.
//
// The csv tags mirror the column headers of ev_geo_data.csv. Those headers
// are the binding data contract: parsers match columns by header name and
// exporters that re-emit the raw schema must preserve them.
type ZipRecord struct {
	// Zip is the 5-digit ZIP code, kept as a string to preserve leading zeros
	Zip string `json:"zip" csv:"zip" validate:"required,len=5,numeric"`

	// City is the primary city for the ZIP code
	City string `json:"city" csv:"city" validate:"required"`

	// State is the two-letter USPS state code (e.g. "TX")
	State string `json:"state" csv:"state" validate:"required,len=2,uppercase"`

	// Lat and Lon are the WGS-84 centroid of the ZIP code area
	Lat float64 `json:"lat" csv:"lat" validate:"min=-90,max=90"`
	Lon float64 `json:"lon" csv:"lon" validate:"min=-180,max=180"`

	// Population is the resident population estimate
	Population int `json:"population" csv:"population" validate:"min=0"`

	// MedianIncome is the median household income in whole dollars
	MedianIncome int `json:"median_income" csv:"median_income" validate:"min=0"`

	// ChargingStations is the count of public charging stations in the ZIP
	ChargingStations int `json:"charging_stations" csv:"charging_stations" validate:"min=0"`

	// EVShare is the EV fraction of the local EV/ICE split, in [0,1]
	EVShare float64 `json:"ev_share" csv:"ev_share" validate:"min=0,max=1"`

	// PredictedSales is the precomputed EV sales forecast for the next
	// twelve months. It arrives ready-made in the source file; nothing in
	// this system recomputes it.
	PredictedSales float64 `json:"predicted_ev_sales_next_12m" csv:"predicted_ev_sales_next_12m" validate:"min=0"`
}

var zipPattern = regexp.MustCompile(`^\d{5}$`)

// IsValidZip checks whether a string is a well-formed 5-digit ZIP code.
func IsValidZip(zip string) bool {
	return zipPattern.MatchString(zip)
}

// ValidateZipRecord checks the business rules for a single geo record.
// Returns nil when the record is usable, or an error naming the first
// violated rule.
func ValidateZipRecord(r *ZipRecord) error {
	if r == nil {
		return fmt.Errorf("zip record cannot be nil")
	}
	if !IsValidZip(r.Zip) {
		return fmt.Errorf("zip %q must be exactly 5 digits", r.Zip)
	}
	if strings.TrimSpace(r.City) == "" {
		return fmt.Errorf("city is required for zip %s", r.Zip)
	}
	if len(r.State) != 2 {
		return fmt.Errorf("state %q for zip %s must be a 2-letter code", r.State, r.Zip)
	}
	if r.Lat < -90 || r.Lat > 90 {
		return fmt.Errorf("latitude %.6f for zip %s out of range", r.Lat, r.Zip)
	}
	if r.Lon < -180 || r.Lon > 180 {
		return fmt.Errorf("longitude %.6f for zip %s out of range", r.Lon, r.Zip)
	}
	if r.Population < 0 {
		return fmt.Errorf("population cannot be negative for zip %s: %d", r.Zip, r.Population)
	}
	if r.MedianIncome < 0 {
		return fmt.Errorf("median income cannot be negative for zip %s: %d", r.Zip, r.MedianIncome)
	}
	if r.ChargingStations < 0 {
		return fmt.Errorf("charging stations cannot be negative for zip %s: %d", r.Zip, r.ChargingStations)
	}
	if r.EVShare < 0 || r.EVShare > 1 {
		return fmt.Errorf("ev share %.4f for zip %s must be within [0,1]", r.EVShare, r.Zip)
	}
	if r.PredictedSales < 0 {
		return fmt.Errorf("predicted sales cannot be negative for zip %s: %.2f", r.Zip, r.PredictedSales)
	}
	return nil
}

// Label returns the human display form "City, ST (ZIP)" used in tables,
// recommendations, and map tooltips.
func (r *ZipRecord) Label() string {
	return fmt.Sprintf("%s, %s (%s)", r.City, r.State, r.Zip)
}
