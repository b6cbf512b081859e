package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"evinsights/pkg/contracts/domain"
)

// SampleGeoCSV mirrors the production ev_geo_data.csv layout with a small
// mixed-state dataset. Austin rows dominate so TX/Austin defaults have data.
const SampleGeoCSV = `zip,city,state,lat,lon,population,median_income,charging_stations,ev_share,predicted_ev_sales_next_12m
78701,Austin,TX,30.2672,-97.7431,41000,95000,120,0.18,450
78704,Austin,TX,30.2450,-97.7595,55000,88000,95,0.15,390
78745,Austin,TX,30.2060,-97.7955,62000,72000,60,0.10,300
78758,Austin,TX,30.3880,-97.7060,58000,65000,45,0.09,260
78759,Austin,TX,30.4020,-97.7530,44000,105000,70,0.16,410
75201,Dallas,TX,32.7876,-96.7994,15000,98000,85,0.14,280
75204,Dallas,TX,32.8020,-96.7890,28000,82000,55,0.11,240
77002,Houston,TX,29.7589,-95.3677,18000,90000,75,0.12,270
95112,San Jose,CA,37.3447,-121.8847,52000,110000,140,0.22,480
94103,San Francisco,CA,37.7726,-122.4099,46000,125000,160,0.25,520
`

// SampleConcernsCSV mirrors ev_concerns_sample.csv.
const SampleConcernsCSV = `city,state,concern,mention_count,avg_sentiment
Austin,TX,Charging infrastructure,180,-0.45
Austin,TX,Purchase price,150,-0.38
Austin,TX,Battery range,120,-0.52
Austin,TX,Charging time,90,-0.30
Austin,TX,Service availability,60,-0.25
Dallas,TX,Charging infrastructure,140,-0.41
Dallas,TX,Purchase price,110,-0.35
Houston,TX,Battery range,95,-0.48
San Jose,CA,Purchase price,130,-0.33
San Francisco,CA,Charging infrastructure,125,-0.40
`

// MalformedGeoCSV has a non-numeric population on the second data row.
const MalformedGeoCSV = `zip,city,state,lat,lon,population,median_income,charging_stations,ev_share,predicted_ev_sales_next_12m
78701,Austin,TX,30.2672,-97.7431,41000,95000,120,0.18,450
78704,Austin,TX,30.2450,-97.7595,lots,88000,95,0.15,390
`

// MissingHeaderGeoCSV lacks the predicted sales column.
const MissingHeaderGeoCSV = `zip,city,state,lat,lon,population,median_income,charging_stations,ev_share
78701,Austin,TX,30.2672,-97.7431,41000,95000,120,0.18
`

// DataFixtures provides test data and utilities for dataset testing
type DataFixtures struct {
	TestDataDir string
}

// NewDataFixtures creates a new fixtures manager rooted at testDataDir
func NewDataFixtures(testDataDir string) *DataFixtures {
	return &DataFixtures{
		TestDataDir: testDataDir,
	}
}

// WriteGeoCSV writes the sample geo dataset and returns its path
func (f *DataFixtures) WriteGeoCSV(t *testing.T) string {
	t.Helper()
	return f.writeFile(t, "ev_geo_data.csv", SampleGeoCSV)
}

// WriteConcernsCSV writes the sample concerns dataset and returns its path
func (f *DataFixtures) WriteConcernsCSV(t *testing.T) string {
	t.Helper()
	return f.writeFile(t, "ev_concerns_sample.csv", SampleConcernsCSV)
}

// WriteMalformedGeoCSV writes a geo dataset with a bad numeric value
func (f *DataFixtures) WriteMalformedGeoCSV(t *testing.T) string {
	t.Helper()
	return f.writeFile(t, "ev_geo_data.csv", MalformedGeoCSV)
}

// WriteMissingHeaderGeoCSV writes a geo dataset missing a required column
func (f *DataFixtures) WriteMissingHeaderGeoCSV(t *testing.T) string {
	t.Helper()
	return f.writeFile(t, "ev_geo_data.csv", MissingHeaderGeoCSV)
}

// WriteBoth writes both sample datasets and returns their paths
func (f *DataFixtures) WriteBoth(t *testing.T) (geoPath, concernsPath string) {
	t.Helper()
	return f.WriteGeoCSV(t), f.WriteConcernsCSV(t)
}

func (f *DataFixtures) writeFile(t *testing.T, name, content string) string {
	t.Helper()

	if err := os.MkdirAll(f.TestDataDir, 0o755); err != nil {
		t.Fatalf("Failed to create test data dir: %v", err)
	}

	path := filepath.Join(f.TestDataDir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write fixture %s: %v", name, err)
	}
	return path
}

// GetSampleZipRecords returns the parsed form of SampleGeoCSV
func GetSampleZipRecords() []domain.ZipRecord {
	return []domain.ZipRecord{
		{Zip: "78701", City: "Austin", State: "TX", Lat: 30.2672, Lon: -97.7431, Population: 41000, MedianIncome: 95000, ChargingStations: 120, EVShare: 0.18, PredictedSales: 450},
		{Zip: "78704", City: "Austin", State: "TX", Lat: 30.2450, Lon: -97.7595, Population: 55000, MedianIncome: 88000, ChargingStations: 95, EVShare: 0.15, PredictedSales: 390},
		{Zip: "78745", City: "Austin", State: "TX", Lat: 30.2060, Lon: -97.7955, Population: 62000, MedianIncome: 72000, ChargingStations: 60, EVShare: 0.10, PredictedSales: 300},
		{Zip: "78758", City: "Austin", State: "TX", Lat: 30.3880, Lon: -97.7060, Population: 58000, MedianIncome: 65000, ChargingStations: 45, EVShare: 0.09, PredictedSales: 260},
		{Zip: "78759", City: "Austin", State: "TX", Lat: 30.4020, Lon: -97.7530, Population: 44000, MedianIncome: 105000, ChargingStations: 70, EVShare: 0.16, PredictedSales: 410},
		{Zip: "75201", City: "Dallas", State: "TX", Lat: 32.7876, Lon: -96.7994, Population: 15000, MedianIncome: 98000, ChargingStations: 85, EVShare: 0.14, PredictedSales: 280},
		{Zip: "75204", City: "Dallas", State: "TX", Lat: 32.8020, Lon: -96.7890, Population: 28000, MedianIncome: 82000, ChargingStations: 55, EVShare: 0.11, PredictedSales: 240},
		{Zip: "77002", City: "Houston", State: "TX", Lat: 29.7589, Lon: -95.3677, Population: 18000, MedianIncome: 90000, ChargingStations: 75, EVShare: 0.12, PredictedSales: 270},
		{Zip: "95112", City: "San Jose", State: "CA", Lat: 37.3447, Lon: -121.8847, Population: 52000, MedianIncome: 110000, ChargingStations: 140, EVShare: 0.22, PredictedSales: 480},
		{Zip: "94103", City: "San Francisco", State: "CA", Lat: 37.7726, Lon: -122.4099, Population: 46000, MedianIncome: 125000, ChargingStations: 160, EVShare: 0.25, PredictedSales: 520},
	}
}

// GetSampleConcernRecords returns the parsed form of SampleConcernsCSV
func GetSampleConcernRecords() []domain.ConcernRecord {
	return []domain.ConcernRecord{
		{City: "Austin", State: "TX", Concern: "Charging infrastructure", MentionCount: 180, AvgSentiment: -0.45},
		{City: "Austin", State: "TX", Concern: "Purchase price", MentionCount: 150, AvgSentiment: -0.38},
		{City: "Austin", State: "TX", Concern: "Battery range", MentionCount: 120, AvgSentiment: -0.52},
		{City: "Austin", State: "TX", Concern: "Charging time", MentionCount: 90, AvgSentiment: -0.30},
		{City: "Austin", State: "TX", Concern: "Service availability", MentionCount: 60, AvgSentiment: -0.25},
		{City: "Dallas", State: "TX", Concern: "Charging infrastructure", MentionCount: 140, AvgSentiment: -0.41},
		{City: "Dallas", State: "TX", Concern: "Purchase price", MentionCount: 110, AvgSentiment: -0.35},
		{City: "Houston", State: "TX", Concern: "Battery range", MentionCount: 95, AvgSentiment: -0.48},
		{City: "San Jose", State: "CA", Concern: "Purchase price", MentionCount: 130, AvgSentiment: -0.33},
		{City: "San Francisco", State: "CA", Concern: "Charging infrastructure", MentionCount: 125, AvgSentiment: -0.40},
	}
}

// GetSampleSnapshot assembles a Snapshot from the sample records
func GetSampleSnapshot() *domain.Snapshot {
	return &domain.Snapshot{
		Zips:         GetSampleZipRecords(),
		Concerns:     GetSampleConcernRecords(),
		LoadedAt:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		GeoFile:      "ev_geo_data.csv",
		ConcernsFile: "ev_concerns_sample.csv",
	}
}
