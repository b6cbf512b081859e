package exporter

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evinsights/pkg/contracts/domain"
)

func TestTopZipsHeaders(t *testing.T) {
	// These names are the download contract; renames break consumers.
	assert.Equal(t, []string{
		"ZIP", "City", "State", "Population", "Median income",
		"Charging stations", "Predicted sales (12m)",
	}, TopZipsHeaders())
}

func TestTopZipsRecords(t *testing.T) {
	zips := []domain.ZipRecord{
		{
			Zip: "78701", City: "Austin", State: "TX",
			Population: 54000, MedianIncome: 95000, ChargingStations: 120,
			PredictedSales: 450,
		},
		{
			Zip: "78704", City: "Austin", State: "TX",
			Population: 61000, MedianIncome: 87000, ChargingStations: 95,
			PredictedSales: 390.5,
		},
	}

	records := TopZipsRecords(zips)

	require.Len(t, records, 2)
	assert.Equal(t, []string{"78701", "Austin", "TX", "54000", "95000", "120", "450"}, records[0])

	// Fractional forecasts keep their fraction, whole ones stay whole
	assert.Equal(t, "390.5", records[1][6])
}

func TestConcernSummaryRecords(t *testing.T) {
	concerns := []domain.ConcernSummary{
		{Concern: "Charging infrastructure", TotalMentions: 320, AvgSentiment: -0.42},
		{Concern: "Purchase price", TotalMentions: 180, AvgSentiment: -0.456},
	}

	records := ConcernSummaryRecords(concerns)

	require.Len(t, records, 2)
	assert.Equal(t, []string{"Charging infrastructure", "320", "-0.42"}, records[0])
	assert.Equal(t, "-0.46", records[1][2])
}

func TestWriteTopZips(t *testing.T) {
	writer, paths := setupTestEnv(t)
	zips := []domain.ZipRecord{
		{Zip: "94103", City: "San Francisco", State: "CA", Population: 42000, MedianIncome: 110000, ChargingStations: 210, PredictedSales: 520},
		{Zip: "95112", City: "San Jose", State: "CA", Population: 58000, MedianIncome: 105000, ChargingStations: 180, PredictedSales: 480},
	}

	path, err := writer.WriteTopZips(zips)
	require.NoError(t, err)
	assert.Equal(t, paths.TopZipsCSV, path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(content, []byte{0xEF, 0xBB, 0xBF}))

	lines := strings.Split(strings.TrimSpace(string(content[3:])), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Join(TopZipsHeaders(), ","), lines[0])
	assert.Equal(t, "94103,San Francisco,CA,42000,110000,210,520", lines[1])
}

func TestWriteConcernSummary(t *testing.T) {
	writer, paths := setupTestEnv(t)
	concerns := []domain.ConcernSummary{
		{Concern: "Battery range", TotalMentions: 150, AvgSentiment: -0.35},
	}

	path, err := writer.WriteConcernSummary(concerns)
	require.NoError(t, err)
	assert.Equal(t, paths.ConcernSummaryCSV, path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Battery range,150,-0.35")
}

func TestStreamTopZips(t *testing.T) {
	var buf bytes.Buffer
	zips := []domain.ZipRecord{
		{Zip: "78758", City: "Austin", State: "TX", Population: 49000, MedianIncome: 72000, ChargingStations: 60, PredictedSales: 260},
	}

	err := StreamTopZips(&buf, zips)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, strings.Join(TopZipsHeaders(), ","), lines[0])
	assert.Equal(t, "78758,Austin,TX,49000,72000,60,260", lines[1])
	assert.False(t, bytes.HasPrefix(buf.Bytes(), []byte{0xEF, 0xBB, 0xBF}))
}

func TestStreamTopZips_Empty(t *testing.T) {
	var buf bytes.Buffer

	err := StreamTopZips(&buf, nil)
	require.NoError(t, err)

	// Headers only
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 1)
}

func TestStreamConcernSummary(t *testing.T) {
	var buf bytes.Buffer
	concerns := []domain.ConcernSummary{
		{Concern: "Charging time", TotalMentions: 90, AvgSentiment: -0.20},
		{Concern: "Service availability", TotalMentions: 45, AvgSentiment: 0.10},
	}

	err := StreamConcernSummary(&buf, concerns)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Concern,Mentions,Avg sentiment", lines[0])
	assert.Equal(t, "Service availability,45,0.10", lines[2])
}

func TestParseTopZips_RoundTrip(t *testing.T) {
	writer, _ := setupTestEnv(t)
	zips := []domain.ZipRecord{
		{Zip: "75204", City: "Dallas", State: "TX", Population: 39000, MedianIncome: 76000, ChargingStations: 55, PredictedSales: 240},
		{Zip: "77002", City: "Houston", State: "TX", Population: 47000, MedianIncome: 81000, ChargingStations: 75, PredictedSales: 270},
	}

	path, err := writer.WriteTopZips(zips)
	require.NoError(t, err)

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	rows, err := ParseTopZips(file)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, TopZipRow{
		Zip: "75204", City: "Dallas", State: "TX",
		Population: 39000, MedianIncome: 76000, ChargingStations: 55,
		PredictedSales: 240,
	}, rows[0])
	assert.Equal(t, "77002", rows[1].Zip)
}

func TestParseTopZips_StreamedOutput(t *testing.T) {
	// BOM-less streamed output parses the same as the file export
	var buf bytes.Buffer
	zips := []domain.ZipRecord{
		{Zip: "78759", City: "Austin", State: "TX", Population: 41000, MedianIncome: 98000, ChargingStations: 85, PredictedSales: 410},
	}
	require.NoError(t, StreamTopZips(&buf, zips))

	rows, err := ParseTopZips(&buf)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 410.0, rows[0].PredictedSales)
}

func TestParseTopZips_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{
			name:    "empty input",
			input:   "",
			wantErr: "failed to read header",
		},
		{
			name:    "wrong column count",
			input:   "ZIP,City,State\n78701,Austin,TX\n",
			wantErr: "unexpected header",
		},
		{
			name:    "renamed column",
			input:   "ZIP,City,State,Population,Income,Charging stations,Predicted sales (12m)\n",
			wantErr: `got "Income"`,
		},
		{
			name:    "non-numeric population",
			input:   strings.Join(TopZipsHeaders(), ",") + "\n78701,Austin,TX,lots,95000,120,450\n",
			wantErr: "invalid population",
		},
		{
			name:    "non-numeric sales",
			input:   strings.Join(TopZipsHeaders(), ",") + "\n78701,Austin,TX,54000,95000,120,soon\n",
			wantErr: "invalid predicted sales",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTopZips(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
