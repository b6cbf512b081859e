package dataprocessing

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	apperrors "evinsights/internal/errors"
	"evinsights/pkg/contracts/domain"
)

// Required columns for each dataset. Matching is case-insensitive and
// ignores surrounding whitespace; any extra columns are ignored.
var (
	geoColumns = []string{
		"zip", "city", "state", "lat", "lon",
		"population", "median_income", "charging_stations",
		"ev_share", "predicted_ev_sales_next_12m",
	}
	concernColumns = []string{
		"city", "state", "concern", "mention_count", "avg_sentiment",
	}
)

// LoadZipRecords reads the geographic dataset from path.
func LoadZipRecords(ctx context.Context, path string) ([]domain.ZipRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, cols, err := readCSV(path, geoColumns)
	if err != nil {
		return nil, err
	}

	file := filepath.Base(path)
	records := make([]domain.ZipRecord, 0, len(rows))
	for i, row := range rows {
		line := i + 2 // header occupies line 1

		rec := domain.ZipRecord{
			Zip:   strings.TrimSpace(row[cols["zip"]]),
			City:  strings.TrimSpace(row[cols["city"]]),
			State: strings.ToUpper(strings.TrimSpace(row[cols["state"]])),
		}

		fields := []struct {
			name string
			dst  *float64
		}{
			{"lat", &rec.Lat},
			{"lon", &rec.Lon},
			{"ev_share", &rec.EVShare},
			{"predicted_ev_sales_next_12m", &rec.PredictedSales},
		}
		for _, f := range fields {
			v, err := parseFloatField(row[cols[f.name]])
			if err != nil {
				return nil, apperrors.NewParseError(file, line, f.name, err)
			}
			*f.dst = v
		}

		intFields := []struct {
			name string
			dst  *int
		}{
			{"population", &rec.Population},
			{"median_income", &rec.MedianIncome},
			{"charging_stations", &rec.ChargingStations},
		}
		for _, f := range intFields {
			v, err := parseIntField(row[cols[f.name]])
			if err != nil {
				return nil, apperrors.NewParseError(file, line, f.name, err)
			}
			*f.dst = int(v)
		}

		if err := domain.ValidateZipRecord(&rec); err != nil {
			return nil, apperrors.NewParseError(file, line, "", err)
		}
		records = append(records, rec)
	}

	slog.Debug("geo dataset loaded",
		slog.String("file", file),
		slog.Int("rows", len(records)))

	return records, nil
}

// LoadConcernRecords reads the buyer-concern dataset from path.
func LoadConcernRecords(ctx context.Context, path string) ([]domain.ConcernRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, cols, err := readCSV(path, concernColumns)
	if err != nil {
		return nil, err
	}

	file := filepath.Base(path)
	records := make([]domain.ConcernRecord, 0, len(rows))
	for i, row := range rows {
		line := i + 2

		rec := domain.ConcernRecord{
			City:    strings.TrimSpace(row[cols["city"]]),
			State:   strings.ToUpper(strings.TrimSpace(row[cols["state"]])),
			Concern: strings.TrimSpace(row[cols["concern"]]),
		}

		mentions, err := parseIntField(row[cols["mention_count"]])
		if err != nil {
			return nil, apperrors.NewParseError(file, line, "mention_count", err)
		}
		rec.MentionCount = int(mentions)

		sentiment, err := parseFloatField(row[cols["avg_sentiment"]])
		if err != nil {
			return nil, apperrors.NewParseError(file, line, "avg_sentiment", err)
		}
		rec.AvgSentiment = sentiment

		if err := domain.ValidateConcernRecord(&rec); err != nil {
			return nil, apperrors.NewParseError(file, line, "", err)
		}
		records = append(records, rec)
	}

	slog.Debug("concerns dataset loaded",
		slog.String("file", file),
		slog.Int("rows", len(records)))

	return records, nil
}

// LoadSnapshot reads both datasets. The caller stamps LoadedAt so the
// loader stays clock-free.
func LoadSnapshot(ctx context.Context, geoPath, concernsPath string) (*domain.Snapshot, error) {
	zips, err := LoadZipRecords(ctx, geoPath)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	concerns, err := LoadConcernRecords(ctx, concernsPath)
	if err != nil {
		return nil, err
	}

	return &domain.Snapshot{
		Zips:         zips,
		Concerns:     concerns,
		GeoFile:      geoPath,
		ConcernsFile: concernsPath,
	}, nil
}

// readCSV opens the file, verifies the required columns exist, and returns
// the data rows along with a header-name to index map.
func readCSV(path string, required []string) ([][]string, map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("open %s: %w", path, apperrors.ErrDatasetNotFound)
		}
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	file := filepath.Base(path)
	reader := csv.NewReader(f)

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("%s: %w", file, apperrors.ErrEmptyDataset)
	}
	if err != nil {
		return nil, nil, apperrors.NewParseError(file, 1, "", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}

	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, nil, apperrors.NewParseError(file, 1, name,
				errors.New("required column missing"))
		}
	}

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			line := len(rows) + 2
			var csvErr *csv.ParseError
			if errors.As(err, &csvErr) {
				line = csvErr.Line
				err = csvErr.Err
			}
			return nil, nil, apperrors.NewParseError(file, line, "", err)
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("%s: %w", file, apperrors.ErrEmptyDataset)
	}

	return rows, cols, nil
}

// parseFloatField parses a numeric value, tolerating thousands separators
// and surrounding whitespace.
func parseFloatField(v string) (float64, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(v), ",", "")
	if cleaned == "" {
		return 0, errors.New("empty value")
	}
	return strconv.ParseFloat(cleaned, 64)
}

// parseIntField parses an integer value, tolerating thousands separators.
func parseIntField(v string) (int64, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(v), ",", "")
	if cleaned == "" {
		return 0, errors.New("empty value")
	}
	return strconv.ParseInt(cleaned, 10, 64)
}
