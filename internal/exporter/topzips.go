package exporter

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"evinsights/pkg/contracts/domain"
)

// TopZipsHeaders returns the display column headers for the ranked ZIP
// table. These match the dashboard table and the downloadable CSV, not the
// raw source schema.
func TopZipsHeaders() []string {
	return []string{
		"ZIP", "City", "State", "Population", "Median income",
		"Charging stations", "Predicted sales (12m)",
	}
}

// TopZipsRecords converts ranked ZIP records to display-format CSV rows,
// preserving the order given.
func TopZipsRecords(zips []domain.ZipRecord) [][]string {
	records := make([][]string, 0, len(zips))
	for _, z := range zips {
		records = append(records, topZipRow(z))
	}
	return records
}

func topZipRow(z domain.ZipRecord) []string {
	return []string{
		z.Zip,
		z.City,
		z.State,
		strconv.Itoa(z.Population),
		strconv.Itoa(z.MedianIncome),
		strconv.Itoa(z.ChargingStations),
		formatSales(z.PredictedSales),
	}
}

// formatSales renders a sales forecast without trailing zeros, so whole
// numbers stay whole in the export.
func formatSales(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ConcernSummaryHeaders returns the display column headers for aggregated
// buyer concerns.
func ConcernSummaryHeaders() []string {
	return []string{"Concern", "Mentions", "Avg sentiment"}
}

// ConcernSummaryRecords converts aggregated concerns to display-format CSV
// rows. Sentiment is rounded to two decimals, matching the dashboard.
func ConcernSummaryRecords(concerns []domain.ConcernSummary) [][]string {
	records := make([][]string, 0, len(concerns))
	for _, c := range concerns {
		records = append(records, []string{
			c.Concern,
			strconv.Itoa(c.TotalMentions),
			fmt.Sprintf("%.2f", c.AvgSentiment),
		})
	}
	return records
}

// WriteTopZips writes the ranked ZIP table to its well-known reports file
// and returns the path written.
func (w *CSVWriter) WriteTopZips(zips []domain.ZipRecord) (string, error) {
	path := w.paths.TopZipsCSV
	if err := w.WriteSimpleCSV(path, TopZipsHeaders(), TopZipsRecords(zips)); err != nil {
		return "", fmt.Errorf("failed to write top zips: %w", err)
	}
	return path, nil
}

// WriteConcernSummary writes the aggregated concern table to its
// well-known reports file and returns the path written.
func (w *CSVWriter) WriteConcernSummary(concerns []domain.ConcernSummary) (string, error) {
	path := w.paths.ConcernSummaryCSV
	if err := w.WriteSimpleCSV(path, ConcernSummaryHeaders(), ConcernSummaryRecords(concerns)); err != nil {
		return "", fmt.Errorf("failed to write concern summary: %w", err)
	}
	return path, nil
}

// StreamTopZips writes the ranked ZIP table as CSV to dst, without a BOM.
// Used for HTTP downloads where dst is the response writer.
func StreamTopZips(dst io.Writer, zips []domain.ZipRecord) error {
	stream, err := NewStreamWriter(dst, TopZipsHeaders())
	if err != nil {
		return err
	}
	for _, z := range zips {
		if err := stream.WriteRecord(topZipRow(z)); err != nil {
			return fmt.Errorf("failed to write record for zip %s: %w", z.Zip, err)
		}
	}
	return stream.Close()
}

// StreamConcernSummary writes the aggregated concern table as CSV to dst.
func StreamConcernSummary(dst io.Writer, concerns []domain.ConcernSummary) error {
	stream, err := NewStreamWriter(dst, ConcernSummaryHeaders())
	if err != nil {
		return err
	}
	for _, record := range ConcernSummaryRecords(concerns) {
		if err := stream.WriteRecord(record); err != nil {
			return fmt.Errorf("failed to write concern record: %w", err)
		}
	}
	return stream.Close()
}

// TopZipRow is one parsed row of an exported top-ZIPs CSV.
type TopZipRow struct {
	Zip              string
	City             string
	State            string
	Population       int
	MedianIncome     int
	ChargingStations int
	PredictedSales   float64
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseTopZips reads an exported top-ZIPs CSV back into rows, tolerating
// the UTF-8 BOM the file writer emits. The report tool uses this to verify
// what it just wrote.
func ParseTopZips(r io.Reader) ([]TopZipRow, error) {
	buffered := bufio.NewReader(r)
	if prefix, err := buffered.Peek(len(utf8BOM)); err == nil && bytes.Equal(prefix, utf8BOM) {
		buffered.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(buffered)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	expected := TopZipsHeaders()
	if len(header) != len(expected) {
		return nil, fmt.Errorf("unexpected header: got %d columns, want %d", len(header), len(expected))
	}
	for i, name := range expected {
		if header[i] != name {
			return nil, fmt.Errorf("unexpected header column %d: got %q, want %q", i, header[i], name)
		}
	}

	var rows []TopZipRow
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		line++

		row := TopZipRow{
			Zip:   record[0],
			City:  record[1],
			State: record[2],
		}
		if row.Population, err = strconv.Atoi(record[3]); err != nil {
			return nil, fmt.Errorf("row %d: invalid population %q: %w", line, record[3], err)
		}
		if row.MedianIncome, err = strconv.Atoi(record[4]); err != nil {
			return nil, fmt.Errorf("row %d: invalid median income %q: %w", line, record[4], err)
		}
		if row.ChargingStations, err = strconv.Atoi(record[5]); err != nil {
			return nil, fmt.Errorf("row %d: invalid charging stations %q: %w", line, record[5], err)
		}
		if row.PredictedSales, err = strconv.ParseFloat(record[6], 64); err != nil {
			return nil, fmt.Errorf("row %d: invalid predicted sales %q: %w", line, record[6], err)
		}
		rows = append(rows, row)
	}

	return rows, nil
}
