package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"evinsights/internal/config"
	"evinsights/internal/dataprocessing"
	"evinsights/internal/exporter"
	"evinsights/internal/insights"
	"evinsights/pkg/contracts"
	"evinsights/pkg/contracts/domain"
)

// reportMeta is written next to the exports so downstream consumers can
// check what the files contain without parsing them.
type reportMeta struct {
	GeneratedAt  time.Time     `json:"generated_at"`
	Version      string        `json:"version"`
	Filter       domain.Filter `json:"filter"`
	GeoRows      int           `json:"geo_rows"`
	ConcernRows  int           `json:"concern_rows"`
	TopZips      int           `json:"top_zips"`
	RowsVerified int           `json:"rows_verified"`
	Files        []string      `json:"files"`
}

func main() {
	dataDir := flag.String("data", "", "directory holding the source CSVs (defaults to <exe>/data)")
	outputDir := flag.String("out", "", "output directory for the report files (defaults to data/reports)")
	stateFilter := flag.String("state", domain.FilterAll, "two-letter state filter, or ALL")
	cityFilter := flag.String("city", domain.FilterAll, "city filter, or ALL")
	topN := flag.Int("top", config.DefaultTopN, "how many top ZIP codes to rank")
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(contracts.GetFullVersionString())
		return
	}

	paths, err := config.GetPaths()
	if err != nil {
		slog.Error("Failed to initialize paths", "error", err)
		os.Exit(1)
	}

	if *dataDir != "" {
		paths.DataDir = *dataDir
		paths.GeoCSV = filepath.Join(*dataDir, config.GeoFileName)
		paths.ConcernsCSV = filepath.Join(*dataDir, config.ConcernsFileName)
	}
	if *outputDir != "" {
		paths.ReportsDir = *outputDir
		paths.TopZipsCSV = filepath.Join(*outputDir, config.TopZipsFileName)
		paths.ConcernSummaryCSV = filepath.Join(*outputDir, config.ConcernSummaryFileName)
		paths.CampaignBriefXLSX = filepath.Join(*outputDir, config.CampaignBriefFileName)
		paths.ReportMetaJSON = filepath.Join(*outputDir, config.ReportMetaFileName)
	}

	if err := os.MkdirAll(paths.ReportsDir, 0755); err != nil {
		slog.Error("Failed to create reports directory", "error", err)
		os.Exit(1)
	}

	if err := paths.ValidateRequiredFiles(); err != nil {
		slog.Error("Source data files missing",
			"error", err,
			"hint", "Point -data at the directory holding the CSVs")
		os.Exit(1)
	}

	slog.Info("Loading source data",
		"geo", paths.GeoCSV,
		"concerns", paths.ConcernsCSV)

	ctx := context.Background()
	snap, err := dataprocessing.LoadSnapshot(ctx, paths.GeoCSV, paths.ConcernsCSV)
	if err != nil {
		slog.Error("Failed to load source data", "error", err)
		os.Exit(1)
	}
	slog.Info("Loaded source data",
		"geo_rows", len(snap.Zips),
		"concern_rows", len(snap.Concerns))

	filter := domain.Filter{State: *stateFilter, City: *cityFilter, TopN: *topN}.Normalized()
	if filter.TopN < config.MinTopN {
		filter.TopN = config.MinTopN
	}
	if filter.TopN > config.MaxTopN {
		filter.TopN = config.MaxTopN
	}

	zips := dataprocessing.FilterZips(snap.Zips, filter)
	if len(zips) == 0 {
		slog.Error("No ZIP codes match the filter",
			"state", filter.State,
			"city", filter.City)
		os.Exit(1)
	}

	concerns := dataprocessing.AggregateConcerns(dataprocessing.FilterConcerns(snap.Concerns, filter))
	topZips := dataprocessing.TopZips(zips, filter.TopN)
	summary := dataprocessing.Summarize(zips)
	recommendations := insights.Generate(summary, topZips, concerns, insights.DefaultThresholds())
	talkingPoints := insights.TalkingPointsFor(concerns, insights.DefaultTalkingPointLimit)

	csvWriter := exporter.NewCSVWriter(paths)

	topZipsPath, err := csvWriter.WriteTopZips(topZips)
	if err != nil {
		slog.Error("Failed to write top ZIPs CSV", "error", err)
		os.Exit(1)
	}

	concernsPath, err := csvWriter.WriteConcernSummary(concerns)
	if err != nil {
		slog.Error("Failed to write concern summary CSV", "error", err)
		os.Exit(1)
	}

	brief := exporter.CampaignBrief{
		GeneratedAt:     time.Now(),
		Filter:          filter,
		Summary:         summary,
		TopZips:         topZips,
		Concerns:        concerns,
		Recommendations: recommendations,
		TalkingPoints:   talkingPoints,
	}
	briefPath, err := exporter.NewExcelWriter(paths).WriteCampaignBrief(brief)
	if err != nil {
		slog.Error("Failed to write campaign brief", "error", err)
		os.Exit(1)
	}

	verified, err := verifyTopZips(topZipsPath, len(topZips))
	if err != nil {
		slog.Error("Top ZIPs export failed verification", "error", err)
		os.Exit(1)
	}

	meta := reportMeta{
		GeneratedAt:  brief.GeneratedAt,
		Version:      contracts.Version,
		Filter:       filter,
		GeoRows:      len(snap.Zips),
		ConcernRows:  len(snap.Concerns),
		TopZips:      len(topZips),
		RowsVerified: verified,
		Files:        []string{topZipsPath, concernsPath, briefPath},
	}
	if err := writeMeta(paths.ReportMetaJSON, meta); err != nil {
		slog.Error("Failed to write report metadata", "error", err)
		os.Exit(1)
	}

	slog.Info("Report generated",
		"top_zips", topZipsPath,
		"concerns", concernsPath,
		"brief", briefPath,
		"meta", paths.ReportMetaJSON)

	printReport(filter, summary, topZips, concerns, recommendations)
}

// verifyTopZips re-reads the written CSV through the same parser the
// import path uses and confirms the row count survived the round trip.
func verifyTopZips(path string, want int) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open exported CSV: %w", err)
	}
	defer file.Close()

	rows, err := exporter.ParseTopZips(file)
	if err != nil {
		return 0, fmt.Errorf("parse exported CSV: %w", err)
	}
	if len(rows) != want {
		return len(rows), fmt.Errorf("exported %d rows, read back %d", want, len(rows))
	}
	return len(rows), nil
}

func writeMeta(path string, meta reportMeta) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func printReport(filter domain.Filter, summary domain.MarketSummary, topZips []domain.ZipRecord, concerns []domain.ConcernSummary, recommendations []domain.Recommendation) {
	fmt.Printf("\n=== EV MARKET REPORT (%s / %s) ===\n", filter.State, filter.City)
	fmt.Printf("ZIP codes: %d | Predicted sales (12m): %.0f | Mean income: $%.0f | Mean chargers: %.1f | Mean EV share: %.1f%%\n",
		summary.ZipCount, summary.TotalPredictedSales, summary.MeanMedianIncome,
		summary.MeanChargingStations, summary.MeanEVShare*100)

	fmt.Println("\nRank | ZIP   | City          | State | Predicted sales")
	fmt.Println("-----|-------|---------------|-------|----------------")
	for i, z := range topZips {
		fmt.Printf("%4d | %-5s | %-13s | %-5s | %15.0f\n",
			i+1, z.Zip, z.City, z.State, z.PredictedSales)
	}

	if len(concerns) > 0 {
		fmt.Println("\nTop buyer concerns:")
		for _, c := range concerns {
			fmt.Printf("  %-28s %5d mentions, avg sentiment %+.2f\n",
				c.Concern, c.TotalMentions, c.AvgSentiment)
		}
	}

	if len(recommendations) > 0 {
		fmt.Println("\nRecommendations:")
		for _, rec := range recommendations {
			fmt.Printf("  - %s\n    %s\n", rec.Action, rec.Rationale)
		}
	}
	fmt.Println()
}
