package exporter

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"evinsights/internal/config"
	"evinsights/pkg/contracts/domain"
)

// Sheet names inside the campaign brief workbook
const (
	sheetTopZips         = "Top ZIPs"
	sheetConcerns        = "Concerns"
	sheetRecommendations = "Recommendations"
)

// CampaignBrief bundles one filtered dashboard view for export to the
// sales team: the ranked ZIPs, the concern aggregates, and the generated
// guidance, stamped with the filter and load time they came from.
type CampaignBrief struct {
	GeneratedAt     time.Time
	Filter          domain.Filter
	Summary         domain.MarketSummary
	TopZips         []domain.ZipRecord
	Concerns        []domain.ConcernSummary
	Recommendations []domain.Recommendation
	TalkingPoints   []domain.TalkingPoint
}

// ExcelWriter produces the campaign brief workbook.
type ExcelWriter struct {
	paths *config.Paths
}

func NewExcelWriter(paths *config.Paths) *ExcelWriter {
	return &ExcelWriter{paths: paths}
}

// WriteCampaignBrief writes the campaign brief to its well-known reports
// file and returns the path written.
func (e *ExcelWriter) WriteCampaignBrief(brief CampaignBrief) (string, error) {
	f, err := BuildCampaignBrief(brief)
	if err != nil {
		return "", err
	}
	defer f.Close()

	path := e.paths.CampaignBriefXLSX
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save campaign brief: %w", err)
	}
	return path, nil
}

// BuildCampaignBrief assembles the campaign brief workbook in memory, for
// saving to disk or streaming over HTTP. The caller owns the returned file
// and must Close it.
func BuildCampaignBrief(brief CampaignBrief) (*excelize.File, error) {
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", sheetTopZips)

	writeSheetHeaders(f, sheetTopZips, TopZipsHeaders(), 18)
	for i, z := range brief.TopZips {
		row := i + 2
		f.SetCellValue(sheetTopZips, fmt.Sprintf("A%d", row), z.Zip)
		f.SetCellValue(sheetTopZips, fmt.Sprintf("B%d", row), z.City)
		f.SetCellValue(sheetTopZips, fmt.Sprintf("C%d", row), z.State)
		f.SetCellValue(sheetTopZips, fmt.Sprintf("D%d", row), z.Population)
		f.SetCellValue(sheetTopZips, fmt.Sprintf("E%d", row), z.MedianIncome)
		f.SetCellValue(sheetTopZips, fmt.Sprintf("F%d", row), z.ChargingStations)
		f.SetCellValue(sheetTopZips, fmt.Sprintf("G%d", row), z.PredictedSales)
	}

	if _, err := f.NewSheet(sheetConcerns); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create concerns sheet: %w", err)
	}
	writeSheetHeaders(f, sheetConcerns, ConcernSummaryHeaders(), 20)
	for i, c := range brief.Concerns {
		row := i + 2
		f.SetCellValue(sheetConcerns, fmt.Sprintf("A%d", row), c.Concern)
		f.SetCellValue(sheetConcerns, fmt.Sprintf("B%d", row), c.TotalMentions)
		f.SetCellValue(sheetConcerns, fmt.Sprintf("C%d", row), c.AvgSentiment)
	}

	if _, err := f.NewSheet(sheetRecommendations); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create recommendations sheet: %w", err)
	}
	f.SetColWidth(sheetRecommendations, "A", "A", 48)
	f.SetColWidth(sheetRecommendations, "B", "B", 90)

	f.SetCellValue(sheetRecommendations, "A1", "Action")
	f.SetCellValue(sheetRecommendations, "B1", "Rationale")
	row := 2
	for _, r := range brief.Recommendations {
		f.SetCellValue(sheetRecommendations, fmt.Sprintf("A%d", row), r.Action)
		f.SetCellValue(sheetRecommendations, fmt.Sprintf("B%d", row), r.Rationale)
		row++
	}

	row++
	f.SetCellValue(sheetRecommendations, fmt.Sprintf("A%d", row), "Talking points")
	row++
	for _, tp := range brief.TalkingPoints {
		f.SetCellValue(sheetRecommendations, fmt.Sprintf("A%d", row), tp.Concern)
		f.SetCellValue(sheetRecommendations, fmt.Sprintf("B%d", row), tp.Message)
		row++
	}

	row++
	f.SetCellValue(sheetRecommendations, fmt.Sprintf("A%d", row), "Region")
	f.SetCellValue(sheetRecommendations, fmt.Sprintf("B%d", row), filterLabel(brief.Filter))
	row++
	f.SetCellValue(sheetRecommendations, fmt.Sprintf("A%d", row), "ZIPs in selection")
	f.SetCellValue(sheetRecommendations, fmt.Sprintf("B%d", row), brief.Summary.ZipCount)
	row++
	f.SetCellValue(sheetRecommendations, fmt.Sprintf("A%d", row), "Total predicted sales (12m)")
	f.SetCellValue(sheetRecommendations, fmt.Sprintf("B%d", row), brief.Summary.TotalPredictedSales)
	row++
	f.SetCellValue(sheetRecommendations, fmt.Sprintf("A%d", row), "Generated at")
	f.SetCellValue(sheetRecommendations, fmt.Sprintf("B%d", row), brief.GeneratedAt.Format(time.RFC3339))

	return f, nil
}

func writeSheetHeaders(f *excelize.File, sheet string, headers []string, width float64) {
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, header)
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, width)
	}
}

// filterLabel renders the filter for display in exports.
func filterLabel(filter domain.Filter) string {
	filter = filter.Normalized()
	state := filter.State
	if filter.AllStates() {
		state = "All states"
	}
	city := filter.City
	if filter.AllCities() {
		city = "All cities"
	}
	return state + " / " + city
}
