// Package exporter writes the dashboard's report artifacts.
//
// CSVWriter handles the CSV side: header rows, streaming writes, and a
// UTF-8 BOM so Excel opens the files cleanly. Relative paths resolve
// into the reports directory.
//
// TopZipsRecords and ConcernSummaryRecords turn domain records into the
// display-format rows the dashboard table shows, with StreamTopZips and
// StreamConcernSummary for HTTP downloads and ParseTopZips to read an
// exported file back.
//
// BuildCampaignBrief assembles a multi-sheet Excel workbook (top ZIPs,
// concerns, recommendations) for sharing with sales teams.
//
// Example usage:
//
//	writer := exporter.NewCSVWriter(paths)
//
//	// Export the ranked ZIP table
//	path, err := writer.WriteTopZips(topZips)
//
//	// Stream the same table over HTTP
//	err = exporter.StreamTopZips(w, topZips)
package exporter
