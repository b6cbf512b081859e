package domain

import (
	"fmt"
	"strings"
)

// ConcernRecord represents one row of ev_concerns_sample.csv: the mention
// volume and average sentiment for a buyer-concern category within a city.
// Sentiment arrives pre-scored in [-1,1]; this system never re-scores it.
//
// The csv tags mirror the column headers of ev_concerns_sample.csv, which
// are the binding data contract for that file.
type ConcernRecord struct {
	// City and State locate where the mentions were collected
	City  string `json:"city" csv:"city" validate:"required"`
	State string `json:"state" csv:"state" validate:"required,len=2,uppercase"`

	// Concern is the category label, e.g. "Range anxiety", "Charging access",
	// "Upfront cost". Labels are free-form strings; grouping is by exact label.
	Concern string `json:"concern" csv:"concern" validate:"required"`

	// MentionCount is how many source mentions rolled up into this row
	MentionCount int `json:"mention_count" csv:"mention_count" validate:"min=0"`

	// AvgSentiment is the mean sentiment of those mentions, in [-1,1]
	// (negative = unfavorable)
	AvgSentiment float64 `json:"avg_sentiment" csv:"avg_sentiment" validate:"min=-1,max=1"`
}

// ValidateConcernRecord checks the business rules for a single concern row.
func ValidateConcernRecord(r *ConcernRecord) error {
	if r == nil {
		return fmt.Errorf("concern record cannot be nil")
	}
	if strings.TrimSpace(r.Concern) == "" {
		return fmt.Errorf("concern label is required")
	}
	if r.MentionCount < 0 {
		return fmt.Errorf("mention count cannot be negative for %q: %d", r.Concern, r.MentionCount)
	}
	if r.AvgSentiment < -1 || r.AvgSentiment > 1 {
		return fmt.Errorf("avg sentiment %.4f for %q must be within [-1,1]", r.AvgSentiment, r.Concern)
	}
	return nil
}

// ConcernSummary is the aggregate view of one concern category across every
// row that carries its label: total mentions and the mention-weighted mean
// sentiment. Summaries are ordered by TotalMentions descending; categories
// with equal counts keep their first-appearance order.
type ConcernSummary struct {
	Concern       string  `json:"concern"`
	TotalMentions int     `json:"total_mentions"`
	AvgSentiment  float64 `json:"avg_sentiment"`
}
