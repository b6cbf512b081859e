// Package insights turns aggregated market data into sales guidance: a
// short list of rule-based campaign recommendations and canned talking
// points keyed by buyer-concern category.
package insights

import (
	"fmt"
	"strings"

	"evinsights/pkg/contracts/domain"
)

// DefaultTalkingPointLimit caps how many concern categories get a talking
// point on the dashboard and in campaign briefs.
const DefaultTalkingPointLimit = 3

// genericTalkingPoint covers concern categories without a scripted line.
const genericTalkingPoint = "Acknowledge the concern directly, share regional owner-satisfaction results, and offer an extended test drive."

// talkingPoints maps lowercased concern categories to the messaging line
// sales teams lead with for that concern.
var talkingPoints = map[string]string{
	"charging infrastructure": "Walk the buyer through the public charging map for their commute and highlight the home-charger installation credit.",
	"purchase price":          "Lead with total cost of ownership: incentives plus fuel and maintenance savings over a five-year horizon.",
	"battery range":           "Quote real-world range for in-stock trims and compare it against the buyer's actual weekly mileage.",
	"charging time":           "Anchor on the 20-to-80 percent fast-charge time and overnight home charging, not a full-cycle estimate.",
	"service availability":    "Point to the certified EV service network in the region and the guaranteed service-loaner policy.",
}

// TalkingPoint returns the scripted messaging line for a concern category.
// Lookup is case-insensitive; unknown categories get the generic line.
func TalkingPoint(concern string) string {
	if msg, ok := talkingPoints[strings.ToLower(strings.TrimSpace(concern))]; ok {
		return msg
	}
	return genericTalkingPoint
}

// TalkingPointsFor pairs the top concern categories with their talking
// points, in the order given. At most limit entries are returned; a
// non-positive limit yields an empty slice.
func TalkingPointsFor(concerns []domain.ConcernSummary, limit int) []domain.TalkingPoint {
	points := []domain.TalkingPoint{}
	if limit <= 0 {
		return points
	}
	for _, c := range concerns {
		if len(points) == limit {
			break
		}
		points = append(points, domain.TalkingPoint{
			Concern: c.Concern,
			Message: TalkingPoint(c.Concern),
		})
	}
	return points
}

// Thresholds are the cut-offs the recommendation rules compare regional
// averages against.
type Thresholds struct {
	// ChargingGapStations is the mean stations-per-ZIP level below which
	// charging density counts as a gap.
	ChargingGapStations float64

	// ChargingGapIncome is the mean median-income level above which a
	// charging gap is worth a provider partnership.
	ChargingGapIncome float64

	// LowEVShare is the mean EV share below which adoption counts as low.
	LowEVShare float64
}

// DefaultThresholds returns the standard rule cut-offs.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ChargingGapStations: 80,
		ChargingGapIncome:   80_000,
		LowEVShare:          0.12,
	}
}

// Generate applies the recommendation rules to the filtered region and
// returns the matches in rule order. Every rule that fires contributes one
// recommendation; when none fire the steady-state fallback is returned, so
// the result is never empty.
func Generate(summary domain.MarketSummary, topZips []domain.ZipRecord, concerns []domain.ConcernSummary, th Thresholds) []domain.Recommendation {
	recs := []domain.Recommendation{}

	// Highest-ranked ZIP gets campaign priority
	if len(topZips) > 0 {
		z := topZips[0]
		recs = append(recs, domain.Recommendation{
			Action: fmt.Sprintf("Prioritize campaign in ZIP %s (%s, %s)", z.Zip, z.City, z.State),
			Rationale: fmt.Sprintf("Highest predicted EV sales in the selected region, %d units over the next 12 months",
				int(z.PredictedSales)),
		})
	}

	// Most-mentioned concern drives the messaging
	if len(concerns) > 0 {
		c := concerns[0]
		recs = append(recs, domain.Recommendation{
			Action: fmt.Sprintf("Address %s in targeted messaging", strings.ToLower(c.Concern)),
			Rationale: fmt.Sprintf("Most discussed barrier in the selected region, %d mentions at %.2f average sentiment",
				c.TotalMentions, c.AvgSentiment),
		})
	}

	// The density rules read regional means; with no ZIPs in the selection
	// the means are zero-valued and say nothing, so skip them.
	if summary.ZipCount > 0 {
		if summary.MeanChargingStations < th.ChargingGapStations && summary.MeanMedianIncome > th.ChargingGapIncome {
			recs = append(recs, domain.Recommendation{
				Action: "Partner with charging providers",
				Rationale: fmt.Sprintf("High income (avg $%.0f) but below-average charging density (%.0f stations per ZIP) suggests infrastructure-driven lift",
					summary.MeanMedianIncome, summary.MeanChargingStations),
			})
		}

		if summary.MeanEVShare < th.LowEVShare {
			recs = append(recs, domain.Recommendation{
				Action: "Run education webinars with dealerships",
				Rationale: fmt.Sprintf("EV share averages %.1f%%, under the %.0f%% adoption benchmark; buyer confidence and dealer knowledge need building",
					summary.MeanEVShare*100, th.LowEVShare*100),
			})
		}
	}

	if len(recs) == 0 {
		recs = append(recs, domain.Recommendation{
			Action:    "Maintain current strategy",
			Rationale: "No strong constraints detected; continue monitoring sentiment and charging density",
		})
	}

	return recs
}
