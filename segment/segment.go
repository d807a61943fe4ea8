// Package segment computes RFM scores and maps them to named customer
// segments via an ordered rule table.
package segment

import (
	"sort"

	"github.com/brunobiangulo/salesmart/warehouse"
)

// Row is one customer_segmentation entry, keyed by customer_id.
type Row struct {
	CustomerID          int64  `json:"customer_id"`
	RecencyScore        int    `json:"recency_score"`
	FrequencyScore      int    `json:"frequency_score"`
	MonetaryScore       int    `json:"monetary_score"`
	Segment             string `json:"rfm_segment"`
	SegmentDescription  string `json:"segment_description"`
	RecommendedStrategy string `json:"recommended_strategy"`
}

// Rule maps an RFM score region to a named segment. Rules are
// evaluated top to bottom; the first match wins, and the trailing
// catch-all guarantees totality.
type Rule struct {
	Name        string
	Description string
	Strategy    string
	Matches     func(r, f, m int) bool
}

// Rules is the ordered segment rule table.
func Rules() []Rule {
	return []Rule{
		{
			Name:        "Champions",
			Description: "Best customers who bought recently and frequently",
			Strategy:    "Upsell premium products, ask for reviews",
			Matches:     func(r, f, m int) bool { return r >= 4 && f >= 4 && m >= 4 },
		},
		{
			Name:        "Loyal Customers",
			Description: "Regular customers with good value",
			Strategy:    "Recommend related products, loyalty programs",
			Matches:     func(r, f, m int) bool { return r >= 3 && f >= 3 && m >= 3 },
		},
		{
			Name:        "New Customers",
			Description: "Recent customers with potential",
			Strategy:    "Onboarding campaigns, product education",
			Matches:     func(r, f, m int) bool { return r >= 4 && f <= 2 },
		},
		{
			Name:        "At Risk",
			Description: "Good customers who haven't purchased recently",
			Strategy:    "Reactivation campaigns with discounts",
			Matches:     func(r, f, m int) bool { return r <= 3 && f >= 3 },
		},
		{
			Name:        "Cannot Lose Them",
			Description: "High-value customers at risk of churning",
			Strategy:    "Immediate intervention, VIP treatment",
			Matches:     func(r, f, m int) bool { return r <= 2 && f <= 2 && m >= 3 },
		},
		{
			Name:        "Lost Customers",
			Description: "Customers who haven't purchased in long time",
			Strategy:    "Win-back campaigns with strong incentives",
			Matches:     func(r, f, m int) bool { return r <= 2 },
		},
		{
			Name:        "Others",
			Description: "General customer segment",
			Strategy:    "Standard marketing approach",
			Matches:     func(r, f, m int) bool { return true },
		},
	}
}

// Build scores every customer 1-5 on recency, frequency and monetary
// value via population-relative quintiles, then applies the rule table.
// Exactly one row per customer.
func Build(customers []warehouse.CustomerRow) []Row {
	n := len(customers)
	if n == 0 {
		return nil
	}

	recency := make([]float64, n)
	frequency := make([]float64, n)
	monetary := make([]float64, n)
	for i, c := range customers {
		// Negate recency so "higher metric = higher score" holds for
		// all three axes.
		recency[i] = -float64(c.DaysSinceLastOrder)
		frequency[i] = float64(c.TotalOrders)
		monetary[i] = c.TotalSpent
	}

	rScores := quintileScores(recency)
	fScores := quintileScores(frequency)
	mScores := quintileScores(monetary)

	rules := Rules()
	rows := make([]Row, n)
	for i, c := range customers {
		row := Row{
			CustomerID:     c.CustomerID,
			RecencyScore:   rScores[i],
			FrequencyScore: fScores[i],
			MonetaryScore:  mScores[i],
		}
		for _, rule := range rules {
			if rule.Matches(row.RecencyScore, row.FrequencyScore, row.MonetaryScore) {
				row.Segment = rule.Name
				row.SegmentDescription = rule.Description
				row.RecommendedStrategy = rule.Strategy
				break
			}
		}
		rows[i] = row
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].CustomerID < rows[j].CustomerID })
	return rows
}

// quintileScores assigns each value a 1-5 score by rank within the
// population. Equal values always land in the same quintile (the lower
// one); fewer than five distinct values simply occupy fewer buckets,
// which is the documented degenerate-population behavior.
func quintileScores(values []float64) []int {
	n := len(values)
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	scores := make([]int, n)
	for i, v := range values {
		rank := sort.SearchFloat64s(sorted, v) // customers strictly below v
		scores[i] = 1 + rank*5/n
		if scores[i] > 5 {
			scores[i] = 5
		}
	}
	return scores
}
