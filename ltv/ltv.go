// Package ltv scores customer lifetime value and churn risk. Both
// scores are deterministic rule tables over purchase history, not
// trained predictors.
package ltv

import (
	"sort"

	"github.com/brunobiangulo/salesmart/warehouse"
)

// Row is one customer_ltv_analysis entry, keyed by customer_id.
type Row struct {
	CustomerID        int64   `json:"customer_id"`
	AcquisitionCohort string  `json:"acquisition_cohort"`
	CustomerSegment   string  `json:"customer_segment"`
	TotalOrders       int     `json:"total_orders"`
	TotalSpent        float64 `json:"total_spent"`
	AvgOrderValue     float64 `json:"avg_order_value"`
	DaysActive        int     `json:"days_active"`
	PredictedLTVScore int     `json:"predicted_ltv_score"`
	ChurnRiskScore    float64 `json:"churn_risk_score"`
}

// ChurnWeights are the component weights of the churn risk score.
// They must sum to 1; the pipeline validates this at startup.
type ChurnWeights struct {
	Recency   float64 `json:"recency"`
	Frequency float64 `json:"frequency"`
	Value     float64 `json:"value"`
}

// DefaultChurnWeights weights recency heaviest: days of silence are the
// strongest disengagement signal available without a trained model.
func DefaultChurnWeights() ChurnWeights {
	return ChurnWeights{Recency: 0.5, Frequency: 0.3, Value: 0.2}
}

// LTV banding thresholds. Spend contributes 1-3 points, repeat
// frequency 0-2, and customers a year past acquisition with still only
// one order lose a point. The result clamps to [1,5] and is monotone
// in both spend and frequency.
const (
	spendBandMid  = 100.0
	spendBandHigh = 500.0
	freqBandMid   = 2
	freqBandHigh  = 5
	staleAgeDays  = 365
)

// recencyHorizonDays caps the recency component of churn risk: a year
// of silence counts as fully disengaged.
const recencyHorizonDays = 365.0

// Build scores every customer. Orders must belong to the same model as
// customers; per-customer gap and value trends are read from the order
// dimension.
func Build(customers []warehouse.CustomerRow, orders []warehouse.OrderRow, w ChurnWeights) []Row {
	lastAmount := make(map[int64]float64, len(customers))
	lastSeq := make(map[int64]int, len(customers))
	for _, o := range orders {
		if o.CustomerOrderSequence >= lastSeq[o.CustomerID] {
			lastSeq[o.CustomerID] = o.CustomerOrderSequence
			lastAmount[o.CustomerID] = o.OrderAmount
		}
	}

	rows := make([]Row, 0, len(customers))
	for _, c := range customers {
		rows = append(rows, Row{
			CustomerID:        c.CustomerID,
			AcquisitionCohort: c.CohortMonth,
			CustomerSegment:   c.Segment,
			TotalOrders:       c.TotalOrders,
			TotalSpent:        c.TotalSpent,
			AvgOrderValue:     c.AvgOrderValue,
			DaysActive:        c.DaysSinceFirstOrder,
			PredictedLTVScore: ltvScore(c),
			ChurnRiskScore:    churnRisk(c, lastAmount[c.CustomerID], w),
		})
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].CustomerID < rows[j].CustomerID })
	return rows
}

// ltvScore applies the documented 1-5 banding over total spend, order
// frequency, and customer age.
func ltvScore(c warehouse.CustomerRow) int {
	score := 1
	if c.TotalSpent >= spendBandMid {
		score++
	}
	if c.TotalSpent >= spendBandHigh {
		score++
	}
	if c.TotalOrders >= freqBandMid {
		score++
	}
	if c.TotalOrders >= freqBandHigh {
		score++
	}
	if c.TotalOrders == 1 && c.DaysSinceFirstOrder > staleAgeDays {
		score--
	}
	if score < 1 {
		score = 1
	}
	if score > 5 {
		score = 5
	}
	return score
}

// churnRisk combines three [0,1] components with the configured
// weights:
//
//	recency           days since last order / 365, capped at 1
//	frequency decline open gap vs the customer's mean inter-purchase gap
//	value decline     last order amount vs the customer's mean order
//
// Single-order customers have no history of their own to compare
// against, so both decline components take the neutral 0.5.
func churnRisk(c warehouse.CustomerRow, lastOrderAmount float64, w ChurnWeights) float64 {
	recency := float64(c.DaysSinceLastOrder) / recencyHorizonDays
	recency = clamp01(recency)

	freqDecline := 0.5
	valueDecline := 0.5
	if c.TotalOrders > 1 {
		meanGap := float64(activeSpanDays(c)) / float64(c.TotalOrders-1)
		openGap := float64(c.DaysSinceLastOrder)
		if openGap+meanGap > 0 {
			freqDecline = openGap / (openGap + meanGap)
		} else {
			freqDecline = 0
		}

		meanOrder := c.TotalSpent / float64(c.TotalOrders)
		if meanOrder > 0 {
			valueDecline = clamp01((meanOrder - lastOrderAmount) / meanOrder)
		} else {
			valueDecline = 0
		}
	}

	return w.Recency*recency + w.Frequency*freqDecline + w.Value*valueDecline
}

// activeSpanDays is the customer's active span in days: first to last
// order.
func activeSpanDays(c warehouse.CustomerRow) int {
	return int(c.LastOrderDate.Sub(c.FirstOrderDate).Hours() / 24)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
