package warehouse

import (
	"fmt"
	"sort"
	"time"

	"github.com/brunobiangulo/salesmart/staging"
)

// Customer value segments. VIP is the top-20% spender threshold,
// Regular is above the population mean; boundary values take the
// higher-retention label.
const (
	SegmentVIPActive        = "VIP Active"
	SegmentVIPAtRisk        = "VIP At Risk"
	SegmentRegularActive    = "Regular Active"
	SegmentRegularAtRisk    = "Regular At Risk"
	SegmentOneTimeBuyer     = "One-Time Buyer"
	SegmentLowValueActive   = "Low Value Active"
	SegmentLowValueInactive = "Low Value Inactive"
)

// BuildCustomerDim aggregates every customer's transaction history into
// one dim_customer row. Recency and age are measured from refDate, the
// pipeline's reference date, never from the wall clock.
func BuildCustomerDim(txs []staging.Transaction, refDate time.Time) []CustomerRow {
	type agg struct {
		first, last time.Time
		count       int
		spent       float64
		orders      map[int64]struct{}
	}

	byCustomer := make(map[int64]*agg)
	for _, tx := range txs {
		a, ok := byCustomer[tx.CustomerID]
		if !ok {
			a = &agg{first: tx.Date, last: tx.Date, orders: make(map[int64]struct{})}
			byCustomer[tx.CustomerID] = a
		}
		if tx.Date.Before(a.first) {
			a.first = tx.Date
		}
		if tx.Date.After(a.last) {
			a.last = tx.Date
		}
		a.count++
		a.spent += tx.Amount
		a.orders[tx.OrderID] = struct{}{}
	}

	rows := make([]CustomerRow, 0, len(byCustomer))
	for id, a := range byCustomer {
		quarter := (int(a.first.Month())-1)/3 + 1
		row := CustomerRow{
			CustomerID:          id,
			FirstOrderDate:      a.first,
			LastOrderDate:       a.last,
			TotalTransactions:   a.count,
			TotalSpent:          a.spent,
			AvgOrderValue:       a.spent / float64(a.count),
			TotalOrders:         len(a.orders),
			CohortMonth:         MonthKey(a.first),
			CohortQuarter:       fmt.Sprintf("%d-Q%d", a.first.Year(), quarter),
			CohortYear:          a.first.Year(),
			DaysSinceFirstOrder: daysBetween(a.first, refDate),
			DaysSinceLastOrder:  daysBetween(a.last, refDate),
		}
		row.VintageGroup = vintageGroup(row.DaysSinceFirstOrder)
		row.Status = activityStatus(row.DaysSinceLastOrder)
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].CustomerID < rows[j].CustomerID })
	assignValueSegments(rows)
	return rows
}

func vintageGroup(daysSinceFirst int) string {
	switch {
	case daysSinceFirst <= 30:
		return Vintage0To30
	case daysSinceFirst <= 90:
		return Vintage31To90
	case daysSinceFirst <= 180:
		return Vintage91To180
	case daysSinceFirst <= 365:
		return Vintage181To365
	default:
		return Vintage365Plus
	}
}

func activityStatus(daysSinceLast int) string {
	switch {
	case daysSinceLast <= 30:
		return StatusActive
	case daysSinceLast <= 90:
		return StatusAtRisk
	default:
		return StatusInactive
	}
}

// assignValueSegments labels each customer relative to the current
// population: VIP at or above the 80th spend percentile, Regular at or
// above the mean, everyone else by order count and recency. Total
// function: every customer gets exactly one label.
func assignValueSegments(rows []CustomerRow) {
	if len(rows) == 0 {
		return
	}

	spends := make([]float64, len(rows))
	var sum float64
	for i, r := range rows {
		spends[i] = r.TotalSpent
		sum += r.TotalSpent
	}
	sort.Float64s(spends)

	vipCut := spends[(len(spends)*4)/5] // 80th percentile, ties upward into VIP
	mean := sum / float64(len(rows))

	for i := range rows {
		r := &rows[i]
		switch {
		case r.TotalSpent >= vipCut:
			if r.DaysSinceLastOrder <= 30 {
				r.Segment = SegmentVIPActive
			} else {
				r.Segment = SegmentVIPAtRisk
			}
		case r.TotalSpent >= mean:
			if r.DaysSinceLastOrder <= 60 {
				r.Segment = SegmentRegularActive
			} else {
				r.Segment = SegmentRegularAtRisk
			}
		case r.TotalOrders == 1:
			r.Segment = SegmentOneTimeBuyer
		case r.DaysSinceLastOrder <= 90:
			r.Segment = SegmentLowValueActive
		default:
			r.Segment = SegmentLowValueInactive
		}
	}
}
