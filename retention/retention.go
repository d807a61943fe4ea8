// Package retention buckets customers into acquisition-month cohorts
// and computes month-by-month and fixed-window retention.
package retention

import (
	"fmt"
	"math"
	"sort"

	"github.com/brunobiangulo/salesmart/warehouse"
)

// CohortRow is one cohort_analysis entry, keyed by
// (cohort_month, activity_month).
type CohortRow struct {
	CohortMonth            string  `json:"cohort_month"`
	ActivityMonth          string  `json:"activity_month"`
	MonthsSinceAcquisition int     `json:"months_since_acquisition"`
	CohortSize             int     `json:"cohort_size"`
	ActiveCustomers        int     `json:"active_customers"`
	RetentionRatePercent   float64 `json:"retention_rate_percent"`
	TotalSales             float64 `json:"total_sales"`
	AvgOrderValue          float64 `json:"avg_order_value"`
}

// CumulativeRow is one cumulative_retention_analysis entry, keyed by
// (cohort_month, retention_window_months).
type CumulativeRow struct {
	CohortMonth             string  `json:"cohort_month"`
	RetentionWindowMonths   int     `json:"retention_window_months"`
	CohortSize              int     `json:"cohort_size"`
	ActiveCustomers         int     `json:"active_customers"`
	CumulativeRetentionRate float64 `json:"cumulative_retention_rate"`
	AvgPurchaseFrequency    float64 `json:"avg_purchase_frequency"`
	TotalRevenue            float64 `json:"total_revenue"`
	AvgCustomerValue        float64 `json:"avg_customer_value"`
}

// monthIndex converts a "2006-01" key into a linear month count for
// whole-month arithmetic.
func monthIndex(key string) int {
	var year, month int
	// Keys are produced by warehouse.MonthKey, so the shape is fixed.
	for i := 0; i < 4; i++ {
		year = year*10 + int(key[i]-'0')
	}
	month = int(key[5]-'0')*10 + int(key[6]-'0')
	return year*12 + month - 1
}

// activity is one (customer, month) aggregate derived from fact_sales.
type activity struct {
	sales        float64
	transactions int
	orders       map[int64]struct{}
}

// activityByCustomerMonth rolls fact rows up to customer × month.
func activityByCustomerMonth(facts []warehouse.FactRow) map[int64]map[string]*activity {
	out := make(map[int64]map[string]*activity)
	for _, f := range facts {
		month := monthKeyFromDateID(f.DateID)
		byMonth, ok := out[f.CustomerID]
		if !ok {
			byMonth = make(map[string]*activity)
			out[f.CustomerID] = byMonth
		}
		a, ok := byMonth[month]
		if !ok {
			a = &activity{orders: make(map[int64]struct{})}
			byMonth[month] = a
		}
		a.sales += f.SalesAmount
		a.transactions += f.TransactionCount
		a.orders[f.OrderID] = struct{}{}
	}
	return out
}

// monthKeyFromDateID recovers "2006-01" from a YYYYMMDD date_id. The
// encoding is deterministic, so no dimension lookup is needed.
func monthKeyFromDateID(dateID int64) string {
	ym := dateID / 100
	year := ym / 100
	month := ym % 100
	return formatMonth(int(year), int(month))
}

func formatMonth(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

// BuildCohorts computes the monthly cohort retention matrix. Cohorts
// with no members are never emitted, so retention is always a defined
// 0-100 rate.
func BuildCohorts(customers []warehouse.CustomerRow, facts []warehouse.FactRow) []CohortRow {
	cohortOf := make(map[int64]string, len(customers))
	cohortSize := make(map[string]int)
	for _, c := range customers {
		cohortOf[c.CustomerID] = c.CohortMonth
		cohortSize[c.CohortMonth]++
	}

	type cell struct {
		active       map[int64]struct{}
		sales        float64
		transactions int
	}
	type cellKey struct {
		cohort, activityMonth string
	}
	cells := make(map[cellKey]*cell)

	for customerID, byMonth := range activityByCustomerMonth(facts) {
		cohort := cohortOf[customerID]
		for month, a := range byMonth {
			k := cellKey{cohort, month}
			c, ok := cells[k]
			if !ok {
				c = &cell{active: make(map[int64]struct{})}
				cells[k] = c
			}
			c.active[customerID] = struct{}{}
			c.sales += a.sales
			c.transactions += a.transactions
		}
	}

	rows := make([]CohortRow, 0, len(cells))
	for k, c := range cells {
		months := monthIndex(k.activityMonth) - monthIndex(k.cohort)
		if months < 0 {
			continue // activity predating the cohort cannot occur by construction
		}
		size := cohortSize[k.cohort]
		if size == 0 {
			continue
		}
		rows = append(rows, CohortRow{
			CohortMonth:            k.cohort,
			ActivityMonth:          k.activityMonth,
			MonthsSinceAcquisition: months,
			CohortSize:             size,
			ActiveCustomers:        len(c.active),
			RetentionRatePercent:   round2(float64(len(c.active)) / float64(size) * 100),
			TotalSales:             c.sales,
			AvgOrderValue:          round2(c.sales / float64(c.transactions)),
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].CohortMonth != rows[j].CohortMonth {
			return rows[i].CohortMonth < rows[j].CohortMonth
		}
		return rows[i].ActivityMonth < rows[j].ActivityMonth
	})
	return rows
}

// BuildCumulative computes fixed-window cumulative retention. A cohort
// member is active in window W when it has any activity within
// [acquisition, acquisition+W] months. Cohorts below minCohortSize are
// excluded (statistical-significance floor) but still appear in the
// monthly matrix.
func BuildCumulative(customers []warehouse.CustomerRow, facts []warehouse.FactRow, windows []int, minCohortSize int) []CumulativeRow {
	cohortOf := make(map[int64]string, len(customers))
	cohortSize := make(map[string]int)
	for _, c := range customers {
		cohortOf[c.CustomerID] = c.CohortMonth
		cohortSize[c.CohortMonth]++
	}

	byCustomer := activityByCustomerMonth(facts)

	type agg struct {
		active  map[int64]struct{}
		orders  int
		revenue float64
	}
	type aggKey struct {
		cohort string
		window int
	}
	aggs := make(map[aggKey]*agg)

	for customerID, byMonth := range byCustomer {
		cohort := cohortOf[customerID]
		base := monthIndex(cohort)
		for month, a := range byMonth {
			offset := monthIndex(month) - base
			for _, w := range windows {
				if offset < 0 || offset > w {
					continue
				}
				k := aggKey{cohort, w}
				g, ok := aggs[k]
				if !ok {
					g = &agg{active: make(map[int64]struct{})}
					aggs[k] = g
				}
				g.active[customerID] = struct{}{}
				g.orders += len(a.orders)
				g.revenue += a.sales
			}
		}
	}

	rows := make([]CumulativeRow, 0, len(aggs))
	for k, g := range aggs {
		size := cohortSize[k.cohort]
		if size < minCohortSize || len(g.active) == 0 {
			continue
		}
		rows = append(rows, CumulativeRow{
			CohortMonth:             k.cohort,
			RetentionWindowMonths:   k.window,
			CohortSize:              size,
			ActiveCustomers:         len(g.active),
			CumulativeRetentionRate: round2(float64(len(g.active)) / float64(size) * 100),
			AvgPurchaseFrequency:    round2(float64(g.orders) / float64(len(g.active))),
			TotalRevenue:            g.revenue,
			AvgCustomerValue:        round2(g.revenue / float64(len(g.active))),
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].CohortMonth != rows[j].CohortMonth {
			return rows[i].CohortMonth < rows[j].CohortMonth
		}
		return rows[i].RetentionWindowMonths < rows[j].RetentionWindowMonths
	})
	return rows
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
