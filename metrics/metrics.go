// Package metrics computes the calendar-level aggregate tables:
// monthly metrics, seasonal trends, and the customer lifecycle
// snapshot.
package metrics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/brunobiangulo/salesmart/warehouse"
)

// MonthlyRow is one monthly_metrics entry, keyed by period_month.
type MonthlyRow struct {
	PeriodMonth       string  `json:"period_month"`
	TotalSales        float64 `json:"total_sales"`
	AvgOrderValue     float64 `json:"avg_order_value"`
	TotalTransactions int     `json:"total_transactions"`
	TotalOrders       int     `json:"total_orders"`
	UniqueCustomers   int     `json:"unique_customers"`
	PurchaseFrequency float64 `json:"purchase_frequency"`
}

// SeasonalRow is one seasonal_trends entry, keyed by
// (period_type, period_value).
type SeasonalRow struct {
	PeriodType     string  `json:"period_type"`  // "monthly" or "quarterly"
	PeriodValue    string  `json:"period_value"` // "01".."12" or "Q1".."Q4"
	AvgSales       float64 `json:"avg_sales"`
	AvgOrders      int     `json:"avg_orders"`
	AvgCustomers   int     `json:"avg_customers"`
	SeasonalIndex  float64 `json:"seasonal_index"`
	TrendDirection string  `json:"trend_direction"`
}

// LifecycleRow is one customer_lifecycle_snapshot entry, keyed by
// (snapshot_date, lifecycle_stage).
type LifecycleRow struct {
	SnapshotDate          time.Time `json:"snapshot_date"`
	LifecycleStage        string    `json:"lifecycle_stage"`
	Customers             int       `json:"customers"`
	ShareOfBase           float64   `json:"share_of_base"`
	AvgDaysSinceLastOrder float64   `json:"avg_days_since_last_order"`
}

// Lifecycle stages. New overrides Active for first-time buyers inside
// the onboarding window so marketing sees a clean onboarding cohort.
const (
	StageNew      = "New"
	StageActive   = "Active"
	StageAtRisk   = "At Risk"
	StageInactive = "Inactive"
)

// Trend direction labels against the overall period average.
const (
	TrendStrongPositive = "strong_positive" // index > 1.10
	TrendPositive       = "positive"        // index > 1.05
	TrendStable         = "stable"
	TrendNegative       = "negative"        // index < 0.95
	TrendStrongNegative = "strong_negative" // index < 0.90
)

// BuildMonthly aggregates fact rows into one row per calendar month.
func BuildMonthly(facts []warehouse.FactRow) []MonthlyRow {
	type agg struct {
		sales        float64
		transactions int
		orders       map[int64]struct{}
		customers    map[int64]struct{}
	}

	byMonth := make(map[string]*agg)
	for _, f := range facts {
		month := monthOfDateID(f.DateID)
		a, ok := byMonth[month]
		if !ok {
			a = &agg{orders: make(map[int64]struct{}), customers: make(map[int64]struct{})}
			byMonth[month] = a
		}
		a.sales += f.SalesAmount
		a.transactions += f.TransactionCount
		a.orders[f.OrderID] = struct{}{}
		a.customers[f.CustomerID] = struct{}{}
	}

	rows := make([]MonthlyRow, 0, len(byMonth))
	for month, a := range byMonth {
		rows = append(rows, MonthlyRow{
			PeriodMonth:       month,
			TotalSales:        a.sales,
			AvgOrderValue:     round2(a.sales / float64(a.transactions)),
			TotalTransactions: a.transactions,
			TotalOrders:       len(a.orders),
			UniqueCustomers:   len(a.customers),
			PurchaseFrequency: round2(float64(len(a.orders)) / float64(len(a.customers))),
		})
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].PeriodMonth < rows[j].PeriodMonth })
	return rows
}

// BuildSeasonal derives calendar-month and quarter seasonality from the
// monthly metrics. The seasonal index compares each period's average
// sales to the overall monthly average.
func BuildSeasonal(monthly []MonthlyRow) []SeasonalRow {
	if len(monthly) == 0 {
		return nil
	}

	var overall float64
	for _, m := range monthly {
		overall += m.TotalSales
	}
	overall /= float64(len(monthly))
	if overall == 0 {
		return nil // no revenue at all; indexes are undefined
	}

	rows := seasonalFor(monthly, "monthly", func(m MonthlyRow) string {
		return m.PeriodMonth[5:7]
	}, overall)
	rows = append(rows, seasonalFor(monthly, "quarterly", func(m MonthlyRow) string {
		month := int(m.PeriodMonth[5]-'0')*10 + int(m.PeriodMonth[6]-'0')
		return fmt.Sprintf("Q%d", (month-1)/3+1)
	}, overall)...)

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].PeriodType != rows[j].PeriodType {
			return rows[i].PeriodType < rows[j].PeriodType
		}
		return rows[i].PeriodValue < rows[j].PeriodValue
	})
	return rows
}

func seasonalFor(monthly []MonthlyRow, periodType string, keyOf func(MonthlyRow) string, overall float64) []SeasonalRow {
	type agg struct {
		sales, orders, customers float64
		periods                  int
	}
	byKey := make(map[string]*agg)
	for _, m := range monthly {
		k := keyOf(m)
		a, ok := byKey[k]
		if !ok {
			a = &agg{}
			byKey[k] = a
		}
		a.sales += m.TotalSales
		a.orders += float64(m.TotalOrders)
		a.customers += float64(m.UniqueCustomers)
		a.periods++
	}

	rows := make([]SeasonalRow, 0, len(byKey))
	for k, a := range byKey {
		avgSales := a.sales / float64(a.periods)
		index := avgSales / overall
		rows = append(rows, SeasonalRow{
			PeriodType:     periodType,
			PeriodValue:    k,
			AvgSales:       round2(avgSales),
			AvgOrders:      int(math.Round(a.orders / float64(a.periods))),
			AvgCustomers:   int(math.Round(a.customers / float64(a.periods))),
			SeasonalIndex:  round3(index),
			TrendDirection: trendDirection(index),
		})
	}
	return rows
}

func trendDirection(index float64) string {
	switch {
	case index > 1.1:
		return TrendStrongPositive
	case index > 1.05:
		return TrendPositive
	case index < 0.9:
		return TrendStrongNegative
	case index < 0.95:
		return TrendNegative
	default:
		return TrendStable
	}
}

// BuildLifecycle rolls the customer base up by lifecycle stage as of
// the reference date.
func BuildLifecycle(customers []warehouse.CustomerRow, refDate time.Time) []LifecycleRow {
	if len(customers) == 0 {
		return nil
	}

	type agg struct {
		count   int
		lastSum float64
	}
	byStage := make(map[string]*agg)
	for _, c := range customers {
		stage := lifecycleStage(c)
		a, ok := byStage[stage]
		if !ok {
			a = &agg{}
			byStage[stage] = a
		}
		a.count++
		a.lastSum += float64(c.DaysSinceLastOrder)
	}

	total := len(customers)
	rows := make([]LifecycleRow, 0, len(byStage))
	for stage, a := range byStage {
		rows = append(rows, LifecycleRow{
			SnapshotDate:          refDate,
			LifecycleStage:        stage,
			Customers:             a.count,
			ShareOfBase:           round4(float64(a.count) / float64(total)),
			AvgDaysSinceLastOrder: round2(a.lastSum / float64(a.count)),
		})
	}

	order := map[string]int{StageNew: 1, StageActive: 2, StageAtRisk: 3, StageInactive: 4}
	sort.Slice(rows, func(i, j int) bool { return order[rows[i].LifecycleStage] < order[rows[j].LifecycleStage] })
	return rows
}

func lifecycleStage(c warehouse.CustomerRow) string {
	switch {
	case c.TotalOrders == 1 && c.DaysSinceFirstOrder <= 30:
		return StageNew
	case c.DaysSinceLastOrder <= 30:
		return StageActive
	case c.DaysSinceLastOrder <= 90:
		return StageAtRisk
	default:
		return StageInactive
	}
}

func monthOfDateID(dateID int64) string {
	ym := dateID / 100
	return fmt.Sprintf("%04d-%02d", ym/100, ym%100)
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
