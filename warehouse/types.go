// Package warehouse builds the dimensional model (date, customer and
// order dimensions plus the sales fact table) from cleaned transactions.
package warehouse

import (
	"errors"
	"time"
)

// ErrReferentialIntegrity is returned when a fact row references a
// customer, order, or date with no dimension row. This cannot happen
// when the dimensions were built from the same input, so it is treated
// as a fatal consistency violation rather than a skippable row.
var ErrReferentialIntegrity = errors.New("warehouse: referential integrity violation")

// DateRow is one day in dim_date. date_id is the YYYYMMDD integer
// encoding of the calendar date, a deterministic surrogate key.
type DateRow struct {
	DateID         int64
	FullDate       time.Time
	Year           int
	Quarter        int
	Month          int
	MonthName      string
	MonthAbbr      string
	WeekOfYear     int
	DayOfYear      int
	DayOfMonth     int
	DayOfWeek      int // 1 = Sunday ... 7 = Saturday
	DayName        string
	DayAbbr        string
	IsWeekend      bool
	IsMonthStart   bool
	IsMonthEnd     bool
	IsQuarterStart bool
	IsQuarterEnd   bool
	IsYearStart    bool
	IsYearEnd      bool
	DateString     string // 2006-01-02
	MonthYear      string // "Jan 2021"
	QuarterYear    string // "2021-Q1"
}

// CustomerRow is one customer in dim_customer, recomputed in full on
// every run.
type CustomerRow struct {
	CustomerID          int64
	FirstOrderDate      time.Time
	LastOrderDate       time.Time
	TotalTransactions   int
	TotalSpent          float64
	AvgOrderValue       float64
	TotalOrders         int
	CohortMonth         string // "2021-01"
	CohortQuarter       string // "2021-Q1"
	CohortYear          int
	DaysSinceFirstOrder int
	VintageGroup        string
	DaysSinceLastOrder  int
	Segment             string
	Status              string
}

// OrderRow is one order in dim_order. DaysSincePreviousOrder is nil
// for a customer's first order; it is never zero-filled.
type OrderRow struct {
	OrderID                int64
	CustomerID             int64
	OrderDate              time.Time
	DateID                 int64
	OrderAmount            float64
	OrderYear              int
	OrderMonth             int
	OrderQuarter           int
	OrderDayOfWeek         int
	OrderDayName           string
	IsWeekendOrder         bool
	CustomerOrderSequence  int
	IsFirstOrder           bool
	DaysSinceFirstOrder    int
	DaysSincePreviousOrder *int
	AmountQuartile         string
}

// FactRow is one grain of fact_sales, composite-keyed by
// (customer_id, order_id, date_id). Measures are additive.
type FactRow struct {
	CustomerID       int64
	OrderID          int64
	DateID           int64
	SalesAmount      float64
	TransactionCount int
}

// Model is the complete dimensional model for one run. Downstream
// analytics treat it as read-only.
type Model struct {
	Dates         []DateRow
	Customers     []CustomerRow
	Orders        []OrderRow
	Facts         []FactRow
	ReferenceDate time.Time
}

// Customer vintage groups, days since first order.
const (
	Vintage0To30    = "0-30 days"
	Vintage31To90   = "31-90 days"
	Vintage91To180  = "91-180 days"
	Vintage181To365 = "181-365 days"
	Vintage365Plus  = "365+ days"
)

// Customer activity statuses, days since last order. Boundaries are
// inclusive on the more-active side.
const (
	StatusActive   = "Active"   // <= 30 days
	StatusAtRisk   = "At Risk"  // <= 90 days
	StatusInactive = "Inactive" // > 90 days
)

// Order amount quartile labels, global rank-based distribution.
const (
	QuartileLow        = "Low"
	QuartileMediumLow  = "Medium-Low"
	QuartileMediumHigh = "Medium-High"
	QuartileHigh       = "High"
)

// DateID encodes a calendar date as its YYYYMMDD integer surrogate key.
func DateID(t time.Time) int64 {
	return int64(t.Year())*10000 + int64(t.Month())*100 + int64(t.Day())
}

// MonthKey formats the calendar month of t as "2006-01".
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// daysBetween returns whole days from a to b (negative when b < a).
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
