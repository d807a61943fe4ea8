package warehouse

import (
	"errors"
	"testing"
	"time"

	"github.com/brunobiangulo/salesmart/staging"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func tx(date time.Time, customer, order int64, amount float64) staging.Transaction {
	return staging.Transaction{Date: date, CustomerID: customer, OrderID: order, Amount: amount}
}

// sampleTxs is a small three-customer history: X orders twice, Y once
// big, Z once late and small.
func sampleTxs() []staging.Transaction {
	return []staging.Transaction{
		tx(day(2021, 1, 5), 1, 10, 100),
		tx(day(2021, 2, 10), 1, 11, 50),
		tx(day(2021, 1, 20), 2, 12, 500),
		tx(day(2021, 6, 1), 3, 13, 10),
	}
}

func TestBuildEmptyInput(t *testing.T) {
	if _, err := Build(nil, time.Time{}); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestBuildReferenceDateDefaultsToMaxObserved(t *testing.T) {
	m, err := Build(sampleTxs(), time.Time{})
	if err != nil {
		t.Fatalf("building model: %v", err)
	}
	if !m.ReferenceDate.Equal(day(2021, 6, 1)) {
		t.Errorf("expected reference date 2021-06-01, got %v", m.ReferenceDate)
	}
}

func TestBuildReferenceDateOverride(t *testing.T) {
	ref := day(2021, 7, 1)
	m, err := Build(sampleTxs(), ref)
	if err != nil {
		t.Fatalf("building model: %v", err)
	}
	if !m.ReferenceDate.Equal(ref) {
		t.Errorf("expected reference date %v, got %v", ref, m.ReferenceDate)
	}
}

func TestDateDimCoversFullRange(t *testing.T) {
	dates := BuildDateDim(sampleTxs())

	// 2021-01-05 .. 2021-06-01 inclusive.
	want := 27 + 28 + 31 + 30 + 31 + 1
	if len(dates) != want {
		t.Fatalf("expected %d days, got %d", want, len(dates))
	}
	if dates[0].DateID != 20210105 {
		t.Errorf("expected first date_id 20210105, got %d", dates[0].DateID)
	}
	if dates[len(dates)-1].DateID != 20210601 {
		t.Errorf("expected last date_id 20210601, got %d", dates[len(dates)-1].DateID)
	}
	for i := 1; i < len(dates); i++ {
		if dates[i].DateID <= dates[i-1].DateID {
			t.Fatalf("date_ids not strictly increasing at %d", i)
		}
	}
}

func TestDateRowAttributes(t *testing.T) {
	r := dateRow(day(2021, 3, 31))
	if r.Quarter != 1 || !r.IsQuarterEnd || !r.IsMonthEnd {
		t.Errorf("2021-03-31 attributes wrong: %+v", r)
	}
	if r.QuarterYear != "2021-Q1" {
		t.Errorf("expected 2021-Q1, got %s", r.QuarterYear)
	}
	if r.MonthYear != "Mar 2021" {
		t.Errorf("expected Mar 2021, got %s", r.MonthYear)
	}

	sat := dateRow(day(2021, 1, 2))
	if !sat.IsWeekend {
		t.Error("2021-01-02 is a Saturday, expected weekend")
	}
	if sat.DayOfWeek != 7 {
		t.Errorf("Saturday day_of_week = %d, want 7", sat.DayOfWeek)
	}
}

func TestCustomerDimAggregates(t *testing.T) {
	customers := BuildCustomerDim(sampleTxs(), day(2021, 6, 1))
	if len(customers) != 3 {
		t.Fatalf("expected 3 customers, got %d", len(customers))
	}

	x := customers[0]
	if x.CustomerID != 1 {
		t.Fatalf("expected customer 1 first, got %d", x.CustomerID)
	}
	if x.TotalTransactions != 2 || x.TotalOrders != 2 || x.TotalSpent != 150 {
		t.Errorf("customer 1 aggregates wrong: %+v", x)
	}
	if x.AvgOrderValue != 75 {
		t.Errorf("customer 1 avg order value = %v, want 75", x.AvgOrderValue)
	}
	if x.CohortMonth != "2021-01" || x.CohortQuarter != "2021-Q1" || x.CohortYear != 2021 {
		t.Errorf("customer 1 cohort wrong: %+v", x)
	}
	if x.DaysSinceLastOrder != 111 {
		t.Errorf("customer 1 days since last = %d, want 111", x.DaysSinceLastOrder)
	}
	if x.Status != StatusInactive {
		t.Errorf("customer 1 status = %s, want %s", x.Status, StatusInactive)
	}

	z := customers[2]
	if z.DaysSinceLastOrder != 0 || z.Status != StatusActive {
		t.Errorf("customer 3 recency wrong: %+v", z)
	}
	if z.VintageGroup != Vintage0To30 {
		t.Errorf("customer 3 vintage = %s, want %s", z.VintageGroup, Vintage0To30)
	}
}

func TestCustomerValueSegments(t *testing.T) {
	customers := BuildCustomerDim(sampleTxs(), day(2021, 6, 1))

	// Spends are [150, 500, 10]; the 80th percentile cut is 500 and the
	// mean is 220.
	bySegment := map[int64]string{}
	for _, c := range customers {
		bySegment[c.CustomerID] = c.Segment
	}
	if bySegment[2] != SegmentVIPAtRisk {
		t.Errorf("customer 2 segment = %s, want %s", bySegment[2], SegmentVIPAtRisk)
	}
	if bySegment[1] != SegmentLowValueInactive {
		t.Errorf("customer 1 segment = %s, want %s", bySegment[1], SegmentLowValueInactive)
	}
	if bySegment[3] != SegmentOneTimeBuyer {
		t.Errorf("customer 3 segment = %s, want %s", bySegment[3], SegmentOneTimeBuyer)
	}
}

func TestOrderDimSequencing(t *testing.T) {
	orders, err := BuildOrderDim(sampleTxs())
	if err != nil {
		t.Fatalf("building order dim: %v", err)
	}
	if len(orders) != 4 {
		t.Fatalf("expected 4 orders, got %d", len(orders))
	}

	byID := map[int64]OrderRow{}
	for _, o := range orders {
		byID[o.OrderID] = o
	}

	first := byID[10]
	if !first.IsFirstOrder || first.CustomerOrderSequence != 1 {
		t.Errorf("order 10 should be customer 1's first: %+v", first)
	}
	if first.DaysSincePreviousOrder != nil {
		t.Error("first order must have nil days_since_previous_order")
	}

	second := byID[11]
	if second.CustomerOrderSequence != 2 || second.IsFirstOrder {
		t.Errorf("order 11 should be sequence 2: %+v", second)
	}
	if second.DaysSincePreviousOrder == nil || *second.DaysSincePreviousOrder != 36 {
		t.Errorf("order 11 gap wrong: %v", second.DaysSincePreviousOrder)
	}
	if second.DaysSinceFirstOrder != 36 {
		t.Errorf("order 11 days since first = %d, want 36", second.DaysSinceFirstOrder)
	}
}

func TestOrderAmountQuartiles(t *testing.T) {
	orders, err := BuildOrderDim(sampleTxs())
	if err != nil {
		t.Fatalf("building order dim: %v", err)
	}

	want := map[int64]string{
		13: QuartileLow,        // 10
		11: QuartileMediumLow,  // 50
		10: QuartileMediumHigh, // 100
		12: QuartileHigh,       // 500
	}
	for _, o := range orders {
		if o.AmountQuartile != want[o.OrderID] {
			t.Errorf("order %d quartile = %s, want %s", o.OrderID, o.AmountQuartile, want[o.OrderID])
		}
	}
}

func TestOrderQuartileTiesShareLabel(t *testing.T) {
	txs := []staging.Transaction{
		tx(day(2021, 1, 1), 1, 1, 100),
		tx(day(2021, 1, 2), 2, 2, 100),
		tx(day(2021, 1, 3), 3, 3, 100),
		tx(day(2021, 1, 4), 4, 4, 100),
	}
	orders, err := BuildOrderDim(txs)
	if err != nil {
		t.Fatalf("building order dim: %v", err)
	}
	for _, o := range orders {
		if o.AmountQuartile != QuartileLow {
			t.Errorf("tied amounts must share the lowest quartile, order %d got %s", o.OrderID, o.AmountQuartile)
		}
	}
}

func TestOrderSpanningCustomersFails(t *testing.T) {
	txs := []staging.Transaction{
		tx(day(2021, 1, 5), 1, 10, 100),
		tx(day(2021, 1, 6), 2, 10, 50), // same order, different customer
	}
	_, err := BuildOrderDim(txs)
	if !errors.Is(err, ErrReferentialIntegrity) {
		t.Fatalf("expected ErrReferentialIntegrity, got %v", err)
	}
}

func TestMultiDayOrderUsesEarliestDate(t *testing.T) {
	txs := []staging.Transaction{
		tx(day(2021, 1, 10), 1, 10, 100),
		tx(day(2021, 1, 5), 1, 10, 50),
	}
	orders, err := BuildOrderDim(txs)
	if err != nil {
		t.Fatalf("building order dim: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("expected 1 order, got %d", len(orders))
	}
	if !orders[0].OrderDate.Equal(day(2021, 1, 5)) {
		t.Errorf("order date = %v, want 2021-01-05", orders[0].OrderDate)
	}
	if orders[0].OrderAmount != 150 {
		t.Errorf("order amount = %v, want 150", orders[0].OrderAmount)
	}
}

func TestFactValueConservation(t *testing.T) {
	txs := sampleTxs()
	m, err := Build(txs, time.Time{})
	if err != nil {
		t.Fatalf("building model: %v", err)
	}

	var staged, fact float64
	for _, tr := range txs {
		staged += tr.Amount
	}
	for _, f := range m.Facts {
		fact += f.SalesAmount
	}
	if staged != fact {
		t.Errorf("value not conserved: staged %v, facts %v", staged, fact)
	}
}

func TestFactGrainAggregation(t *testing.T) {
	// Two transactions on the same customer/order/day collapse into one
	// fact row with both measures summed.
	txs := []staging.Transaction{
		tx(day(2021, 1, 5), 1, 10, 100),
		tx(day(2021, 1, 5), 1, 10, 25),
	}
	m, err := Build(txs, time.Time{})
	if err != nil {
		t.Fatalf("building model: %v", err)
	}
	if len(m.Facts) != 1 {
		t.Fatalf("expected 1 fact row, got %d", len(m.Facts))
	}
	f := m.Facts[0]
	if f.SalesAmount != 125 || f.TransactionCount != 2 {
		t.Errorf("fact aggregation wrong: %+v", f)
	}
}

func TestFactsSortedByCompositeKey(t *testing.T) {
	m, err := Build(sampleTxs(), time.Time{})
	if err != nil {
		t.Fatalf("building model: %v", err)
	}
	for i := 1; i < len(m.Facts); i++ {
		a, b := m.Facts[i-1], m.Facts[i]
		if a.CustomerID > b.CustomerID ||
			(a.CustomerID == b.CustomerID && a.OrderID > b.OrderID) ||
			(a.CustomerID == b.CustomerID && a.OrderID == b.OrderID && a.DateID >= b.DateID) {
			t.Fatalf("facts out of order at %d: %+v then %+v", i, a, b)
		}
	}
}

func TestDateID(t *testing.T) {
	if got := DateID(day(2021, 6, 1)); got != 20210601 {
		t.Errorf("DateID = %d, want 20210601", got)
	}
	if got := DateID(day(1999, 12, 31)); got != 19991231 {
		t.Errorf("DateID = %d, want 19991231", got)
	}
}
