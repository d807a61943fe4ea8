package retention

import (
	"testing"

	"github.com/brunobiangulo/salesmart/warehouse"
)

// Two customers acquired in January 2021, one in June. Customer 1
// returns in February; the others never do.
func fixture() ([]warehouse.CustomerRow, []warehouse.FactRow) {
	customers := []warehouse.CustomerRow{
		{CustomerID: 1, CohortMonth: "2021-01"},
		{CustomerID: 2, CohortMonth: "2021-01"},
		{CustomerID: 3, CohortMonth: "2021-06"},
	}
	facts := []warehouse.FactRow{
		{CustomerID: 1, OrderID: 10, DateID: 20210105, SalesAmount: 100, TransactionCount: 1},
		{CustomerID: 1, OrderID: 11, DateID: 20210210, SalesAmount: 50, TransactionCount: 1},
		{CustomerID: 2, OrderID: 12, DateID: 20210120, SalesAmount: 500, TransactionCount: 1},
		{CustomerID: 3, OrderID: 13, DateID: 20210601, SalesAmount: 10, TransactionCount: 1},
	}
	return customers, facts
}

func findCohort(t *testing.T, rows []CohortRow, cohort, activity string) CohortRow {
	t.Helper()
	for _, r := range rows {
		if r.CohortMonth == cohort && r.ActivityMonth == activity {
			return r
		}
	}
	t.Fatalf("no row for cohort %s activity %s", cohort, activity)
	return CohortRow{}
}

func TestMonthIndex(t *testing.T) {
	if d := monthIndex("2021-02") - monthIndex("2021-01"); d != 1 {
		t.Errorf("adjacent months %d apart, want 1", d)
	}
	if d := monthIndex("2022-01") - monthIndex("2021-12"); d != 1 {
		t.Errorf("year boundary %d apart, want 1", d)
	}
	if d := monthIndex("2022-06") - monthIndex("2021-06"); d != 12 {
		t.Errorf("full year %d apart, want 12", d)
	}
}

func TestMonthKeyFromDateID(t *testing.T) {
	if got := monthKeyFromDateID(20210105); got != "2021-01" {
		t.Errorf("monthKeyFromDateID(20210105) = %s, want 2021-01", got)
	}
	if got := monthKeyFromDateID(20211231); got != "2021-12" {
		t.Errorf("monthKeyFromDateID(20211231) = %s, want 2021-12", got)
	}
}

func TestBuildCohortsMatrix(t *testing.T) {
	customers, facts := fixture()
	rows := BuildCohorts(customers, facts)
	if len(rows) != 3 {
		t.Fatalf("expected 3 cohort cells, got %d", len(rows))
	}

	m0 := findCohort(t, rows, "2021-01", "2021-01")
	if m0.MonthsSinceAcquisition != 0 || m0.CohortSize != 2 || m0.ActiveCustomers != 2 {
		t.Errorf("acquisition month cell wrong: %+v", m0)
	}
	if m0.RetentionRatePercent != 100 {
		t.Errorf("month-0 retention = %v, want 100", m0.RetentionRatePercent)
	}
	if m0.TotalSales != 600 || m0.AvgOrderValue != 300 {
		t.Errorf("month-0 sales = %v / aov %v, want 600 / 300", m0.TotalSales, m0.AvgOrderValue)
	}

	m1 := findCohort(t, rows, "2021-01", "2021-02")
	if m1.MonthsSinceAcquisition != 1 || m1.ActiveCustomers != 1 {
		t.Errorf("month-1 cell wrong: %+v", m1)
	}
	if m1.RetentionRatePercent != 50 {
		t.Errorf("month-1 retention = %v, want 50", m1.RetentionRatePercent)
	}
	if m1.TotalSales != 50 {
		t.Errorf("month-1 sales = %v, want 50", m1.TotalSales)
	}

	june := findCohort(t, rows, "2021-06", "2021-06")
	if june.CohortSize != 1 || june.RetentionRatePercent != 100 {
		t.Errorf("june cohort wrong: %+v", june)
	}
}

func TestBuildCohortsRatesBounded(t *testing.T) {
	customers, facts := fixture()
	for _, r := range BuildCohorts(customers, facts) {
		if r.RetentionRatePercent < 0 || r.RetentionRatePercent > 100 {
			t.Errorf("retention rate %v out of [0,100]: %+v", r.RetentionRatePercent, r)
		}
		if r.CohortSize <= 0 {
			t.Errorf("emitted cell with empty cohort: %+v", r)
		}
	}
}

func TestBuildCohortsSorted(t *testing.T) {
	customers, facts := fixture()
	rows := BuildCohorts(customers, facts)
	for i := 1; i < len(rows); i++ {
		a, b := rows[i-1], rows[i]
		if a.CohortMonth > b.CohortMonth ||
			(a.CohortMonth == b.CohortMonth && a.ActivityMonth >= b.ActivityMonth) {
			t.Errorf("rows out of order at %d: %+v before %+v", i, a, b)
		}
	}
}

func TestBuildCohortsEmpty(t *testing.T) {
	if rows := BuildCohorts(nil, nil); len(rows) != 0 {
		t.Errorf("expected no rows, got %d", len(rows))
	}
}

func TestBuildCumulativeWindows(t *testing.T) {
	customers, facts := fixture()
	rows := BuildCumulative(customers, facts, []int{3, 12, 18}, 2)

	// The June cohort (size 1) is below the significance floor.
	for _, r := range rows {
		if r.CohortMonth == "2021-06" {
			t.Errorf("undersized cohort emitted: %+v", r)
		}
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 window rows for 2021-01, got %d", len(rows))
	}

	// All activity falls inside the 3-month window, so every window
	// reports the same cumulative figures.
	for i, r := range rows {
		if r.RetentionWindowMonths != []int{3, 12, 18}[i] {
			t.Errorf("rows[%d] window = %d", i, r.RetentionWindowMonths)
		}
		if r.CohortSize != 2 || r.ActiveCustomers != 2 {
			t.Errorf("window %d membership wrong: %+v", r.RetentionWindowMonths, r)
		}
		if r.CumulativeRetentionRate != 100 {
			t.Errorf("window %d rate = %v, want 100", r.RetentionWindowMonths, r.CumulativeRetentionRate)
		}
		if r.AvgPurchaseFrequency != 1.5 {
			t.Errorf("window %d frequency = %v, want 1.5", r.RetentionWindowMonths, r.AvgPurchaseFrequency)
		}
		if r.TotalRevenue != 650 || r.AvgCustomerValue != 325 {
			t.Errorf("window %d revenue = %v / %v, want 650 / 325", r.RetentionWindowMonths, r.TotalRevenue, r.AvgCustomerValue)
		}
	}
}

func TestBuildCumulativeMinCohortSizeOne(t *testing.T) {
	customers, facts := fixture()
	rows := BuildCumulative(customers, facts, []int{12}, 1)
	if len(rows) != 2 {
		t.Fatalf("expected both cohorts at floor 1, got %d rows", len(rows))
	}
	if rows[1].CohortMonth != "2021-06" || rows[1].CumulativeRetentionRate != 100 {
		t.Errorf("june cohort wrong: %+v", rows[1])
	}
}

func TestBuildCumulativeWindowExcludesLaterActivity(t *testing.T) {
	customers := []warehouse.CustomerRow{{CustomerID: 1, CohortMonth: "2021-01"}}
	facts := []warehouse.FactRow{
		{CustomerID: 1, OrderID: 1, DateID: 20210110, SalesAmount: 100, TransactionCount: 1},
		{CustomerID: 1, OrderID: 2, DateID: 20211215, SalesAmount: 900, TransactionCount: 1},
	}
	rows := BuildCumulative(customers, facts, []int{3}, 1)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	// December (offset 11) is outside the 3-month window.
	if rows[0].TotalRevenue != 100 {
		t.Errorf("window revenue = %v, want 100", rows[0].TotalRevenue)
	}
}
