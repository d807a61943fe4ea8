package segment

import (
	"testing"
	"time"

	"github.com/brunobiangulo/salesmart/warehouse"
)

func customer(id int64, daysSinceLast, orders int, spent float64) warehouse.CustomerRow {
	return warehouse.CustomerRow{
		CustomerID:         id,
		DaysSinceLastOrder: daysSinceLast,
		TotalOrders:        orders,
		TotalSpent:         spent,
		FirstOrderDate:     time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestQuintileScoresDistinctValues(t *testing.T) {
	scores := quintileScores([]float64{10, 20, 30, 40, 50})
	want := []int{1, 2, 3, 4, 5}
	for i, s := range scores {
		if s != want[i] {
			t.Errorf("score[%d] = %d, want %d", i, s, want[i])
		}
	}
}

func TestQuintileScoresTiesShareBucket(t *testing.T) {
	scores := quintileScores([]float64{100, 100, 100, 100, 100})
	for i, s := range scores {
		if s != 1 {
			t.Errorf("tied value %d scored %d, want 1", i, s)
		}
	}
}

func TestQuintileScoresSmallPopulation(t *testing.T) {
	scores := quintileScores([]float64{10, 20})
	// Two customers occupy buckets 1 and 3 (rank*5/n spacing).
	if scores[0] >= scores[1] {
		t.Errorf("relative order lost: %v", scores)
	}
	for _, s := range scores {
		if s < 1 || s > 5 {
			t.Errorf("score %d out of range", s)
		}
	}
}

func TestRuleTableFirstMatchWins(t *testing.T) {
	cases := []struct {
		r, f, m int
		want    string
	}{
		{5, 5, 5, "Champions"},
		{4, 4, 4, "Champions"},
		{3, 3, 3, "Loyal Customers"},
		{5, 1, 1, "New Customers"},
		{5, 2, 5, "New Customers"},
		{1, 5, 5, "At Risk"},
		{3, 3, 1, "At Risk"}, // fails Loyal Customers on monetary
		{1, 1, 5, "Cannot Lose Them"},
		{1, 1, 1, "Lost Customers"},
		{2, 2, 2, "Lost Customers"},
		{3, 2, 2, "Others"},
	}
	rules := Rules()
	for _, c := range cases {
		var got string
		for _, rule := range rules {
			if rule.Matches(c.r, c.f, c.m) {
				got = rule.Name
				break
			}
		}
		if got != c.want {
			t.Errorf("rfm(%d,%d,%d) = %s, want %s", c.r, c.f, c.m, got, c.want)
		}
	}
}

func TestRuleTableIsTotal(t *testing.T) {
	rules := Rules()
	for r := 1; r <= 5; r++ {
		for f := 1; f <= 5; f++ {
			for m := 1; m <= 5; m++ {
				matched := false
				for _, rule := range rules {
					if rule.Matches(r, f, m) {
						matched = true
						break
					}
				}
				if !matched {
					t.Fatalf("no rule matches rfm(%d,%d,%d)", r, f, m)
				}
			}
		}
	}
}

func TestBuildOneRowPerCustomer(t *testing.T) {
	customers := []warehouse.CustomerRow{
		customer(3, 5, 10, 1000),
		customer(1, 400, 1, 20),
		customer(2, 60, 3, 300),
	}
	rows := Build(customers)
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	for i, id := range []int64{1, 2, 3} {
		if rows[i].CustomerID != id {
			t.Errorf("rows not sorted by customer_id: got %d at %d", rows[i].CustomerID, i)
		}
	}
	for _, r := range rows {
		if r.Segment == "" || r.SegmentDescription == "" || r.RecommendedStrategy == "" {
			t.Errorf("customer %d has incomplete segment: %+v", r.CustomerID, r)
		}
	}
}

func TestBuildRecencyMonotonic(t *testing.T) {
	// More recent activity must never score lower on recency.
	customers := []warehouse.CustomerRow{
		customer(1, 5, 1, 100),
		customer(2, 50, 1, 100),
		customer(3, 100, 1, 100),
		customer(4, 200, 1, 100),
		customer(5, 400, 1, 100),
	}
	rows := Build(customers)
	for i := 1; i < len(rows); i++ {
		if rows[i].RecencyScore > rows[i-1].RecencyScore {
			t.Errorf("customer %d (less recent) outscored customer %d on recency: %d > %d",
				rows[i].CustomerID, rows[i-1].CustomerID, rows[i].RecencyScore, rows[i-1].RecencyScore)
		}
	}
	if rows[0].RecencyScore != 5 {
		t.Errorf("most recent customer recency = %d, want 5", rows[0].RecencyScore)
	}
	if rows[4].RecencyScore != 1 {
		t.Errorf("least recent customer recency = %d, want 1", rows[4].RecencyScore)
	}
}

func TestBuildEmpty(t *testing.T) {
	if rows := Build(nil); rows != nil {
		t.Errorf("expected nil for empty input, got %v", rows)
	}
}
