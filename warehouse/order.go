package warehouse

import (
	"fmt"
	"sort"
	"time"

	"github.com/brunobiangulo/salesmart/staging"
)

// BuildOrderDim groups transactions by order, sequences each customer's
// orders by (date, order_id) ascending, and labels global amount
// quartiles. An order spanning two customers is a fatal inconsistency.
func BuildOrderDim(txs []staging.Transaction) ([]OrderRow, error) {
	type agg struct {
		customerID int64
		date       time.Time
		amount     float64
	}

	byOrder := make(map[int64]*agg)
	for _, tx := range txs {
		a, ok := byOrder[tx.OrderID]
		if !ok {
			byOrder[tx.OrderID] = &agg{customerID: tx.CustomerID, date: tx.Date, amount: tx.Amount}
			continue
		}
		if a.customerID != tx.CustomerID {
			return nil, fmt.Errorf("%w: order %d spans customers %d and %d", ErrReferentialIntegrity, tx.OrderID, a.customerID, tx.CustomerID)
		}
		// Order date is the earliest transaction date on the order.
		if tx.Date.Before(a.date) {
			a.date = tx.Date
		}
		a.amount += tx.Amount
	}

	rows := make([]OrderRow, 0, len(byOrder))
	for id, a := range byOrder {
		d := a.date
		quarter := (int(d.Month())-1)/3 + 1
		rows = append(rows, OrderRow{
			OrderID:        id,
			CustomerID:     a.customerID,
			OrderDate:      d,
			DateID:         DateID(d),
			OrderAmount:    a.amount,
			OrderYear:      d.Year(),
			OrderMonth:     int(d.Month()),
			OrderQuarter:   quarter,
			OrderDayOfWeek: int(d.Weekday()) + 1,
			OrderDayName:   d.Weekday().String(),
			IsWeekendOrder: d.Weekday() == time.Saturday || d.Weekday() == time.Sunday,
		})
	}

	sequenceOrders(rows)
	assignAmountQuartiles(rows)

	sort.Slice(rows, func(i, j int) bool { return rows[i].OrderID < rows[j].OrderID })
	return rows, nil
}

// sequenceOrders assigns per-customer order sequence numbers starting
// at 1, first-order flags, and the day gaps to the customer's first and
// immediately preceding orders.
func sequenceOrders(rows []OrderRow) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].CustomerID != rows[j].CustomerID {
			return rows[i].CustomerID < rows[j].CustomerID
		}
		if !rows[i].OrderDate.Equal(rows[j].OrderDate) {
			return rows[i].OrderDate.Before(rows[j].OrderDate)
		}
		return rows[i].OrderID < rows[j].OrderID
	})

	var (
		current  int64
		seq      int
		first    time.Time
		prevDate time.Time
	)
	for i := range rows {
		r := &rows[i]
		if i == 0 || r.CustomerID != current {
			current = r.CustomerID
			seq = 0
			first = r.OrderDate
		}
		seq++
		r.CustomerOrderSequence = seq
		r.IsFirstOrder = seq == 1
		r.DaysSinceFirstOrder = daysBetween(first, r.OrderDate)
		if seq > 1 {
			gap := daysBetween(prevDate, r.OrderDate)
			r.DaysSincePreviousOrder = &gap
		}
		prevDate = r.OrderDate
	}
}

// assignAmountQuartiles labels orders by the global rank of their
// amount. Rank-based cut; equal amounts always share a label, assigned
// to the lower quartile.
func assignAmountQuartiles(rows []OrderRow) {
	n := len(rows)
	if n == 0 {
		return
	}

	amounts := make([]float64, n)
	for i, r := range rows {
		amounts[i] = r.OrderAmount
	}
	sort.Float64s(amounts)

	labels := [4]string{QuartileLow, QuartileMediumLow, QuartileMediumHigh, QuartileHigh}
	for i := range rows {
		// rank = count of orders with strictly smaller amount, so ties
		// collapse into the lowest bucket any of them would occupy.
		rank := sort.SearchFloat64s(amounts, rows[i].OrderAmount)
		q := rank * 4 / n
		if q > 3 {
			q = 3
		}
		rows[i].AmountQuartile = labels[q]
	}
}
