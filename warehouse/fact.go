package warehouse

import (
	"fmt"
	"sort"
	"time"

	"github.com/brunobiangulo/salesmart/staging"
)

// Build constructs the full dimensional model for one run. refDate is
// the pipeline reference date; when zero, the max observed transaction
// date is used so identical inputs always produce identical output.
func Build(txs []staging.Transaction, refDate time.Time) (*Model, error) {
	if len(txs) == 0 {
		return nil, fmt.Errorf("building dimensional model: no transactions")
	}

	if refDate.IsZero() {
		for _, tx := range txs {
			if tx.Date.After(refDate) {
				refDate = tx.Date
			}
		}
	}

	dates := BuildDateDim(txs)
	customers := BuildCustomerDim(txs, refDate)
	orders, err := BuildOrderDim(txs)
	if err != nil {
		return nil, fmt.Errorf("building order dimension: %w", err)
	}

	m := &Model{
		Dates:         dates,
		Customers:     customers,
		Orders:        orders,
		ReferenceDate: refDate,
	}

	facts, err := buildFacts(txs, m)
	if err != nil {
		return nil, err
	}
	m.Facts = facts
	return m, nil
}

// buildFacts joins transactions against the three dimensions and emits
// one row per (customer_id, order_id, date_id), aggregating colliding
// transactions. A missing dimension row is a fatal consistency
// violation, never a skippable row.
func buildFacts(txs []staging.Transaction, m *Model) ([]FactRow, error) {
	dateIDs := make(map[int64]struct{}, len(m.Dates))
	for _, d := range m.Dates {
		dateIDs[d.DateID] = struct{}{}
	}
	customerIDs := make(map[int64]struct{}, len(m.Customers))
	for _, c := range m.Customers {
		customerIDs[c.CustomerID] = struct{}{}
	}
	orderIDs := make(map[int64]struct{}, len(m.Orders))
	for _, o := range m.Orders {
		orderIDs[o.OrderID] = struct{}{}
	}

	type key struct {
		customerID, orderID, dateID int64
	}
	grains := make(map[key]*FactRow)

	for _, tx := range txs {
		dateID := DateID(tx.Date)
		if _, ok := customerIDs[tx.CustomerID]; !ok {
			return nil, fmt.Errorf("%w: customer %d", ErrReferentialIntegrity, tx.CustomerID)
		}
		if _, ok := orderIDs[tx.OrderID]; !ok {
			return nil, fmt.Errorf("%w: order %d", ErrReferentialIntegrity, tx.OrderID)
		}
		if _, ok := dateIDs[dateID]; !ok {
			return nil, fmt.Errorf("%w: date %d", ErrReferentialIntegrity, dateID)
		}

		k := key{tx.CustomerID, tx.OrderID, dateID}
		row, ok := grains[k]
		if !ok {
			row = &FactRow{CustomerID: tx.CustomerID, OrderID: tx.OrderID, DateID: dateID}
			grains[k] = row
		}
		row.SalesAmount += tx.Amount
		row.TransactionCount++
	}

	facts := make([]FactRow, 0, len(grains))
	for _, row := range grains {
		facts = append(facts, *row)
	}
	sort.Slice(facts, func(i, j int) bool {
		a, b := facts[i], facts[j]
		if a.CustomerID != b.CustomerID {
			return a.CustomerID < b.CustomerID
		}
		if a.OrderID != b.OrderID {
			return a.OrderID < b.OrderID
		}
		return a.DateID < b.DateID
	})
	return facts, nil
}
