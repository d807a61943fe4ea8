// Package staging ingests raw transaction files and cleans them into
// the validated transaction set the warehouse consumes.
package staging

import (
	"strconv"
	"strings"
	"time"
)

// Quality flags attached to each staged row. Only FlagValid rows flow
// into the warehouse; the rest are retained for data-quality reporting.
const (
	FlagValid          = "VALID"
	FlagInvalidDate    = "INVALID_DATE"
	FlagMissingID      = "MISSING_ID"
	FlagInvalidAmount  = "INVALID_AMOUNT"
	FlagNegativeAmount = "NEGATIVE_AMOUNT"
)

// RawRow is one unvalidated row as read from a source file.
type RawRow struct {
	Date       string
	CustomerID string
	OrderID    string
	Amount     string
	SourceFile string
	Line       int
}

// Transaction is one cleaned, schema-valid transaction.
type Transaction struct {
	Date       time.Time
	CustomerID int64
	OrderID    int64
	Amount     float64
}

// Result holds the outcome of cleaning one file.
type Result struct {
	Transactions []Transaction  // rows flagged VALID
	FlagCounts   map[string]int // flag -> row count, including VALID
	TotalRows    int
}

// dateLayouts are the accepted source date formats. Time-of-day
// components are discarded.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"01/02/2006",
	"1/2/2006",
}

// parseDate tries each accepted layout and truncates to the calendar day.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// Clean validates raw rows and returns the valid transaction set plus
// per-flag counts. Rows never block each other: a bad row is flagged
// and skipped, matching the upstream contract that only valid rows
// reach the dimensional model.
func Clean(raws []RawRow) Result {
	res := Result{
		FlagCounts: make(map[string]int),
		TotalRows:  len(raws),
	}

	for _, raw := range raws {
		date, ok := parseDate(raw.Date)
		if !ok {
			res.FlagCounts[FlagInvalidDate]++
			continue
		}

		customerID, err1 := strconv.ParseInt(strings.TrimSpace(raw.CustomerID), 10, 64)
		orderID, err2 := strconv.ParseInt(strings.TrimSpace(raw.OrderID), 10, 64)
		if err1 != nil || err2 != nil || customerID <= 0 || orderID <= 0 {
			res.FlagCounts[FlagMissingID]++
			continue
		}

		amount, err := strconv.ParseFloat(strings.TrimSpace(raw.Amount), 64)
		if err != nil {
			res.FlagCounts[FlagInvalidAmount]++
			continue
		}
		if amount < 0 {
			res.FlagCounts[FlagNegativeAmount]++
			continue
		}

		res.FlagCounts[FlagValid]++
		res.Transactions = append(res.Transactions, Transaction{
			Date:       date,
			CustomerID: customerID,
			OrderID:    orderID,
			Amount:     amount,
		})
	}

	return res
}
