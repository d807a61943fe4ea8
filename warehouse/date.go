package warehouse

import (
	"fmt"
	"time"

	"github.com/brunobiangulo/salesmart/staging"
)

// BuildDateDim builds dim_date covering every day in the inclusive
// min..max observed date range. Days with no transactions are included
// so time-series and retention math never hit calendar gaps.
func BuildDateDim(txs []staging.Transaction) []DateRow {
	if len(txs) == 0 {
		return nil
	}

	minDate, maxDate := txs[0].Date, txs[0].Date
	for _, tx := range txs[1:] {
		if tx.Date.Before(minDate) {
			minDate = tx.Date
		}
		if tx.Date.After(maxDate) {
			maxDate = tx.Date
		}
	}

	var rows []DateRow
	for d := minDate; !d.After(maxDate); d = d.AddDate(0, 0, 1) {
		rows = append(rows, dateRow(d))
	}
	return rows
}

// dateRow computes every calendar attribute from the date alone.
func dateRow(d time.Time) DateRow {
	quarter := (int(d.Month())-1)/3 + 1
	lastOfMonth := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, -1)
	_, isoWeek := d.ISOWeek()

	month := int(d.Month())
	day := d.Day()

	return DateRow{
		DateID:         DateID(d),
		FullDate:       d,
		Year:           d.Year(),
		Quarter:        quarter,
		Month:          month,
		MonthName:      d.Month().String(),
		MonthAbbr:      d.Format("Jan"),
		WeekOfYear:     isoWeek,
		DayOfYear:      d.YearDay(),
		DayOfMonth:     day,
		DayOfWeek:      int(d.Weekday()) + 1,
		DayName:        d.Weekday().String(),
		DayAbbr:        d.Format("Mon"),
		IsWeekend:      d.Weekday() == time.Saturday || d.Weekday() == time.Sunday,
		IsMonthStart:   day == 1,
		IsMonthEnd:     day == lastOfMonth.Day(),
		IsQuarterStart: day == 1 && month%3 == 1,
		IsQuarterEnd:   day == lastOfMonth.Day() && month%3 == 0,
		IsYearStart:    month == 1 && day == 1,
		IsYearEnd:      month == 12 && day == 31,
		DateString:     d.Format("2006-01-02"),
		MonthYear:      d.Format("Jan 2006"),
		QuarterYear:    fmt.Sprintf("%d-Q%d", d.Year(), quarter),
	}
}
