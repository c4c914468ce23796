// Package summary derives the per-date financial roll-up from the base
// transactional rows. Compute is pure; loading the snapshot and persisting
// the result belong to the service layer.
package summary

import (
	"time"

	"playzone/internal/model"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire and query format of a summary date.
const DateLayout = "2006-01-02"

// SessionAmounts is the slice of a session row the aggregator needs.
type SessionAmounts struct {
	Status      string
	TotalCost   decimal.Decimal
	FinalAmount decimal.Decimal
}

// SaleAmounts is the slice of a sale row the aggregator needs.
type SaleAmounts struct {
	TotalPrice  decimal.Decimal
	FinalAmount decimal.Decimal
}

// Snapshot holds every row attributed to one calendar date: sessions by
// start time, sales by creation time, expenses by their own date field.
type Snapshot struct {
	Sessions []SessionAmounts
	Sales    []SaleAmounts
	Expenses []decimal.Decimal
}

// Compute folds a snapshot into the summary row for date.
//
// Each total is summed over its own source rows. Sales and sessions are never
// joined, so a date with several of both counts each discount exactly once.
func Compute(date time.Time, snap Snapshot) model.DailySummary {
	sessionsRevenue := decimal.Zero
	salesRevenue := decimal.Zero
	expensesTotal := decimal.Zero
	discounts := decimal.Zero

	for _, s := range snap.Sessions {
		if s.Status == model.SessionCompleted {
			sessionsRevenue = sessionsRevenue.Add(s.FinalAmount)
		}
		discounts = discounts.Add(s.TotalCost.Sub(s.FinalAmount))
	}
	for _, s := range snap.Sales {
		salesRevenue = salesRevenue.Add(s.FinalAmount)
		discounts = discounts.Add(s.TotalPrice.Sub(s.FinalAmount))
	}
	for _, amount := range snap.Expenses {
		expensesTotal = expensesTotal.Add(amount)
	}

	return model.DailySummary{
		Date:            DayStart(date, date.Location()),
		SessionsRevenue: sessionsRevenue.Round(2),
		SalesRevenue:    salesRevenue.Round(2),
		ExpensesTotal:   expensesTotal.Round(2),
		DiscountsTotal:  discounts.Round(2),
		NetIncome:       sessionsRevenue.Add(salesRevenue).Sub(expensesTotal).Round(2),
	}
}

// DayStart truncates t to midnight of its calendar date in loc.
func DayStart(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// DayBounds returns the half-open interval [start, end) covering the
// calendar date of t in loc. DST days are 23 or 25 hours long.
func DayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	start := DayStart(t, loc)
	return start, start.AddDate(0, 0, 1)
}

// ParseDate parses a YYYY-MM-DD date as midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, loc)
}

// Dates lists every calendar date from `from` to `to`, both inclusive.
func Dates(from, to time.Time, loc *time.Location) []time.Time {
	from, to = DayStart(from, loc), DayStart(to, loc)
	var out []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}
