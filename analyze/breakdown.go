package analyze

import (
	"time"

	"github.com/rustyeddy/expenselab/expense"
)

// Breakdown groups spend by calendar dimension. It rides along with every
// analysis as the spend_breakdown.json run artifact; keys are day and month
// names so the document reads without a decoder ring.
type Breakdown struct {
	ByWeekday map[string]float64 `json:"spend_by_weekday"`
	ByMonth   map[string]float64 `json:"spend_by_month"`
}

// NewBreakdown computes both groupings for a set of records.
func NewBreakdown(records []expense.Record) Breakdown {
	byDay := make(map[string]float64)
	for d, v := range SpendByWeekday(records) {
		byDay[d.String()] = v
	}
	byMonth := make(map[string]float64)
	for m, v := range SpendByMonth(records) {
		byMonth[m.String()] = v
	}
	return Breakdown{ByWeekday: byDay, ByMonth: byMonth}
}

// SpendByWeekday totals spend per day of week.
func SpendByWeekday(records []expense.Record) map[time.Weekday]float64 {
	out := make(map[time.Weekday]float64)
	for _, r := range records {
		out[r.Date.Weekday()] += r.TotalPrice
	}
	for d, v := range out {
		out[d] = expense.Round2(v)
	}
	return out
}

// SpendByMonth totals spend per calendar month.
func SpendByMonth(records []expense.Record) map[time.Month]float64 {
	out := make(map[time.Month]float64)
	for _, r := range records {
		out[r.Date.Month()] += r.TotalPrice
	}
	for m, v := range out {
		out[m] = expense.Round2(v)
	}
	return out
}
