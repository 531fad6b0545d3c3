package analytics

import (
	"sort"
	"time"

	"washpulse/pkg/contracts/domain"
)

// monthKey formats a date as its YYYY-MM grouping key. The raw key is the
// sort key for every month rollup; the display label never is.
func monthKey(date time.Time) string {
	return date.Format("2006-01")
}

// FormatMonth renders a YYYY-MM key as its display label, "2025-03" becomes
// "Mar '25". A key that does not parse is returned unchanged.
func FormatMonth(key string) string {
	t, err := time.Parse("2006-01", key)
	if err != nil {
		return key
	}
	return t.Format("Jan '06")
}

// MonthlyWashTotal is one row of the month-over-month wash volume table.
type MonthlyWashTotal struct {
	Month          string `json:"year_month"`
	FormattedMonth string `json:"formatted_month"`
	Count          int    `json:"count"`
	RewashCount    int    `json:"rewash_count"`
	TotalCount     int    `json:"total_count"`
}

// MonthlyWashTotals groups wash records by calendar month and sums the
// counts. Rows are sorted by the raw YYYY-MM key ascending.
func MonthlyWashTotals(records []domain.WashRecord) []MonthlyWashTotal {
	grouped := make(map[string]*MonthlyWashTotal)
	for _, rec := range records {
		key := monthKey(rec.Date)
		row, ok := grouped[key]
		if !ok {
			row = &MonthlyWashTotal{Month: key}
			grouped[key] = row
		}
		row.Count += rec.Count
		row.RewashCount += rec.RewashCount
		row.TotalCount += rec.TotalCount
	}

	out := make([]MonthlyWashTotal, 0, len(grouped))
	for _, row := range grouped {
		row.FormattedMonth = FormatMonth(row.Month)
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// SiteMonthlyWashTotal is one row of the exported month-by-site wash table.
type SiteMonthlyWashTotal struct {
	Month       string `json:"year_month"`
	SiteID      string `json:"site_id"`
	Count       int    `json:"count"`
	RewashCount int    `json:"rewash_count"`
	TotalCount  int    `json:"total_count"`
}

// MonthlyWashBySite groups wash records by month and site. Rows are sorted
// by month then site.
func MonthlyWashBySite(records []domain.WashRecord) []SiteMonthlyWashTotal {
	type key struct {
		month  string
		siteID string
	}
	grouped := make(map[key]*SiteMonthlyWashTotal)
	for _, rec := range records {
		k := key{month: monthKey(rec.Date), siteID: rec.SiteID}
		row, ok := grouped[k]
		if !ok {
			row = &SiteMonthlyWashTotal{Month: k.month, SiteID: k.siteID}
			grouped[k] = row
		}
		row.Count += rec.Count
		row.RewashCount += rec.RewashCount
		row.TotalCount += rec.TotalCount
	}

	out := make([]SiteMonthlyWashTotal, 0, len(grouped))
	for _, row := range grouped {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Month != out[j].Month {
			return out[i].Month < out[j].Month
		}
		return out[i].SiteID < out[j].SiteID
	})
	return out
}

// MonthlySubscriptionTotal is one row of the monthly subscription table.
// Created and canceled are summed over the month; the active, trial and
// recurring counters are point-in-time gauges, so the month carries their
// mean across the records instead of a sum.
type MonthlySubscriptionTotal struct {
	Month          string  `json:"year_month"`
	FormattedMonth string  `json:"formatted_month"`
	CreatedCount   int     `json:"created_count"`
	CanceledCount  int     `json:"canceled_count"`
	ActiveMean     float64 `json:"active_count"`
	TrialMean      float64 `json:"trial_count"`
	RecurringMean  float64 `json:"recurring_count"`
	NetChange      int     `json:"net_change"`
	ChurnRate      float64 `json:"churn_rate"`
}

// ChurnRate returns the share of the previous month's active base that
// canceled, as a percent. Zero when there is no previous active base.
func ChurnRate(canceled, prevActive float64) float64 {
	if prevActive > 0 {
		return canceled / prevActive * 100
	}
	return 0
}

// MonthlySubscriptionTotals groups subscription records by calendar month.
// Rows are sorted by the raw YYYY-MM key; churn for each row uses the
// preceding row's mean active base and is zero for the first row.
func MonthlySubscriptionTotals(records []domain.SubscriptionRecord) []MonthlySubscriptionTotal {
	type monthAccum struct {
		row          MonthlySubscriptionTotal
		activeSum    int
		trialSum     int
		recurringSum int
		recordCount  int
	}
	grouped := make(map[string]*monthAccum)
	for _, rec := range records {
		key := monthKey(rec.Date)
		acc, ok := grouped[key]
		if !ok {
			acc = &monthAccum{row: MonthlySubscriptionTotal{Month: key}}
			grouped[key] = acc
		}
		acc.row.CreatedCount += rec.CreatedCount
		acc.row.CanceledCount += rec.CanceledCount
		acc.activeSum += rec.ActiveCount
		acc.trialSum += rec.TrialCount
		acc.recurringSum += rec.RecurringCount
		acc.recordCount++
	}

	out := make([]MonthlySubscriptionTotal, 0, len(grouped))
	for _, acc := range grouped {
		row := acc.row
		n := float64(acc.recordCount)
		row.ActiveMean = float64(acc.activeSum) / n
		row.TrialMean = float64(acc.trialSum) / n
		row.RecurringMean = float64(acc.recurringSum) / n
		row.NetChange = row.CreatedCount - row.CanceledCount
		row.FormattedMonth = FormatMonth(row.Month)
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })

	for i := range out {
		if i == 0 {
			continue
		}
		out[i].ChurnRate = ChurnRate(float64(out[i].CanceledCount), out[i-1].ActiveMean)
	}
	return out
}

// AverageChurnRate returns the mean churn rate across the monthly rows.
// Zero when the table is empty.
func AverageChurnRate(months []MonthlySubscriptionTotal) float64 {
	if len(months) == 0 {
		return 0
	}
	var sum float64
	for _, m := range months {
		sum += m.ChurnRate
	}
	return sum / float64(len(months))
}

// MonthlySalesTotal is one row of the monthly revenue table.
type MonthlySalesTotal struct {
	Month           string  `json:"year_month"`
	FormattedMonth  string  `json:"formatted_month"`
	Revenue         float64 `json:"revenue"`
	ExpenseTotal    float64 `json:"expense_total"`
	CashSales       float64 `json:"cash_sales"`
	CreditCardSales float64 `json:"credit_card_sales"`
	ClubAndPPWSales float64 `json:"club_and_ppw_sales"`
	NetIncome       float64 `json:"net_income"`
}

// MonthlySalesTotals groups sales records by calendar month and sums the
// money columns. NetIncome may be negative. Rows are sorted by the raw
// YYYY-MM key ascending.
func MonthlySalesTotals(records []domain.SalesRecord) []MonthlySalesTotal {
	grouped := make(map[string]*MonthlySalesTotal)
	for _, rec := range records {
		key := monthKey(rec.Date)
		row, ok := grouped[key]
		if !ok {
			row = &MonthlySalesTotal{Month: key}
			grouped[key] = row
		}
		row.Revenue += rec.Revenue
		row.ExpenseTotal += rec.ExpenseTotal
		row.CashSales += rec.CashSales
		row.CreditCardSales += rec.CreditCardSales
		row.ClubAndPPWSales += rec.ClubAndPPWSales
	}

	out := make([]MonthlySalesTotal, 0, len(grouped))
	for _, row := range grouped {
		row.NetIncome = row.Revenue - row.ExpenseTotal
		row.FormattedMonth = FormatMonth(row.Month)
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}
