package analytics

import (
	"sort"
	"time"

	"washpulse/pkg/contracts/domain"
)

// DailyWashTotal is one row of the daily wash volume table.
type DailyWashTotal struct {
	Date             time.Time `json:"date"`
	Count            int       `json:"count"`
	RewashCount      int       `json:"rewash_count"`
	TotalCount       int       `json:"total_count"`
	RewashPercentage float64   `json:"rewash_percentage"`
}

// DailyWashTotals groups wash records by calendar date and sums the counts.
// RewashPercentage is recomputed on the summed row and stays zero when the
// day's wash count is zero. Rows are sorted by date ascending.
func DailyWashTotals(records []domain.WashRecord) []DailyWashTotal {
	grouped := make(map[time.Time]*DailyWashTotal)
	for _, rec := range records {
		row, ok := grouped[rec.Date]
		if !ok {
			row = &DailyWashTotal{Date: rec.Date}
			grouped[rec.Date] = row
		}
		row.Count += rec.Count
		row.RewashCount += rec.RewashCount
		row.TotalCount += rec.TotalCount
	}

	out := make([]DailyWashTotal, 0, len(grouped))
	for _, row := range grouped {
		if row.Count > 0 {
			row.RewashPercentage = float64(row.RewashCount) / float64(row.Count) * 100
		}
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// SiteDailyWashTotal is one row of the per-site daily wash table.
type SiteDailyWashTotal struct {
	SiteID      string    `json:"site_id"`
	Date        time.Time `json:"date"`
	Count       int       `json:"count"`
	RewashCount int       `json:"rewash_count"`
	TotalCount  int       `json:"total_count"`
}

type siteDateKey struct {
	siteID string
	date   time.Time
}

func groupSiteDaily(records []domain.WashRecord) []SiteDailyWashTotal {
	grouped := make(map[siteDateKey]*SiteDailyWashTotal)
	for _, rec := range records {
		key := siteDateKey{siteID: rec.SiteID, date: rec.Date}
		row, ok := grouped[key]
		if !ok {
			row = &SiteDailyWashTotal{SiteID: rec.SiteID, Date: rec.Date}
			grouped[key] = row
		}
		row.Count += rec.Count
		row.RewashCount += rec.RewashCount
		row.TotalCount += rec.TotalCount
	}

	out := make([]SiteDailyWashTotal, 0, len(grouped))
	for _, row := range grouped {
		out = append(out, *row)
	}
	return out
}

// SiteDailyWashTotals groups wash records by site and date for per-site trend
// lines. Rows are sorted by site then date.
func SiteDailyWashTotals(records []domain.WashRecord) []SiteDailyWashTotal {
	out := groupSiteDaily(records)
	sort.Slice(out, func(i, j int) bool {
		if out[i].SiteID != out[j].SiteID {
			return out[i].SiteID < out[j].SiteID
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// DailyWashBySite is the export ordering of the same site/date grouping:
// date first, then site.
func DailyWashBySite(records []domain.WashRecord) []SiteDailyWashTotal {
	out := groupSiteDaily(records)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].SiteID < out[j].SiteID
	})
	return out
}

// DailySubscriptionTotal is one row of the daily subscription activity table.
// Counters are summed across the selected sites for the day.
type DailySubscriptionTotal struct {
	Date           time.Time `json:"date"`
	ActiveCount    int       `json:"active_count"`
	CreatedCount   int       `json:"created_count"`
	CanceledCount  int       `json:"canceled_count"`
	TrialCount     int       `json:"trial_count"`
	RecurringCount int       `json:"recurring_count"`
	NetChange      int       `json:"net_change"`
	ConversionRate float64   `json:"conversion_rate"`
}

// DailySubscriptionTotals groups subscription records by calendar date.
// NetChange and ConversionRate are recomputed on the summed row; conversion
// stays zero when the day has no trials. Rows are sorted by date ascending.
func DailySubscriptionTotals(records []domain.SubscriptionRecord) []DailySubscriptionTotal {
	grouped := make(map[time.Time]*DailySubscriptionTotal)
	for _, rec := range records {
		row, ok := grouped[rec.Date]
		if !ok {
			row = &DailySubscriptionTotal{Date: rec.Date}
			grouped[rec.Date] = row
		}
		row.ActiveCount += rec.ActiveCount
		row.CreatedCount += rec.CreatedCount
		row.CanceledCount += rec.CanceledCount
		row.TrialCount += rec.TrialCount
		row.RecurringCount += rec.RecurringCount
	}

	out := make([]DailySubscriptionTotal, 0, len(grouped))
	for _, row := range grouped {
		row.NetChange = row.CreatedCount - row.CanceledCount
		if row.TrialCount > 0 {
			row.ConversionRate = float64(row.RecurringCount) / float64(row.TrialCount) * 100
		}
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// DailySalesTotal is one row of the daily revenue table.
type DailySalesTotal struct {
	Date            time.Time `json:"date"`
	Revenue         float64   `json:"revenue"`
	ExpenseTotal    float64   `json:"expense_total"`
	CashSales       float64   `json:"cash_sales"`
	CreditCardSales float64   `json:"credit_card_sales"`
	ClubAndPPWSales float64   `json:"club_and_ppw_sales"`
	NetIncome       float64   `json:"net_income"`
}

// DailySalesTotals groups sales records by calendar date and sums the money
// columns. NetIncome is revenue minus expenses and may be negative. Rows are
// sorted by date ascending.
func DailySalesTotals(records []domain.SalesRecord) []DailySalesTotal {
	grouped := make(map[time.Time]*DailySalesTotal)
	for _, rec := range records {
		row, ok := grouped[rec.Date]
		if !ok {
			row = &DailySalesTotal{Date: rec.Date}
			grouped[rec.Date] = row
		}
		row.Revenue += rec.Revenue
		row.ExpenseTotal += rec.ExpenseTotal
		row.CashSales += rec.CashSales
		row.CreditCardSales += rec.CreditCardSales
		row.ClubAndPPWSales += rec.ClubAndPPWSales
	}

	out := make([]DailySalesTotal, 0, len(grouped))
	for _, row := range grouped {
		row.NetIncome = row.Revenue - row.ExpenseTotal
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// SiteEfficiency reports how many washes a site runs per recorded day.
type SiteEfficiency struct {
	SiteID       string  `json:"site_id"`
	TotalWashes  int     `json:"total_washes"`
	DaysRecorded int     `json:"days_recorded"`
	WashesPerDay float64 `json:"washes_per_day"`
}

// SiteEfficiencies computes total washes per distinct recorded day for each
// site. Rows are sorted by washes per day descending, then site ascending.
func SiteEfficiencies(records []domain.WashRecord) []SiteEfficiency {
	washes := make(map[string]int)
	days := make(map[string]map[time.Time]struct{})
	for _, rec := range records {
		washes[rec.SiteID] += rec.TotalCount
		if days[rec.SiteID] == nil {
			days[rec.SiteID] = make(map[time.Time]struct{})
		}
		days[rec.SiteID][rec.Date] = struct{}{}
	}

	out := make([]SiteEfficiency, 0, len(washes))
	for siteID, total := range washes {
		row := SiteEfficiency{
			SiteID:       siteID,
			TotalWashes:  total,
			DaysRecorded: len(days[siteID]),
		}
		if row.DaysRecorded > 0 {
			row.WashesPerDay = float64(row.TotalWashes) / float64(row.DaysRecorded)
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].WashesPerDay != out[j].WashesPerDay {
			return out[i].WashesPerDay > out[j].WashesPerDay
		}
		return out[i].SiteID < out[j].SiteID
	})
	return out
}
