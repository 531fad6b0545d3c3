package services

import (
	"washpulse/internal/analytics"
	"washpulse/pkg/contracts/domain"
)

// FilterEcho reports the filter actually applied after normalization, so
// clients can see defaulted dates and the clamped window.
type FilterEcho struct {
	From   string   `json:"from"`
	To     string   `json:"to"`
	Sites  []string `json:"sites"`
	Window int      `json:"window,omitempty"`
}

// WashSummary holds the scalar tiles of the wash dashboard.
type WashSummary struct {
	TotalWashes      int     `json:"total_washes"`
	TotalRewashes    int     `json:"total_rewashes"`
	RewashPercentage float64 `json:"rewash_percentage"`
	DaysCovered      int     `json:"days_covered"`
	SitesCovered     int     `json:"sites_covered"`
}

// WashView is the wash dashboard response. Tables arrive already sorted by
// the aggregate stage; nothing here re-sorts them.
type WashView struct {
	Filter        FilterEcho                     `json:"filter"`
	NoData        bool                           `json:"no_data"`
	Summary       WashSummary                    `json:"summary"`
	Daily         []analytics.DailyWashTotal     `json:"daily"`
	DailySeries   domain.Series                  `json:"daily_series"`
	RollingSeries domain.Series                  `json:"rolling_series"`
	SiteDaily     []analytics.SiteDailyWashTotal `json:"site_daily"`
	Monthly       []analytics.MonthlyWashTotal   `json:"monthly"`
	WashTypes     []analytics.WashTypeTotal      `json:"wash_types"`
	SiteWashTypes []analytics.SiteWashTypeTotal  `json:"site_wash_types"`
	Weekdays      []analytics.WeekdayWashTotal   `json:"weekdays"`
	Efficiency    []analytics.SiteEfficiency     `json:"efficiency"`
	Checks        []analytics.Check              `json:"checks"`
	Warnings      []string                       `json:"warnings,omitempty"`
	LoadIssues    []domain.LoadIssue             `json:"load_issues,omitempty"`
}

// SubscriptionSummary holds the scalar tiles of the membership dashboard.
type SubscriptionSummary struct {
	CreatedTotal     int     `json:"created_total"`
	CanceledTotal    int     `json:"canceled_total"`
	NetChange        int     `json:"net_change"`
	AverageChurnRate float64 `json:"average_churn_rate"`
}

// SubscriptionView is the membership dashboard response.
type SubscriptionView struct {
	Filter        FilterEcho                           `json:"filter"`
	NoData        bool                                 `json:"no_data"`
	Summary       SubscriptionSummary                  `json:"summary"`
	Daily         []analytics.DailySubscriptionTotal   `json:"daily"`
	ActiveSeries  domain.Series                        `json:"active_series"`
	RollingSeries domain.Series                        `json:"rolling_series"`
	Monthly       []analytics.MonthlySubscriptionTotal `json:"monthly"`
	Checks        []analytics.Check                    `json:"checks"`
	Warnings      []string                             `json:"warnings,omitempty"`
	LoadIssues    []domain.LoadIssue                   `json:"load_issues,omitempty"`
}

// SalesView is the money dashboard response.
type SalesView struct {
	Filter            FilterEcho                        `json:"filter"`
	NoData            bool                              `json:"no_data"`
	Summary           analytics.SalesSummary            `json:"summary"`
	Daily             []analytics.DailySalesTotal       `json:"daily"`
	RevenueSeries     domain.Series                     `json:"revenue_series"`
	Monthly           []analytics.MonthlySalesTotal     `json:"monthly"`
	PaymentMix        []analytics.PaymentMixItem        `json:"payment_mix"`
	Expenses          []analytics.ExpenseItem           `json:"expenses"`
	SiteRevenue       []analytics.SiteRevenueTotal      `json:"site_revenue"`
	Programs          analytics.ProgramSplit            `json:"programs"`
	DailyPrograms     []analytics.DailyProgramRevenue   `json:"daily_programs"`
	MonthlyPrograms   []analytics.MonthlyProgramRevenue `json:"monthly_programs"`
	ProgramsEstimated bool                              `json:"programs_estimated"`
	SingleWash        []analytics.SingleWashTotal       `json:"single_wash"`
	Checks            []analytics.Check                 `json:"checks"`
	Warnings          []string                          `json:"warnings,omitempty"`
	LoadIssues        []domain.LoadIssue                `json:"load_issues,omitempty"`
}

// newFilterEcho renders the normalized filter for the response.
func newFilterEcho(filter domain.RecordFilter, withWindow bool) FilterEcho {
	echo := FilterEcho{
		From:  filter.From.Format("2006-01-02"),
		To:    filter.To.Format("2006-01-02"),
		Sites: filter.SiteIDs,
	}
	if echo.Sites == nil {
		echo.Sites = []string{}
	}
	if withWindow {
		echo.Window = filter.Window
	}
	return echo
}

// dailyWashSeries turns the daily wash totals into the base chart line.
func dailyWashSeries(daily []analytics.DailyWashTotal) domain.Series {
	s := domain.Series{
		Label: "Daily Washes",
		X:     make([]string, 0, len(daily)),
		Y:     make([]float64, 0, len(daily)),
	}
	for _, row := range daily {
		s.X = append(s.X, row.Date.Format("2006-01-02"))
		s.Y = append(s.Y, float64(row.TotalCount))
	}
	return s
}

// activeSubscriptionSeries charts the daily active member count.
func activeSubscriptionSeries(daily []analytics.DailySubscriptionTotal) domain.Series {
	s := domain.Series{
		Label: "Active Members",
		X:     make([]string, 0, len(daily)),
		Y:     make([]float64, 0, len(daily)),
	}
	for _, row := range daily {
		s.X = append(s.X, row.Date.Format("2006-01-02"))
		s.Y = append(s.Y, float64(row.ActiveCount))
	}
	return s
}

// dailyRevenueSeries charts daily revenue.
func dailyRevenueSeries(daily []analytics.DailySalesTotal) domain.Series {
	s := domain.Series{
		Label: "Daily Revenue",
		X:     make([]string, 0, len(daily)),
		Y:     make([]float64, 0, len(daily)),
	}
	for _, row := range daily {
		s.X = append(s.X, row.Date.Format("2006-01-02"))
		s.Y = append(s.Y, row.Revenue)
	}
	return s
}

// rollingSeries overlays the trailing average on a base series. Points from
// before the window has filled are omitted rather than zero-padded, so the
// overlay's X is a suffix of the base X.
func rollingSeries(label string, base domain.Series, window int) domain.Series {
	points := analytics.RollingAverage(base.Y, window)

	s := domain.Series{Label: label, X: []string{}, Y: []float64{}}
	for i, point := range points {
		if !point.Defined {
			continue
		}
		s.X = append(s.X, base.X[i])
		s.Y = append(s.Y, point.Value)
	}
	return s
}

// distinctWashSites counts the sites present in the filtered wash records.
func distinctWashSites(records []domain.WashRecord) int {
	seen := make(map[string]struct{})
	for _, rec := range records {
		seen[rec.SiteID] = struct{}{}
	}
	return len(seen)
}
