package analytics

import (
	"sort"
	"time"

	"washpulse/pkg/contracts/domain"
)

// SalesSummary is the headline rollup over a filtered sales set.
type SalesSummary struct {
	Revenue         float64 `json:"revenue"`
	ExpenseTotal    float64 `json:"expense_total"`
	NetIncome       float64 `json:"net_income"`
	CashSales       float64 `json:"cash_sales"`
	CreditCardSales float64 `json:"credit_card_sales"`
	ClubAndPPWSales float64 `json:"club_and_ppw_sales"`
}

// SummarizeSales sums the money columns over the records. NetIncome is
// revenue minus expenses and is reported as-is when negative.
func SummarizeSales(records []domain.SalesRecord) SalesSummary {
	var summary SalesSummary
	for _, rec := range records {
		summary.Revenue += rec.Revenue
		summary.ExpenseTotal += rec.ExpenseTotal
		summary.CashSales += rec.CashSales
		summary.CreditCardSales += rec.CreditCardSales
		summary.ClubAndPPWSales += rec.ClubAndPPWSales
	}
	summary.NetIncome = summary.Revenue - summary.ExpenseTotal
	return summary
}

// PaymentMixItem is one payment channel's total in the filtered range.
type PaymentMixItem struct {
	Channel string  `json:"channel"`
	Amount  float64 `json:"amount"`
}

// PaymentMix breaks an already summarized sales set into its payment
// channels: cash, credit card and the blended club/PPW column.
func PaymentMix(summary SalesSummary) []PaymentMixItem {
	return []PaymentMixItem{
		{Channel: "cash", Amount: summary.CashSales},
		{Channel: "credit_card", Amount: summary.CreditCardSales},
		{Channel: "club_and_ppw", Amount: summary.ClubAndPPWSales},
	}
}

// ExpenseItem is one fee column's total over the filtered range.
type ExpenseItem struct {
	Column string  `json:"expense_type"`
	Amount float64 `json:"amount"`
}

// ExpenseBreakdown sums each expense fee column over the records, drops
// columns that total zero or less and sorts descending by amount.
func ExpenseBreakdown(records []domain.SalesRecord) []ExpenseItem {
	totals := make(map[string]float64, len(domain.FeeColumns))
	for _, rec := range records {
		for _, col := range domain.FeeColumns {
			totals[col] += rec.FeeAmount(col)
		}
	}

	out := make([]ExpenseItem, 0, len(domain.FeeColumns))
	for _, col := range domain.FeeColumns {
		if totals[col] > 0 {
			out = append(out, ExpenseItem{Column: col, Amount: totals[col]})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Amount > out[j].Amount })
	return out
}

// SiteRevenueTotal is one row of the per-site revenue comparison.
type SiteRevenueTotal struct {
	SiteID          string  `json:"site_id"`
	Revenue         float64 `json:"revenue"`
	ExpenseTotal    float64 `json:"expense_total"`
	CashSales       float64 `json:"cash_sales"`
	CreditCardSales float64 `json:"credit_card_sales"`
	ClubAndPPWSales float64 `json:"club_and_ppw_sales"`
	NetIncome       float64 `json:"net_income"`
}

// SiteRevenueTotals groups sales records by site and sums the money columns.
// Rows are sorted by revenue descending, ties by site.
func SiteRevenueTotals(records []domain.SalesRecord) []SiteRevenueTotal {
	grouped := make(map[string]*SiteRevenueTotal)
	for _, rec := range records {
		row, ok := grouped[rec.SiteID]
		if !ok {
			row = &SiteRevenueTotal{SiteID: rec.SiteID}
			grouped[rec.SiteID] = row
		}
		row.Revenue += rec.Revenue
		row.ExpenseTotal += rec.ExpenseTotal
		row.CashSales += rec.CashSales
		row.CreditCardSales += rec.CreditCardSales
		row.ClubAndPPWSales += rec.ClubAndPPWSales
	}

	out := make([]SiteRevenueTotal, 0, len(grouped))
	for _, row := range grouped {
		row.NetIncome = row.Revenue - row.ExpenseTotal
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Revenue != out[j].Revenue {
			return out[i].Revenue > out[j].Revenue
		}
		return out[i].SiteID < out[j].SiteID
	})
	return out
}

// TierRevenue is one tier's net revenue and wash counts in the PPW versus
// Club comparison. Zero rows ride along so the table always carries the
// four tiers in canonical order; presentation decides what to hide.
type TierRevenue struct {
	Tier        domain.Tier `json:"membership_type"`
	PPWRevenue  float64     `json:"ppw_revenue"`
	ClubRevenue float64     `json:"club_revenue"`
	PPWCount    int         `json:"ppw_count"`
	ClubCount   int         `json:"club_count"`
}

// ProgramSplit is the consolidated PPW versus Club comparison: per-tier net
// revenue and wash counts plus program totals. When the sales schema lacks
// the club tier revenue columns, ClubRevenue is estimated as the blended
// club-and-PPW sales total minus PPW revenue, the per-tier club figures stay
// zero and Estimated is set.
type ProgramSplit struct {
	Tiers               []TierRevenue `json:"tiers"`
	PPWRevenue          float64       `json:"ppw_revenue"`
	ClubRevenue         float64       `json:"club_revenue"`
	PPWCount            int           `json:"ppw_count"`
	ClubCount           int           `json:"club_count"`
	PPWWashesPerDollar  float64       `json:"ppw_washes_per_dollar"`
	ClubWashesPerDollar float64       `json:"club_washes_per_dollar"`
	Estimated           bool          `json:"estimated"`
}

// SplitPrograms computes the PPW versus Club split once for the whole
// dashboard; every view of the comparison reuses this result. Tier revenue
// is gross payments minus refunds. Washes-per-dollar stays zero unless both
// the count and the revenue are positive.
func SplitPrograms(records []domain.SalesRecord, schema domain.SalesSchema) ProgramSplit {
	split := ProgramSplit{Tiers: []TierRevenue{}, Estimated: !schema.ClubTierRevenue}
	if len(records) == 0 {
		return split
	}

	for _, tier := range domain.Tiers {
		row := TierRevenue{Tier: tier}
		for _, rec := range records {
			row.PPWRevenue += rec.PPWPayments(tier) - rec.PPWRefunds(tier)
			row.PPWCount += rec.PPWCount(tier)
			row.ClubCount += rec.ClubCount(tier)
			if schema.ClubTierRevenue {
				row.ClubRevenue += rec.ClubPayments(tier) - rec.ClubRefunds(tier)
			}
		}
		split.PPWRevenue += row.PPWRevenue
		split.ClubRevenue += row.ClubRevenue
		split.PPWCount += row.PPWCount
		split.ClubCount += row.ClubCount
		split.Tiers = append(split.Tiers, row)
	}

	if !schema.ClubTierRevenue {
		var blended float64
		for _, rec := range records {
			blended += rec.ClubAndPPWSales
		}
		split.ClubRevenue = blended - split.PPWRevenue
	}

	if split.PPWRevenue > 0 && split.PPWCount > 0 {
		split.PPWWashesPerDollar = float64(split.PPWCount) / split.PPWRevenue
	}
	if split.ClubRevenue > 0 && split.ClubCount > 0 {
		split.ClubWashesPerDollar = float64(split.ClubCount) / split.ClubRevenue
	}
	return split
}

// SingleWashTotal is one tier's single-wash purchase count.
type SingleWashTotal struct {
	Tier  domain.Tier `json:"wash_type"`
	Count int         `json:"count"`
}

// SingleWashTotals sums single-wash counts per tier, keeping tiers with a
// positive count in canonical tier order.
func SingleWashTotals(records []domain.SalesRecord) []SingleWashTotal {
	out := make([]SingleWashTotal, 0, len(domain.Tiers))
	for _, tier := range domain.Tiers {
		total := 0
		for _, rec := range records {
			total += rec.SingleWashCount(tier)
		}
		if total > 0 {
			out = append(out, SingleWashTotal{Tier: tier, Count: total})
		}
	}
	return out
}

type programAccum struct {
	ppw     float64
	club    float64
	blended float64
}

func (a *programAccum) add(rec domain.SalesRecord, clubTiers bool) {
	for _, tier := range domain.Tiers {
		a.ppw += rec.PPWPayments(tier) - rec.PPWRefunds(tier)
		if clubTiers {
			a.club += rec.ClubPayments(tier) - rec.ClubRefunds(tier)
		}
	}
	a.blended += rec.ClubAndPPWSales
}

func (a *programAccum) clubRevenue(clubTiers bool) float64 {
	if clubTiers {
		return a.club
	}
	return a.blended - a.ppw
}

// DailyProgramRevenue is one day of the PPW versus Club revenue trend.
type DailyProgramRevenue struct {
	Date        time.Time `json:"date"`
	PPWRevenue  float64   `json:"ppw_revenue"`
	ClubRevenue float64   `json:"club_revenue"`
}

// DailyProgramRevenues builds the daily PPW versus Club revenue trend using
// the same tier rule as SplitPrograms. The second result reports whether the
// club figures are estimated from the blended sales column.
func DailyProgramRevenues(records []domain.SalesRecord, schema domain.SalesSchema) ([]DailyProgramRevenue, bool) {
	grouped := make(map[time.Time]*programAccum)
	for _, rec := range records {
		acc, ok := grouped[rec.Date]
		if !ok {
			acc = &programAccum{}
			grouped[rec.Date] = acc
		}
		acc.add(rec, schema.ClubTierRevenue)
	}

	out := make([]DailyProgramRevenue, 0, len(grouped))
	for date, acc := range grouped {
		out = append(out, DailyProgramRevenue{
			Date:        date,
			PPWRevenue:  acc.ppw,
			ClubRevenue: acc.clubRevenue(schema.ClubTierRevenue),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, !schema.ClubTierRevenue
}

// MonthlyProgramRevenue is one month of the PPW versus Club revenue trend.
type MonthlyProgramRevenue struct {
	Month          string  `json:"year_month"`
	FormattedMonth string  `json:"formatted_month"`
	PPWRevenue     float64 `json:"ppw_revenue"`
	ClubRevenue    float64 `json:"club_revenue"`
}

// MonthlyProgramRevenues builds the monthly PPW versus Club revenue trend,
// sorted by the raw YYYY-MM key. The second result reports whether the club
// figures are estimated.
func MonthlyProgramRevenues(records []domain.SalesRecord, schema domain.SalesSchema) ([]MonthlyProgramRevenue, bool) {
	grouped := make(map[string]*programAccum)
	for _, rec := range records {
		key := monthKey(rec.Date)
		acc, ok := grouped[key]
		if !ok {
			acc = &programAccum{}
			grouped[key] = acc
		}
		acc.add(rec, schema.ClubTierRevenue)
	}

	out := make([]MonthlyProgramRevenue, 0, len(grouped))
	for key, acc := range grouped {
		out = append(out, MonthlyProgramRevenue{
			Month:          key,
			FormattedMonth: FormatMonth(key),
			PPWRevenue:     acc.ppw,
			ClubRevenue:    acc.clubRevenue(schema.ClubTierRevenue),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out, !schema.ClubTierRevenue
}
