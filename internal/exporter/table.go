package exporter

import (
	"washpulse/internal/analytics"
	"washpulse/pkg/contracts/domain"
)

// Export table keys. These double as the {table} segment on the export
// endpoint and as CSV file names, so they must stay stable.
const (
	TableWashes               = "washes"
	TableSubscriptions        = "subscriptions"
	TableSales                = "sales"
	TableDailyWashes          = "daily_washes"
	TableMonthlyWashes        = "monthly_washes"
	TableWashTypes            = "wash_types"
	TableWeekdayWashes        = "weekday_washes"
	TableSiteRevenue          = "site_revenue"
	TableMonthlySubscriptions = "monthly_subscriptions"
	TableMonthlySales         = "monthly_sales"
	TableExpenseBreakdown     = "expense_breakdown"
)

// tableOrder lists every export table in its published order. The first
// three are the raw filtered record sets, the rest are aggregates.
var tableOrder = []string{
	TableWashes,
	TableSubscriptions,
	TableSales,
	TableDailyWashes,
	TableMonthlyWashes,
	TableWashTypes,
	TableWeekdayWashes,
	TableSiteRevenue,
	TableMonthlySubscriptions,
	TableMonthlySales,
	TableExpenseBreakdown,
}

// aggregateOrder lists the tables that make up the XLSX workbook.
var aggregateOrder = []string{
	TableDailyWashes,
	TableMonthlyWashes,
	TableWashTypes,
	TableWeekdayWashes,
	TableSiteRevenue,
	TableMonthlySubscriptions,
	TableMonthlySales,
	TableExpenseBreakdown,
}

// Table is one exportable table: a stable header plus typed cell rows.
// Cells hold string, int or float64 values; the CSV writer formats
// them, the workbook writer passes them through as-is.
type Table struct {
	Key    string
	Title  string
	Header []string
	Rows   [][]any
}

// ExportData carries the filtered record sets every table is built
// from. The slices arrive already filtered and in load order.
type ExportData struct {
	Wash          []domain.WashRecord
	Subscriptions []domain.SubscriptionRecord
	Sales         []domain.SalesRecord
	Schema        domain.SalesSchema
}

// TableKeys returns every export table key in published order.
func TableKeys() []string {
	keys := make([]string, len(tableOrder))
	copy(keys, tableOrder)
	return keys
}

// BuildTable builds the export table named by key. The second result is
// false when key names no table.
func BuildTable(data ExportData, key string) (Table, bool) {
	switch key {
	case TableWashes:
		return WashRecordsTable(data.Wash), true
	case TableSubscriptions:
		return SubscriptionRecordsTable(data.Subscriptions), true
	case TableSales:
		return SalesRecordsTable(data.Sales), true
	case TableDailyWashes:
		return DailyWashTable(data.Wash), true
	case TableMonthlyWashes:
		return MonthlyWashTable(data.Wash), true
	case TableWashTypes:
		return WashTypesTable(data.Wash), true
	case TableWeekdayWashes:
		return WeekdayWashesTable(data.Wash), true
	case TableSiteRevenue:
		return SiteRevenueTable(data.Sales), true
	case TableMonthlySubscriptions:
		return MonthlySubscriptionsTable(data.Subscriptions), true
	case TableMonthlySales:
		return MonthlySalesTable(data.Sales), true
	case TableExpenseBreakdown:
		return ExpenseBreakdownTable(data.Sales), true
	}
	return Table{}, false
}

// BuildTables builds the full export set in published order.
func BuildTables(data ExportData) []Table {
	tables := make([]Table, 0, len(tableOrder))
	for _, key := range tableOrder {
		table, _ := BuildTable(data, key)
		tables = append(tables, table)
	}
	return tables
}

// BuildAggregateTables builds the workbook set in sheet order.
func BuildAggregateTables(data ExportData) []Table {
	tables := make([]Table, 0, len(aggregateOrder))
	for _, key := range aggregateOrder {
		table, _ := BuildTable(data, key)
		tables = append(tables, table)
	}
	return tables
}

// WashRecordsTable renders the raw filtered wash records.
func WashRecordsTable(records []domain.WashRecord) Table {
	rows := make([][]any, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []any{
			rec.SiteID,
			formatDate(rec.Date),
			rec.WashType,
			rec.Count,
			rec.RewashCount,
			rec.TotalCount,
			rec.RewashPercentage,
		})
	}

	return Table{
		Key:   TableWashes,
		Title: "Washes",
		Header: []string{
			"site_id", "date", "wash_type_name",
			"count", "rewash_count", "total_count", "rewash_percentage",
		},
		Rows: rows,
	}
}

// SubscriptionRecordsTable renders the raw filtered subscription records.
func SubscriptionRecordsTable(records []domain.SubscriptionRecord) Table {
	rows := make([][]any, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []any{
			rec.SiteID,
			formatDate(rec.Date),
			rec.ActiveCount,
			rec.CreatedCount,
			rec.CanceledCount,
			rec.TrialCount,
			rec.RecurringCount,
			rec.EndingCount,
			rec.NetChange,
			rec.ConversionRate,
		})
	}

	return Table{
		Key:   TableSubscriptions,
		Title: "Subscriptions",
		Header: []string{
			"site_id", "date", "active_count", "created_count", "canceled_count",
			"trial_count", "recurring_count", "ending_count", "net_change",
			"conversion_rate",
		},
		Rows: rows,
	}
}

// SalesRecordsTable renders the raw filtered sales records with the
// full column set: core money columns, per-tier gross movement, program
// counts and the fee columns.
func SalesRecordsTable(records []domain.SalesRecord) Table {
	rows := make([][]any, 0, len(records))
	for _, rec := range records {
		row := []any{
			rec.SiteID,
			formatDate(rec.Date),
			rec.Revenue,
			rec.ExpenseTotal,
			rec.CashSales,
			rec.CreditCardSales,
			rec.ClubAndPPWSales,
			rec.GiftCards,
			rec.WeeksOpen,
		}
		for _, tier := range domain.Tiers {
			row = append(row, rec.PPWPayments(tier))
		}
		for _, tier := range domain.Tiers {
			row = append(row, rec.PPWRefunds(tier))
		}
		for _, tier := range domain.Tiers {
			row = append(row, rec.ClubPayments(tier))
		}
		for _, tier := range domain.Tiers {
			row = append(row, rec.ClubRefunds(tier))
		}
		for _, tier := range domain.Tiers {
			row = append(row, rec.PPWCount(tier))
		}
		for _, tier := range domain.Tiers {
			row = append(row, rec.ClubCount(tier))
		}
		for _, tier := range domain.Tiers {
			row = append(row, rec.SingleWashCount(tier))
		}
		for _, col := range domain.FeeColumns {
			row = append(row, rec.FeeAmount(col))
		}
		rows = append(rows, row)
	}

	return Table{
		Key:    TableSales,
		Title:  "Sales",
		Header: salesHeader(),
		Rows:   rows,
	}
}

// salesHeader builds the sales column list in the same order
// SalesRecordsTable emits the cells.
func salesHeader() []string {
	header := []string{
		"site_id", "date", "revenue", "expense_total",
		"cash_sales", "credit_card_sales", "club_and_ppw_sales",
		"gift_cards", "weeks_open",
	}
	for _, tier := range domain.Tiers {
		header = append(header, "gross_ppw_payments_"+string(tier))
	}
	for _, tier := range domain.Tiers {
		header = append(header, "gross_ppw_refunds_"+string(tier))
	}
	for _, tier := range domain.Tiers {
		header = append(header, "gross_club_payments_"+string(tier))
	}
	for _, tier := range domain.Tiers {
		header = append(header, "gross_club_refunds_"+string(tier))
	}
	for _, tier := range domain.Tiers {
		header = append(header, "ppw_"+string(tier)+"_count")
	}
	for _, tier := range domain.Tiers {
		header = append(header, "club_"+string(tier)+"_count")
	}
	for _, tier := range domain.Tiers {
		header = append(header, "single_wash_"+string(tier)+"_count")
	}
	return append(header, domain.FeeColumns...)
}

// DailyWashTable renders the daily wash aggregate grouped by date and
// site, one row per date/site pair.
func DailyWashTable(records []domain.WashRecord) Table {
	totals := analytics.DailyWashBySite(records)
	rows := make([][]any, 0, len(totals))
	for _, t := range totals {
		rows = append(rows, []any{
			formatDate(t.Date), t.SiteID, t.Count, t.RewashCount, t.TotalCount,
		})
	}

	return Table{
		Key:    TableDailyWashes,
		Title:  "Daily Washes",
		Header: []string{"date", "site_id", "count", "rewash_count", "total_count"},
		Rows:   rows,
	}
}

// MonthlyWashTable renders the monthly wash aggregate grouped by month
// and site.
func MonthlyWashTable(records []domain.WashRecord) Table {
	totals := analytics.MonthlyWashBySite(records)
	rows := make([][]any, 0, len(totals))
	for _, t := range totals {
		rows = append(rows, []any{
			t.Month, t.SiteID, t.Count, t.RewashCount, t.TotalCount,
		})
	}

	return Table{
		Key:    TableMonthlyWashes,
		Title:  "Monthly Washes",
		Header: []string{"year_month", "site_id", "count", "rewash_count", "total_count"},
		Rows:   rows,
	}
}

// WashTypesTable renders wash volume per wash type.
func WashTypesTable(records []domain.WashRecord) Table {
	totals := analytics.WashTypeTotals(records)
	rows := make([][]any, 0, len(totals))
	for _, t := range totals {
		rows = append(rows, []any{t.WashType, t.Count, t.RewashCount, t.Total})
	}

	return Table{
		Key:    TableWashTypes,
		Title:  "Wash Types",
		Header: []string{"wash_type_name", "count", "rewash_count", "total"},
		Rows:   rows,
	}
}

// WeekdayWashesTable renders wash volume per day of week, Monday first.
func WeekdayWashesTable(records []domain.WashRecord) Table {
	totals := analytics.WeekdayWashTotals(records)
	rows := make([][]any, 0, len(totals))
	for _, t := range totals {
		rows = append(rows, []any{t.Weekday, t.Count})
	}

	return Table{
		Key:    TableWeekdayWashes,
		Title:  "Weekday Washes",
		Header: []string{"day_of_week", "count"},
		Rows:   rows,
	}
}

// SiteRevenueTable renders the revenue ranking per site.
func SiteRevenueTable(records []domain.SalesRecord) Table {
	totals := analytics.SiteRevenueTotals(records)
	rows := make([][]any, 0, len(totals))
	for _, t := range totals {
		rows = append(rows, []any{
			t.SiteID, t.Revenue, t.ExpenseTotal,
			t.CashSales, t.CreditCardSales, t.ClubAndPPWSales, t.NetIncome,
		})
	}

	return Table{
		Key:   TableSiteRevenue,
		Title: "Site Revenue",
		Header: []string{
			"site_id", "revenue", "expense_total",
			"cash_sales", "credit_card_sales", "club_and_ppw_sales", "net_income",
		},
		Rows: rows,
	}
}

// MonthlySubscriptionsTable renders the monthly subscription rollup.
func MonthlySubscriptionsTable(records []domain.SubscriptionRecord) Table {
	totals := analytics.MonthlySubscriptionTotals(records)
	rows := make([][]any, 0, len(totals))
	for _, t := range totals {
		rows = append(rows, []any{
			t.Month, t.CreatedCount, t.CanceledCount,
			t.ActiveMean, t.TrialMean, t.RecurringMean,
			t.NetChange, t.ChurnRate,
		})
	}

	return Table{
		Key:   TableMonthlySubscriptions,
		Title: "Monthly Subscriptions",
		Header: []string{
			"year_month", "created_count", "canceled_count",
			"active_count", "trial_count", "recurring_count",
			"net_change", "churn_rate",
		},
		Rows: rows,
	}
}

// MonthlySalesTable renders the monthly money rollup.
func MonthlySalesTable(records []domain.SalesRecord) Table {
	totals := analytics.MonthlySalesTotals(records)
	rows := make([][]any, 0, len(totals))
	for _, t := range totals {
		rows = append(rows, []any{
			t.Month, t.Revenue, t.ExpenseTotal,
			t.CashSales, t.CreditCardSales, t.ClubAndPPWSales, t.NetIncome,
		})
	}

	return Table{
		Key:   TableMonthlySales,
		Title: "Monthly Sales",
		Header: []string{
			"year_month", "revenue", "expense_total",
			"cash_sales", "credit_card_sales", "club_and_ppw_sales", "net_income",
		},
		Rows: rows,
	}
}

// ExpenseBreakdownTable renders the fee column totals, largest first.
func ExpenseBreakdownTable(records []domain.SalesRecord) Table {
	items := analytics.ExpenseBreakdown(records)
	rows := make([][]any, 0, len(items))
	for _, item := range items {
		rows = append(rows, []any{item.Column, item.Amount})
	}

	return Table{
		Key:    TableExpenseBreakdown,
		Title:  "Expense Breakdown",
		Header: []string{"expense_type", "amount"},
		Rows:   rows,
	}
}
