package exporter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"washpulse/pkg/contracts/domain"
)

func washRecord(siteID string, date time.Time, washType string, count, rewash int) domain.WashRecord {
	rec := domain.WashRecord{
		SiteID:      siteID,
		Date:        date,
		WashType:    washType,
		Count:       count,
		RewashCount: rewash,
	}
	rec.ComputeDerived()
	return rec
}

func subscriptionRecord(siteID string, date time.Time, active, created, canceled int) domain.SubscriptionRecord {
	rec := domain.SubscriptionRecord{
		SiteID:        siteID,
		Date:          date,
		ActiveCount:   active,
		CreatedCount:  created,
		CanceledCount: canceled,
	}
	rec.ComputeDerived()
	return rec
}

func salesRecord(siteID string, date time.Time, revenue, expense float64) domain.SalesRecord {
	return domain.SalesRecord{
		SiteID:       siteID,
		Date:         date,
		Revenue:      revenue,
		ExpenseTotal: expense,
	}
}

func testExportData() ExportData {
	day1 := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)

	return ExportData{
		Wash: []domain.WashRecord{
			washRecord("site-a", day1, "Basic", 10, 1),
			washRecord("site-a", day1, "Deluxe", 5, 0),
			washRecord("site-b", day2, "Basic", 20, 2),
		},
		Subscriptions: []domain.SubscriptionRecord{
			subscriptionRecord("site-a", day1, 100, 3, 1),
		},
		Sales: []domain.SalesRecord{
			salesRecord("site-a", day1, 1000, 400),
			salesRecord("site-b", day2, 500, 100),
		},
	}
}

func TestBuildTableKnownKeys(t *testing.T) {
	data := testExportData()

	for _, key := range TableKeys() {
		table, ok := BuildTable(data, key)
		require.True(t, ok, "key %s", key)
		assert.Equal(t, key, table.Key)
		assert.NotEmpty(t, table.Title)
		assert.NotEmpty(t, table.Header)

		for _, row := range table.Rows {
			assert.Len(t, row, len(table.Header), "key %s", key)
		}
	}
}

func TestBuildTableUnknownKey(t *testing.T) {
	_, ok := BuildTable(testExportData(), "no_such_table")
	assert.False(t, ok)
}

func TestWashRecordsTable(t *testing.T) {
	data := testExportData()

	table := WashRecordsTable(data.Wash)
	require.Len(t, table.Rows, 3)

	assert.Equal(t, []any{"site-a", "2024-03-10", "Basic", 10, 1, 11, 10.0}, table.Rows[0])
	assert.Equal(t, []any{"site-b", "2024-03-11", "Basic", 20, 2, 22, 10.0}, table.Rows[2])
}

func TestSalesRecordsTableColumnCount(t *testing.T) {
	data := testExportData()

	table := SalesRecordsTable(data.Sales)

	// 9 core columns, 16 tier revenue, 12 tier counts, 13 fee columns.
	assert.Len(t, table.Header, 50)
	require.Len(t, table.Rows, 2)
	assert.Len(t, table.Rows[0], 50)

	assert.Equal(t, "site_id", table.Header[0])
	assert.Equal(t, "gross_ppw_payments_quality", table.Header[9])
	assert.Equal(t, "app_adjustment", table.Header[49])
}

func TestDailyWashTableGroupsByDateAndSite(t *testing.T) {
	data := testExportData()

	table := DailyWashTable(data.Wash)
	require.Len(t, table.Rows, 2)

	// Both site-a wash types on 2024-03-10 collapse into one row.
	assert.Equal(t, []any{"2024-03-10", "site-a", 15, 1, 16}, table.Rows[0])
	assert.Equal(t, []any{"2024-03-11", "site-b", 20, 2, 22}, table.Rows[1])
}

func TestMonthlyWashTable(t *testing.T) {
	data := testExportData()

	table := MonthlyWashTable(data.Wash)
	require.Len(t, table.Rows, 2)

	assert.Equal(t, []any{"2024-03", "site-a", 15, 1, 16}, table.Rows[0])
	assert.Equal(t, []any{"2024-03", "site-b", 20, 2, 22}, table.Rows[1])
}

func TestBuildAggregateTablesOrder(t *testing.T) {
	tables := BuildAggregateTables(testExportData())

	require.Len(t, tables, len(aggregateOrder))
	for i, table := range tables {
		assert.Equal(t, aggregateOrder[i], table.Key)
	}
}

func TestBuildTablesEmptyData(t *testing.T) {
	tables := BuildTables(ExportData{})

	require.Len(t, tables, len(tableOrder))
	for _, table := range tables {
		assert.Empty(t, table.Rows, "key %s", table.Key)
		assert.NotEmpty(t, table.Header, "key %s", table.Key)
	}
}

func TestExpenseBreakdownTable(t *testing.T) {
	day := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	records := []domain.SalesRecord{
		{SiteID: "site-a", Date: day, RoyaltyFee: 200, TechnologyFee: 50},
	}

	table := ExpenseBreakdownTable(records)
	require.Len(t, table.Rows, 2)

	assert.Equal(t, []any{"royalty_fee", 200.0}, table.Rows[0])
	assert.Equal(t, []any{"technology_fee", 50.0}, table.Rows[1])
}
