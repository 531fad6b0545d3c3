package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"washpulse/internal/analytics"
	"washpulse/internal/config"
	"washpulse/pkg/contracts/domain"
)

func washRecord(siteID string, date time.Time, washType string, count, rewash int) domain.WashRecord {
	rec := domain.WashRecord{SiteID: siteID, Date: date, WashType: washType, Count: count, RewashCount: rewash}
	rec.ComputeDerived()
	return rec
}

func subscriptionRecord(siteID string, date time.Time, active, created, canceled, trial, recurring int) domain.SubscriptionRecord {
	rec := domain.SubscriptionRecord{
		SiteID:         siteID,
		Date:           date,
		ActiveCount:    active,
		CreatedCount:   created,
		CanceledCount:  canceled,
		TrialCount:     trial,
		RecurringCount: recurring,
	}
	rec.ComputeDerived()
	return rec
}

func salesRecord(siteID string, date time.Time, revenue, expense, cash, credit, club float64) domain.SalesRecord {
	return domain.SalesRecord{
		SiteID:          siteID,
		Date:            date,
		Revenue:         revenue,
		ExpenseTotal:    expense,
		CashSales:       cash,
		CreditCardSales: credit,
		ClubAndPPWSales: club,
	}
}

// dashboardSnapshot covers March 1-3 2024 for two sites across all three
// datasets.
func dashboardSnapshot() *domain.Snapshot {
	march := func(day int) time.Time { return domain.NewDate(2024, time.March, day) }

	richSale := salesRecord("site-a", march(1), 1000, 300, 200, 500, 300)
	richSale.RoyaltyFee = 50
	richSale.GrossPPWPaymentsQuality = 100
	richSale.PPWQualityCount = 20

	return &domain.Snapshot{
		Wash: []domain.WashRecord{
			washRecord("site-a", march(1), "Basic", 10, 1),
			washRecord("site-a", march(1), "Deluxe", 5, 0),
			washRecord("site-b", march(1), "Basic", 8, 2),
			washRecord("site-a", march(2), "Basic", 12, 0),
			washRecord("site-b", march(3), "Deluxe", 6, 1),
		},
		Subscriptions: []domain.SubscriptionRecord{
			subscriptionRecord("site-a", march(1), 100, 5, 2, 10, 4),
			subscriptionRecord("site-b", march(1), 50, 1, 1, 2, 1),
			subscriptionRecord("site-a", march(2), 103, 3, 0, 8, 2),
		},
		Sales: []domain.SalesRecord{
			richSale,
			salesRecord("site-b", march(2), 500, 100, 100, 250, 150),
		},
		SalesSchema: domain.SalesSchema{ClubTierRevenue: true},
		Source:      config.StrategyMySQL,
		LoadedAt:    time.Date(2024, time.March, 3, 9, 0, 0, 0, time.UTC),
	}
}

func newTestDashboard(t *testing.T, snap *domain.Snapshot) *DashboardService {
	t.Helper()

	loader := &fakeLoader{snap: snap}
	snapshots := NewSnapshotService(loader, nil, config.CacheConfig{Enabled: true, TTL: time.Hour}, "", discardLogger())
	return NewDashboardService(snapshots, discardLogger(), nil)
}

func marchFilter(window int) domain.RecordFilter {
	return domain.RecordFilter{
		From:   domain.NewDate(2024, time.March, 1),
		To:     domain.NewDate(2024, time.March, 3),
		Window: window,
	}
}

func TestWashesView(t *testing.T) {
	svc := newTestDashboard(t, dashboardSnapshot())

	view, err := svc.Washes(context.Background(), marchFilter(2))
	require.NoError(t, err)

	assert.False(t, view.NoData)
	assert.Equal(t, "2024-03-01", view.Filter.From)
	assert.Equal(t, "2024-03-03", view.Filter.To)
	assert.Equal(t, 2, view.Filter.Window)

	assert.Equal(t, WashSummary{
		TotalWashes:      41,
		TotalRewashes:    4,
		RewashPercentage: float64(4) / 41 * 100,
		DaysCovered:      3,
		SitesCovered:     2,
	}, view.Summary)

	require.Len(t, view.Daily, 3)
	assert.Equal(t, 26, view.Daily[0].TotalCount)
	assert.Equal(t, 12, view.Daily[1].TotalCount)
	assert.Equal(t, 7, view.Daily[2].TotalCount)

	assert.Equal(t, []string{"2024-03-01", "2024-03-02", "2024-03-03"}, view.DailySeries.X)
	assert.Equal(t, []float64{26, 12, 7}, view.DailySeries.Y)

	// Window 2: the overlay starts at the second date.
	assert.Equal(t, []string{"2024-03-02", "2024-03-03"}, view.RollingSeries.X)
	assert.Equal(t, []float64{19, 9.5}, view.RollingSeries.Y)

	require.Len(t, view.Monthly, 1)
	assert.Equal(t, "2024-03", view.Monthly[0].Month)
	assert.Equal(t, 45, view.Monthly[0].TotalCount)

	require.Len(t, view.WashTypes, 2)
	assert.Equal(t, "Basic", view.WashTypes[0].WashType)
	assert.Equal(t, 33, view.WashTypes[0].Total)

	require.Len(t, view.Weekdays, 7)
	assert.Equal(t, "Friday", view.Weekdays[4].Weekday)
	assert.Equal(t, 23, view.Weekdays[4].Count)

	require.NotEmpty(t, view.Efficiency)
	assert.Equal(t, "site-a", view.Efficiency[0].SiteID)
	assert.InDelta(t, 14.0, view.Efficiency[0].WashesPerDay, 1e-9)

	require.Len(t, view.Checks, 1)
	assert.True(t, view.Checks[0].Match)
	assert.Empty(t, view.Warnings)
}

func TestWashesViewFiltersSites(t *testing.T) {
	svc := newTestDashboard(t, dashboardSnapshot())

	filter := marchFilter(7)
	filter.SiteIDs = []string{"site-b"}

	view, err := svc.Washes(context.Background(), filter)
	require.NoError(t, err)

	assert.Equal(t, 14, view.Summary.TotalWashes)
	assert.Equal(t, 1, view.Summary.SitesCovered)
	assert.Equal(t, []string{"site-b"}, view.Filter.Sites)
}

func TestWashesViewEmptyRangeIsNoData(t *testing.T) {
	svc := newTestDashboard(t, dashboardSnapshot())

	// From after To matches nothing; that is a valid state, not an error.
	filter := domain.RecordFilter{
		From: domain.NewDate(2024, time.March, 3),
		To:   domain.NewDate(2024, time.March, 1),
	}

	view, err := svc.Washes(context.Background(), filter)
	require.NoError(t, err)

	assert.True(t, view.NoData)
	assert.Empty(t, view.Daily)
	assert.Equal(t, WashSummary{}, view.Summary)
	require.Len(t, view.Checks, 1)
	assert.True(t, view.Checks[0].Match)
}

func TestWashesViewTooManySites(t *testing.T) {
	svc := newTestDashboard(t, dashboardSnapshot())

	filter := marchFilter(7)
	for i := 0; i <= config.MaxSitesPerRequest; i++ {
		filter.SiteIDs = append(filter.SiteIDs, "site")
	}

	view, err := svc.Washes(context.Background(), filter)
	require.ErrorIs(t, err, ErrTooManySites)
	assert.Nil(t, view)
}

func TestWashesViewDefaultsRangeAndWindow(t *testing.T) {
	svc := newTestDashboard(t, dashboardSnapshot())

	view, err := svc.Washes(context.Background(), domain.RecordFilter{})
	require.NoError(t, err)

	// The 90-day default reaches past the data's first date, so the range
	// clamps to the full span.
	assert.Equal(t, "2024-03-01", view.Filter.From)
	assert.Equal(t, "2024-03-03", view.Filter.To)
	assert.Equal(t, config.DefaultRollingWindow, view.Filter.Window)
	assert.False(t, view.NoData)
}

func TestWashesViewClampsWindow(t *testing.T) {
	svc := newTestDashboard(t, dashboardSnapshot())

	view, err := svc.Washes(context.Background(), marchFilter(999))
	require.NoError(t, err)

	assert.Equal(t, analytics.MaxWindow, view.Filter.Window)
}

func TestSubscriptionsView(t *testing.T) {
	svc := newTestDashboard(t, dashboardSnapshot())

	view, err := svc.Subscriptions(context.Background(), marchFilter(2))
	require.NoError(t, err)

	assert.False(t, view.NoData)
	assert.Equal(t, SubscriptionSummary{
		CreatedTotal:  9,
		CanceledTotal: 3,
		NetChange:     6,
	}, view.Summary)

	require.Len(t, view.Daily, 2)
	assert.Equal(t, 150, view.Daily[0].ActiveCount)
	assert.Equal(t, 103, view.Daily[1].ActiveCount)

	assert.Equal(t, []string{"2024-03-01", "2024-03-02"}, view.ActiveSeries.X)
	assert.Equal(t, []float64{150, 103}, view.ActiveSeries.Y)
	assert.Equal(t, []float64{126.5}, view.RollingSeries.Y)

	require.Len(t, view.Monthly, 1)
	assert.Equal(t, 9, view.Monthly[0].CreatedCount)
	assert.Zero(t, view.Monthly[0].ChurnRate)

	require.Len(t, view.Checks, 1)
	assert.True(t, view.Checks[0].Match)
	assert.Empty(t, view.Warnings)
}

func TestSalesView(t *testing.T) {
	svc := newTestDashboard(t, dashboardSnapshot())

	view, err := svc.Sales(context.Background(), marchFilter(0))
	require.NoError(t, err)

	assert.False(t, view.NoData)
	assert.Zero(t, view.Filter.Window)

	assert.Equal(t, analytics.SalesSummary{
		Revenue:         1500,
		ExpenseTotal:    400,
		NetIncome:       1100,
		CashSales:       300,
		CreditCardSales: 750,
		ClubAndPPWSales: 450,
	}, view.Summary)

	assert.Equal(t, []float64{1000, 500}, view.RevenueSeries.Y)

	require.Len(t, view.PaymentMix, 3)
	assert.Equal(t, "cash", view.PaymentMix[0].Channel)
	assert.Equal(t, 300.0, view.PaymentMix[0].Amount)

	require.Len(t, view.Expenses, 1)
	assert.Equal(t, "royalty_fee", view.Expenses[0].Column)
	assert.Equal(t, 50.0, view.Expenses[0].Amount)

	require.Len(t, view.SiteRevenue, 2)
	assert.Equal(t, "site-a", view.SiteRevenue[0].SiteID)

	assert.False(t, view.ProgramsEstimated)
	assert.Equal(t, 100.0, view.Programs.PPWRevenue)
	assert.Equal(t, 20, view.Programs.PPWCount)

	require.Len(t, view.Checks, 1)
	assert.True(t, view.Checks[0].Match)
	assert.Empty(t, view.Warnings)
}

func TestSalesViewEstimatedPrograms(t *testing.T) {
	snap := dashboardSnapshot()
	snap.SalesSchema = domain.SalesSchema{ClubTierRevenue: false}
	svc := newTestDashboard(t, snap)

	view, err := svc.Sales(context.Background(), marchFilter(0))
	require.NoError(t, err)

	assert.True(t, view.ProgramsEstimated)
	assert.True(t, view.Programs.Estimated)
	// Club revenue falls back to blended sales minus PPW revenue.
	assert.Equal(t, 350.0, view.Programs.ClubRevenue)
}

func TestExportDataCarriesFilteredSets(t *testing.T) {
	svc := newTestDashboard(t, dashboardSnapshot())

	data, err := svc.ExportData(context.Background(), marchFilter(0))
	require.NoError(t, err)

	assert.Len(t, data.Wash, 5)
	assert.Len(t, data.Subscriptions, 3)
	assert.Len(t, data.Sales, 2)
	assert.True(t, data.Schema.ClubTierRevenue)
}

func TestExportDataFiltersRange(t *testing.T) {
	svc := newTestDashboard(t, dashboardSnapshot())

	filter := domain.RecordFilter{
		From: domain.NewDate(2024, time.March, 2),
		To:   domain.NewDate(2024, time.March, 2),
	}

	data, err := svc.ExportData(context.Background(), filter)
	require.NoError(t, err)

	assert.Len(t, data.Wash, 1)
	assert.Len(t, data.Subscriptions, 1)
	assert.Len(t, data.Sales, 1)
}

func TestFinishRunReportsMismatch(t *testing.T) {
	svc := newTestDashboard(t, dashboardSnapshot())

	checks := []analytics.Check{
		{Label: "daily wash totals", Aggregate: 45, Independent: 50, Delta: 5, Match: false},
	}

	warnings := svc.finishRun(context.Background(), "wash", time.Now(), checks)

	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], `consistency check "daily wash totals" failed`)
	assert.Contains(t, warnings[0], "45.00")
	assert.Contains(t, warnings[0], "50.00")
}
