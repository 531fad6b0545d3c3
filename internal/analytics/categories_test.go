package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"washpulse/pkg/contracts/domain"
)

func TestWashTypeTotals_SortsByCombinedTotalDesc(t *testing.T) {
	date := domain.NewDate(2025, time.March, 10)
	records := []domain.WashRecord{
		washRec("site-a", date, "Basic", 10, 1),
		washRec("site-b", date, "Basic", 5, 2),
		washRec("site-a", date, "Deluxe", 16, 3),
		washRec("site-a", date, "Express", 16, 3),
	}

	got := WashTypeTotals(records)

	require.Len(t, got, 3)
	assert.Equal(t, WashTypeTotal{WashType: "Deluxe", Count: 16, RewashCount: 3, Total: 19}, got[0])
	assert.Equal(t, "Express", got[1].WashType, "equal totals fall back to name order")
	assert.Equal(t, WashTypeTotal{WashType: "Basic", Count: 15, RewashCount: 3, Total: 18}, got[2])
}

func TestSiteWashTypeTotals(t *testing.T) {
	date := domain.NewDate(2025, time.March, 10)
	records := []domain.WashRecord{
		washRec("site-b", date, "Basic", 7, 0),
		washRec("site-a", date, "Deluxe", 3, 0),
		washRec("site-a", date, "Basic", 10, 0),
		washRec("site-a", domain.NewDate(2025, time.March, 11), "Basic", 4, 0),
	}

	got := SiteWashTypeTotals(records)

	require.Len(t, got, 3)
	assert.Equal(t, SiteWashTypeTotal{SiteID: "site-a", WashType: "Basic", Count: 14}, got[0])
	assert.Equal(t, SiteWashTypeTotal{SiteID: "site-a", WashType: "Deluxe", Count: 3}, got[1])
	assert.Equal(t, SiteWashTypeTotal{SiteID: "site-b", WashType: "Basic", Count: 7}, got[2])
}

func TestWeekdayWashTotals_FixedMondayFirstOrder(t *testing.T) {
	records := []domain.WashRecord{
		// 2024-01-07 is a Sunday, 2024-01-01 a Monday, 2024-01-03 a Wednesday.
		washRec("site-a", domain.NewDate(2024, time.January, 7), "Basic", 4, 0),
		washRec("site-a", domain.NewDate(2024, time.January, 1), "Basic", 10, 0),
		washRec("site-a", domain.NewDate(2024, time.January, 3), "Basic", 7, 0),
		washRec("site-b", domain.NewDate(2024, time.January, 8), "Basic", 5, 0),
	}

	got := WeekdayWashTotals(records)

	require.Len(t, got, 7, "all seven days appear whenever any records exist")
	wantDays := []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}
	wantCounts := []int{15, 0, 7, 0, 0, 0, 4}
	for i, row := range got {
		assert.Equal(t, wantDays[i], row.Weekday)
		assert.Equal(t, wantCounts[i], row.Count)
	}
}

func TestWeekdayWashTotals_EmptyInput(t *testing.T) {
	assert.Empty(t, WeekdayWashTotals(nil))
}

func TestCategoryAggregates_EmptyInput(t *testing.T) {
	assert.Empty(t, WashTypeTotals(nil))
	assert.Empty(t, SiteWashTypeTotals(nil))
}
