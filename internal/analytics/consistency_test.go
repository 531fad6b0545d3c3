package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"washpulse/pkg/contracts/domain"
)

func TestCheckConsistency(t *testing.T) {
	tests := []struct {
		name        string
		aggregate   float64
		independent float64
		tolerance   float64
		wantMatch   bool
		wantDelta   float64
	}{
		{
			name:        "exact match",
			aggregate:   30,
			independent: 30,
			tolerance:   1,
			wantMatch:   true,
		},
		{
			name:        "drift inside tolerance",
			aggregate:   30.6,
			independent: 30,
			tolerance:   1,
			wantMatch:   true,
			wantDelta:   0.6,
		},
		{
			name:        "drift on the tolerance boundary",
			aggregate:   31,
			independent: 30,
			tolerance:   1,
			wantMatch:   true,
			wantDelta:   1,
		},
		{
			name:        "mismatch beyond tolerance",
			aggregate:   35,
			independent: 30,
			tolerance:   1,
			wantMatch:   false,
			wantDelta:   5,
		},
		{
			name:        "zero tolerance falls back to the default",
			aggregate:   30.5,
			independent: 30,
			tolerance:   0,
			wantMatch:   true,
			wantDelta:   0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CheckConsistency("daily wash totals", tt.aggregate, tt.independent, tt.tolerance)

			assert.Equal(t, "daily wash totals", got.Label)
			assert.Equal(t, tt.aggregate, got.Aggregate)
			assert.Equal(t, tt.independent, got.Independent)
			assert.Equal(t, tt.wantMatch, got.Match)
			assert.InDelta(t, tt.wantDelta, got.Delta, 1e-9)
		})
	}
}

func TestCheckConsistency_DailyTotalsAgreeWithIndependentSum(t *testing.T) {
	records := []domain.WashRecord{
		washRec("site-a", domain.NewDate(2024, time.January, 1), "Basic", 10, 1),
		washRec("site-a", domain.NewDate(2024, time.January, 2), "Basic", 20, 2),
	}

	var fromDaily float64
	for _, row := range DailyWashTotals(records) {
		fromDaily += float64(row.Count)
	}
	var independent float64
	for _, rec := range records {
		independent += float64(rec.Count)
	}

	check := CheckConsistency("daily wash totals", fromDaily, independent, DefaultTolerance)

	assert.True(t, check.Match)
	assert.Equal(t, 30.0, check.Aggregate)
	assert.Equal(t, 30.0, check.Independent)
	assert.Zero(t, check.Delta)
}
