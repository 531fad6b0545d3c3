package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilter(t *testing.T) {
	tests := []struct {
		name      string
		from      string
		to        string
		sites     string
		wantErr   string
		wantFrom  time.Time
		wantTo    time.Time
		wantSites []string
	}{
		{
			name: "all flags empty leaves the filter zero",
		},
		{
			name:     "dates parse as UTC midnight",
			from:     "2024-03-01",
			to:       "2024-03-31",
			wantFrom: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			wantTo:   time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "sites are split and trimmed",
			sites:     "site-a, site-b,,site-c",
			wantSites: []string{"site-a", "site-b", "site-c"},
		},
		{
			name:    "bad from date",
			from:    "03/01/2024",
			wantErr: "invalid -from date",
		},
		{
			name:    "bad to date",
			to:      "yesterday",
			wantErr: "invalid -to date",
		},
		{
			name:    "inverted range",
			from:    "2024-03-31",
			to:      "2024-03-01",
			wantErr: "before",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter, err := parseFilter(tt.from, tt.to, tt.sites)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.True(t, filter.From.Equal(tt.wantFrom), "from = %v", filter.From)
			assert.True(t, filter.To.Equal(tt.wantTo), "to = %v", filter.To)
			assert.Equal(t, tt.wantSites, filter.SiteIDs)
		})
	}
}
