package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"washpulse/pkg/contracts/domain"
)

func TestSiteIDs(t *testing.T) {
	snap := &domain.Snapshot{
		Wash: []domain.WashRecord{
			washRec("site-c", domain.NewDate(2025, time.March, 10), "Basic", 1, 0),
			washRec("site-a", domain.NewDate(2025, time.March, 10), "Basic", 1, 0),
		},
		Subscriptions: []domain.SubscriptionRecord{
			subRec("site-b", domain.NewDate(2025, time.March, 10), 10, 0, 0, 0, 0),
		},
		Sales: []domain.SalesRecord{
			salesRec("site-a", domain.NewDate(2025, time.March, 10), 100, 50),
		},
	}

	got := SiteIDs(snap)

	assert.Equal(t, []string{"site-a", "site-b", "site-c"}, got)
}

func TestSiteIDs_EmptySnapshot(t *testing.T) {
	assert.Empty(t, SiteIDs(&domain.Snapshot{}))
}

func TestDateBounds(t *testing.T) {
	snap := &domain.Snapshot{
		Wash: []domain.WashRecord{
			washRec("site-a", domain.NewDate(2025, time.March, 10), "Basic", 1, 0),
		},
		Subscriptions: []domain.SubscriptionRecord{
			subRec("site-a", domain.NewDate(2025, time.February, 1), 10, 0, 0, 0, 0),
		},
		Sales: []domain.SalesRecord{
			salesRec("site-a", domain.NewDate(2025, time.April, 20), 100, 50),
		},
	}

	min, max, ok := DateBounds(snap)

	require.True(t, ok)
	assert.True(t, min.Equal(domain.NewDate(2025, time.February, 1)), "earliest date may come from any dataset")
	assert.True(t, max.Equal(domain.NewDate(2025, time.April, 20)))
}

func TestDateBounds_EmptySnapshot(t *testing.T) {
	_, _, ok := DateBounds(&domain.Snapshot{})
	assert.False(t, ok)
}
