package analytics

import (
	"sort"
	"time"

	"washpulse/pkg/contracts/domain"
)

// SiteIDs returns the distinct site IDs across all record sets in the
// snapshot, sorted ascending. Sites appearing in only one dataset still
// count; a dataset that failed to load simply contributes nothing.
func SiteIDs(snap *domain.Snapshot) []string {
	seen := make(map[string]struct{})
	for _, rec := range snap.Wash {
		seen[rec.SiteID] = struct{}{}
	}
	for _, rec := range snap.Subscriptions {
		seen[rec.SiteID] = struct{}{}
	}
	for _, rec := range snap.Sales {
		seen[rec.SiteID] = struct{}{}
	}

	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// DateBounds returns the earliest and latest record dates across the
// snapshot. ok is false when no dataset holds any records.
func DateBounds(snap *domain.Snapshot) (min, max time.Time, ok bool) {
	observe := func(date time.Time) {
		if !ok {
			min, max, ok = date, date, true
			return
		}
		if date.Before(min) {
			min = date
		}
		if date.After(max) {
			max = date
		}
	}
	for _, rec := range snap.Wash {
		observe(rec.Date)
	}
	for _, rec := range snap.Subscriptions {
		observe(rec.Date)
	}
	for _, rec := range snap.Sales {
		observe(rec.Date)
	}
	return min, max, ok
}
