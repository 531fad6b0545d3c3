package analytics

import (
	"time"

	"washpulse/pkg/contracts/domain"
)

// siteSet builds a membership set from the requested site IDs. A nil return
// means no site restriction.
func siteSet(siteIDs []string) map[string]struct{} {
	if len(siteIDs) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(siteIDs))
	for _, id := range siteIDs {
		set[id] = struct{}{}
	}
	return set
}

// inRange reports whether a record date falls inside the inclusive [from, to]
// calendar-date range.
func inRange(date, from, to time.Time) bool {
	return !date.Before(from) && !date.After(to)
}

// FilterWash returns the wash records dated inside the inclusive [from, to]
// range at the requested sites. An empty siteIDs slice selects all sites.
// An empty result is a valid state, never an error.
func FilterWash(records []domain.WashRecord, from, to time.Time, siteIDs []string) []domain.WashRecord {
	from, to = domain.DateOf(from), domain.DateOf(to)
	sites := siteSet(siteIDs)
	out := make([]domain.WashRecord, 0, len(records))
	for _, rec := range records {
		if !inRange(rec.Date, from, to) {
			continue
		}
		if sites != nil {
			if _, ok := sites[rec.SiteID]; !ok {
				continue
			}
		}
		out = append(out, rec)
	}
	return out
}

// FilterSubscriptions returns the subscription records dated inside the
// inclusive [from, to] range at the requested sites.
func FilterSubscriptions(records []domain.SubscriptionRecord, from, to time.Time, siteIDs []string) []domain.SubscriptionRecord {
	from, to = domain.DateOf(from), domain.DateOf(to)
	sites := siteSet(siteIDs)
	out := make([]domain.SubscriptionRecord, 0, len(records))
	for _, rec := range records {
		if !inRange(rec.Date, from, to) {
			continue
		}
		if sites != nil {
			if _, ok := sites[rec.SiteID]; !ok {
				continue
			}
		}
		out = append(out, rec)
	}
	return out
}

// FilterSales returns the sales records dated inside the inclusive [from, to]
// range at the requested sites.
func FilterSales(records []domain.SalesRecord, from, to time.Time, siteIDs []string) []domain.SalesRecord {
	from, to = domain.DateOf(from), domain.DateOf(to)
	sites := siteSet(siteIDs)
	out := make([]domain.SalesRecord, 0, len(records))
	for _, rec := range records {
		if !inRange(rec.Date, from, to) {
			continue
		}
		if sites != nil {
			if _, ok := sites[rec.SiteID]; !ok {
				continue
			}
		}
		out = append(out, rec)
	}
	return out
}
