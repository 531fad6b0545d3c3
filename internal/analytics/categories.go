package analytics

import (
	"sort"

	"washpulse/pkg/contracts/domain"
)

// WashTypeTotal is one row of the wash type breakdown.
type WashTypeTotal struct {
	WashType    string `json:"wash_type_name"`
	Count       int    `json:"count"`
	RewashCount int    `json:"rewash_count"`
	Total       int    `json:"total"`
}

// WashTypeTotals groups wash records by wash type. Total is count plus
// rewashes; rows are sorted by Total descending, ties by type name.
func WashTypeTotals(records []domain.WashRecord) []WashTypeTotal {
	grouped := make(map[string]*WashTypeTotal)
	for _, rec := range records {
		row, ok := grouped[rec.WashType]
		if !ok {
			row = &WashTypeTotal{WashType: rec.WashType}
			grouped[rec.WashType] = row
		}
		row.Count += rec.Count
		row.RewashCount += rec.RewashCount
	}

	out := make([]WashTypeTotal, 0, len(grouped))
	for _, row := range grouped {
		row.Total = row.Count + row.RewashCount
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].WashType < out[j].WashType
	})
	return out
}

// SiteWashTypeTotal is one row of the wash type by site breakdown.
type SiteWashTypeTotal struct {
	SiteID   string `json:"site_id"`
	WashType string `json:"wash_type_name"`
	Count    int    `json:"count"`
}

// SiteWashTypeTotals groups wash counts by site and wash type. Rows are
// sorted by site then type name.
func SiteWashTypeTotals(records []domain.WashRecord) []SiteWashTypeTotal {
	type key struct {
		siteID   string
		washType string
	}
	grouped := make(map[key]int)
	for _, rec := range records {
		grouped[key{siteID: rec.SiteID, washType: rec.WashType}] += rec.Count
	}

	out := make([]SiteWashTypeTotal, 0, len(grouped))
	for k, count := range grouped {
		out = append(out, SiteWashTypeTotal{SiteID: k.siteID, WashType: k.washType, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SiteID != out[j].SiteID {
			return out[i].SiteID < out[j].SiteID
		}
		return out[i].WashType < out[j].WashType
	})
	return out
}

// Weekdays lists the day names in dashboard order, Monday first.
var Weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// WeekdayWashTotal is one row of the day-of-week distribution.
type WeekdayWashTotal struct {
	Weekday string `json:"day_of_week"`
	Count   int    `json:"count"`
}

// WeekdayWashTotals sums wash counts by day of week. When any records exist
// the table carries all seven days in Monday-first order, zeros included;
// an empty input returns an empty table.
func WeekdayWashTotals(records []domain.WashRecord) []WeekdayWashTotal {
	if len(records) == 0 {
		return []WeekdayWashTotal{}
	}

	var counts [7]int
	for _, rec := range records {
		// time.Weekday starts at Sunday; shift so Monday lands on 0.
		idx := (int(rec.Date.Weekday()) + 6) % 7
		counts[idx] += rec.Count
	}

	out := make([]WeekdayWashTotal, len(Weekdays))
	for i, day := range Weekdays {
		out[i] = WeekdayWashTotal{Weekday: day, Count: counts[i]}
	}
	return out
}
