package domain

import (
	"time"
)

// WashRecord represents one site's wash counts for a single day and wash type.
// This is the primary fact row behind the wash volume dashboards.
type WashRecord struct {
	SiteID           string    `json:"site_id" db:"site_id" validate:"required"`
	Date             time.Time `json:"date" db:"date" validate:"required"`
	WashType         string    `json:"wash_type_name" db:"name" validate:"required"`
	Count            int       `json:"count" db:"count" validate:"min=0"`
	RewashCount      int       `json:"rewash_count" db:"rewash_count" validate:"min=0"`
	TotalCount       int       `json:"total_count" db:"total_count"`
	RewashPercentage float64   `json:"rewash_percentage" db:"rewash_percentage"`
}

// ComputeDerived fills the derived columns from the raw counts.
// RewashPercentage is 0 when Count is 0, never a division fault.
func (r *WashRecord) ComputeDerived() {
	r.TotalCount = r.Count + r.RewashCount
	if r.Count > 0 {
		r.RewashPercentage = float64(r.RewashCount) / float64(r.Count) * 100
	} else {
		r.RewashPercentage = 0
	}
}
