package domain

import (
	"time"
)

// SubscriptionRecord represents one site's daily subscription counters.
// Counts are point-in-time snapshots taken by the upstream membership system.
type SubscriptionRecord struct {
	SiteID         string    `json:"site_id" db:"site_id" validate:"required"`
	Date           time.Time `json:"date" db:"date" validate:"required"`
	ActiveCount    int       `json:"active_count" db:"active_count" validate:"min=0"`
	CreatedCount   int       `json:"created_count" db:"created_count" validate:"min=0"`
	CanceledCount  int       `json:"canceled_count" db:"canceled_count" validate:"min=0"`
	TrialCount     int       `json:"trial_count" db:"trial_count" validate:"min=0"`
	RecurringCount int       `json:"recurring_count" db:"recurring_count" validate:"min=0"`
	EndingCount    int       `json:"ending_count" db:"ending_count" validate:"min=0"`
	NetChange      int       `json:"net_change" db:"net_change"`
	ConversionRate float64   `json:"conversion_rate" db:"conversion_rate"`
}

// ComputeDerived fills the derived columns from the raw counters.
// ConversionRate is 0 when TrialCount is 0.
func (r *SubscriptionRecord) ComputeDerived() {
	r.NetChange = r.CreatedCount - r.CanceledCount
	if r.TrialCount > 0 {
		r.ConversionRate = float64(r.RecurringCount) / float64(r.TrialCount) * 100
	} else {
		r.ConversionRate = 0
	}
}
