package domain

import (
	"time"
)

// Dataset names one of the three record sets the loader can produce.
type Dataset string

const (
	DatasetWash          Dataset = "wash"
	DatasetSubscriptions Dataset = "subscriptions"
	DatasetSales         Dataset = "sales"
)

// Datasets lists all datasets in load order.
var Datasets = []Dataset{DatasetWash, DatasetSubscriptions, DatasetSales}

// RecordFilter carries the caller-supplied pipeline parameters: an inclusive
// date range, an optional site subset (empty means all sites) and the
// rolling-average window size.
type RecordFilter struct {
	From    time.Time `json:"from" validate:"required"`
	To      time.Time `json:"to" validate:"required"`
	SiteIDs []string  `json:"site_ids,omitempty"`
	Window  int       `json:"window" validate:"min=1,max=60"`
}

// Series is the chart contract handed to the presentation layer: parallel
// x and y slices plus a label. X values are already in display order;
// consumers must not re-sort them.
type Series struct {
	Label string    `json:"label"`
	X     []string  `json:"x"`
	Y     []float64 `json:"y"`
}

// LoadIssue records a dataset that could not be loaded. The snapshot still
// carries an empty set for it so downstream stages degrade instead of failing.
type LoadIssue struct {
	Dataset Dataset `json:"dataset"`
	Message string  `json:"message"`
}

// Snapshot is one full pull of the three record sets. It is immutable after
// load; pipeline stages only ever derive new tables from it.
type Snapshot struct {
	Wash          []WashRecord         `json:"-"`
	Subscriptions []SubscriptionRecord `json:"-"`
	Sales         []SalesRecord        `json:"-"`
	SalesSchema   SalesSchema          `json:"sales_schema"`
	Source        string               `json:"source"`
	LoadedAt      time.Time            `json:"loaded_at"`
	Issues        []LoadIssue          `json:"issues,omitempty"`
}

// Empty reports whether no dataset produced any rows.
func (s *Snapshot) Empty() bool {
	return len(s.Wash) == 0 && len(s.Subscriptions) == 0 && len(s.Sales) == 0
}

// NewDate builds a calendar date at UTC midnight. All record dates and all
// range boundaries are normalized this way so date comparison is exact,
// never string- or locale-based.
func NewDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOf truncates a timestamp to its calendar date at UTC midnight.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
