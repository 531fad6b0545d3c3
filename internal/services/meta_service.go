package services

import (
	"context"
	"time"

	"washpulse/internal/analytics"
	"washpulse/internal/config"
	"washpulse/pkg/contracts/domain"
)

// MetaView describes the loaded data so clients can build their filter
// controls without guessing: date bounds, the site list and the default
// filter hints the dashboard applies when a request leaves them out.
type MetaView struct {
	MinDate       string             `json:"min_date"`
	MaxDate       string             `json:"max_date"`
	Sites         []string           `json:"sites"`
	DefaultFrom   string             `json:"default_from"`
	DefaultTo     string             `json:"default_to"`
	DefaultSites  []string           `json:"default_sites"`
	DefaultWindow int                `json:"default_window"`
	Source        string             `json:"source"`
	LoadedAt      time.Time          `json:"loaded_at"`
	NoData        bool               `json:"no_data"`
	LoadIssues    []domain.LoadIssue `json:"load_issues,omitempty"`
}

// MetaService serves the filter metadata endpoint.
type MetaService struct {
	snapshots *SnapshotService
}

// NewMetaService builds the metadata service.
func NewMetaService(snapshots *SnapshotService) *MetaService {
	return &MetaService{snapshots: snapshots}
}

// Meta reports the snapshot's date bounds, site list and default filter
// hints: the trailing DefaultRangeDays range, the first DefaultSiteCount
// sites and the DefaultRollingWindow. An empty snapshot comes back as
// no_data with the hints that still apply.
func (s *MetaService) Meta(ctx context.Context) *MetaView {
	snap := s.snapshots.Snapshot(ctx)
	sites := analytics.SiteIDs(snap)

	view := &MetaView{
		Sites:         sites,
		DefaultSites:  sites,
		DefaultWindow: config.DefaultRollingWindow,
		Source:        snap.Source,
		LoadedAt:      snap.LoadedAt,
		LoadIssues:    snap.Issues,
	}
	if len(sites) > config.DefaultSiteCount {
		view.DefaultSites = sites[:config.DefaultSiteCount]
	}

	min, max, ok := analytics.DateBounds(snap)
	if !ok {
		view.NoData = true
		return view
	}
	view.MinDate = min.Format("2006-01-02")
	view.MaxDate = max.Format("2006-01-02")

	from, to := defaultRange(snap)
	view.DefaultFrom = from.Format("2006-01-02")
	view.DefaultTo = to.Format("2006-01-02")

	return view
}
