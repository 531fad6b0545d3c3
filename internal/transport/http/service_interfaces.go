package http

import (
	"context"
	"time"

	"washpulse/internal/exporter"
	"washpulse/internal/gate"
	"washpulse/internal/services"
	"washpulse/pkg/contracts/domain"
)

// DashboardReader runs the per-request analytics pipeline and returns
// chart-ready views. DashboardService is the production implementation.
type DashboardReader interface {
	Washes(ctx context.Context, filter domain.RecordFilter) (*services.WashView, error)
	Subscriptions(ctx context.Context, filter domain.RecordFilter) (*services.SubscriptionView, error)
	Sales(ctx context.Context, filter domain.RecordFilter) (*services.SalesView, error)
}

// ExportProvider supplies the filtered record sets the export tables are
// built from. DashboardService implements this too.
type ExportProvider interface {
	ExportData(ctx context.Context, filter domain.RecordFilter) (exporter.ExportData, error)
}

// MetaProvider describes the loaded datasets for the filter controls.
type MetaProvider interface {
	Meta(ctx context.Context) *services.MetaView
}

// SnapshotRefresher reloads the warehouse snapshot on demand.
type SnapshotRefresher interface {
	ForceRefresh(ctx context.Context) *domain.Snapshot
}

// GateAuthenticator is the slice of the session gate the auth endpoints
// need.
type GateAuthenticator interface {
	Configured() bool
	SessionTTL() time.Duration
	Login(ctx context.Context, password, clientAddr string) (gate.Session, error)
	VerifySession(ctx context.Context, token string) error
	Logout(ctx context.Context, token string) bool
}
