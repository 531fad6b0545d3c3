package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"washpulse/internal/analytics"
	"washpulse/internal/config"
	"washpulse/internal/exporter"
	"washpulse/internal/infrastructure"
	"washpulse/pkg/contracts/domain"
)

const pipelineTracerName = "washpulse.pipeline"

// DashboardService runs the per-request pipeline: snapshot, filter,
// aggregate, check. Each view method is one linear pass over the filtered
// records; all fan-out (HTTP, hub, cache refresh) lives outside this type.
type DashboardService struct {
	snapshots *SnapshotService
	logger    *slog.Logger
	metrics   *infrastructure.PipelineMetrics
	tracer    trace.Tracer
}

// NewDashboardService builds the dashboard pipeline service.
func NewDashboardService(snapshots *SnapshotService, logger *slog.Logger, metrics *infrastructure.PipelineMetrics) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}

	return &DashboardService{
		snapshots: snapshots,
		logger:    logger.With(slog.String("component", "dashboard_service")),
		metrics:   metrics,
		tracer:    otel.Tracer(pipelineTracerName),
	}
}

// normalizeFilter fills defaulted fields and validates limits. Missing dates
// default to the trailing DefaultRangeDays of available data; an empty site
// list means no site restriction. From after To is not an error: it filters
// to an empty set, which the views report as no_data.
func (s *DashboardService) normalizeFilter(filter domain.RecordFilter, snap *domain.Snapshot) (domain.RecordFilter, error) {
	if len(filter.SiteIDs) > config.MaxSitesPerRequest {
		return domain.RecordFilter{}, fmt.Errorf("%w: %d requested, limit is %d",
			ErrTooManySites, len(filter.SiteIDs), config.MaxSitesPerRequest)
	}

	if filter.From.IsZero() || filter.To.IsZero() {
		from, to := defaultRange(snap)
		if filter.From.IsZero() {
			filter.From = from
		}
		if filter.To.IsZero() {
			filter.To = to
		}
	}
	filter.From = domain.DateOf(filter.From)
	filter.To = domain.DateOf(filter.To)

	if filter.Window == 0 {
		filter.Window = config.DefaultRollingWindow
	}
	filter.Window = analytics.ClampWindow(filter.Window)

	return filter, nil
}

// defaultRange is the trailing DefaultRangeDays of available data, clamped
// to the data's first date. With no data at all it ends today instead.
func defaultRange(snap *domain.Snapshot) (time.Time, time.Time) {
	min, max, ok := analytics.DateBounds(snap)
	if !ok {
		max = domain.DateOf(time.Now().UTC())
		return max.AddDate(0, 0, -(config.DefaultRangeDays - 1)), max
	}

	from := max.AddDate(0, 0, -(config.DefaultRangeDays - 1))
	if from.Before(min) {
		from = min
	}
	return from, max
}

// Washes builds the wash volume view for the filtered range.
func (s *DashboardService) Washes(ctx context.Context, filter domain.RecordFilter) (*WashView, error) {
	started := time.Now()
	ctx, span := s.tracer.Start(ctx, "pipeline.washes",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("pipeline.dataset", string(domain.DatasetWash))),
	)
	defer span.End()

	snap := s.snapshots.Snapshot(ctx)
	filter, err := s.normalizeFilter(filter, snap)
	if err != nil {
		return nil, err
	}

	records := analytics.FilterWash(snap.Wash, filter.From, filter.To, filter.SiteIDs)
	span.SetAttributes(attribute.Int("pipeline.records", len(records)))
	daily := analytics.DailyWashTotals(records)
	dailySeries := dailyWashSeries(daily)

	view := &WashView{
		Filter:        newFilterEcho(filter, true),
		NoData:        len(records) == 0,
		Daily:         daily,
		DailySeries:   dailySeries,
		RollingSeries: rollingSeries("Rolling Average", dailySeries, filter.Window),
		SiteDaily:     analytics.SiteDailyWashTotals(records),
		Monthly:       analytics.MonthlyWashTotals(records),
		WashTypes:     analytics.WashTypeTotals(records),
		SiteWashTypes: analytics.SiteWashTypeTotals(records),
		Weekdays:      analytics.WeekdayWashTotals(records),
		Efficiency:    analytics.SiteEfficiencies(records),
		LoadIssues:    snap.Issues,
	}

	var washes, rewashes, combined int
	for _, rec := range records {
		washes += rec.Count
		rewashes += rec.RewashCount
		combined += rec.TotalCount
	}
	view.Summary = WashSummary{
		TotalWashes:   washes,
		TotalRewashes: rewashes,
		DaysCovered:   len(daily),
		SitesCovered:  distinctWashSites(records),
	}
	if washes > 0 {
		view.Summary.RewashPercentage = float64(rewashes) / float64(washes) * 100
	}

	var aggregated float64
	for _, row := range daily {
		aggregated += float64(row.TotalCount)
	}
	view.Checks = []analytics.Check{
		analytics.CheckConsistency("daily wash totals", aggregated, float64(combined), analytics.DefaultTolerance),
	}
	view.Warnings = s.finishRun(ctx, string(domain.DatasetWash), started, view.Checks)

	return view, nil
}

// Subscriptions builds the membership view for the filtered range.
func (s *DashboardService) Subscriptions(ctx context.Context, filter domain.RecordFilter) (*SubscriptionView, error) {
	started := time.Now()
	ctx, span := s.tracer.Start(ctx, "pipeline.subscriptions",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("pipeline.dataset", string(domain.DatasetSubscriptions))),
	)
	defer span.End()

	snap := s.snapshots.Snapshot(ctx)
	filter, err := s.normalizeFilter(filter, snap)
	if err != nil {
		return nil, err
	}

	records := analytics.FilterSubscriptions(snap.Subscriptions, filter.From, filter.To, filter.SiteIDs)
	span.SetAttributes(attribute.Int("pipeline.records", len(records)))
	daily := analytics.DailySubscriptionTotals(records)
	monthly := analytics.MonthlySubscriptionTotals(records)
	activeSeries := activeSubscriptionSeries(daily)

	view := &SubscriptionView{
		Filter:        newFilterEcho(filter, true),
		NoData:        len(records) == 0,
		Daily:         daily,
		ActiveSeries:  activeSeries,
		RollingSeries: rollingSeries("Rolling Active Members", activeSeries, filter.Window),
		Monthly:       monthly,
		LoadIssues:    snap.Issues,
	}

	var created, canceled int
	for _, rec := range records {
		created += rec.CreatedCount
		canceled += rec.CanceledCount
	}
	view.Summary = SubscriptionSummary{
		CreatedTotal:     created,
		CanceledTotal:    canceled,
		NetChange:        created - canceled,
		AverageChurnRate: analytics.AverageChurnRate(monthly),
	}

	var aggregated float64
	for _, row := range daily {
		aggregated += float64(row.CreatedCount)
	}
	view.Checks = []analytics.Check{
		analytics.CheckConsistency("daily subscription creates", aggregated, float64(created), analytics.DefaultTolerance),
	}
	view.Warnings = s.finishRun(ctx, string(domain.DatasetSubscriptions), started, view.Checks)

	return view, nil
}

// Sales builds the revenue view for the filtered range. Revenue charts
// carry no rolling overlay, so the window is echoed but unused.
func (s *DashboardService) Sales(ctx context.Context, filter domain.RecordFilter) (*SalesView, error) {
	started := time.Now()
	ctx, span := s.tracer.Start(ctx, "pipeline.sales",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("pipeline.dataset", string(domain.DatasetSales))),
	)
	defer span.End()

	snap := s.snapshots.Snapshot(ctx)
	filter, err := s.normalizeFilter(filter, snap)
	if err != nil {
		return nil, err
	}

	records := analytics.FilterSales(snap.Sales, filter.From, filter.To, filter.SiteIDs)
	span.SetAttributes(attribute.Int("pipeline.records", len(records)))
	summary := analytics.SummarizeSales(records)
	daily := analytics.DailySalesTotals(records)
	monthly := analytics.MonthlySalesTotals(records)
	programs := analytics.SplitPrograms(records, snap.SalesSchema)
	dailyPrograms, dailyEstimated := analytics.DailyProgramRevenues(records, snap.SalesSchema)
	monthlyPrograms, monthlyEstimated := analytics.MonthlyProgramRevenues(records, snap.SalesSchema)

	view := &SalesView{
		Filter:            newFilterEcho(filter, false),
		NoData:            len(records) == 0,
		Summary:           summary,
		Daily:             daily,
		RevenueSeries:     dailyRevenueSeries(daily),
		Monthly:           monthly,
		PaymentMix:        analytics.PaymentMix(summary),
		Expenses:          analytics.ExpenseBreakdown(records),
		SiteRevenue:       analytics.SiteRevenueTotals(records),
		Programs:          programs,
		DailyPrograms:     dailyPrograms,
		MonthlyPrograms:   monthlyPrograms,
		ProgramsEstimated: programs.Estimated || dailyEstimated || monthlyEstimated,
		SingleWash:        analytics.SingleWashTotals(records),
		LoadIssues:        snap.Issues,
	}

	var aggregated float64
	for _, row := range monthly {
		aggregated += row.Revenue
	}
	view.Checks = []analytics.Check{
		analytics.CheckConsistency("monthly sales revenue", aggregated, summary.Revenue, analytics.DefaultTolerance),
	}
	view.Warnings = s.finishRun(ctx, string(domain.DatasetSales), started, view.Checks)

	return view, nil
}

// ExportData assembles the filtered raw record sets the export surface
// builds its tables from.
func (s *DashboardService) ExportData(ctx context.Context, filter domain.RecordFilter) (exporter.ExportData, error) {
	ctx, span := s.tracer.Start(ctx, "pipeline.export",
		trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	snap := s.snapshots.Snapshot(ctx)
	filter, err := s.normalizeFilter(filter, snap)
	if err != nil {
		return exporter.ExportData{}, err
	}

	return exporter.ExportData{
		Wash:          analytics.FilterWash(snap.Wash, filter.From, filter.To, filter.SiteIDs),
		Subscriptions: analytics.FilterSubscriptions(snap.Subscriptions, filter.From, filter.To, filter.SiteIDs),
		Sales:         analytics.FilterSales(snap.Sales, filter.From, filter.To, filter.SiteIDs),
		Schema:        snap.SalesSchema,
	}, nil
}

// finishRun turns failed checks into response warnings and records the run.
// A mismatch never aborts the view; it rides along for the client to show.
func (s *DashboardService) finishRun(ctx context.Context, dataset string, started time.Time, checks []analytics.Check) []string {
	var warnings []string
	for _, check := range checks {
		if check.Match {
			continue
		}
		warnings = append(warnings, fmt.Sprintf(
			"consistency check %q failed: aggregate %.2f vs independent %.2f",
			check.Label, check.Aggregate, check.Independent))
		s.logger.WarnContext(ctx, "aggregate cross-check mismatch",
			slog.String("dataset", dataset),
			slog.String("check", check.Label),
			slog.Float64("delta", check.Delta))
	}

	infrastructure.RecordPipelineRun(ctx, s.metrics, dataset, time.Since(started), len(warnings))
	infrastructure.SetSpanAttributes(ctx, map[string]interface{}{
		"pipeline.warnings": len(warnings),
	})
	return warnings
}
