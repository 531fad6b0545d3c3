package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"washpulse/internal/config"
	"washpulse/internal/store"
	"washpulse/pkg/contracts/domain"
)

// SnapshotLoader loads a full snapshot from the fact store.
type SnapshotLoader interface {
	LoadSnapshot(ctx context.Context) *domain.Snapshot
}

// RefreshNotifier announces a fresh snapshot to connected clients.
type RefreshNotifier interface {
	BroadcastSnapshotRefreshed(loadedAt time.Time, datasets []string)
}

// SnapshotService hands out snapshots of the three record sets. With
// caching enabled a snapshot is reused until its TTL passes; concurrent
// cache misses share one load through singleflight, so the store sees
// at most one query burst at a time.
type SnapshotService struct {
	loader       SnapshotLoader
	notifier     RefreshNotifier
	cacheEnabled bool
	cacheTTL     time.Duration
	extractPath  string
	logger       *slog.Logger
	tracer       trace.Tracer

	group singleflight.Group

	mu       sync.RWMutex
	cached   *domain.Snapshot
	cachedAt time.Time
}

// NewSnapshotService builds the snapshot service. notifier may be nil
// (the export CLI has no hub). extractPath names the local SQLite
// extract refreshed after clean warehouse loads; empty disables it.
func NewSnapshotService(loader SnapshotLoader, notifier RefreshNotifier, cache config.CacheConfig, extractPath string, logger *slog.Logger) *SnapshotService {
	if logger == nil {
		logger = slog.Default()
	}

	return &SnapshotService{
		loader:       loader,
		notifier:     notifier,
		cacheEnabled: cache.Enabled,
		cacheTTL:     cache.TTL,
		extractPath:  extractPath,
		logger:       logger.With(slog.String("component", "snapshot_service")),
		tracer:       otel.Tracer(pipelineTracerName),
	}
}

// Snapshot returns the current snapshot, from cache when fresh enough.
func (s *SnapshotService) Snapshot(ctx context.Context) *domain.Snapshot {
	if s.cacheEnabled {
		s.mu.RLock()
		if s.cached != nil && time.Since(s.cachedAt) < s.cacheTTL {
			snap := s.cached
			s.mu.RUnlock()
			return snap
		}
		s.mu.RUnlock()
	}

	snap, _, _ := s.group.Do("snapshot", func() (any, error) {
		return s.load(ctx), nil
	})
	return snap.(*domain.Snapshot)
}

// ForceRefresh bypasses the cache, reloads from the store and notifies
// the refresh hub. Concurrent refreshes share one load.
func (s *SnapshotService) ForceRefresh(ctx context.Context) *domain.Snapshot {
	result, _, _ := s.group.Do("refresh", func() (any, error) {
		return s.load(ctx), nil
	})
	snap := result.(*domain.Snapshot)

	if s.notifier != nil {
		s.notifier.BroadcastSnapshotRefreshed(snap.LoadedAt, loadedDatasets(snap))
	}
	return snap
}

// LastLoaded reports when the cached snapshot was loaded.
func (s *SnapshotService) LastLoaded() (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.cached == nil {
		return time.Time{}, false
	}
	return s.cached.LoadedAt, true
}

// load pulls a fresh snapshot, stores it in the cache slot and keeps
// the local extract current.
func (s *SnapshotService) load(ctx context.Context) *domain.Snapshot {
	ctx, span := s.tracer.Start(ctx, "pipeline.load",
		trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	snap := s.loader.LoadSnapshot(ctx)
	span.SetAttributes(
		attribute.String("pipeline.source", snap.Source),
		attribute.Int("pipeline.load_issues", len(snap.Issues)),
	)

	s.mu.Lock()
	s.cached = snap
	s.cachedAt = time.Now()
	s.mu.Unlock()

	s.persistExtract(ctx, snap)
	return snap
}

// persistExtract writes the snapshot to the local SQLite extract so the
// snapshot connection strategy stays usable when the warehouse is down.
// Only clean loads from a live warehouse are persisted; a partial load
// must not overwrite good extract data with empty sets.
func (s *SnapshotService) persistExtract(ctx context.Context, snap *domain.Snapshot) {
	if s.extractPath == "" || snap.Source == config.StrategySnapshot || len(snap.Issues) > 0 {
		return
	}

	if err := store.WriteSnapshot(ctx, s.extractPath, snap, s.logger); err != nil {
		s.logger.WarnContext(ctx, "failed to refresh local extract",
			slog.String("path", s.extractPath),
			slog.String("error", err.Error()))
	}
}

// loadedDatasets lists the datasets that loaded without an issue.
func loadedDatasets(snap *domain.Snapshot) []string {
	failed := make(map[domain.Dataset]bool, len(snap.Issues))
	for _, issue := range snap.Issues {
		failed[issue.Dataset] = true
	}

	datasets := make([]string, 0, len(domain.Datasets))
	for _, ds := range domain.Datasets {
		if !failed[ds] {
			datasets = append(datasets, string(ds))
		}
	}
	return datasets
}
