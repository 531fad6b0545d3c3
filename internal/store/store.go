package store

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"washpulse/internal/infrastructure"
)

// Store is an open connection to the fact warehouse, tagged with the name of
// the strategy that produced it and the failures recorded on the way there.
type Store struct {
	db       *sql.DB
	source   string
	attempts []StrategyResult
	logger   *slog.Logger
}

// Connect walks the strategies in order and returns a Store over the first
// one that opens. Each failed attempt is logged, counted and kept on the
// returned Store; when every strategy fails the error is an *UnavailableError
// carrying the full attempt trail.
func Connect(ctx context.Context, strategies []Strategy, logger *slog.Logger, metrics *infrastructure.PipelineMetrics) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	attempts := make([]StrategyResult, 0, len(strategies))
	for _, strategy := range strategies {
		start := time.Now()
		db, err := strategy.Open(ctx)
		elapsed := time.Since(start)

		if err != nil {
			attempts = append(attempts, StrategyResult{
				Strategy: strategy.Name(),
				Duration: elapsed,
				Err:      err,
			})
			infrastructure.RecordStrategyFailure(ctx, metrics, strategy.Name())
			logger.WarnContext(ctx, "store strategy failed",
				"strategy", strategy.Name(),
				"duration_ms", elapsed.Milliseconds(),
				"error", err.Error())
			continue
		}

		logger.InfoContext(ctx, "store connected",
			"strategy", strategy.Name(),
			"duration_ms", elapsed.Milliseconds(),
			"failed_attempts", len(attempts))
		return &Store{
			db:       db,
			source:   strategy.Name(),
			attempts: attempts,
			logger:   logger,
		}, nil
	}

	err := &UnavailableError{Attempts: attempts}
	logger.ErrorContext(ctx, "store unavailable",
		"strategies_tried", len(attempts),
		"error", err.Error())
	return nil, err
}

// DB exposes the underlying connection for the loader.
func (s *Store) DB() *sql.DB { return s.db }

// Source returns the name of the strategy serving this store.
func (s *Store) Source() string { return s.source }

// Attempts returns the failed strategy attempts recorded before this store
// connected.
func (s *Store) Attempts() []StrategyResult {
	out := make([]StrategyResult, len(s.attempts))
	copy(out, s.attempts)
	return out
}

// Ping verifies the connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// ProbeStrategies attempts every strategy independently and reports the
// result of each, success included. Connections opened by a probe are closed
// immediately; this exists for the health surface, not for serving queries.
func ProbeStrategies(ctx context.Context, strategies []Strategy) []StrategyResult {
	results := make([]StrategyResult, 0, len(strategies))
	for _, strategy := range strategies {
		start := time.Now()
		db, err := strategy.Open(ctx)
		result := StrategyResult{
			Strategy: strategy.Name(),
			Duration: time.Since(start),
			Err:      err,
		}
		if db != nil {
			db.Close()
		}
		results = append(results, result)
	}
	return results
}
