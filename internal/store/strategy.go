package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"washpulse/internal/config"
)

// ErrNotConfigured marks a strategy that has no DSN or path to try. It is
// recorded as a normal attempt failure so the trail shows every strategy the
// order named, not only the ones with credentials.
var ErrNotConfigured = errors.New("connection strategy not configured")

// Strategy is one way of reaching the fact warehouse. Open either returns a
// pinged connection or an error describing why this strategy cannot serve.
type Strategy interface {
	Name() string
	Open(ctx context.Context) (*sql.DB, error)
}

// StrategyResult records one attempted connection strategy. Err is nil only
// for the attempt that succeeded.
type StrategyResult struct {
	Strategy string
	Duration time.Duration
	Err      error
}

// UnavailableError reports that every configured connection strategy failed.
// Attempts lists the strategies in the order they were tried.
type UnavailableError struct {
	Attempts []StrategyResult
}

func (e *UnavailableError) Error() string {
	if len(e.Attempts) == 0 {
		return "store unavailable: no connection strategies configured"
	}
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %v", a.Strategy, a.Err))
	}
	return "store unavailable: " + strings.Join(parts, "; ")
}

// StrategiesFromConfig builds the ordered strategy list. Unconfigured
// strategies are kept in the list; their Open fails with ErrNotConfigured so
// Connect records the attempt instead of silently skipping it.
func StrategiesFromConfig(cfg *config.Config) []Strategy {
	names := cfg.StrategyNames()
	out := make([]Strategy, 0, len(names))
	for _, name := range names {
		switch name {
		case config.StrategyMySQL:
			out = append(out, &mysqlStrategy{dsn: cfg.Store.MySQLDSN, connectTimeout: cfg.Store.ConnectTimeout})
		case config.StrategyPostgres:
			out = append(out, &postgresStrategy{dsn: cfg.Store.PostgresDSN, connectTimeout: cfg.Store.ConnectTimeout})
		case config.StrategySnapshot:
			out = append(out, &snapshotStrategy{path: cfg.Store.SnapshotPath, connectTimeout: cfg.Store.ConnectTimeout})
		}
	}
	return out
}

type mysqlStrategy struct {
	dsn            string
	connectTimeout time.Duration
}

func (s *mysqlStrategy) Name() string { return config.StrategyMySQL }

func (s *mysqlStrategy) Open(ctx context.Context) (*sql.DB, error) {
	if s.dsn == "" {
		return nil, ErrNotConfigured
	}
	db, err := sql.Open("mysql", s.dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	tunePool(db)
	if err := pingWithTimeout(ctx, db, s.connectTimeout); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return db, nil
}

type postgresStrategy struct {
	dsn            string
	connectTimeout time.Duration
}

func (s *postgresStrategy) Name() string { return config.StrategyPostgres }

func (s *postgresStrategy) Open(ctx context.Context) (*sql.DB, error) {
	if s.dsn == "" {
		return nil, ErrNotConfigured
	}
	db, err := sql.Open("postgres", s.dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	tunePool(db)
	if err := pingWithTimeout(ctx, db, s.connectTimeout); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// snapshotStrategy opens the local SQLite snapshot written by a previous
// successful warehouse pull. It refuses to create an empty database on open;
// a missing file means there is no snapshot to fall back on.
type snapshotStrategy struct {
	path           string
	connectTimeout time.Duration
}

func (s *snapshotStrategy) Name() string { return config.StrategySnapshot }

func (s *snapshotStrategy) Open(ctx context.Context) (*sql.DB, error) {
	if s.path == "" {
		return nil, ErrNotConfigured
	}
	if _, err := os.Stat(s.path); err != nil {
		return nil, fmt.Errorf("snapshot file: %w", err)
	}
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	if err := pingWithTimeout(ctx, db, s.connectTimeout); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping snapshot: %w", err)
	}
	return db, nil
}

func tunePool(db *sql.DB) {
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
}

func pingWithTimeout(ctx context.Context, db *sql.DB, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return db.PingContext(pingCtx)
}
