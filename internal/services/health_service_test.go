package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"washpulse/internal/config"
	"washpulse/internal/store"
)

type fakeStoreChecker struct {
	pingErr  error
	source   string
	attempts []store.StrategyResult
}

func (f *fakeStoreChecker) Ping(ctx context.Context) error   { return f.pingErr }
func (f *fakeStoreChecker) Source() string                   { return f.source }
func (f *fakeStoreChecker) Attempts() []store.StrategyResult { return f.attempts }

type fakeHub struct{ clients int }

func (f *fakeHub) ClientCount() int { return f.clients }

type fakeGate struct{ configured bool }

func (f *fakeGate) Configured() bool { return f.configured }

func newTestHealth(t *testing.T, st StoreChecker, hub ClientCounter, gate GateStatus) *HealthService {
	t.Helper()

	loader := &fakeLoader{snap: warehouseSnapshot()}
	snapshots := NewSnapshotService(loader, nil, config.CacheConfig{Enabled: true, TTL: time.Hour}, "", discardLogger())
	return NewHealthService("1.4.0", "", st, snapshots, hub, gate, discardLogger())
}

func TestHealthCheck(t *testing.T) {
	svc := newTestHealth(t, &fakeStoreChecker{source: config.StrategyMySQL}, &fakeHub{}, &fakeGate{configured: true})

	status := svc.HealthCheck(context.Background())

	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "1.4.0", status.Version)
	assert.False(t, status.Timestamp.IsZero())
}

func TestReadinessCheckAllReady(t *testing.T) {
	svc := newTestHealth(t, &fakeStoreChecker{source: config.StrategyMySQL}, &fakeHub{clients: 2}, &fakeGate{configured: true})

	status := svc.ReadinessCheck(context.Background())

	assert.Equal(t, "ready", status.Status)
	assert.Len(t, status.Services, 4)

	storeHealth, ok := status.Services["store"].(ServiceHealth)
	require.True(t, ok)
	assert.Equal(t, "ready", storeHealth.Status)
	assert.Equal(t, "source: mysql", storeHealth.Message)

	hubHealth, ok := status.Services["websocket"].(ServiceHealth)
	require.True(t, ok)
	assert.Equal(t, "2 clients connected", hubHealth.Message)
}

func TestReadinessCheckStoreDown(t *testing.T) {
	st := &fakeStoreChecker{source: config.StrategyMySQL, pingErr: errors.New("connection reset")}
	svc := newTestHealth(t, st, &fakeHub{}, &fakeGate{configured: true})

	status := svc.ReadinessCheck(context.Background())

	assert.Equal(t, "not_ready", status.Status)
	storeHealth := status.Services["store"].(ServiceHealth)
	assert.Equal(t, "not_ready", storeHealth.Status)
	assert.Equal(t, "connection reset", storeHealth.Message)
}

func TestReadinessCheckDegradedStoreNamesSource(t *testing.T) {
	st := &fakeStoreChecker{
		source: config.StrategySnapshot,
		attempts: []store.StrategyResult{
			{Strategy: config.StrategyMySQL, Err: errors.New("dial timeout")},
			{Strategy: config.StrategyPostgres, Err: errors.New("dial timeout")},
		},
	}
	svc := newTestHealth(t, st, &fakeHub{}, &fakeGate{configured: true})

	status := svc.ReadinessCheck(context.Background())

	storeHealth := status.Services["store"].(ServiceHealth)
	assert.Equal(t, "ready", storeHealth.Status)
	assert.Equal(t, "source: snapshot (2 strategies failed first)", storeHealth.Message)
}

func TestReadinessCheckGateUnconfigured(t *testing.T) {
	svc := newTestHealth(t, &fakeStoreChecker{source: config.StrategyMySQL}, &fakeHub{}, &fakeGate{})

	status := svc.ReadinessCheck(context.Background())

	assert.Equal(t, "not_ready", status.Status)
	gateHealth := status.Services["gate"].(ServiceHealth)
	assert.Equal(t, "gate password not configured", gateHealth.Message)
}

func TestReadinessCheckMissingHub(t *testing.T) {
	svc := newTestHealth(t, &fakeStoreChecker{source: config.StrategyMySQL}, nil, &fakeGate{configured: true})

	status := svc.ReadinessCheck(context.Background())

	assert.Equal(t, "not_ready", status.Status)
	hubHealth := status.Services["websocket"].(ServiceHealth)
	assert.Equal(t, "hub not running", hubHealth.Message)
}

func TestReadinessCheckReportsSnapshotAge(t *testing.T) {
	loader := &fakeLoader{snap: warehouseSnapshot()}
	snapshots := NewSnapshotService(loader, nil, config.CacheConfig{Enabled: true, TTL: time.Hour}, "", discardLogger())
	svc := NewHealthService("1.4.0", "", &fakeStoreChecker{source: config.StrategyMySQL}, snapshots, &fakeHub{}, &fakeGate{configured: true}, discardLogger())

	before := svc.ReadinessCheck(context.Background())
	snapHealth := before.Services["snapshot"].(ServiceHealth)
	assert.Equal(t, "no snapshot loaded yet", snapHealth.Message)

	snapshots.Snapshot(context.Background())

	after := svc.ReadinessCheck(context.Background())
	snapHealth = after.Services["snapshot"].(ServiceHealth)
	assert.Contains(t, snapHealth.Message, "ago")
}

func TestLivenessCheck(t *testing.T) {
	svc := newTestHealth(t, &fakeStoreChecker{source: config.StrategyMySQL}, &fakeHub{}, &fakeGate{configured: true})

	status := svc.LivenessCheck(context.Background())

	assert.Equal(t, "alive", status.Status)
	assert.Contains(t, status.Runtime, "go_version")
	assert.Contains(t, status.Runtime, "goroutines")
}

func TestVersionInfo(t *testing.T) {
	loader := &fakeLoader{snap: warehouseSnapshot()}
	snapshots := NewSnapshotService(loader, nil, config.CacheConfig{Enabled: true, TTL: time.Hour}, "", discardLogger())
	svc := NewHealthService("1.4.0", "2024-03-01T00:00:00Z", &fakeStoreChecker{}, snapshots, &fakeHub{}, &fakeGate{}, discardLogger())

	info := svc.Version()

	assert.Equal(t, "1.4.0", info["version"])
	assert.Contains(t, info, "go_version")
	assert.Contains(t, info, "os")
	assert.Equal(t, "2024-03-01T00:00:00Z", info["build_time"])
}
