package services

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"washpulse/internal/store"
)

// StoreChecker is the slice of the fact store the health service probes.
type StoreChecker interface {
	Ping(ctx context.Context) error
	Source() string
	Attempts() []store.StrategyResult
}

// ClientCounter reports connected websocket clients.
type ClientCounter interface {
	ClientCount() int
}

// GateStatus reports whether the access gate can issue sessions.
type GateStatus interface {
	Configured() bool
}

// HealthStatus is the health endpoint response.
type HealthStatus struct {
	Status    string         `json:"status"`
	Timestamp time.Time      `json:"timestamp"`
	Version   string         `json:"version"`
	Runtime   map[string]any `json:"runtime,omitempty"`
	Services  map[string]any `json:"services,omitempty"`
}

// ServiceHealth is one dependency's state inside a readiness response.
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthService answers the health, readiness and version endpoints.
type HealthService struct {
	version   string
	buildTime string
	store     StoreChecker
	snapshots *SnapshotService
	hub       ClientCounter
	gate      GateStatus
	startTime time.Time
	logger    *slog.Logger
}

// NewHealthService builds the health service. Dependencies may be nil when
// a surface is not wired (the export CLI has no hub); the readiness check
// reports them instead of panicking.
func NewHealthService(version, buildTime string, st StoreChecker, snapshots *SnapshotService, hub ClientCounter, gate GateStatus, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}

	return &HealthService{
		version:   version,
		buildTime: buildTime,
		store:     st,
		snapshots: snapshots,
		hub:       hub,
		gate:      gate,
		startTime: time.Now(),
		logger:    logger.With(slog.String("component", "health_service")),
	}
}

// HealthCheck returns the quick liveness summary used by load balancers.
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	hs.logger.DebugContext(ctx, "health check",
		slog.String("uptime", time.Since(hs.startTime).String()))

	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
	}
}

// ReadinessCheck probes each dependency and reports not_ready when any
// of them cannot serve.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services:  make(map[string]any),
	}

	status.Services["store"] = hs.checkStoreHealth(ctx)
	status.Services["snapshot"] = hs.checkSnapshotHealth()
	status.Services["gate"] = hs.checkGateHealth()
	status.Services["websocket"] = hs.checkWebSocketHealth()

	for _, service := range status.Services {
		if sh, ok := service.(ServiceHealth); ok && sh.Status != "ready" {
			status.Status = "not_ready"
			break
		}
	}

	return status
}

// LivenessCheck reports process-level liveness with runtime detail.
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]any{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns build and runtime information.
func (hs *HealthService) Version() map[string]any {
	result := map[string]any{
		"version":      hs.version,
		"go_version":   runtime.Version(),
		"os":           runtime.GOOS,
		"arch":         runtime.GOARCH,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}
	if hs.buildTime != "" {
		result["build_time"] = hs.buildTime
	}

	return result
}

// checkStoreHealth pings the warehouse connection. A store serving the
// local extract is still ready; the message names the source so operators
// can tell degraded from primary.
func (hs *HealthService) checkStoreHealth(ctx context.Context) ServiceHealth {
	if hs.store == nil {
		return ServiceHealth{Status: "not_ready", Message: "store not connected"}
	}
	if err := hs.store.Ping(ctx); err != nil {
		return ServiceHealth{Status: "not_ready", Message: err.Error()}
	}

	message := "source: " + hs.store.Source()
	if attempts := hs.store.Attempts(); len(attempts) > 0 {
		message = fmt.Sprintf("%s (%d strategies failed first)", message, len(attempts))
	}
	return ServiceHealth{Status: "ready", Message: message}
}

// checkSnapshotHealth reports the cached snapshot's age. A service that
// has not loaded yet is still ready; the first request triggers the load.
func (hs *HealthService) checkSnapshotHealth() ServiceHealth {
	if hs.snapshots == nil {
		return ServiceHealth{Status: "not_ready", Message: "snapshot service not configured"}
	}

	loadedAt, ok := hs.snapshots.LastLoaded()
	if !ok {
		return ServiceHealth{Status: "ready", Message: "no snapshot loaded yet"}
	}
	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("loaded %s ago", time.Since(loadedAt).Round(time.Second)),
	}
}

// checkGateHealth flags an unconfigured gate. Gated routes answer 503
// until a password is set, so readiness should say why.
func (hs *HealthService) checkGateHealth() ServiceHealth {
	if hs.gate == nil || !hs.gate.Configured() {
		return ServiceHealth{Status: "not_ready", Message: "gate password not configured"}
	}
	return ServiceHealth{Status: "ready"}
}

func (hs *HealthService) checkWebSocketHealth() ServiceHealth {
	if hs.hub == nil {
		return ServiceHealth{Status: "not_ready", Message: "hub not running"}
	}
	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("%d clients connected", hs.hub.ClientCount()),
	}
}
