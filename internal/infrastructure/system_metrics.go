package infrastructure

import (
	"context"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// SystemMetrics records Go runtime health alongside the pipeline metrics so
// the /metrics endpoint carries both.
type SystemMetrics struct {
	goRoutines    metric.Int64Gauge
	heapInUse     metric.Int64Gauge
	heapSystem    metric.Int64Gauge
	gcPause       metric.Float64Histogram
	processUptime metric.Float64Gauge

	startTime time.Time
	lastGC    uint32
}

// NewSystemMetrics registers the runtime instruments on a meter.
func NewSystemMetrics(meter metric.Meter) (*SystemMetrics, error) {
	sm := &SystemMetrics{startTime: time.Now()}
	var err error

	if sm.goRoutines, err = meter.Int64Gauge(
		"system_goroutines",
		metric.WithDescription("Number of active goroutines"),
	); err != nil {
		return nil, err
	}

	if sm.heapInUse, err = meter.Int64Gauge(
		"system_heap_inuse_bytes",
		metric.WithDescription("Heap memory in use"),
		metric.WithUnit("By"),
	); err != nil {
		return nil, err
	}

	if sm.heapSystem, err = meter.Int64Gauge(
		"system_heap_sys_bytes",
		metric.WithDescription("Heap memory obtained from the OS"),
		metric.WithUnit("By"),
	); err != nil {
		return nil, err
	}

	if sm.gcPause, err = meter.Float64Histogram(
		"system_gc_pause_seconds",
		metric.WithDescription("Garbage collection pause duration"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if sm.processUptime, err = meter.Float64Gauge(
		"system_process_uptime_seconds",
		metric.WithDescription("Process uptime in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return sm, nil
}

// Collect samples the runtime and records the gauges once.
func (sm *SystemMetrics) Collect(ctx context.Context) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	sm.goRoutines.Record(ctx, int64(runtime.NumGoroutine()))
	sm.heapInUse.Record(ctx, int64(memStats.HeapInuse))
	sm.heapSystem.Record(ctx, int64(memStats.HeapSys))
	sm.processUptime.Record(ctx, time.Since(sm.startTime).Seconds())

	if memStats.NumGC > sm.lastGC {
		sm.gcPause.Record(ctx, time.Duration(memStats.PauseNs[(memStats.NumGC+255)%256]).Seconds())
		sm.lastGC = memStats.NumGC
	}
}

// Run samples on an interval until ctx is canceled.
func (sm *SystemMetrics) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sm.Collect(ctx)
		}
	}
}
