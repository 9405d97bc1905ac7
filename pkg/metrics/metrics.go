// Package metrics is the process-wide Prometheus registry: a single
// *prometheus.Registry created at startup, gated by MetricsConfig.Enabled,
// with a /metrics HTTP handler the application shell mounts. The collector
// interfaces are declared here and their Prometheus implementations live in
// pkg/metrics/prometheus, registered through constructor indirection to
// avoid an import cycle. Nil collectors are always safe, so a disabled
// registry costs nothing beyond a nil check per call.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	mu       sync.RWMutex
	enabled  bool
	registry *prometheus.Registry
)

// Init creates the process registry if enabled is true. Call once at
// startup, before any Store/Queue is constructed, so their collector
// constructors see a live registry.
func Init(on bool) {
	mu.Lock()
	defer mu.Unlock()
	enabled = on
	if on {
		registry = prometheus.NewRegistry()
	} else {
		registry = nil
	}
}

// IsEnabled reports whether metrics collection is active.
func IsEnabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return enabled
}

// GetRegistry returns the process registry, or nil if metrics are disabled.
func GetRegistry() *prometheus.Registry {
	mu.RLock()
	defer mu.RUnlock()
	return registry
}

// Handler returns an http.Handler serving the registry in the Prometheus
// exposition format, or nil if metrics are disabled.
func Handler() http.Handler {
	reg := GetRegistry()
	if reg == nil {
		return nil
	}
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
