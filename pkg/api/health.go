package api

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nextmu/updateservice/pkg/catalog"
)

// healthCheckTimeout bounds how long a readiness probe waits on the catalog
// or cache before reporting unhealthy.
const healthCheckTimeout = 5 * time.Second

// healthHandler serves the unauthenticated /health endpoints: liveness is a
// pure process check, readiness pings the catalog and cache dependencies.
type healthHandler struct {
	catalog   *catalog.Catalog
	rdb       *redis.Client
	startedAt time.Time
}

func newHealthHandler(cat *catalog.Catalog, rdb *redis.Client) *healthHandler {
	return &healthHandler{catalog: cat, rdb: rdb, startedAt: time.Now()}
}

type healthResponse struct {
	Status    string         `json:"status"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
	Error     string         `json:"error,omitempty"`
}

func healthyResponse(data map[string]any) healthResponse {
	return healthResponse{Status: "healthy", Timestamp: time.Now().UTC(), Data: data}
}

func unhealthyResponse(errMsg string) healthResponse {
	return healthResponse{Status: "unhealthy", Timestamp: time.Now().UTC(), Error: errMsg}
}

// Liveness handles GET /health: 200 OK as long as the process is serving.
func (h *healthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(h.startedAt)
	writeJSON(w, http.StatusOK, healthyResponse(map[string]any{
		"service":    "updateservice",
		"started_at": h.startedAt.UTC().Format(time.RFC3339),
		"uptime":     uptime.Round(time.Second).String(),
		"uptime_sec": int64(uptime.Seconds()),
	}))
}

// Ready handles GET /health/ready: 200 OK only if the catalog and cache are
// both reachable.
func (h *healthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	if err := h.catalog.Healthcheck(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("catalog: "+err.Error()))
		return
	}
	if err := h.rdb.Ping(ctx).Err(); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("cache: "+err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, healthyResponse(nil))
}
