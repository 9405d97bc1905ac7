package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/redis/go-redis/v9"

	"github.com/nextmu/updateservice/internal/logger"
	"github.com/nextmu/updateservice/pkg/api/auth"
	"github.com/nextmu/updateservice/pkg/catalog"
)

// capability names required on the manager routes.
const (
	capUpdateEdit = "update:edit"
	capUpdateView = "update:view"
)

// NewRouter builds the chi router for the update distribution HTTP surface.
//
// Routes:
//   - GET  /api/v1/updates/servers/list                                     - unauthenticated
//   - GET  /api/v1/updates/list/{version}/{os}/{texture}/{offset}           - unauthenticated
//   - POST /api/v1/updates/manager/version/create                          - update:edit
//   - POST /api/v1/updates/manager/version/edit                            - update:edit
//   - PUT  /api/v1/updates/manager/version/process                         - update:edit
//   - GET  /api/v1/updates/manager/version/list                            - update:view
//   - GET  /api/v1/updates/manager/version/fetch/{id}                      - update:view
//   - GET  /api/v1/updates/manager/version/jobs                            - update:view
//   - GET  /health                                                         - unauthenticated
//   - GET  /health/ready                                                   - unauthenticated
func NewRouter(h *Handlers, authenticator *auth.Authenticator, cat *catalog.Catalog, rdb *redis.Client) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	health := newHealthHandler(cat, rdb)
	r.Get("/health", health.Liveness)
	r.Get("/health/ready", health.Ready)

	r.Route("/api/v1/updates", func(r chi.Router) {
		r.Get("/servers/list", h.ServersList)
		r.Get("/list/{version}/{os}/{texture}/{offset}", h.UpdatesList)

		r.Route("/manager/version", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(requireCapability(authenticator, capUpdateEdit))
				r.Post("/create", h.CreateVersion)
				r.Post("/edit", h.EditVersion)
				r.Put("/process", h.ProcessVersion)
			})

			r.Group(func(r chi.Router) {
				r.Use(requireCapability(authenticator, capUpdateView))
				r.Get("/list", h.ListVersions)
				r.Get("/fetch/{id}", h.FetchVersion)
				r.Get("/jobs", h.ListJobs)
			})
		})
	})

	return r
}

func isHealthPath(path string) bool {
	return path == "/health" || strings.HasPrefix(path, "/health/")
}

// requestLogger logs requests via the shared logger, suppressing
// healthcheck noise to DEBUG. It attaches a logger.LogContext to the
// request so any downstream handler logging via *Ctx helpers picks up
// trace/request/route correlation fields.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		lc := logger.NewLogContext(r.RemoteAddr)
		lc.RequestID = requestID
		r = r.WithContext(logger.WithContext(r.Context(), lc))

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		duration := time.Since(start)
		route := chi.RouteContext(r.Context()).RoutePattern()
		logArgs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"route", route,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", duration.String(),
		}

		lc.Route = route
		ctx := logger.WithContext(r.Context(), lc)
		if isHealthPath(r.URL.Path) {
			logger.DebugCtx(ctx, "api request completed", logArgs...)
		} else {
			logger.InfoCtx(ctx, "api request completed", logArgs...)
		}
	})
}
