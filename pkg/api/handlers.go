package api

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nextmu/updateservice/pkg/catalog"
	"github.com/nextmu/updateservice/pkg/domain"
	"github.com/nextmu/updateservice/pkg/errs"
	"github.com/nextmu/updateservice/pkg/queue"
	"github.com/nextmu/updateservice/pkg/resolver"
)

// versionTuplePattern matches the client version-string path segment:
// `^\d{1,2}\.\d{1,3}\.\d{1,5}$`.
var versionTuplePattern = regexp.MustCompile(`^(\d{1,2})\.(\d{1,3})\.(\d{1,5})$`)

// Handlers implements the HTTP API's handler methods against the core
// components.
type Handlers struct {
	catalog  *catalog.Catalog
	queue    *queue.Queue
	resolver *resolver.Resolver
}

// NewHandlers builds a Handlers.
func NewHandlers(cat *catalog.Catalog, q *queue.Queue, r *resolver.Resolver) *Handlers {
	return &Handlers{catalog: cat, queue: q, resolver: r}
}

// ServersList handles GET /api/v1/updates/servers/list.
func (h *Handlers) ServersList(w http.ResponseWriter, r *http.Request) {
	servers, err := h.catalog.ListServers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	urls := make([]string, len(servers))
	for i, s := range servers {
		urls[i] = s.URL
	}
	writeJSON(w, http.StatusOK, map[string]any{"servers": urls})
}

// UpdatesList handles GET /api/v1/updates/list/:version/:os/:texture/:offset,
// returning the manifest for a client's current version.
func (h *Handlers) UpdatesList(w http.ResponseWriter, r *http.Request) {
	m := versionTuplePattern.FindStringSubmatch(chi.URLParam(r, "version"))
	if m == nil {
		writeValidationError(w, "version", `must match ^\d{1,2}\.\d{1,3}\.\d{1,5}$`)
		return
	}
	major, _ := strconv.Atoi(m[1])
	minor, _ := strconv.Atoi(m[2])
	revision, _ := strconv.Atoi(m[3])

	osVal, err := strconv.Atoi(chi.URLParam(r, "os"))
	if err != nil || !domain.ValidOS(osVal) {
		writeValidationError(w, "os", "must be in [0,5]")
		return
	}
	textureVal, err := strconv.Atoi(chi.URLParam(r, "texture"))
	if err != nil || !domain.ValidTexture(textureVal) {
		writeValidationError(w, "texture", "must be in [0,4]")
		return
	}
	// offset is part of the route shape but carries no resolver semantics;
	// validate its shape only.
	if _, err := strconv.Atoi(chi.URLParam(r, "offset")); err != nil {
		writeValidationError(w, "offset", "must be an integer")
		return
	}

	manifest, err := h.resolver.Resolve(r.Context(), major, minor, revision, domain.OS(osVal), domain.Texture(textureVal))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, manifest)
}

// CreateVersion handles POST /api/v1/updates/manager/version/create.
func (h *Handlers) CreateVersion(w http.ResponseWriter, r *http.Request) {
	var req createVersionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	bump, ok := domain.ParseBumpType(req.Type)
	if !ok {
		writeValidationError(w, "type", "must be one of 0, 1, 2")
		return
	}

	v, err := h.catalog.CreateVersion(r.Context(), bump, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": v.VersionID.String(), "version": v.String()})
}

// EditVersion handles POST /api/v1/updates/manager/version/edit.
func (h *Handlers) EditVersion(w http.ResponseWriter, r *http.Request) {
	var req editVersionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	id, err := domain.ParseID(req.ID)
	if err != nil {
		writeValidationError(w, "id", "malformed id")
		return
	}

	if err := h.catalog.EditVersionDescription(r.Context(), id, req.Description); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// ProcessVersion handles PUT /api/v1/updates/manager/version/process,
// enqueuing the ProcessPublish job for the version.
func (h *Handlers) ProcessVersion(w http.ResponseWriter, r *http.Request) {
	var req processVersionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	id, err := domain.ParseID(req.ID)
	if err != nil {
		writeValidationError(w, "id", "malformed id")
		return
	}

	if _, err := h.catalog.FetchVersion(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	jobID := queue.ProcessPublishJobID(id)
	job := queue.Job{Kind: queue.KindProcessPublish, ProcessPublish: &queue.ProcessPublishPayload{VersionID: id}}
	if err := h.queue.Enqueue(r.Context(), jobID, job); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobId": jobID})
}

// ListVersions handles GET /api/v1/updates/manager/version/list.
func (h *Handlers) ListVersions(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 0)
	if err != nil || page < 0 {
		writeValidationError(w, "page", "must be >= 0")
		return
	}
	size, err := queryInt(r, "size", 20)
	if err != nil || size < 4 || size > 50 {
		writeValidationError(w, "size", "must be in [4,50]")
		return
	}

	versions, total, err := h.catalog.ListVersions(r.Context(), int64(page), int64(size))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"versions": versions,
		"total":    total,
		"page":     page,
		"size":     size,
	})
}

// FetchVersion handles GET /api/v1/updates/manager/version/fetch/:id.
func (h *Handlers) FetchVersion(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		writeValidationError(w, "id", "malformed id")
		return
	}

	v, err := h.catalog.FetchVersion(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	filesCount, err := h.catalog.CountFiles(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":          v.VersionID.String(),
		"version":     v.String(),
		"description": v.Description,
		"state":       v.State,
		"filesCount":  filesCount,
		"createdAt":   v.CreatedAt,
		"updatedAt":   v.UpdatedAt,
	})
}

// ListJobs handles GET /api/v1/updates/manager/version/jobs, the active +
// waiting job list backed by queue.List().
func (h *Handlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.queue.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobs": jobs})
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(strings.TrimSpace(v))
}

func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := decodeJSON(r, dst); err != nil {
		writeValidationError(w, "", "malformed request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeError(w, errs.Validation(firstInvalidField(err), "failed validation"))
		return false
	}
	return true
}
