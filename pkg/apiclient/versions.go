package apiclient

import "time"

// Version mirrors the update API's JSON representation of a managed
// version (pkg/domain.Version).
type Version struct {
	VersionID   string    `json:"versionId"`
	Major       int       `json:"major"`
	Minor       int       `json:"minor"`
	Revision    int       `json:"revision"`
	Description string    `json:"description"`
	State       string    `json:"state"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CreateVersionRequest is the body for POST /manager/version/create.
type CreateVersionRequest struct {
	Type        int    `json:"type"`
	Description string `json:"description"`
}

// CreateVersionResponse is CreateVersion's response body.
type CreateVersionResponse struct {
	ID      string `json:"id"`
	Version string `json:"version"`
}

// CreateVersion allocates a new version tuple and returns its id.
func (c *Client) CreateVersion(req CreateVersionRequest) (*CreateVersionResponse, error) {
	return createResource[CreateVersionResponse](c, "/api/v1/updates/manager/version/create", req)
}

// EditVersionRequest is the body for POST /manager/version/edit.
type EditVersionRequest struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

// EditVersionResponse is EditVersion's response body.
type EditVersionResponse struct {
	Success bool `json:"success"`
}

// EditVersion updates a version's description.
func (c *Client) EditVersion(req EditVersionRequest) (*EditVersionResponse, error) {
	return createResource[EditVersionResponse](c, "/api/v1/updates/manager/version/edit", req)
}

// ProcessVersionRequest is the body for PUT /manager/version/process.
type ProcessVersionRequest struct {
	ID string `json:"id"`
}

// ProcessVersionResponse is ProcessVersion's response body.
type ProcessVersionResponse struct {
	JobID string `json:"jobId"`
}

// ProcessVersion enqueues the publish job for a fully-uploaded version.
func (c *Client) ProcessVersion(req ProcessVersionRequest) (*ProcessVersionResponse, error) {
	return updateResource[ProcessVersionResponse](c, "/api/v1/updates/manager/version/process", req)
}

// ListVersionsResponse is ListVersions' response body.
type ListVersionsResponse struct {
	Versions []Version `json:"versions"`
	Total    int64     `json:"total"`
	Page     int       `json:"page"`
	Size     int       `json:"size"`
}

// ListVersions returns one page of the version catalog, newest first.
func (c *Client) ListVersions(page, size int) (*ListVersionsResponse, error) {
	return getResource[ListVersionsResponse](c, resourcePath("/api/v1/updates/manager/version/list?page=%d&size=%d", page, size))
}

// VersionDetail is FetchVersion's response body.
type VersionDetail struct {
	ID          string    `json:"id"`
	Version     string    `json:"version"`
	Description string    `json:"description"`
	State       string    `json:"state"`
	FilesCount  int64     `json:"filesCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// FetchVersion returns one version's detail, including its file count.
func (c *Client) FetchVersion(id string) (*VersionDetail, error) {
	return getResource[VersionDetail](c, resourcePath("/api/v1/updates/manager/version/fetch/%s", id))
}
