package apiclient

import "time"

// JobPayload is the tagged-union job body, matching pkg/queue.Job's wire
// shape. Only Kind is surfaced; the CLI displays jobs by kind and id.
type JobPayload struct {
	Kind string `json:"kind"`
}

// JobInfo mirrors pkg/queue.Info.
type JobInfo struct {
	ID        string     `json:"id"`
	Job       JobPayload `json:"job"`
	State     string     `json:"state"`
	Progress  float64    `json:"progress"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// ListJobsResponse is ListJobs' response body.
type ListJobsResponse struct {
	Jobs []JobInfo `json:"jobs"`
}

// ListJobs returns every processing and pending job.
func (c *Client) ListJobs() (*ListJobsResponse, error) {
	return getResource[ListJobsResponse](c, "/api/v1/updates/manager/version/jobs")
}
