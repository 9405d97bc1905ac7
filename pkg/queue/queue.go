// Package queue is the durable FIFO job queue: at-least-once delivery,
// dedup-by-id enqueue, and per-job progress, backed by Redis List/Hash/Set
// structures instead of an in-process channel so jobs survive a process
// restart.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nextmu/updateservice/pkg/domain"
	"github.com/nextmu/updateservice/pkg/errs"
	"github.com/nextmu/updateservice/pkg/metrics"
)

// Kind tags the two job payload shapes.
type Kind string

const (
	KindProcessUpload  Kind = "ProcessUpload"
	KindProcessPublish Kind = "ProcessPublish"
)

// State is a job's lifecycle state as tracked in its data hash.
type State string

const (
	StatePending    State = "pending"
	StateProcessing State = "processing"
	StateFailed     State = "failed"
)

// ProcessUploadPayload identifies one upload epoch to reassemble into its
// zip.
type ProcessUploadPayload struct {
	VersionID    domain.ID `json:"version_id"`
	UploadID     domain.ID `json:"upload_id"`
	ConcurrentID domain.ID `json:"concurrent_id"`
}

// ProcessPublishPayload identifies one version to extract and publish.
type ProcessPublishPayload struct {
	VersionID domain.ID `json:"version_id"`
}

// Job is the tagged-union payload stored against a job id.
type Job struct {
	Kind           Kind                   `json:"kind"`
	ProcessUpload  *ProcessUploadPayload  `json:"process_upload,omitempty"`
	ProcessPublish *ProcessPublishPayload `json:"process_publish,omitempty"`
}

// ProcessUploadJobID is the canonical id for a reassemble job,
// "version-{version_id}-{upload_id}-{concurrent_id}", so retries of the same
// upload epoch dedup onto one live job.
func ProcessUploadJobID(versionID, uploadID, concurrentID domain.ID) string {
	return fmt.Sprintf("version-%s-%s-%s", versionID, uploadID, concurrentID)
}

// ProcessPublishJobID is the canonical id for a publish job, scoped so at
// most one concurrent publish per version can be live.
func ProcessPublishJobID(versionID domain.ID) string {
	return fmt.Sprintf("version-%s", versionID)
}

// Info is a snapshot of one job's state, returned by List for the
// active+waiting jobs endpoint.
type Info struct {
	ID        string    `json:"id"`
	Job       Job       `json:"job"`
	State     State     `json:"state"`
	Progress  float64   `json:"progress"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Queue is a Redis-backed durable FIFO.
type Queue struct {
	rdb     *redis.Client
	name    string
	metrics metrics.QueueMetrics
}

// New wraps an already-constructed Redis client under key namespace name
// (UPDATES_QUEUE_NAME). The Redis client is a process-singleton shared with
// pkg/manifestcache.
func New(rdb *redis.Client, name string) *Queue {
	return &Queue{rdb: rdb, name: name}
}

// WithMetrics attaches a collector set; a nil m disables instrumentation.
func (q *Queue) WithMetrics(m metrics.QueueMetrics) *Queue {
	q.metrics = m
	return q
}

func (q *Queue) pendingKey() string    { return q.name + ":jobs:pending" }
func (q *Queue) processingKey() string { return q.name + ":jobs:processing" }
func (q *Queue) idsKey() string        { return q.name + ":jobs:ids" }
func (q *Queue) dataKey(id string) string {
	return q.name + ":jobs:data:" + id
}

// Enqueue adds a job under jobID. A no-op if a live (pending/processing) job
// with that id already exists. If a failed job with that id exists, it is
// removed first and then re-enqueued.
func (q *Queue) Enqueue(ctx context.Context, jobID string, job Job) error {
	isMember, err := q.rdb.SIsMember(ctx, q.idsKey(), jobID).Result()
	if err != nil {
		return errs.Unavailable("queue", err)
	}
	if isMember {
		state, err := q.rdb.HGet(ctx, q.dataKey(jobID), "state").Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return errs.Unavailable("queue", err)
		}
		if State(state) != StateFailed {
			// Live job already enqueued or in flight: no-op.
			return nil
		}
		if err := q.removeFailed(ctx, jobID); err != nil {
			return err
		}
	}

	payload, err := json.Marshal(job)
	if err != nil {
		return errs.Wrap(errs.Internal, "queue: marshal job", err)
	}

	now := time.Now().UTC()
	pipe := q.rdb.TxPipeline()
	pipe.SAdd(ctx, q.idsKey(), jobID)
	pipe.HSet(ctx, q.dataKey(jobID), map[string]any{
		"payload":    payload,
		"state":      string(StatePending),
		"progress":   0.0,
		"error":      "",
		"created_at": now.Format(time.RFC3339Nano),
		"updated_at": now.Format(time.RFC3339Nano),
	})
	pipe.LPush(ctx, q.pendingKey(), jobID)
	if _, err := pipe.Exec(ctx); err != nil {
		return errs.Unavailable("queue", err)
	}
	if q.metrics != nil {
		q.metrics.ObserveEnqueue(string(job.Kind))
	}
	return nil
}

// removeFailed clears a job's bookkeeping so Enqueue can re-drive it.
func (q *Queue) removeFailed(ctx context.Context, jobID string) error {
	pipe := q.rdb.TxPipeline()
	pipe.SRem(ctx, q.idsKey(), jobID)
	pipe.Del(ctx, q.dataKey(jobID))
	pipe.LRem(ctx, q.processingKey(), 0, jobID)
	pipe.LRem(ctx, q.pendingKey(), 0, jobID)
	if _, err := pipe.Exec(ctx); err != nil {
		return errs.Unavailable("queue", err)
	}
	return nil
}

// Lease is a handle to one in-flight job, returned by LeaseNext.
type Lease struct {
	q        *Queue
	ID       string
	Job      Job
	leasedAt time.Time
}

// LeaseNext blocks up to timeout for the next pending job, moving it
// atomically from the pending list to the processing list (at-least-once
// delivery: a lease that is never completed or failed stays visible in the
// processing list for operator inspection / manual re-drive).
func (q *Queue) LeaseNext(ctx context.Context, timeout time.Duration) (*Lease, error) {
	jobID, err := q.rdb.BRPopLPush(ctx, q.pendingKey(), q.processingKey(), timeout).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Unavailable("queue", err)
	}

	fields, err := q.rdb.HMGet(ctx, q.dataKey(jobID), "payload", "created_at").Result()
	if err != nil {
		return nil, errs.Unavailable("queue", err)
	}
	raw, _ := fields[0].(string)
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return nil, errs.Wrap(errs.Internal, "queue: unmarshal job", err)
	}

	if err := q.rdb.HSet(ctx, q.dataKey(jobID), "state", string(StateProcessing)).Err(); err != nil {
		return nil, errs.Unavailable("queue", err)
	}

	leasedAt := time.Now()
	if q.metrics != nil {
		if createdAtStr, ok := fields[1].(string); ok {
			if createdAt, err := time.Parse(time.RFC3339Nano, createdAtStr); err == nil {
				q.metrics.ObserveLease(string(job.Kind), leasedAt.Sub(createdAt))
			}
		}
	}

	return &Lease{q: q, ID: jobID, Job: job, leasedAt: leasedAt}, nil
}

// UpdateProgress reports a real-valued percentage in [0, 100]; out-of-range
// values are clamped.
func (l *Lease) UpdateProgress(ctx context.Context, pct float64) error {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	err := l.q.rdb.HSet(ctx, l.q.dataKey(l.ID), map[string]any{
		"progress":   pct,
		"updated_at": time.Now().UTC().Format(time.RFC3339Nano),
	}).Err()
	if err != nil {
		return errs.Unavailable("queue", err)
	}
	return nil
}

// Complete removes the job entirely: its processing-list entry, data hash,
// and dedup-set membership.
func (l *Lease) Complete(ctx context.Context) error {
	pipe := l.q.rdb.TxPipeline()
	pipe.LRem(ctx, l.q.processingKey(), 0, l.ID)
	pipe.Del(ctx, l.q.dataKey(l.ID))
	pipe.SRem(ctx, l.q.idsKey(), l.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return errs.Unavailable("queue", err)
	}
	if l.q.metrics != nil && !l.leasedAt.IsZero() {
		l.q.metrics.ObserveComplete(string(l.Job.Kind), time.Since(l.leasedAt))
	}
	return nil
}

// Fail retains the job for inspection: it records the error and state but
// leaves the processing-list and dedup-set entries intact, so a later
// Enqueue with the same id can clear and re-drive it.
func (l *Lease) Fail(ctx context.Context, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	err := l.q.rdb.HSet(ctx, l.q.dataKey(l.ID), map[string]any{
		"state":      string(StateFailed),
		"error":      msg,
		"updated_at": time.Now().UTC().Format(time.RFC3339Nano),
	}).Err()
	if err != nil {
		return errs.Unavailable("queue", err)
	}
	if l.q.metrics != nil {
		l.q.metrics.ObserveFail(string(l.Job.Kind))
	}
	return nil
}

// List returns every processing and pending job, backing the manager API's
// active + waiting job listing.
func (q *Queue) List(ctx context.Context) ([]Info, error) {
	processing, err := q.rdb.LRange(ctx, q.processingKey(), 0, -1).Result()
	if err != nil {
		return nil, errs.Unavailable("queue", err)
	}
	pending, err := q.rdb.LRange(ctx, q.pendingKey(), 0, -1).Result()
	if err != nil {
		return nil, errs.Unavailable("queue", err)
	}
	if q.metrics != nil {
		q.metrics.RecordDepth(int64(len(pending)), int64(len(processing)))
	}

	ids := make([]string, 0, len(processing)+len(pending))
	ids = append(ids, processing...)
	ids = append(ids, pending...)

	infos := make([]Info, 0, len(ids))
	for _, id := range ids {
		info, ok, err := q.info(ctx, id)
		if err != nil {
			return nil, err
		}
		if ok {
			infos = append(infos, info)
		}
	}
	return infos, nil
}

func (q *Queue) info(ctx context.Context, id string) (Info, bool, error) {
	fields, err := q.rdb.HGetAll(ctx, q.dataKey(id)).Result()
	if err != nil {
		return Info{}, false, errs.Unavailable("queue", err)
	}
	if len(fields) == 0 {
		return Info{}, false, nil
	}

	var job Job
	if raw, ok := fields["payload"]; ok {
		_ = json.Unmarshal([]byte(raw), &job)
	}

	var progress float64
	_, _ = fmt.Sscanf(fields["progress"], "%g", &progress)

	createdAt, _ := time.Parse(time.RFC3339Nano, fields["created_at"])
	updatedAt, _ := time.Parse(time.RFC3339Nano, fields["updated_at"])

	return Info{
		ID:        id,
		Job:       job,
		State:     State(fields["state"]),
		Progress:  progress,
		Error:     fields["error"],
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, true, nil
}
