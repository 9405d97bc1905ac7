// Package upload is the upload coordinator: the chunked-upload state
// machine attached to one Version. It owns the NONE -> PENDING transition
// and the "concurrent epoch" rotation that lets a client safely restart an
// upload with a different hash or chunk size without ever observing chunks
// from the previous attempt.
package upload

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nextmu/updateservice/internal/logger"
	"github.com/nextmu/updateservice/internal/telemetry"
	"github.com/nextmu/updateservice/pkg/catalog"
	"github.com/nextmu/updateservice/pkg/domain"
	"github.com/nextmu/updateservice/pkg/errs"
	"github.com/nextmu/updateservice/pkg/queue"
	"github.com/nextmu/updateservice/pkg/storage"
)

// Coordinator implements StartUpload/UploadChunk against the catalog, the
// Input blob store, and the job queue.
type Coordinator struct {
	catalog *catalog.Catalog
	input   storage.Store
	queue   *queue.Queue
}

// New builds a Coordinator. input is the transient Input blob store; chunk
// blobs and the reassembled zip both live under it.
func New(cat *catalog.Catalog, input storage.Store, q *queue.Queue) *Coordinator {
	return &Coordinator{catalog: cat, input: input, queue: q}
}

// StartResult is StartUpload's response: the identity to present to the
// client for subsequent UploadChunk calls, and the ranges still owed.
type StartResult struct {
	UploadID      domain.ID
	ConcurrentID  domain.ID
	MissingRanges []domain.Range
}

// blobPrefix is the chunk storage prefix for one upload epoch:
// "{upload_id_upper}/{hash_upper}/".
func blobPrefix(uploadID domain.ID, hash string) string {
	return fmt.Sprintf("%s/%s/", uploadID.Upper(), strings.ToUpper(hash))
}

func chunkKey(uploadID domain.ID, hash string, offset int64) string {
	return fmt.Sprintf("%s%08d.data", blobPrefix(uploadID, hash), offset)
}

// StartUpload upserts the Upload row for versionID: a fresh row when none
// exists, an idempotent resume when (hash, chunk_size) match the stored
// epoch, or an epoch rotation — deleting the old epoch's chunk rows and
// blob prefix — when they don't.
func (c *Coordinator) StartUpload(ctx context.Context, versionID domain.ID, hash string, chunkSize, fileSize int64) (StartResult, error) {
	ctx, span := telemetry.StartUploadSpan(ctx, telemetry.SpanUploadStart, "",
		telemetry.VersionID(versionID.String()),
		telemetry.ChunkSize(chunkSize),
		telemetry.FileSize(fileSize))
	defer span.End()

	if !domain.ValidHash(hash) {
		return StartResult{}, errs.Validation("hash", "must be 64 lowercase hex characters")
	}
	if !domain.ValidChunkSize(chunkSize) {
		return StartResult{}, errs.Validation("chunk_size", "must be a power of two in [16Ki, 512Ki]")
	}
	if !domain.ValidFileSize(fileSize) {
		return StartResult{}, errs.Validation("file_size", "must be in [1Ki, 5Gi]")
	}

	existing, err := c.catalog.FindUploadByVersion(ctx, versionID)
	if errs.KindOf(err) == errs.NotFound {
		now := time.Now().UTC()
		u := domain.Upload{
			UploadID:     domain.NewID(),
			VersionID:    versionID,
			ConcurrentID: domain.NewID(),
			Hash:         hash,
			ChunkSize:    chunkSize,
			FileSize:     fileSize,
			State:        domain.UploadNone,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := c.catalog.InsertUpload(ctx, u); err != nil {
			return StartResult{}, err
		}
		chunksCount := u.ChunksCount()
		return StartResult{
			UploadID:      u.UploadID,
			ConcurrentID:  u.ConcurrentID,
			MissingRanges: domain.MissingRanges(nil, chunksCount),
		}, nil
	}
	if err != nil {
		return StartResult{}, err
	}

	if existing.Hash == hash && existing.ChunkSize == chunkSize {
		present, err := c.catalog.PresentOffsets(ctx, existing.UploadID, existing.ConcurrentID)
		if err != nil {
			return StartResult{}, err
		}
		return StartResult{
			UploadID:      existing.UploadID,
			ConcurrentID:  existing.ConcurrentID,
			MissingRanges: domain.MissingRanges(present, domain.ChunksCount(existing.FileSize, existing.ChunkSize)),
		}, nil
	}

	newEpoch := domain.NewID()
	rotated, err := c.catalog.RotateUploadEpoch(ctx, existing.UploadID, existing.ConcurrentID, newEpoch, hash, chunkSize, fileSize)
	if err != nil {
		return StartResult{}, err
	}
	if err := c.catalog.DeleteChunks(ctx, existing.UploadID, existing.ConcurrentID); err != nil {
		return StartResult{}, err
	}
	if err := c.input.DeleteFolder(ctx, blobPrefix(existing.UploadID, existing.Hash)); err != nil {
		logger.Warn("upload: failed to delete rotated-away blob prefix", logger.UploadID(existing.UploadID.String()), logger.Err(err))
	}

	return StartResult{
		UploadID:      rotated.UploadID,
		ConcurrentID:  rotated.ConcurrentID,
		MissingRanges: domain.MissingRanges(nil, rotated.ChunksCount()),
	}, nil
}

// ChunkResult is UploadChunk's response.
type ChunkResult struct {
	Finished bool
}

// UploadChunk validates and stores one chunk, and — on the last chunk to
// arrive — flips the Upload to PENDING and enqueues its reassemble job.
func (c *Coordinator) UploadChunk(ctx context.Context, uploadID, concurrentID domain.ID, offset int64, data []byte) (ChunkResult, error) {
	ctx, span := telemetry.StartUploadSpan(ctx, telemetry.SpanUploadChunk, uploadID.String(),
		telemetry.ConcurrentID(concurrentID.String()),
		telemetry.ChunkOffset(offset))
	defer span.End()

	u, err := c.catalog.FindUpload(ctx, uploadID, concurrentID)
	if err != nil {
		return ChunkResult{}, err
	}

	chunksCount := u.ChunksCount()
	if offset < 0 || offset >= chunksCount {
		return ChunkResult{}, errs.Validation("offset", fmt.Sprintf("must be in [0, %d)", chunksCount))
	}

	wantLen := domain.ChunkByteLength(offset, chunksCount, u.ChunkSize, u.FileSize)
	if int64(len(data)) != wantLen {
		return ChunkResult{}, errs.Validation("data", fmt.Sprintf("chunk %d must be %d bytes, got %d", offset, wantLen, len(data)))
	}

	key := chunkKey(uploadID, u.Hash, offset)
	if err := c.input.UploadBuffer(ctx, data, key, storage.NoProgress); err != nil {
		return ChunkResult{}, errs.Unavailable("storage", err)
	}

	if err := c.catalog.InsertChunkIfAbsent(ctx, domain.UploadChunk{
		UploadID:     uploadID,
		ConcurrentID: concurrentID,
		Offset:       offset,
		Length:       wantLen,
	}); err != nil {
		return ChunkResult{}, err
	}

	count, err := c.catalog.CountChunks(ctx, uploadID, concurrentID)
	if err != nil {
		return ChunkResult{}, err
	}

	finished := count == chunksCount
	if finished {
		if err := c.catalog.CASUploadState(ctx, uploadID, concurrentID, domain.UploadNone, domain.UploadPending); err != nil {
			// Another chunk request raced us past NONE already; the job was
			// (or will be) enqueued by whichever request won the CAS.
			if errs.KindOf(err) == errs.Conflict {
				return ChunkResult{Finished: true}, nil
			}
			return ChunkResult{}, err
		}

		jobID := queue.ProcessUploadJobID(u.VersionID, uploadID, concurrentID)
		job := queue.Job{
			Kind: queue.KindProcessUpload,
			ProcessUpload: &queue.ProcessUploadPayload{
				VersionID:    u.VersionID,
				UploadID:     uploadID,
				ConcurrentID: concurrentID,
			},
		}
		if err := c.queue.Enqueue(ctx, jobID, job); err != nil {
			return ChunkResult{}, err
		}
	}

	return ChunkResult{Finished: finished}, nil
}
