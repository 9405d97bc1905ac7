// Package pipeline is the update pipeline worker: the two job kinds that
// turn uploaded chunks into a published version — ProcessUpload reassembles
// and verifies a chunked upload, ProcessPublish extracts, classifies,
// compresses, and publishes the result.
package pipeline

import (
	"archive/zip"
	"compress/zlib"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/nextmu/updateservice/internal/logger"
	"github.com/nextmu/updateservice/internal/telemetry"
	"github.com/nextmu/updateservice/pkg/bufpool"
	"github.com/nextmu/updateservice/pkg/catalog"
	"github.com/nextmu/updateservice/pkg/domain"
	"github.com/nextmu/updateservice/pkg/errs"
	"github.com/nextmu/updateservice/pkg/queue"
	"github.com/nextmu/updateservice/pkg/storage"
)

// progressEvery is how often (in files processed) the classify/compress
// stage reports progress to the queue.
const progressEvery = 100

// Worker runs ProcessUpload and ProcessPublish jobs leased from the queue.
type Worker struct {
	catalog *catalog.Catalog
	input   storage.Store
	output  storage.Store
	queue   *queue.Queue
}

// New builds a Worker.
func New(cat *catalog.Catalog, input, output storage.Store, q *queue.Queue) *Worker {
	return &Worker{catalog: cat, input: input, output: output, queue: q}
}

// Run leases jobs in a loop until ctx is canceled. Cancellation is the only
// stop signal, and an in-flight job is allowed to finish.
func (w *Worker) Run(ctx context.Context) {
	jobCtx := context.WithoutCancel(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		lease, err := w.queue.LeaseNext(ctx, 5*time.Second)
		if err != nil {
			logger.Error("pipeline: lease failed", logger.Err(err))
			continue
		}
		if lease == nil {
			continue
		}

		if err := w.process(jobCtx, lease); err != nil {
			logger.Error("pipeline: job failed", logger.JobID(lease.ID), logger.Err(err))
			if failErr := lease.Fail(jobCtx, err); failErr != nil {
				logger.Error("pipeline: failed to record job failure", logger.JobID(lease.ID), logger.Err(failErr))
			}
			continue
		}
		if err := lease.Complete(jobCtx); err != nil {
			logger.Error("pipeline: failed to complete job", logger.JobID(lease.ID), logger.Err(err))
		}
	}
}

func (w *Worker) process(ctx context.Context, lease *queue.Lease) (err error) {
	switch lease.Job.Kind {
	case queue.KindProcessUpload:
		if lease.Job.ProcessUpload == nil {
			return errs.New(errs.Internal, "pipeline: ProcessUpload job missing payload")
		}
		ctx, span := telemetry.StartJobSpan(ctx, telemetry.SpanJobProcessUpload, lease.ID,
			telemetry.JobKind(string(lease.Job.Kind)),
			telemetry.VersionID(lease.Job.ProcessUpload.VersionID.String()))
		defer func() { endJobSpan(ctx, span, err) }()
		return w.ProcessUpload(ctx, lease, *lease.Job.ProcessUpload)
	case queue.KindProcessPublish:
		if lease.Job.ProcessPublish == nil {
			return errs.New(errs.Internal, "pipeline: ProcessPublish job missing payload")
		}
		ctx, span := telemetry.StartJobSpan(ctx, telemetry.SpanJobProcessPublish, lease.ID,
			telemetry.JobKind(string(lease.Job.Kind)),
			telemetry.VersionID(lease.Job.ProcessPublish.VersionID.String()))
		defer func() { endJobSpan(ctx, span, err) }()
		return w.ProcessPublish(ctx, lease, *lease.Job.ProcessPublish)
	default:
		return errs.New(errs.Internal, fmt.Sprintf("pipeline: unknown job kind %q", lease.Job.Kind))
	}
}

func endJobSpan(ctx context.Context, span trace.Span, err error) {
	if err != nil {
		telemetry.RecordError(ctx, err)
	}
	span.End()
}

// ProcessUpload reassembles one upload epoch's chunks, verifies the hash,
// and writes the assembled zip back to the Input store.
func (w *Worker) ProcessUpload(ctx context.Context, lease *queue.Lease, job queue.ProcessUploadPayload) error {
	u, err := w.catalog.FindUpload(ctx, job.UploadID, job.ConcurrentID)
	if err != nil {
		return err
	}
	if u.VersionID != job.VersionID {
		return errs.New(errs.Internal, "pipeline: upload's version_id does not match job")
	}

	if err := w.catalog.CASUploadState(ctx, job.UploadID, job.ConcurrentID, domain.UploadPending, domain.UploadProcessing); err != nil {
		return err
	}

	tmpDir, err := os.MkdirTemp("", "upload-"+job.UploadID.String()+"-*")
	if err != nil {
		return errs.Wrap(errs.Internal, "pipeline: create scratch dir", err)
	}
	defer os.RemoveAll(tmpDir)

	chunksDir := filepath.Join(tmpDir, "chunks")
	prefix := fmt.Sprintf("%s/%s/", job.UploadID.Upper(), strings.ToUpper(u.Hash))
	if err := w.input.DownloadFolder(ctx, prefix, chunksDir, func(frac float64) {
		_ = lease.UpdateProgress(ctx, frac*50)
	}); err != nil {
		return errs.Unavailable("storage", err)
	}

	assembled := filepath.Join(tmpDir, "update.zip")
	if err := concatenateChunks(chunksDir, assembled); err != nil {
		return err
	}
	_ = lease.UpdateProgress(ctx, 90)

	sum, err := sha256File(assembled)
	if err != nil {
		return errs.Wrap(errs.Internal, "pipeline: hash assembled upload", err)
	}
	if sum != u.Hash {
		// State stays PROCESSING so the mismatch is visible to an operator;
		// the failed job is retained and never silently retried.
		return errs.Integrity(fmt.Sprintf("assembled upload hash %s does not match declared hash %s", sum, u.Hash))
	}

	dstKey := fmt.Sprintf("%s.zip", job.VersionID.Upper())
	if err := w.input.UploadFile(ctx, assembled, dstKey, func(frac float64) {
		_ = lease.UpdateProgress(ctx, 90+frac*10)
	}); err != nil {
		return errs.Unavailable("storage", err)
	}

	if err := w.catalog.CASUploadState(ctx, job.UploadID, job.ConcurrentID, domain.UploadProcessing, domain.UploadReady); err != nil {
		return err
	}

	if err := w.catalog.DeleteChunks(ctx, job.UploadID, job.ConcurrentID); err != nil {
		return err
	}
	if err := w.input.DeleteFolder(ctx, prefix); err != nil {
		logger.Warn("pipeline: failed to delete chunk blob prefix", logger.UploadID(job.UploadID.String()), logger.Err(err))
	}
	return nil
}

// concatenateChunks appends every file in chunksDir, in lexical (= numeric,
// since offsets are zero-padded) filename order, into dstPath.
func concatenateChunks(chunksDir, dstPath string) error {
	entries, err := os.ReadDir(chunksDir)
	if err != nil {
		return errs.Wrap(errs.Internal, "pipeline: read chunk dir", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	out, err := os.OpenFile(dstPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return errs.Wrap(errs.Internal, "pipeline: create assembled file", err)
	}
	defer out.Close()

	for _, name := range names {
		if err := appendFile(out, filepath.Join(chunksDir, name)); err != nil {
			return errs.Wrap(errs.Internal, "pipeline: concatenate chunk "+name, err)
		}
	}
	return nil
}

func appendFile(dst *os.File, path string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()
	_, err = bufpool.Copy(dst, src)
	return err
}

func sha256File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ProcessPublish extracts, classifies, compresses, and publishes one
// version's update archive.
func (w *Worker) ProcessPublish(ctx context.Context, lease *queue.Lease, job queue.ProcessPublishPayload) error {
	v, err := w.catalog.FetchVersion(ctx, job.VersionID)
	if err != nil {
		return err
	}
	if v.State == domain.VersionReady {
		return errs.Conflictf("version %s is already published", job.VersionID)
	}

	if err := w.catalog.CASVersionState(ctx, job.VersionID, domain.VersionPending, domain.VersionProcessing); err != nil {
		return err
	}

	tmpDir, err := os.MkdirTemp("", "publish-"+job.VersionID.String()+"-*")
	if err != nil {
		return errs.Wrap(errs.Internal, "pipeline: create scratch dir", err)
	}
	defer os.RemoveAll(tmpDir)

	archivePath := filepath.Join(tmpDir, "update.zip")
	srcKey := fmt.Sprintf("%s.zip", job.VersionID.Upper())
	if err := w.input.DownloadFile(ctx, srcKey, archivePath, func(frac float64) {
		_ = lease.UpdateProgress(ctx, frac*20)
	}); err != nil {
		return errs.Unavailable("storage", err)
	}

	scratchDir := filepath.Join(tmpDir, "scratch")
	if err := extractZip(archivePath, scratchDir); err != nil {
		return err
	}
	_ = lease.UpdateProgress(ctx, 25)

	var relPaths []string
	err = filepath.WalkDir(scratchDir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(scratchDir, p)
		if relErr != nil {
			return relErr
		}
		relPaths = append(relPaths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return errs.Wrap(errs.Internal, "pipeline: enumerate scratch dir", err)
	}

	processedDir := filepath.Join(tmpDir, "processed")
	now := time.Now().UTC()
	var files []domain.UpdateFile
	matched := 0
	for i, rel := range relPaths {
		category, localPath, ok := classify(rel)
		if !ok {
			continue
		}

		file, err := packFile(scratchDir, rel, processedDir, category, localPath, job.VersionID, now)
		if err != nil {
			return err
		}
		files = append(files, file)
		matched++

		if matched%progressEvery == 0 || i == len(relPaths)-1 {
			_ = lease.UpdateProgress(ctx, 20+30*float64(i+1)/float64(len(relPaths)))
		}
	}

	if matched == 0 {
		return errs.New(errs.ValidationError, "empty update folder")
	}

	if err := w.output.UploadFolder(ctx, processedDir, fmt.Sprintf("publish/%s/", job.VersionID.Upper()), func(frac float64) {
		_ = lease.UpdateProgress(ctx, 50+frac*40)
	}); err != nil {
		return errs.Unavailable("storage", err)
	}

	if err := w.catalog.PublishVersion(ctx, job.VersionID, files); err != nil {
		return err
	}
	_ = lease.UpdateProgress(ctx, 100)
	return nil
}

func extractZip(archivePath, destDir string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return errs.Wrap(errs.Internal, "pipeline: open archive", err)
	}
	defer r.Close()

	for _, f := range r.File {
		dest := filepath.Join(destDir, filepath.FromSlash(f.Name))
		if !strings.HasPrefix(dest, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return errs.New(errs.Internal, "pipeline: archive entry escapes scratch dir: "+f.Name)
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(dest, 0755); err != nil {
				return errs.Wrap(errs.Internal, "pipeline: mkdir for archive entry", err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return errs.Wrap(errs.Internal, "pipeline: mkdir for archive entry", err)
		}
		if err := extractZipEntry(f, dest); err != nil {
			return errs.Wrap(errs.Internal, "pipeline: extract "+f.Name, err)
		}
	}
	return nil
}

func extractZipEntry(f *zip.File, dest string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = bufpool.Copy(out, rc)
	return err
}

// packFile reads, CRC-32s, deflates, and names one matched file, writing the
// packed bytes under processedDir/{category}/{file_name}{extension}.
func packFile(scratchDir, rel, processedDir string, category domain.Category, localPath string, versionID domain.ID, now time.Time) (domain.UpdateFile, error) {
	raw, err := os.ReadFile(filepath.Join(scratchDir, filepath.FromSlash(rel)))
	if err != nil {
		return domain.UpdateFile{}, errs.Wrap(errs.Internal, "pipeline: read matched file "+rel, err)
	}

	sum := crc32.ChecksumIEEE(raw)
	crcHex := fmt.Sprintf("%08x", sum)

	fileName := strings.ToUpper(uuid.NewString() + "_" + crcHex)
	fileName = strings.ReplaceAll(fileName, "-", "")

	destDir := filepath.Join(processedDir, category.String())
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return domain.UpdateFile{}, errs.Wrap(errs.Internal, "pipeline: mkdir processed dir", err)
	}
	destPath := filepath.Join(destDir, fileName+domain.PackedExtension)

	out, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return domain.UpdateFile{}, errs.Wrap(errs.Internal, "pipeline: create packed file", err)
	}
	defer out.Close()

	fw, err := zlib.NewWriterLevel(out, zlib.BestCompression)
	if err != nil {
		return domain.UpdateFile{}, errs.Wrap(errs.Internal, "pipeline: create deflate writer", err)
	}
	if _, err := fw.Write(raw); err != nil {
		return domain.UpdateFile{}, errs.Wrap(errs.Internal, "pipeline: deflate packed file", err)
	}
	if err := fw.Close(); err != nil {
		return domain.UpdateFile{}, errs.Wrap(errs.Internal, "pipeline: finalize deflate", err)
	}

	info, err := out.Stat()
	if err != nil {
		return domain.UpdateFile{}, errs.Wrap(errs.Internal, "pipeline: stat packed file", err)
	}

	return domain.UpdateFile{
		VersionID:  versionID,
		Category:   category,
		FileName:   fileName,
		Extension:  domain.PackedExtension,
		LocalPath:  localPath,
		PackedSize: info.Size(),
		FileSize:   int64(len(raw)),
		CRC32:      crcHex,
		CreatedAt:  now,
	}, nil
}
