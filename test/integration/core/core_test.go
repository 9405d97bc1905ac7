//go:build integration

// Package core_test exercises the service's end-to-end flows against real
// MongoDB and Redis containers.
package core_test

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcmongodb "github.com/testcontainers/testcontainers-go/modules/mongodb"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/nextmu/updateservice/pkg/catalog"
	"github.com/nextmu/updateservice/pkg/domain"
	"github.com/nextmu/updateservice/pkg/manifestcache"
	"github.com/nextmu/updateservice/pkg/pipeline"
	"github.com/nextmu/updateservice/pkg/queue"
	"github.com/nextmu/updateservice/pkg/resolver"
	"github.com/nextmu/updateservice/pkg/storage/local"
	"github.com/nextmu/updateservice/pkg/upload"
)

// env bundles every singleton an end-to-end test needs, mirroring
// cmd/updateserver/main.go's wiring order.
type env struct {
	cat         *catalog.Catalog
	queue       *queue.Queue
	coordinator *upload.Coordinator
	worker      *pipeline.Worker
	resolver    *resolver.Resolver
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()

	mongoC, err := tcmongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(mongoC) })
	mongoURI, err := mongoC.ConnectionString(ctx)
	require.NoError(t, err)

	redisC, err := tcredis.Run(ctx, "redis:7")
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(redisC) })
	redisURI, err := redisC.ConnectionString(ctx)
	require.NoError(t, err)

	cat, err := catalog.Connect(ctx, catalog.Config{URI: mongoURI, Database: "updates_test"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = cat.Close(context.Background()) })
	require.NoError(t, cat.EnsureIndexes(ctx))

	opts, err := redis.ParseURL(redisURI)
	require.NoError(t, err)
	rdb := redis.NewClient(opts)
	t.Cleanup(func() { _ = rdb.Close() })

	input, err := local.Config{RootDir: t.TempDir() + "/input"}.Build()
	require.NoError(t, err)
	output, err := local.Config{RootDir: t.TempDir() + "/output"}.Build()
	require.NoError(t, err)

	q := queue.New(rdb, "updates_test")
	cache := manifestcache.New(rdb)

	return &env{
		cat:         cat,
		queue:       q,
		coordinator: upload.New(cat, input, q),
		worker:      pipeline.New(cat, input, output, q),
		resolver:    resolver.New(cat, cache),
	}
}

// runWorkerOnce leases and processes exactly one job, failing the test if
// none is available within the deadline.
func (e *env) runWorkerOnce(t *testing.T, ctx context.Context) {
	t.Helper()
	lease, err := e.queue.LeaseNext(ctx, 5*time.Second)
	require.NoError(t, err)
	require.NotNil(t, lease, "expected a job to be queued")

	var procErr error
	switch lease.Job.Kind {
	case queue.KindProcessUpload:
		procErr = e.worker.ProcessUpload(ctx, lease, *lease.Job.ProcessUpload)
	case queue.KindProcessPublish:
		procErr = e.worker.ProcessPublish(ctx, lease, *lease.Job.ProcessPublish)
	default:
		t.Fatalf("unexpected job kind %q", lease.Job.Kind)
	}
	require.NoError(t, procErr)
	require.NoError(t, lease.Complete(ctx))
}

// TestEmptyCatalogResolve resolves against an empty catalog.
func TestEmptyCatalogResolve(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	m, err := e.resolver.Resolve(ctx, 0, 0, 0, domain.OSWindows, domain.TextureUncompressed)
	require.NoError(t, err)
	require.Equal(t, "0.0.0", m.Version)
	require.Empty(t, m.Files)
}

// TestSequentialVersionBumps allocates a major bump followed by two
// revision bumps and checks the tuples come out sequential.
func TestSequentialVersionBumps(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	v1, err := e.cat.CreateVersion(ctx, domain.BumpMajor, "v1")
	require.NoError(t, err)
	require.Equal(t, "1.0.0", v1.String())
	require.Equal(t, domain.VersionPending, v1.State)

	fetched, err := e.cat.FetchVersion(ctx, v1.VersionID)
	require.NoError(t, err)
	require.Equal(t, "1.0.0", fetched.String())
	count, err := e.cat.CountFiles(ctx, v1.VersionID)
	require.NoError(t, err)
	require.Zero(t, count)

	v2, err := e.cat.CreateVersion(ctx, domain.BumpRevision, "v2")
	require.NoError(t, err)
	require.Equal(t, "1.0.1", v2.String())

	v3, err := e.cat.CreateVersion(ctx, domain.BumpRevision, "v3")
	require.NoError(t, err)
	require.Equal(t, "1.0.2", v3.String())
}

// TestChunkedUploadEnqueuesReassemble drives a 3-chunk 48 KiB
// file with chunk_size=16 KiB, chunks uploaded out of order.
func TestChunkedUploadEnqueuesReassemble(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	v, err := e.cat.CreateVersion(ctx, domain.BumpMajor, "chunked")
	require.NoError(t, err)

	const chunkSize = 16 * 1024
	const fileSize = 48 * 1024
	payload := make([]byte, fileSize)
	for i := range payload {
		payload[i] = byte(i)
	}
	sum := sha256.Sum256(payload)
	hash := hex.EncodeToString(sum[:])

	start, err := e.coordinator.StartUpload(ctx, v.VersionID, hash, chunkSize, fileSize)
	require.NoError(t, err)
	require.Equal(t, []domain.Range{{Start: 0, End: 2}}, start.MissingRanges)

	chunkAt := func(offset int64) []byte {
		return payload[offset*chunkSize : (offset+1)*chunkSize]
	}

	for _, offset := range []int64{2, 0, 1} {
		res, err := e.coordinator.UploadChunk(ctx, start.UploadID, start.ConcurrentID, offset, chunkAt(offset))
		require.NoError(t, err)
		if offset == 1 {
			require.True(t, res.Finished)
		} else {
			require.False(t, res.Finished)
		}
	}

	jobs, err := e.queue.List(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.Equal(t, queue.ProcessUploadJobID(v.VersionID, start.UploadID, start.ConcurrentID), jobs[0].ID)
	require.Equal(t, queue.KindProcessUpload, jobs[0].Job.Kind)

	e.runWorkerOnce(t, ctx)

	finished, err := e.cat.FindUpload(ctx, start.UploadID, start.ConcurrentID)
	require.NoError(t, err)
	require.Equal(t, domain.UploadReady, finished.State)
}

// TestParameterChangeRotatesEpoch restarts an in-flight upload with a
// different hash and checks the epoch rotates and old chunks are gone.
func TestParameterChangeRotatesEpoch(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	v, err := e.cat.CreateVersion(ctx, domain.BumpMajor, "rotate")
	require.NoError(t, err)

	const chunkSize = 16 * 1024
	const fileSize = 48 * 1024
	hashA := hashOfFill(fileSize, 0xAA)

	start, err := e.coordinator.StartUpload(ctx, v.VersionID, hashA, chunkSize, fileSize)
	require.NoError(t, err)

	zero := make([]byte, chunkSize)
	one := make([]byte, chunkSize)
	for i := range one {
		one[i] = 1
	}
	_, err = e.coordinator.UploadChunk(ctx, start.UploadID, start.ConcurrentID, 0, zero)
	require.NoError(t, err)
	_, err = e.coordinator.UploadChunk(ctx, start.UploadID, start.ConcurrentID, 1, one)
	require.NoError(t, err)

	present, err := e.cat.PresentOffsets(ctx, start.UploadID, start.ConcurrentID)
	require.NoError(t, err)
	require.Len(t, present, 2)

	hashB := hashOfFill(fileSize, 0xBB)
	rotated, err := e.coordinator.StartUpload(ctx, v.VersionID, hashB, chunkSize, fileSize)
	require.NoError(t, err)

	require.Equal(t, start.UploadID, rotated.UploadID)
	require.NotEqual(t, start.ConcurrentID, rotated.ConcurrentID)
	require.Equal(t, []domain.Range{{Start: 0, End: 2}}, rotated.MissingRanges)

	presentAfter, err := e.cat.PresentOffsets(ctx, rotated.UploadID, rotated.ConcurrentID)
	require.NoError(t, err)
	require.Empty(t, presentAfter)
}

// TestPublishAndResolveManifest publishes a version with
// general/platform/texture files, then resolve from 0.0.0 for a Windows+BC7
// client.
func TestPublishAndResolveManifest(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	v, err := e.cat.CreateVersion(ctx, domain.BumpMajor, "publish")
	require.NoError(t, err)

	zipBytes := buildZip(t, map[string][]byte{
		"general/a.png":   noisyPayload(1, 700),
		"bc7/b.ktx":       noisyPayload(2, 700),
		"windows/w.dll":   noisyPayload(3, 700),
		"linux/ignore.so": noisyPayload(4, 700),
	})

	const chunkSize = 64 * 1024
	fileSize := int64(len(zipBytes))
	sum := sha256.Sum256(zipBytes)
	hash := hex.EncodeToString(sum[:])

	start, err := e.coordinator.StartUpload(ctx, v.VersionID, hash, chunkSize, fileSize)
	require.NoError(t, err)
	res, err := e.coordinator.UploadChunk(ctx, start.UploadID, start.ConcurrentID, 0, zipBytes)
	require.NoError(t, err)
	require.True(t, res.Finished)

	e.runWorkerOnce(t, ctx) // ProcessUpload

	require.NoError(t, e.queue.Enqueue(ctx, queue.ProcessPublishJobID(v.VersionID), queue.Job{
		Kind:           queue.KindProcessPublish,
		ProcessPublish: &queue.ProcessPublishPayload{VersionID: v.VersionID},
	}))
	e.runWorkerOnce(t, ctx) // ProcessPublish

	published, err := e.cat.FetchVersion(ctx, v.VersionID)
	require.NoError(t, err)
	require.Equal(t, domain.VersionReady, published.State)

	manifest, err := e.resolver.Resolve(ctx, 0, 0, 0, domain.OSWindows, domain.TextureBC7)
	require.NoError(t, err)
	require.Equal(t, v.String(), manifest.Version)
	require.Len(t, manifest.Files, 3)

	byLocalPath := make(map[string]domain.ManifestFile, len(manifest.Files))
	for _, f := range manifest.Files {
		byLocalPath[f.LocalPath] = f
		require.Equal(t, ".eupdz", f.Extension)
		require.Equal(t, v.VersionID.Upper(), f.UrlPath)
	}
	require.Contains(t, byLocalPath, "a.png")
	require.Contains(t, byLocalPath, "b.ktx")
	require.Contains(t, byLocalPath, "w.dll")
	require.NotContains(t, byLocalPath, "ignore.so")
}

// noisyPayload generates n deterministic but incompressible-looking bytes,
// so the assembled zip stays above the minimum upload file size even after
// the archive's own deflate pass.
func noisyPayload(seed uint32, n int) []byte {
	state := seed*2654435761 + 1
	out := make([]byte, n)
	for i := range out {
		state = state*1664525 + 1013904223
		out[i] = byte(state >> 24)
	}
	return out
}

func hashOfFill(size int, b byte) string {
	buf := make([]byte, size)
	for i := range buf {
		buf[i] = b
	}
	sum := sha256.Sum256(buf)
	return hex.EncodeToString(sum[:])
}

func buildZip(t *testing.T, files map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, data := range files {
		fw, err := w.Create(name)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}
