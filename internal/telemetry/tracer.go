package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Common attribute keys for the update service's spans.
// These follow OpenTelemetry semantic conventions where applicable; the
// service's own concepts use "update.", "job." and "manifest." prefixes.
const (
	// ========================================================================
	// Client attributes
	// ========================================================================
	AttrClientIP   = "client.ip"
	AttrClientAddr = "client.address"

	// ========================================================================
	// Version / upload attributes
	// ========================================================================
	AttrVersionID    = "update.version_id"
	AttrVersionTuple = "update.version"  // "{major}.{minor}.{revision}"
	AttrUploadID     = "update.upload_id"
	AttrConcurrentID = "update.concurrent_id" // upload epoch
	AttrChunkOffset  = "update.chunk_offset"
	AttrChunkSize    = "update.chunk_size"
	AttrChunksCount  = "update.chunks_count"
	AttrFileSize     = "update.file_size"
	AttrFileCount    = "update.file_count" // files published / listed

	// ========================================================================
	// Job queue attributes
	// ========================================================================
	AttrJobID   = "job.id"
	AttrJobKind = "job.kind" // ProcessUpload, ProcessPublish

	// ========================================================================
	// Manifest resolution attributes
	// ========================================================================
	AttrManifestOS      = "manifest.os"
	AttrManifestTexture = "manifest.texture"
	AttrManifestSource  = "manifest.source_version"
	AttrManifestTarget  = "manifest.target_version"

	// ========================================================================
	// Cache attributes
	// ========================================================================
	AttrCacheHit = "cache.hit"
	AttrCacheKey = "cache.key"

	// ========================================================================
	// Storage backend attributes
	// ========================================================================
	AttrStoreName = "store.name" // input, output
	AttrStoreType = "store.type" // local, aws, gcp
	AttrBucket    = "storage.bucket"
	AttrKey       = "storage.key"
	AttrRegion    = "storage.region"
)

// Span names for operations.
// Format: <component>.<operation>.
const (
	// Upload coordinator spans
	SpanUploadStart = "upload.start"
	SpanUploadChunk = "upload.chunk"

	// Pipeline worker spans
	SpanJobProcessUpload  = "job.process_upload"
	SpanJobProcessPublish = "job.process_publish"

	// Manifest resolver spans
	SpanManifestResolve = "manifest.resolve"

	// Internal storage / cache operations
	SpanCacheLookup   = "cache.lookup"
	SpanCacheWrite    = "cache.write"
	SpanStoreDownload = "store.download"
	SpanStoreUpload   = "store.upload"
	SpanStoreDelete   = "store.delete"
)

// ClientIP returns an attribute for client IP address
func ClientIP(ip string) attribute.KeyValue {
	return attribute.String(AttrClientIP, ip)
}

// ClientAddr returns an attribute for full client address
func ClientAddr(addr string) attribute.KeyValue {
	return attribute.String(AttrClientAddr, addr)
}

// VersionID returns an attribute for a catalog version id
func VersionID(id string) attribute.KeyValue {
	return attribute.String(AttrVersionID, id)
}

// VersionTuple returns an attribute for a "{major}.{minor}.{revision}" string
func VersionTuple(v string) attribute.KeyValue {
	return attribute.String(AttrVersionTuple, v)
}

// UploadID returns an attribute for an upload id
func UploadID(id string) attribute.KeyValue {
	return attribute.String(AttrUploadID, id)
}

// ConcurrentID returns an attribute for an upload's concurrent epoch
func ConcurrentID(id string) attribute.KeyValue {
	return attribute.String(AttrConcurrentID, id)
}

// ChunkOffset returns an attribute for a chunk offset
func ChunkOffset(offset int64) attribute.KeyValue {
	return attribute.Int64(AttrChunkOffset, offset)
}

// ChunkSize returns an attribute for a negotiated chunk size
func ChunkSize(size int64) attribute.KeyValue {
	return attribute.Int64(AttrChunkSize, size)
}

// ChunksCount returns an attribute for the expected chunk count
func ChunksCount(n int64) attribute.KeyValue {
	return attribute.Int64(AttrChunksCount, n)
}

// FileSize returns an attribute for the declared upload file size
func FileSize(size int64) attribute.KeyValue {
	return attribute.Int64(AttrFileSize, size)
}

// FileCount returns an attribute for a published/listed file count
func FileCount(n int) attribute.KeyValue {
	return attribute.Int(AttrFileCount, n)
}

// JobID returns an attribute for a queue job id
func JobID(id string) attribute.KeyValue {
	return attribute.String(AttrJobID, id)
}

// JobKind returns an attribute for a queue job kind
func JobKind(kind string) attribute.KeyValue {
	return attribute.String(AttrJobKind, kind)
}

// ManifestOS returns an attribute for a resolver's OS index
func ManifestOS(os int) attribute.KeyValue {
	return attribute.Int(AttrManifestOS, os)
}

// ManifestTexture returns an attribute for a resolver's texture index
func ManifestTexture(texture int) attribute.KeyValue {
	return attribute.Int(AttrManifestTexture, texture)
}

// ManifestSource returns an attribute for the resolver's source version
func ManifestSource(v string) attribute.KeyValue {
	return attribute.String(AttrManifestSource, v)
}

// ManifestTarget returns an attribute for the resolver's target version
func ManifestTarget(v string) attribute.KeyValue {
	return attribute.String(AttrManifestTarget, v)
}

// CacheHit returns an attribute for cache hit indicator
func CacheHit(hit bool) attribute.KeyValue {
	return attribute.Bool(AttrCacheHit, hit)
}

// CacheKey returns an attribute for a manifest cache key
func CacheKey(key string) attribute.KeyValue {
	return attribute.String(AttrCacheKey, key)
}

// StoreName returns an attribute for the named store (input, output)
func StoreName(name string) attribute.KeyValue {
	return attribute.String(AttrStoreName, name)
}

// StoreType returns an attribute for a store backend type
func StoreType(t string) attribute.KeyValue {
	return attribute.String(AttrStoreType, t)
}

// Bucket returns an attribute for a cloud bucket name
func Bucket(name string) attribute.KeyValue {
	return attribute.String(AttrBucket, name)
}

// StorageKey returns an attribute for a blob object key
func StorageKey(key string) attribute.KeyValue {
	return attribute.String(AttrKey, key)
}

// Region returns an attribute for cloud region
func Region(region string) attribute.KeyValue {
	return attribute.String(AttrRegion, region)
}

// StartUploadSpan starts a span for an upload coordinator operation.
// This is a convenience function that sets common attributes.
func StartUploadSpan(ctx context.Context, name, uploadID string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{}
	if uploadID != "" {
		allAttrs = append(allAttrs, UploadID(uploadID))
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, name, trace.WithAttributes(allAttrs...))
}

// StartJobSpan starts a span for one pipeline job execution.
func StartJobSpan(ctx context.Context, name, jobID string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		JobID(jobID),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, name, trace.WithAttributes(allAttrs...))
}

// StartResolveSpan starts a span for a manifest resolution.
func StartResolveSpan(ctx context.Context, os, texture int, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		ManifestOS(os),
		ManifestTexture(texture),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, SpanManifestResolve, trace.WithAttributes(allAttrs...))
}

// StartCacheSpan starts a span for a manifest cache operation.
func StartCacheSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return StartSpan(ctx, "cache."+operation, trace.WithAttributes(attrs...))
}
