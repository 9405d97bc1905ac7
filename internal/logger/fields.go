package logger

import (
	"log/slog"
)

// Standard field keys for structured logging.
// These keys are shared across the HTTP API, the gRPC API, the Upload
// Coordinator and the Update Pipeline Worker so log aggregation and
// querying stay consistent regardless of which component emitted a line.
// Use these keys consistently across all log statements.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// Transport & Operation
	// ========================================================================
	KeyProtocol  = "protocol"   // Transport: http, grpc
	KeyOperation = "operation"  // API operation name: version.create, upload.chunk, etc.
	KeyRoute     = "route"      // Matched HTTP route pattern or gRPC full method name
	KeyStatus    = "status"     // Operation/job status code
	KeyStatusMsg = "status_msg" // Human-readable status message

	// ========================================================================
	// Update Catalog
	// ========================================================================
	KeyVersionID = "version_id" // Catalog version identifier
	KeyBumpType  = "bump_type"  // Version bump kind: major, minor, revision
	KeyCategory  = "category"   // Update category: os/texture-quality pairing
	KeyPath      = "path"       // Storage object path/key for a manifest artifact
	KeySize      = "size"       // Artifact size in bytes

	// ========================================================================
	// Chunked Upload I/O
	// ========================================================================
	KeyUploadID     = "upload_id"     // Upload Coordinator identifier
	KeyConcurrentID = "concurrent_id" // Concurrent-epoch identifier for an upload
	KeyOffset       = "offset"        // Chunk offset within the file
	KeyChunkSize    = "chunk_size"    // Negotiated chunk size in bytes
	KeyChunkCount   = "chunk_count"   // Total chunks expected for a file size
	KeyBytesRead    = "bytes_read"    // Actual bytes read for a chunk
	KeyBytesWritten = "bytes_written" // Actual bytes written for a chunk

	// ========================================================================
	// Client Identification
	// ========================================================================
	KeyClientIP  = "client_ip"  // Client IP address
	KeyRequestID = "request_id" // Request correlation ID (chi middleware, gRPC metadata)

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
	KeyErrorCode  = "error_code"  // Numeric error code
	KeySource     = "source"      // Data source: manifest_cache, catalog, input_store, output_store
	KeyAttempt    = "attempt"     // Retry attempt number
	KeyMaxRetries = "max_retries" // Maximum retry attempts

	// ========================================================================
	// Storage Backend
	// ========================================================================
	KeyStoreName = "store_name" // Named store identifier: input, output
	KeyStoreType = "store_type" // Store type: local, aws, gcp
	KeyBucket    = "bucket"     // Cloud bucket name (S3, GCS)
	KeyContainer = "container"  // Cloud container name (Azure Blob)
	KeyObjectKey = "object_key" // Object key in cloud storage
	KeyRegion    = "region"     // Cloud region

	// ========================================================================
	// Catalog Store
	// ========================================================================
	KeyCatalogStore = "catalog_store" // Catalog store name (Mongo database/collection)

	// ========================================================================
	// Manifest Cache
	// ========================================================================
	KeyCacheHit      = "cache_hit"      // Cache hit indicator
	KeyCacheState    = "cache_state"    // Cache entry state: fresh, stale, evicted
	KeyCacheSize     = "cache_size"     // Current cache size
	KeyCacheCapacity = "cache_capacity" // Maximum cache capacity
	KeyEvicted       = "evicted"        // Number of entries evicted

	// ========================================================================
	// Manifest Listing
	// ========================================================================
	KeyEntries    = "entries"     // Number of manifest entries returned
	KeyCursor     = "cursor"      // Pagination cursor/offset for continuation
	KeyFilter     = "filter"      // Listing filter: os, texture quality, etc.
	KeyMaxEntries = "max_entries" // Maximum entries requested

	// ========================================================================
	// Job Queue Leasing
	// ========================================================================
	KeyJobID          = "job_id"           // Job queue job identifier
	KeyJobKind        = "job_kind"         // Job kind: process_upload, process_publish
	KeyLeaseOwner     = "lease_owner"      // Worker identity holding the lease
	KeyLeaseExpiresAt = "lease_expires_at" // Lease expiry timestamp
)

// ============================================================================
// Field constructors for type safety
// These functions provide type-safe construction of slog.Attr values.
// ============================================================================

// ----------------------------------------------------------------------------
// Distributed Tracing
// ----------------------------------------------------------------------------

// TraceID returns a slog.Attr for OpenTelemetry trace ID
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for OpenTelemetry span ID
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// ----------------------------------------------------------------------------
// Transport & Operation
// ----------------------------------------------------------------------------

// Protocol returns a slog.Attr for transport type (http, grpc)
func Protocol(proto string) slog.Attr {
	return slog.String(KeyProtocol, proto)
}

// Operation returns a slog.Attr for the API operation name
func Operation(name string) slog.Attr {
	return slog.String(KeyOperation, name)
}

// Route returns a slog.Attr for the matched route pattern or gRPC method
func Route(route string) slog.Attr {
	return slog.String(KeyRoute, route)
}

// Status returns a slog.Attr for operation/job status code
func Status(code int) slog.Attr {
	return slog.Int(KeyStatus, code)
}

// StatusMsg returns a slog.Attr for human-readable status message
func StatusMsg(msg string) slog.Attr {
	return slog.String(KeyStatusMsg, msg)
}

// ----------------------------------------------------------------------------
// Update Catalog
// ----------------------------------------------------------------------------

// VersionID returns a slog.Attr for a catalog version identifier
func VersionID(id string) slog.Attr {
	return slog.String(KeyVersionID, id)
}

// BumpType returns a slog.Attr for a version bump kind
func BumpType(kind string) slog.Attr {
	return slog.String(KeyBumpType, kind)
}

// Category returns a slog.Attr for an update category
func Category(category string) slog.Attr {
	return slog.String(KeyCategory, category)
}

// Path returns a slog.Attr for a storage object path/key
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// Size returns a slog.Attr for artifact size in bytes
func Size(s int64) slog.Attr {
	return slog.Int64(KeySize, s)
}

// ----------------------------------------------------------------------------
// Chunked Upload I/O
// ----------------------------------------------------------------------------

// UploadID returns a slog.Attr for an Upload Coordinator identifier
func UploadID(id string) slog.Attr {
	return slog.String(KeyUploadID, id)
}

// ConcurrentID returns a slog.Attr for a concurrent-epoch identifier
func ConcurrentID(id string) slog.Attr {
	return slog.String(KeyConcurrentID, id)
}

// Offset returns a slog.Attr for a chunk offset
func Offset(off int64) slog.Attr {
	return slog.Int64(KeyOffset, off)
}

// ChunkSize returns a slog.Attr for a negotiated chunk size
func ChunkSize(size int64) slog.Attr {
	return slog.Int64(KeyChunkSize, size)
}

// ChunkCount returns a slog.Attr for total chunks expected
func ChunkCount(n int) slog.Attr {
	return slog.Int(KeyChunkCount, n)
}

// BytesRead returns a slog.Attr for actual bytes read
func BytesRead(n int) slog.Attr {
	return slog.Int(KeyBytesRead, n)
}

// BytesWritten returns a slog.Attr for actual bytes written
func BytesWritten(n int) slog.Attr {
	return slog.Int(KeyBytesWritten, n)
}

// ----------------------------------------------------------------------------
// Client Identification
// ----------------------------------------------------------------------------

// ClientIP returns a slog.Attr for client IP address
func ClientIP(addr string) slog.Attr {
	return slog.String(KeyClientIP, addr)
}

// RequestID returns a slog.Attr for a request correlation ID
func RequestID(id string) slog.Attr {
	return slog.String(KeyRequestID, id)
}

// ----------------------------------------------------------------------------
// Operation Metadata
// ----------------------------------------------------------------------------

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorCode returns a slog.Attr for numeric error code
func ErrorCode(code int) slog.Attr {
	return slog.Int(KeyErrorCode, code)
}

// Source returns a slog.Attr for data source
func Source(src string) slog.Attr {
	return slog.String(KeySource, src)
}

// Attempt returns a slog.Attr for retry attempt number
func Attempt(n int) slog.Attr {
	return slog.Int(KeyAttempt, n)
}

// MaxRetries returns a slog.Attr for maximum retry attempts
func MaxRetries(n int) slog.Attr {
	return slog.Int(KeyMaxRetries, n)
}

// ----------------------------------------------------------------------------
// Storage Backend
// ----------------------------------------------------------------------------

// StoreName returns a slog.Attr for named store identifier
func StoreName(name string) slog.Attr {
	return slog.String(KeyStoreName, name)
}

// StoreType returns a slog.Attr for store type
func StoreType(t string) slog.Attr {
	return slog.String(KeyStoreType, t)
}

// Bucket returns a slog.Attr for cloud bucket name
func Bucket(name string) slog.Attr {
	return slog.String(KeyBucket, name)
}

// Container returns a slog.Attr for Azure container name
func Container(name string) slog.Attr {
	return slog.String(KeyContainer, name)
}

// ObjectKey returns a slog.Attr for an object key in cloud storage
func ObjectKey(k string) slog.Attr {
	return slog.String(KeyObjectKey, k)
}

// Region returns a slog.Attr for cloud region
func Region(r string) slog.Attr {
	return slog.String(KeyRegion, r)
}

// ----------------------------------------------------------------------------
// Catalog Store
// ----------------------------------------------------------------------------

// CatalogStore returns a slog.Attr for the catalog store name
func CatalogStore(name string) slog.Attr {
	return slog.String(KeyCatalogStore, name)
}

// ----------------------------------------------------------------------------
// Manifest Cache
// ----------------------------------------------------------------------------

// CacheHit returns a slog.Attr for cache hit indicator
func CacheHit(hit bool) slog.Attr {
	return slog.Bool(KeyCacheHit, hit)
}

// CacheState returns a slog.Attr for cache entry state
func CacheState(state string) slog.Attr {
	return slog.String(KeyCacheState, state)
}

// CacheSize returns a slog.Attr for current cache size
func CacheSize(size int64) slog.Attr {
	return slog.Int64(KeyCacheSize, size)
}

// CacheCapacity returns a slog.Attr for maximum cache capacity
func CacheCapacity(capacity int64) slog.Attr {
	return slog.Int64(KeyCacheCapacity, capacity)
}

// Evicted returns a slog.Attr for number of entries evicted
func Evicted(n int) slog.Attr {
	return slog.Int(KeyEvicted, n)
}

// ----------------------------------------------------------------------------
// Manifest Listing
// ----------------------------------------------------------------------------

// Entries returns a slog.Attr for number of manifest entries returned
func Entries(n int) slog.Attr {
	return slog.Int(KeyEntries, n)
}

// Cursor returns a slog.Attr for a pagination cursor/offset
func Cursor(cursor int64) slog.Attr {
	return slog.Int64(KeyCursor, cursor)
}

// Filter returns a slog.Attr for a listing filter
func Filter(f string) slog.Attr {
	return slog.String(KeyFilter, f)
}

// MaxEntries returns a slog.Attr for maximum entries requested
func MaxEntries(n int) slog.Attr {
	return slog.Int(KeyMaxEntries, n)
}

// ----------------------------------------------------------------------------
// Job Queue Leasing
// ----------------------------------------------------------------------------

// JobID returns a slog.Attr for a job queue job identifier
func JobID(id string) slog.Attr {
	return slog.String(KeyJobID, id)
}

// JobKind returns a slog.Attr for a job kind
func JobKind(kind string) slog.Attr {
	return slog.String(KeyJobKind, kind)
}

// LeaseOwner returns a slog.Attr for the worker identity holding a lease
func LeaseOwner(owner string) slog.Attr {
	return slog.String(KeyLeaseOwner, owner)
}
