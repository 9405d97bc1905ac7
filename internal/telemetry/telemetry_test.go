package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.False(t, cfg.Enabled)
	assert.Equal(t, "updateservice", cfg.ServiceName)
	assert.Equal(t, "dev", cfg.ServiceVersion)
	assert.Equal(t, "localhost:4317", cfg.Endpoint)
	assert.True(t, cfg.Insecure)
	assert.Equal(t, 1.0, cfg.SampleRate)
}

func TestInitDisabled(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.Enabled = false

	shutdown, err := Init(ctx, cfg)
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	// Should be able to call shutdown without error
	err = shutdown(ctx)
	assert.NoError(t, err)

	// Should not be enabled
	assert.False(t, IsEnabled())
}

func TestTracerReturnsNoOp(t *testing.T) {
	// Reset state
	tracer = nil
	enabled = false

	// Without initialization, should return no-op tracer
	tr := Tracer()
	require.NotNil(t, tr)
}

func TestStartSpan(t *testing.T) {
	ctx := context.Background()

	// Even without initialization, StartSpan should work (no-op)
	newCtx, span := StartSpan(ctx, "test.operation")
	require.NotNil(t, newCtx)
	require.NotNil(t, span)

	// Should be able to end the span
	span.End()
}

func TestSpanFromContext(t *testing.T) {
	ctx := context.Background()

	// Should return a span even without active span
	span := SpanFromContext(ctx)
	require.NotNil(t, span)
}

func TestAddEvent(t *testing.T) {
	ctx := context.Background()

	// Should not panic with no active span
	require.NotPanics(t, func() {
		AddEvent(ctx, "test.event")
	})
}

func TestRecordError(t *testing.T) {
	ctx := context.Background()

	// Should not panic with nil error
	require.NotPanics(t, func() {
		RecordError(ctx, nil)
	})

	// Should not panic with error
	require.NotPanics(t, func() {
		RecordError(ctx, errors.New("test error"))
	})
}

func TestSetStatus(t *testing.T) {
	ctx := context.Background()

	// Should not panic
	require.NotPanics(t, func() {
		SetStatus(ctx, codes.Ok, "success")
	})

	require.NotPanics(t, func() {
		SetStatus(ctx, codes.Error, "failed")
	})
}

func TestSetAttributes(t *testing.T) {
	ctx := context.Background()

	// Should not panic
	require.NotPanics(t, func() {
		SetAttributes(ctx, ClientIP("192.168.1.1"))
	})
}

func TestTraceID(t *testing.T) {
	ctx := context.Background()

	// Without active span, should return empty string
	traceID := TraceID(ctx)
	assert.Equal(t, "", traceID)
}

func TestSpanID(t *testing.T) {
	ctx := context.Background()

	// Without active span, should return empty string
	spanID := SpanID(ctx)
	assert.Equal(t, "", spanID)
}

func TestAttributeHelpers(t *testing.T) {
	t.Run("ClientIP", func(t *testing.T) {
		attr := ClientIP("192.168.1.100")
		assert.Equal(t, AttrClientIP, string(attr.Key))
		assert.Equal(t, "192.168.1.100", attr.Value.AsString())
	})

	t.Run("ClientAddr", func(t *testing.T) {
		attr := ClientAddr("192.168.1.100:12345")
		assert.Equal(t, AttrClientAddr, string(attr.Key))
		assert.Equal(t, "192.168.1.100:12345", attr.Value.AsString())
	})

	t.Run("VersionID", func(t *testing.T) {
		attr := VersionID("60f1a9c3b2d4e5f60718293a")
		assert.Equal(t, AttrVersionID, string(attr.Key))
		assert.Equal(t, "60f1a9c3b2d4e5f60718293a", attr.Value.AsString())
	})

	t.Run("VersionTuple", func(t *testing.T) {
		attr := VersionTuple("1.0.2")
		assert.Equal(t, AttrVersionTuple, string(attr.Key))
		assert.Equal(t, "1.0.2", attr.Value.AsString())
	})

	t.Run("UploadID", func(t *testing.T) {
		attr := UploadID("0102030405060708090a0b0c")
		assert.Equal(t, AttrUploadID, string(attr.Key))
		assert.Equal(t, "0102030405060708090a0b0c", attr.Value.AsString())
	})

	t.Run("ConcurrentID", func(t *testing.T) {
		attr := ConcurrentID("0c0b0a090807060504030201")
		assert.Equal(t, AttrConcurrentID, string(attr.Key))
		assert.Equal(t, "0c0b0a090807060504030201", attr.Value.AsString())
	})

	t.Run("ChunkOffset", func(t *testing.T) {
		attr := ChunkOffset(2)
		assert.Equal(t, AttrChunkOffset, string(attr.Key))
		assert.Equal(t, int64(2), attr.Value.AsInt64())
	})

	t.Run("ChunkSize", func(t *testing.T) {
		attr := ChunkSize(16 * 1024)
		assert.Equal(t, AttrChunkSize, string(attr.Key))
		assert.Equal(t, int64(16*1024), attr.Value.AsInt64())
	})

	t.Run("ChunksCount", func(t *testing.T) {
		attr := ChunksCount(3)
		assert.Equal(t, AttrChunksCount, string(attr.Key))
		assert.Equal(t, int64(3), attr.Value.AsInt64())
	})

	t.Run("FileSize", func(t *testing.T) {
		attr := FileSize(48 * 1024)
		assert.Equal(t, AttrFileSize, string(attr.Key))
		assert.Equal(t, int64(48*1024), attr.Value.AsInt64())
	})

	t.Run("JobID", func(t *testing.T) {
		attr := JobID("version-a-b-c")
		assert.Equal(t, AttrJobID, string(attr.Key))
		assert.Equal(t, "version-a-b-c", attr.Value.AsString())
	})

	t.Run("JobKind", func(t *testing.T) {
		attr := JobKind("ProcessUpload")
		assert.Equal(t, AttrJobKind, string(attr.Key))
		assert.Equal(t, "ProcessUpload", attr.Value.AsString())
	})

	t.Run("ManifestOS", func(t *testing.T) {
		attr := ManifestOS(0)
		assert.Equal(t, AttrManifestOS, string(attr.Key))
		assert.Equal(t, int64(0), attr.Value.AsInt64())
	})

	t.Run("ManifestTexture", func(t *testing.T) {
		attr := ManifestTexture(2)
		assert.Equal(t, AttrManifestTexture, string(attr.Key))
		assert.Equal(t, int64(2), attr.Value.AsInt64())
	})

	t.Run("CacheHit", func(t *testing.T) {
		attr := CacheHit(true)
		assert.Equal(t, AttrCacheHit, string(attr.Key))
		assert.True(t, attr.Value.AsBool())
	})

	t.Run("CacheKey", func(t *testing.T) {
		attr := CacheKey("update-1.0.0-1.0.2-0-2")
		assert.Equal(t, AttrCacheKey, string(attr.Key))
		assert.Equal(t, "update-1.0.0-1.0.2-0-2", attr.Value.AsString())
	})

	t.Run("Bucket", func(t *testing.T) {
		attr := Bucket("my-bucket")
		assert.Equal(t, AttrBucket, string(attr.Key))
		assert.Equal(t, "my-bucket", attr.Value.AsString())
	})

	t.Run("StorageKey", func(t *testing.T) {
		attr := StorageKey("path/to/object")
		assert.Equal(t, AttrKey, string(attr.Key))
		assert.Equal(t, "path/to/object", attr.Value.AsString())
	})
}

func TestStartUploadSpan(t *testing.T) {
	ctx := context.Background()

	newCtx, span := StartUploadSpan(ctx, SpanUploadChunk, "0102030405060708090a0b0c")
	require.NotNil(t, newCtx)
	require.NotNil(t, span)
	span.End()

	// With empty upload id
	newCtx2, span2 := StartUploadSpan(ctx, SpanUploadStart, "")
	require.NotNil(t, newCtx2)
	require.NotNil(t, span2)
	span2.End()

	// With additional attributes
	newCtx3, span3 := StartUploadSpan(ctx, SpanUploadChunk, "0102030405060708090a0b0c", ChunkOffset(0), ChunkSize(16*1024))
	require.NotNil(t, newCtx3)
	require.NotNil(t, span3)
	span3.End()
}

func TestStartJobSpan(t *testing.T) {
	ctx := context.Background()

	newCtx, span := StartJobSpan(ctx, SpanJobProcessUpload, "version-a-b-c")
	require.NotNil(t, newCtx)
	require.NotNil(t, span)
	span.End()

	// With additional attributes
	newCtx2, span2 := StartJobSpan(ctx, SpanJobProcessPublish, "version-a", JobKind("ProcessPublish"))
	require.NotNil(t, newCtx2)
	require.NotNil(t, span2)
	span2.End()
}

func TestStartResolveSpan(t *testing.T) {
	ctx := context.Background()

	newCtx, span := StartResolveSpan(ctx, 0, 2)
	require.NotNil(t, newCtx)
	require.NotNil(t, span)
	span.End()
}

func TestStartCacheSpan(t *testing.T) {
	ctx := context.Background()

	newCtx, span := StartCacheSpan(ctx, "lookup")
	require.NotNil(t, newCtx)
	require.NotNil(t, span)
	span.End()

	// With additional attributes
	newCtx2, span2 := StartCacheSpan(ctx, "write", CacheHit(false))
	require.NotNil(t, newCtx2)
	require.NotNil(t, span2)
	span2.End()
}
