package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureOutput redirects logger output to a buffer for testing.
// Returns the buffer and a cleanup function to restore original output.
func captureOutput() (*bytes.Buffer, func()) {
	buf := new(bytes.Buffer)

	mu.Lock()
	originalOutput := output
	originalColor := useColor
	output = buf
	useColor = false
	mu.Unlock()

	reconfigure()

	cleanup := func() {
		mu.Lock()
		output = originalOutput
		useColor = originalColor
		mu.Unlock()
		currentLevel.Store(int32(LevelInfo))
		currentFormat.Store("text")
		reconfigure()
	}
	return buf, cleanup
}

func TestLevelFiltering(t *testing.T) {
	t.Run("DebugLevelShowsAllMessages", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("DEBUG")
		Debug("chunk stored", UploadID("a1"), Offset(0))
		Info("upload finished", UploadID("a1"))
		Warn("blob prefix delete failed", UploadID("a1"))
		Error("lease failed", JobID("version-a1"))

		out := buf.String()
		assert.Contains(t, out, "chunk stored")
		assert.Contains(t, out, "upload finished")
		assert.Contains(t, out, "blob prefix delete failed")
		assert.Contains(t, out, "lease failed")
	})

	t.Run("InfoLevelFiltersDebug", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("INFO")
		Debug("chunk stored")
		Info("upload finished")

		out := buf.String()
		assert.NotContains(t, out, "chunk stored")
		assert.Contains(t, out, "upload finished")
	})

	t.Run("ErrorLevelShowsOnlyErrors", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("ERROR")
		Debug("debug line filtered")
		Info("info line filtered")
		Warn("warn line filtered")
		Error("publish transaction aborted")

		out := buf.String()
		assert.NotContains(t, out, "debug line filtered")
		assert.NotContains(t, out, "info line filtered")
		assert.NotContains(t, out, "warn line filtered")
		assert.Contains(t, out, "publish transaction aborted")
	})
}

func TestSetLevel(t *testing.T) {
	t.Run("CaseInsensitive", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("debug")
		Debug("visible")
		assert.Contains(t, buf.String(), "visible")
	})

	t.Run("IgnoresInvalidValues", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("INFO")
		SetLevel("SHOUTING")
		Info("still info level")
		Debug("still filtered")

		out := buf.String()
		assert.Contains(t, out, "still info level")
		assert.NotContains(t, out, "still filtered")
	})
}

func TestStructuredFields(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetLevel("INFO")
	Info("version published",
		VersionID("60f1a9c3b2d4e5f60718293a"),
		ChunkSize(16*1024),
		CacheHit(false),
	)

	out := buf.String()
	assert.Contains(t, out, "version published")
	assert.Contains(t, out, "60f1a9c3b2d4e5f60718293a")
	assert.Contains(t, out, KeyVersionID)
	assert.Contains(t, out, KeyChunkSize)
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "INFO", LevelInfo.String())
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "ERROR", LevelError.String())
	assert.Equal(t, "UNKNOWN", Level(42).String())
}

func TestJSONFormat(t *testing.T) {
	t.Run("ProducesValidJSON", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("INFO")
		SetFormat("json")
		defer SetFormat("text")

		Info("job leased", JobID("version-a-b-c"), JobKind("process_upload"))

		line := strings.TrimSpace(buf.String())
		var decoded map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &decoded))
		assert.Equal(t, "job leased", decoded["msg"])
		assert.Equal(t, "version-a-b-c", decoded[KeyJobID])
		assert.Equal(t, "process_upload", decoded[KeyJobKind])
	})

	t.Run("InvalidFormatIgnored", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("INFO")
		SetFormat("xml")
		Info("still text")

		assert.Contains(t, buf.String(), "still text")
	})
}

func TestContextLogging(t *testing.T) {
	t.Run("LogContextInjectsFields", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("INFO")
		lc := NewLogContext("192.0.2.10")
		lc.RequestID = "req-123"
		lc.Route = "/api/v1/updates/list/{version}/{os}/{texture}/{offset}"
		ctx := WithContext(context.Background(), lc)

		InfoCtx(ctx, "manifest resolved", "files", 3)

		out := buf.String()
		assert.Contains(t, out, "manifest resolved")
		assert.Contains(t, out, "req-123")
		assert.Contains(t, out, "192.0.2.10")
		assert.Contains(t, out, lc.Route)
	})

	t.Run("ContextWithoutLogContextHandled", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("INFO")
		require.NotPanics(t, func() {
			InfoCtx(context.Background(), "no log context")
		})
		assert.Contains(t, buf.String(), "no log context")
	})
}

func TestLogContext(t *testing.T) {
	t.Run("Clone", func(t *testing.T) {
		lc := NewLogContext("192.0.2.10")
		lc.Operation = "upload.chunk"

		clone := lc.Clone()
		clone.Operation = "upload.start"

		assert.Equal(t, "upload.chunk", lc.Operation)
		assert.Equal(t, "upload.start", clone.Operation)
		assert.Equal(t, lc.ClientIP, clone.ClientIP)
	})

	t.Run("CloneNil", func(t *testing.T) {
		var lc *LogContext
		assert.Nil(t, lc.Clone())
	})

	t.Run("WithOperationAndRoute", func(t *testing.T) {
		lc := NewLogContext("192.0.2.10").
			WithOperation("version.create").
			WithRoute("/api/v1/updates/manager/version/create").
			WithRequestID("req-9")

		assert.Equal(t, "version.create", lc.Operation)
		assert.Equal(t, "/api/v1/updates/manager/version/create", lc.Route)
		assert.Equal(t, "req-9", lc.RequestID)
	})

	t.Run("DurationIsNonNegative", func(t *testing.T) {
		lc := NewLogContext("192.0.2.10")
		assert.GreaterOrEqual(t, lc.DurationMs(), 0.0)
	})
}

func TestFieldHelpers(t *testing.T) {
	t.Run("ErrHandlesNil", func(t *testing.T) {
		attr := Err(nil)
		assert.Empty(t, attr.Key)
	})

	t.Run("ErrFormatsError", func(t *testing.T) {
		attr := Err(errors.New("hash mismatch"))
		assert.Equal(t, KeyError, string(attr.Key))
		assert.Equal(t, "hash mismatch", attr.Value.String())
	})

	t.Run("JobID", func(t *testing.T) {
		attr := JobID("version-a-b-c")
		assert.Equal(t, KeyJobID, string(attr.Key))
		assert.Equal(t, "version-a-b-c", attr.Value.String())
	})
}

func TestConcurrentLogging(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetLevel("INFO")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				Info("chunk stored", Offset(int64(j)))
			}
		}(i)
	}
	wg.Wait()

	lines := strings.Count(buf.String(), "chunk stored")
	assert.Equal(t, 16*50, lines)
}

func TestInit(t *testing.T) {
	t.Run("InitWithWriter", func(t *testing.T) {
		buf := new(bytes.Buffer)
		InitWithWriter(buf, "DEBUG", "text", false)

		Debug("writer initialized")
		assert.Contains(t, buf.String(), "writer initialized")

		mu.Lock()
		output = os.Stdout
		mu.Unlock()
		currentLevel.Store(int32(LevelInfo))
		reconfigure()
	})

	t.Run("InitWithEmptyConfig", func(t *testing.T) {
		require.NoError(t, Init(Config{}))
	})

	t.Run("InitRejectsUnwritableFile", func(t *testing.T) {
		err := Init(Config{Output: "/nonexistent-dir/service.log"})
		assert.Error(t, err)
	})
}

func BenchmarkLogDisabled(b *testing.B) {
	buf := new(bytes.Buffer)
	InitWithWriter(buf, "ERROR", "text", false)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Debug("filtered out", Offset(int64(i)))
	}
}

func BenchmarkLogEnabled(b *testing.B) {
	InitWithWriter(io.Discard, "INFO", "text", false)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Info("chunk stored", Offset(int64(i)))
	}
}
