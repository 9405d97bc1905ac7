package bufpool

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, DefaultChunkSize, cfg.ChunkSize)
	assert.Equal(t, DefaultTransferSize, cfg.TransferSize)
	assert.Equal(t, DefaultPartSize, cfg.PartSize)
}

func TestNewPoolNilConfig(t *testing.T) {
	p := NewPool(nil)
	require.NotNil(t, p)
	assert.Equal(t, DefaultChunkSize, p.chunkSize)
	assert.Equal(t, DefaultTransferSize, p.transferSize)
	assert.Equal(t, DefaultPartSize, p.partSize)
}

func TestNewPoolZeroValuesGetDefaults(t *testing.T) {
	p := NewPool(&Config{ChunkSize: 0, TransferSize: 0, PartSize: 0})
	assert.Equal(t, DefaultChunkSize, p.chunkSize)
	assert.Equal(t, DefaultTransferSize, p.transferSize)
	assert.Equal(t, DefaultPartSize, p.partSize)
}

func TestGetSizeClasses(t *testing.T) {
	p := NewPool(nil)

	cases := []struct {
		name    string
		size    int
		wantCap int
	}{
		{"small chunk", 1024, DefaultChunkSize},
		{"exact chunk tier", DefaultChunkSize, DefaultChunkSize},
		{"max upload chunk", DefaultTransferSize, DefaultTransferSize},
		{"between tiers", DefaultChunkSize + 1, DefaultTransferSize},
		{"multipart part", DefaultPartSize, DefaultPartSize},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			buf := p.Get(tc.size)
			assert.Len(t, buf, tc.size)
			assert.Equal(t, tc.wantCap, cap(buf))
			p.Put(buf)
		})
	}
}

func TestGetOversizedNotPooled(t *testing.T) {
	p := NewPool(nil)

	size := DefaultPartSize + 1
	buf := p.Get(size)
	assert.Len(t, buf, size)
	assert.Equal(t, size, cap(buf))

	// Returning it must not poison the pool tiers.
	p.Put(buf)
	next := p.Get(1024)
	assert.Equal(t, DefaultChunkSize, cap(next))
	p.Put(next)
}

func TestPutNil(t *testing.T) {
	p := NewPool(nil)
	assert.NotPanics(t, func() { p.Put(nil) })
}

func TestReuse(t *testing.T) {
	p := NewPool(nil)

	buf := p.Get(DefaultChunkSize)
	buf[0] = 0xAB
	p.Put(buf)

	// A pooled buffer comes back at the requested length regardless of the
	// length it was trimmed to before Put.
	again := p.Get(100)
	assert.Len(t, again, 100)
	assert.Equal(t, DefaultChunkSize, cap(again))
	p.Put(again)
}

func TestConcurrentAccess(t *testing.T) {
	p := NewPool(nil)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				size := 1 << (10 + n%10)
				buf := p.Get(size)
				if len(buf) != size {
					t.Errorf("Get(%d) returned len %d", size, len(buf))
					return
				}
				p.Put(buf)
			}
		}(i)
	}
	wg.Wait()
}

func TestGlobalGetPut(t *testing.T) {
	buf := Get(4096)
	assert.Len(t, buf, 4096)
	Put(buf)
}

func TestCopy(t *testing.T) {
	payload := strings.Repeat("packed-asset-bytes-", 50000)

	var dst bytes.Buffer
	n, err := Copy(&dst, strings.NewReader(payload))
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), n)
	assert.Equal(t, payload, dst.String())
}
