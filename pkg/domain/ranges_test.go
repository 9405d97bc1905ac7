package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMissingRanges_Empty(t *testing.T) {
	assert.Equal(t, []Range{{Start: 0, End: 4}}, MissingRanges(nil, 5))
}

func TestMissingRanges_AllPresent(t *testing.T) {
	assert.Empty(t, MissingRanges([]int64{0, 1, 2, 3, 4}, 5))
}

func TestMissingRanges_Scattered(t *testing.T) {
	got := MissingRanges([]int64{1, 2, 5}, 7)
	assert.Equal(t, []Range{{Start: 0, End: 0}, {Start: 3, End: 4}, {Start: 6, End: 6}}, got)
}

func TestMissingRanges_UnorderedInput(t *testing.T) {
	got := MissingRanges([]int64{2, 0, 1}, 3)
	assert.Empty(t, got)
}

func TestMissingRanges_SingleChunk(t *testing.T) {
	assert.Equal(t, []Range{{Start: 0, End: 0}}, MissingRanges(nil, 1))
	assert.Empty(t, MissingRanges([]int64{0}, 1))
}

func TestMissingRanges_RoundTrip(t *testing.T) {
	// fill(missing_ranges(S, N)) ∪ S = {0..N-1}
	present := []int64{0, 3, 4, 7}
	const n = 10
	missing := MissingRanges(present, n)
	filled := FillRanges(missing)

	union := map[int64]bool{}
	for _, o := range present {
		union[o] = true
	}
	for _, o := range filled {
		union[o] = true
	}
	assert.Len(t, union, n)
	for i := int64(0); i < n; i++ {
		assert.True(t, union[i], "offset %d missing from union", i)
	}
}

func TestChunksCount(t *testing.T) {
	assert.Equal(t, int64(3), ChunksCount(48*1024, 16*1024))
	assert.Equal(t, int64(1), ChunksCount(1, 16*1024))
	assert.Equal(t, int64(0), ChunksCount(0, 0))
}

func TestChunkByteLength_ShortFinalChunk(t *testing.T) {
	// 48 KiB file, 16 KiB chunks -> 3 equal chunks
	assert.Equal(t, int64(16*1024), ChunkByteLength(0, 3, 16*1024, 48*1024))
	assert.Equal(t, int64(16*1024), ChunkByteLength(2, 3, 16*1024, 48*1024))

	// 40 KiB file, 16 KiB chunks -> short final chunk of 8 KiB
	assert.Equal(t, int64(16*1024), ChunkByteLength(0, 3, 16*1024, 40*1024))
	assert.Equal(t, int64(8*1024), ChunkByteLength(2, 3, 16*1024, 40*1024))
}

func TestIsPowerOfTwo(t *testing.T) {
	assert.True(t, IsPowerOfTwo(16*1024))
	assert.True(t, IsPowerOfTwo(512*1024))
	assert.False(t, IsPowerOfTwo(0))
	assert.False(t, IsPowerOfTwo(-16))
	assert.False(t, IsPowerOfTwo(3*1024))
}

func TestValidChunkSize_Boundaries(t *testing.T) {
	assert.True(t, ValidChunkSize(MinChunkSize))
	assert.True(t, ValidChunkSize(MaxChunkSize))
	assert.False(t, ValidChunkSize(MinChunkSize/2))
	assert.False(t, ValidChunkSize(MaxChunkSize*2))
}

func TestValidFileSize_Boundaries(t *testing.T) {
	assert.True(t, ValidFileSize(MinFileSize))
	assert.True(t, ValidFileSize(MaxFileSize))
	assert.False(t, ValidFileSize(MinFileSize-1))
	assert.False(t, ValidFileSize(MaxFileSize+1))
}

func TestValidHash(t *testing.T) {
	const validHash = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
	assert.Len(t, validHash, 64)
	assert.True(t, ValidHash(validHash))
	assert.False(t, ValidHash("too-short"))
	assert.False(t, ValidHash(""))
	assert.False(t, ValidHash("0123456789ABCDEF0123456789abcdef0123456789abcdef0123456789abcdef"))
}
