package bytesize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseByteSize(t *testing.T) {
	cases := []struct {
		in   string
		want ByteSize
	}{
		{"1024", 1024},
		{"16Ki", 16 * KiB},
		{"512Ki", 512 * KiB},
		{"512KiB", 512 * KiB},
		{"8Mi", 8 * MiB},
		{"5Gi", 5 * GiB},
		{"1Ti", TiB},
		{"100MB", 100 * MB},
		{"2GB", 2 * GB},
		{"10k", 10 * KB},
		{"64b", 64},
		{"  8Mi  ", 8 * MiB},
		{"1.5Mi", ByteSize(1.5 * float64(MiB))},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseByteSize(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseByteSize_Invalid(t *testing.T) {
	for _, in := range []string{"", "   ", "Mi", "8Qi", "-5Mi", "8 M i", "eight"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseByteSize(in)
			assert.Error(t, err)
		})
	}
}

func TestUnmarshalText(t *testing.T) {
	var b ByteSize
	require.NoError(t, b.UnmarshalText([]byte("8Mi")))
	assert.Equal(t, 8*MiB, b)

	assert.Error(t, b.UnmarshalText([]byte("bogus")))
}

func TestString(t *testing.T) {
	assert.Equal(t, "512B", ByteSize(512).String())
	assert.Equal(t, "16.00KiB", (16 * KiB).String())
	assert.Equal(t, "8.00MiB", (8 * MiB).String())
	assert.Equal(t, "5.00GiB", (5 * GiB).String())
	assert.Equal(t, "1.00TiB", TiB.String())
}

func TestConversions(t *testing.T) {
	b := 8 * MiB
	assert.Equal(t, uint64(8*1024*1024), b.Uint64())
	assert.Equal(t, int64(8*1024*1024), b.Int64())
}
