package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextmu/updateservice/pkg/domain"
)

func idOf(b byte) domain.ID {
	var id domain.ID
	for i := range id {
		id[i] = b
	}
	return id
}

func TestDedupNewestWins(t *testing.T) {
	older := idOf(1)
	newer := idOf(2)
	createdAt := map[domain.ID]int64{older: 100, newer: 200}

	rows := []domain.UpdateFile{
		{VersionID: older, LocalPath: "a.png", FileName: "OLD_A", Extension: domain.PackedExtension, CRC32: "0000aaaa"},
		{VersionID: newer, LocalPath: "a.png", FileName: "NEW_A", Extension: domain.PackedExtension, CRC32: "0000bbbb"},
		{VersionID: older, LocalPath: "b.ktx", FileName: "OLD_B", Extension: domain.PackedExtension, CRC32: "0000cccc"},
	}

	files := dedupNewestWins(rows, createdAt)
	require.Len(t, files, 2)

	byPath := map[string]domain.ManifestFile{}
	for _, f := range files {
		byPath[f.LocalPath] = f
	}
	assert.Equal(t, "NEW_A", byPath["a.png"].Filename)
	assert.Equal(t, newer.Upper(), byPath["a.png"].UrlPath)
	assert.Equal(t, "OLD_B", byPath["b.ktx"].Filename)
}

func TestDedupNewestWins_OrderIndependent(t *testing.T) {
	older := idOf(1)
	newer := idOf(2)
	createdAt := map[domain.ID]int64{older: 100, newer: 200}

	forward := []domain.UpdateFile{
		{VersionID: older, LocalPath: "a.png", FileName: "OLD"},
		{VersionID: newer, LocalPath: "a.png", FileName: "NEW"},
	}
	reversed := []domain.UpdateFile{forward[1], forward[0]}

	for _, rows := range [][]domain.UpdateFile{forward, reversed} {
		files := dedupNewestWins(rows, createdAt)
		require.Len(t, files, 1)
		assert.Equal(t, "NEW", files[0].Filename)
	}
}

func TestDedupNewestWins_Empty(t *testing.T) {
	files := dedupNewestWins(nil, nil)
	assert.Empty(t, files)
}
