package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nextmu/updateservice/pkg/domain"
)

func TestClassify_TopLevelCategories(t *testing.T) {
	cases := []struct {
		path     string
		category domain.Category
		local    string
	}{
		{"general/a.png", domain.CategoryGeneral, "a.png"},
		{"bc7/b.ktx", domain.CategoryBC7, "b.ktx"},
		{"windows/w.dll", domain.CategoryWindows, "w.dll"},
		{"mobile/assets/icon.png", domain.CategoryMobile, "assets/icon.png"},
		{"astc/nested/tex.astc", domain.CategoryASTC, "nested/tex.astc"},
	}
	for _, tc := range cases {
		cat, local, ok := classify(tc.path)
		assert.True(t, ok, tc.path)
		assert.Equal(t, tc.category, cat, tc.path)
		assert.Equal(t, tc.local, local, tc.path)
	}
}

func TestClassify_Unmatched(t *testing.T) {
	_, _, ok := classify("readme.txt")
	assert.False(t, ok)
}
