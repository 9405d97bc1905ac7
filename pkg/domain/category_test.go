package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRelevantCategories_Windows_BC7(t *testing.T) {
	set := RelevantCategories(OSWindows, TextureBC7)
	assert.True(t, set[CategoryGeneral])
	assert.True(t, set[CategoryDesktop])
	assert.True(t, set[CategoryWindows])
	assert.True(t, set[CategoryBC7])
	assert.False(t, set[CategoryMobile])
	assert.False(t, set[CategoryAndroid])
}

func TestRelevantCategories_Android_ASTC(t *testing.T) {
	set := RelevantCategories(OSAndroid, TextureASTC)
	assert.True(t, set[CategoryGeneral])
	assert.True(t, set[CategoryMobile])
	assert.True(t, set[CategoryAndroid])
	assert.True(t, set[CategoryASTC])
	assert.False(t, set[CategoryDesktop])
}

func TestValidOS(t *testing.T) {
	assert.True(t, ValidOS(0))
	assert.True(t, ValidOS(5))
	assert.False(t, ValidOS(6))
	assert.False(t, ValidOS(-1))
}

func TestValidTexture(t *testing.T) {
	assert.True(t, ValidTexture(0))
	assert.True(t, ValidTexture(4))
	assert.False(t, ValidTexture(5))
}
