package api

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionTuplePattern(t *testing.T) {
	valid := []string{"0.0.0", "1.0.2", "12.345.67890", "99.999.99999"}
	for _, v := range valid {
		assert.NotNil(t, versionTuplePattern.FindStringSubmatch(v), v)
	}

	invalid := []string{"", "1.0", "1.0.0.0", "100.0.0", "1.2345.0", "1.0.123456", "v1.0.0", "1.0.0-rc1"}
	for _, v := range invalid {
		assert.Nil(t, versionTuplePattern.FindStringSubmatch(v), v)
	}
}

func TestVersionTuplePattern_Captures(t *testing.T) {
	m := versionTuplePattern.FindStringSubmatch("12.34.567")
	require.Len(t, m, 4)
	assert.Equal(t, "12", m[1])
	assert.Equal(t, "34", m[2])
	assert.Equal(t, "567", m[3])
}

func TestQueryInt(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/v1/updates/manager/version/list?page=3&size=10", nil)

	page, err := queryInt(r, "page", 0)
	require.NoError(t, err)
	assert.Equal(t, 3, page)

	size, err := queryInt(r, "size", 20)
	require.NoError(t, err)
	assert.Equal(t, 10, size)

	missing, err := queryInt(r, "offset", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, missing)

	bad := httptest.NewRequest("GET", "/?page=abc", nil)
	_, err = queryInt(bad, "page", 0)
	assert.Error(t, err)
}

func TestCreateVersionRequestValidation(t *testing.T) {
	ok := createVersionRequest{Type: 2, Description: "hotfix"}
	assert.NoError(t, validate.Struct(ok))

	badType := createVersionRequest{Type: 3, Description: "hotfix"}
	assert.Error(t, validate.Struct(badType))

	emptyDescription := createVersionRequest{Type: 0}
	assert.Error(t, validate.Struct(emptyDescription))
}

func TestEditVersionRequestValidation(t *testing.T) {
	ok := editVersionRequest{ID: "0123456789abcdef01234567", Description: "x"}
	assert.NoError(t, validate.Struct(ok))

	shortID := editVersionRequest{ID: "abc", Description: "x"}
	assert.Error(t, validate.Struct(shortID))

	nonHex := editVersionRequest{ID: "zzzz56789abcdef012345678", Description: "x"}
	assert.Error(t, validate.Struct(nonHex))
}
