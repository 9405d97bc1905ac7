package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID_RoundTrip(t *testing.T) {
	id := NewID()
	parsed, err := ParseID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestID_Upper(t *testing.T) {
	id, err := ParseID("0123456789abcdef01234567")
	require.NoError(t, err)
	assert.Equal(t, "0123456789ABCDEF01234567", id.Upper())
}

func TestParseID_Invalid(t *testing.T) {
	_, err := ParseID("not-hex")
	assert.ErrorIs(t, err, ErrInvalidID)

	_, err = ParseID("abcd")
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestID_IsZero(t *testing.T) {
	var id ID
	assert.True(t, id.IsZero())
	assert.False(t, NewID().IsZero())
}
