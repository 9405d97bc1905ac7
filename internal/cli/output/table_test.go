package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTable struct {
	headers []string
	rows    [][]string
}

func (f fakeTable) Headers() []string { return f.headers }
func (f fakeTable) Rows() [][]string  { return f.rows }

func TestPrintTable(t *testing.T) {
	data := fakeTable{
		headers: []string{"Version", "State"},
		rows: [][]string{
			{"1.0.0", "READY"},
			{"1.0.1", "PENDING"},
		},
	}

	var buf bytes.Buffer
	err := PrintTable(&buf, data)
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "VERSION")
	assert.Contains(t, output, "STATE")
	assert.Contains(t, output, "1.0.0")
	assert.Contains(t, output, "READY")
	assert.Contains(t, output, "1.0.1")
	assert.Contains(t, output, "PENDING")
}
