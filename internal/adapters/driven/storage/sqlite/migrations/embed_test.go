package migrations

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUp_Embedded(t *testing.T) {
	ms, err := Up(FS)

	require.NoError(t, err)
	require.NotEmpty(t, ms)
	assert.Equal(t, 1, ms[0].Version)
	assert.Contains(t, ms[0].Script, "CREATE TABLE")
}

func TestUp_OrdersAndSkipsDown(t *testing.T) {
	fsys := fstest.MapFS{
		"010_vectors.up.sql":  {Data: []byte("B")},
		"002_chunks.up.sql":   {Data: []byte("A")},
		"002_chunks.down.sql": {Data: []byte("drop")},
		"README.md":           {Data: []byte("x")},
	}

	ms, err := Up(fsys)

	require.NoError(t, err)
	require.Len(t, ms, 2)
	assert.Equal(t, []int{2, 10}, []int{ms[0].Version, ms[1].Version})
	assert.Equal(t, "A", ms[0].Script)
}

func TestUp_RejectsBadNames(t *testing.T) {
	tests := map[string]fstest.MapFS{
		"no version": {"initial.up.sql": {Data: []byte("x")}},
		"zero":       {"000_initial.up.sql": {Data: []byte("x")}},
		"duplicate": {
			"001_a.up.sql": {Data: []byte("x")},
			"001_b.up.sql": {Data: []byte("y")},
		},
	}
	for name, fsys := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Up(fsys)
			assert.Error(t, err)
		})
	}
}
