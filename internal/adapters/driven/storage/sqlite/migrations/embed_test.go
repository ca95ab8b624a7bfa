package migrations

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPending_Embedded(t *testing.T) {
	all, err := Pending(FS, 0)
	require.NoError(t, err)
	require.NotEmpty(t, all)
	assert.Equal(t, 1, all[0].Version)
	assert.Equal(t, "001_initial.up.sql", all[0].Name)
	assert.Contains(t, all[0].SQL, "CREATE TABLE")

	none, err := Pending(FS, all[len(all)-1].Version)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPending_OrdersAndFilters(t *testing.T) {
	fsys := fstest.MapFS{
		"010_reports.up.sql":  {Data: []byte("ten")},
		"002_tables.up.sql":   {Data: []byte("two")},
		"002_tables.down.sql": {Data: []byte("undo")},
		"001_initial.up.sql":  {Data: []byte("one")},
		"notes.up.sql":        {Data: []byte("skip")},
		"README.md":           {Data: []byte("skip")},
	}

	got, err := Pending(fsys, 1)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].Version)
	assert.Equal(t, "two", got[0].SQL)
	assert.Equal(t, 10, got[1].Version)
}

func TestPending_DuplicateVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"003_a.up.sql": {Data: []byte("a")},
		"003_b.up.sql": {Data: []byte("b")},
	}

	_, err := Pending(fsys, 0)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate migration version 3")
}
