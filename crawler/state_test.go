package crawler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venue-crawler/models"
)

func TestFileCheckpointerRoundTrip(t *testing.T) {
	cp := &FileCheckpointer{Path: filepath.Join(t.TempDir(), "nested", "state.json")}

	state := NewRunState("https://venues.test/search", "s1")
	state.NextPage = 4
	state.Seen.Add("B")
	state.Seen.Add("A")
	state.Sites = []models.Site{{Name: "B", Rating: 4.5, Reviews: 3}, {Name: "A"}}
	require.NoError(t, cp.Save(state))

	got, err := cp.Load()
	require.NoError(t, err)
	assert.Equal(t, 4, got.NextPage)
	assert.Equal(t, []string{"A", "B"}, got.SeenNames)
	assert.True(t, got.Seen.Contains("A"))
	assert.Equal(t, state.Sites, got.Sites)
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestFileCheckpointerMissingFile(t *testing.T) {
	cp := &FileCheckpointer{Path: filepath.Join(t.TempDir(), "absent.json")}
	got, err := cp.Load()
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestFileCheckpointerCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0644))

	_, err := (&FileCheckpointer{Path: path}).Load()
	assert.Error(t, err)
}

func TestFileCheckpointerLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	cp := &FileCheckpointer{Path: filepath.Join(dir, "state.json")}
	require.NoError(t, cp.Save(NewRunState("u", "s")))
	require.NoError(t, cp.Save(NewRunState("u", "s")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
