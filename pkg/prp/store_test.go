package prp

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SaveLoad(t *testing.T) {
	root := t.TempDir()
	store := NewStore(root)

	doc, err := Scaffold(TemplateData{Name: "user-auth", Goal: "Add auth."})
	require.NoError(t, err)
	require.NoError(t, store.Save(doc))

	assert.FileExists(t, filepath.Join(root, "PRPs", "user-auth.md"))

	loaded, err := store.Load("user-auth")
	require.NoError(t, err)
	assert.Equal(t, "user-auth", loaded.Name)
	assert.Contains(t, loaded.Section("Goal").Body, "Add auth.")
}

func TestStore_LoadMissing(t *testing.T) {
	store := NewStore(t.TempDir())

	_, err := store.Load("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_LoadPathMissing(t *testing.T) {
	store := NewStore(t.TempDir())

	_, err := store.LoadPath("/does/not/exist.md")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ListEmpty(t *testing.T) {
	store := NewStore(t.TempDir())

	names, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestStore_ListSorted(t *testing.T) {
	root := t.TempDir()
	store := NewStore(root)

	for _, name := range []string{"zeta", "alpha", "mid"} {
		doc, err := Scaffold(TemplateData{Name: name})
		require.NoError(t, err)
		require.NoError(t, store.Save(doc))
	}

	// Non-markdown files and directories are skipped.
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(store.Dir(), "scripts"), 0755))

	names, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, names)
}

func TestStore_Complete(t *testing.T) {
	root := t.TempDir()
	store := NewStore(root)

	doc, err := Scaffold(TemplateData{Name: "done-feature"})
	require.NoError(t, err)
	require.NoError(t, store.Save(doc))

	require.NoError(t, store.Complete("done-feature"))

	assert.NoFileExists(t, store.Resolve("done-feature"))
	assert.FileExists(t, filepath.Join(store.CompletedDir(), "done-feature.md"))

	// Load still finds it, marked completed.
	loaded, err := store.Load("done-feature")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, loaded.Status)

	completed, err := store.ListCompleted()
	require.NoError(t, err)
	assert.Equal(t, []string{"done-feature"}, completed)
}

func TestStore_CompleteMissing(t *testing.T) {
	store := NewStore(t.TempDir())

	err := store.Complete("ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_Exists(t *testing.T) {
	root := t.TempDir()
	store := NewStore(root)

	assert.False(t, store.Exists("thing"))

	doc, err := Scaffold(TemplateData{Name: "thing"})
	require.NoError(t, err)
	require.NoError(t, store.Save(doc))

	assert.True(t, store.Exists("thing"))
}
