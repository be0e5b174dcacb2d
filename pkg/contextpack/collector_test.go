package contextpack

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProjectFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0644))
}

func TestCollect(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "README.md", "# My Project\n")
	writeProjectFile(t, root, "go.mod", "module example.com/thing\n")
	writeProjectFile(t, root, "docs/guide.md", "# Guide\n")
	writeProjectFile(t, root, "main.go", "package main\n")

	pack, err := NewCollector(root).Collect()
	require.NoError(t, err)

	var paths []string
	for _, f := range pack.Files {
		paths = append(paths, f.Path)
	}

	assert.Contains(t, paths, "README.md")
	assert.Contains(t, paths, "go.mod")
	assert.Contains(t, paths, "docs/guide.md")
	// Source files are not context.
	assert.NotContains(t, paths, "main.go")
}

func TestCollect_Excludes(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "README.md", "readme\n")
	writeProjectFile(t, root, "node_modules/pkg/README.md", "dep readme\n")
	writeProjectFile(t, root, ".prpkit/notes.md", "internal\n")

	c := NewCollector(root)
	c.Includes = append(c.Includes, "**/*.md")

	pack, err := c.Collect()
	require.NoError(t, err)

	for _, f := range pack.Files {
		assert.False(t, strings.HasPrefix(f.Path, "node_modules/"), "collected %s", f.Path)
		assert.False(t, strings.HasPrefix(f.Path, ".prpkit/"), "collected %s", f.Path)
	}
}

func TestCollect_SortedAndDeterministic(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "README.md", "b\n")
	writeProjectFile(t, root, "Makefile", "a\n")

	pack, err := NewCollector(root).Collect()
	require.NoError(t, err)
	require.Len(t, pack.Files, 2)

	assert.Equal(t, "Makefile", pack.Files[0].Path)
	assert.Equal(t, "README.md", pack.Files[1].Path)
}

func TestCollect_TruncatesLargeFiles(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "README.md", strings.Repeat("x", 100))

	c := NewCollector(root)
	c.MaxFileBytes = 10

	pack, err := c.Collect()
	require.NoError(t, err)
	require.Len(t, pack.Files, 1)

	assert.True(t, pack.Files[0].Truncated)
	assert.Len(t, pack.Files[0].Content, 10)
	assert.Equal(t, int64(100), pack.Files[0].Size)
}

func TestPack_Render(t *testing.T) {
	pack := &Pack{
		Root: "/proj",
		Files: []File{
			{Path: "README.md", Content: "# Hello\n"},
		},
	}

	out := pack.Render()
	assert.Contains(t, out, "# Project Context")
	assert.Contains(t, out, "## README.md")
	assert.Contains(t, out, "# Hello")
}

func TestWatchedFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/proj/README.md", true},
		{"/proj/go.mod", true},
		{"/proj/Makefile", true},
		{"/proj/main.go", false},
		{"/proj/data.json", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, watchedFile(tt.path))
		})
	}
}

func TestWatcher_StartStop(t *testing.T) {
	w, err := NewWatcher(t.TempDir(), nil)
	require.NoError(t, err)

	require.NoError(t, w.Start())
	assert.True(t, w.IsRunning())

	// Start is idempotent.
	require.NoError(t, w.Start())

	require.NoError(t, w.Stop())
	assert.False(t, w.IsRunning())
}
