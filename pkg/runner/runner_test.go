package runner

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_PathWins(t *testing.T) {
	path, err := Resolve(Options{PRP: "demo", PRPPath: "/tmp/other.md", Root: "/proj"})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/other.md", path)
}

func TestResolve_FeatureKey(t *testing.T) {
	path, err := Resolve(Options{PRP: "user-auth", Root: "/proj"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/proj", "PRPs", "user-auth.md"), path)
}

func TestResolve_Neither(t *testing.T) {
	_, err := Resolve(Options{})
	assert.Error(t, err)
}

func TestBuildPrompt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demo.md")
	require.NoError(t, os.WriteFile(path, []byte("# PRP: Demo\n"), 0644))

	prompt, err := BuildPrompt(path)
	require.NoError(t, err)

	assert.Contains(t, prompt, "WORKFLOW GUIDANCE")
	assert.Contains(t, prompt, "# PRP: Demo")
	// The header precedes the PRP body.
	assert.Less(t,
		bytes.Index([]byte(prompt), []byte("WORKFLOW GUIDANCE")),
		bytes.Index([]byte(prompt), []byte("# PRP: Demo")))
}

func TestBuildPrompt_Missing(t *testing.T) {
	_, err := BuildPrompt(filepath.Join(t.TempDir(), "absent.md"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"json", FormatJSON, false},
		{"stream-json", FormatStreamJSON, false},
		{"yaml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBackendFor(t *testing.T) {
	b, err := backendFor("")
	require.NoError(t, err)
	assert.Equal(t, "claude", b.Name())

	b, err = backendFor("cursor")
	require.NoError(t, err)
	assert.Equal(t, "cursor", b.Name())

	_, err = backendFor("gpt")
	assert.Error(t, err)
}

func TestCursorBackend_Headless(t *testing.T) {
	var out bytes.Buffer
	b := &CursorBackend{}

	err := b.Run(context.Background(), &Request{Prompt: "do the thing", Stdout: &out})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "do the thing")
	assert.NotContains(t, out.String(), "INSTRUCTIONS")
}

func TestCursorBackend_Interactive(t *testing.T) {
	var out bytes.Buffer
	b := &CursorBackend{}

	err := b.Run(context.Background(), &Request{Prompt: "do the thing", Interactive: true, Stdout: &out})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "=== PRP LOADED FOR CURSOR ===")
	assert.Contains(t, out.String(), "=== INSTRUCTIONS ===")
}

func TestClaudeBackend_Headless(t *testing.T) {
	var out bytes.Buffer
	// Substitute echo so the test does not need the real CLI.
	b := &ClaudeBackend{Command: "echo"}

	err := b.Run(context.Background(), &Request{
		Prompt: "prompt-body",
		Format: FormatText,
		Stdout: &out,
	})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "-p prompt-body --output-format text")
}

func TestRunner_RunCursor(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "PRPs"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "PRPs", "demo.md"), []byte("# PRP: Demo\n"), 0644))

	var out bytes.Buffer
	r := &Runner{Stdout: &out, Stderr: &out}

	err := r.Run(context.Background(), Options{PRP: "demo", Root: root, Model: "cursor"})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "# PRP: Demo")
}
