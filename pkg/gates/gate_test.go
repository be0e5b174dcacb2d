package gates

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prpkit/prpkit/pkg/prp"
)

func TestFromDocument(t *testing.T) {
	doc := prp.Parse(`# PRP: Thing

## Validation Loop
` + "```bash" + `
# Level 1: lint and types
ruff check --fix && mypy .
uv run pytest tests/ -v
` + "```" + `
`)

	gateSet := FromDocument(doc)
	require.Len(t, gateSet, 2)
	assert.Equal(t, "ruff", gateSet[0].Name)
	assert.Equal(t, "ruff check --fix && mypy .", gateSet[0].Command)
	assert.Equal(t, "pytest", gateSet[1].Name)
	assert.Equal(t, "uv run pytest tests/ -v", gateSet[1].Command)
}

func TestFromDocument_NoSection(t *testing.T) {
	doc := prp.Parse("# PRP: Thing\n\n## Goal\nsomething\n")
	assert.Empty(t, FromDocument(doc))
}

func TestFromDocument_MultipleBlocks(t *testing.T) {
	doc := prp.Parse(`# T

## Validation Loop
Level 1:
` + "```bash" + `
go vet ./...
` + "```" + `
Level 2:
` + "```bash" + `
go test ./...
` + "```" + `
`)

	gateSet := FromDocument(doc)
	require.Len(t, gateSet, 2)
	assert.Equal(t, "go vet ./...", gateSet[0].Command)
	assert.Equal(t, "go test ./...", gateSet[1].Command)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gates.toml")
	content := `
[[gate]]
name = "lint"
command = "ruff check --fix && mypy ."

[[gate]]
command = "uv run pytest tests/ -v"
timeout = "5m"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	gateSet, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, gateSet, 2)

	assert.Equal(t, "lint", gateSet[0].Name)
	// Name derived from command when omitted.
	assert.Equal(t, "pytest", gateSet[1].Name)
	assert.Equal(t, 5*time.Minute, gateSet[1].Timeout.Value())
}

func TestLoadFile_MissingCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gates.toml")
	require.NoError(t, os.WriteFile(path, []byte("[[gate]]\nname = \"broken\"\n"), 0644))

	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile("/does/not/exist.toml")
	assert.Error(t, err)
}

func TestNameFromCommand(t *testing.T) {
	tests := []struct {
		command string
		want    string
	}{
		{"ruff check --fix && mypy .", "ruff"},
		{"uv run pytest tests/ -v", "pytest"},
		{"uv run PRPs/scripts/prp_runner.py --prp test", "prp_runner.py"},
		{"go test ./...", "go"},
		{"", "gate"},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			assert.Equal(t, tt.want, nameFromCommand(tt.command))
		})
	}
}
