package prp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScaffold_Defaults(t *testing.T) {
	doc, err := Scaffold(TemplateData{Name: "user-auth"})
	require.NoError(t, err)

	assert.Equal(t, "user-auth", doc.Name)
	assert.Equal(t, "PRP: User Auth", doc.Title)

	// A fresh scaffold lints clean: every required heading present and
	// every section seeded with at least a placeholder body.
	report := doc.Lint()
	assert.True(t, report.OK(), "missing=%v empty=%v", report.Missing, report.Empty)

	// Default gates land in the Validation Loop.
	loop := doc.Section("Validation Loop")
	require.NotNil(t, loop)
	assert.Contains(t, loop.Body, "ruff check --fix && mypy .")
	assert.Contains(t, loop.Body, "uv run pytest tests/ -v")
}

func TestScaffold_NoName(t *testing.T) {
	_, err := Scaffold(TemplateData{})
	assert.Error(t, err)
}

func TestScaffold_Populated(t *testing.T) {
	doc, err := Scaffold(TemplateData{
		Name:            "export-csv",
		Goal:            "Users can export reports as CSV.",
		Why:             []string{"Requested by three enterprise accounts"},
		What:            "An export button on the reports page.",
		SuccessCriteria: []string{"Export completes under 5s for 10k rows"},
		Context: []ContextEntry{
			{Source: "internal/report/render.go", Why: "follow the streaming pattern"},
		},
		Tasks: []string{"Add CSV encoder", "Wire export endpoint"},
		Gates: []string{"go vet ./...", "go test ./..."},
	})
	require.NoError(t, err)

	assert.Contains(t, doc.Section("Goal").Body, "export reports as CSV")
	assert.Contains(t, doc.Section("Why").Body, "enterprise accounts")
	assert.Contains(t, doc.Section("All Needed Context").Body, "internal/report/render.go")
	assert.Contains(t, doc.Section("Implementation Blueprint").Body, "Task 1: Add CSV encoder")
	assert.Contains(t, doc.Section("Implementation Blueprint").Body, "Task 2: Wire export endpoint")
	assert.Contains(t, doc.Section("Validation Loop").Body, "go vet ./...")
	assert.NotContains(t, doc.Section("Validation Loop").Body, "ruff")
}

func TestTitleFromName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"user-auth", "User Auth"},
		{"export_csv", "Export Csv"},
		{"single", "Single"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, titleFromName(tt.name))
	}
}
