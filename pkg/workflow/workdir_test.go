package workflow

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkdirManager_Create(t *testing.T) {
	root := t.TempDir()
	m, err := NewWorkdirManager(root)
	require.NoError(t, err)

	dir, err := m.Create("user-auth")
	require.NoError(t, err)

	assert.Equal(t, dir, m.Path())
	assert.True(t, strings.HasSuffix(dir, "-user-auth"))
	assert.Contains(t, dir, filepath.Join(root, ".prpkit", "workdir"))
	assert.DirExists(t, filepath.Join(dir, "logs"))
}

func TestWorkdirManager_Artifacts(t *testing.T) {
	m, err := NewWorkdirManager(t.TempDir())
	require.NoError(t, err)
	_, err = m.Create("feature")
	require.NoError(t, err)

	require.NoError(t, m.WriteContextPack("# Project Context\n"))
	require.NoError(t, m.WriteDraft("# PRP: Feature\n"))
	require.NoError(t, m.WriteGateReport("- lint: PASS\n"))
	require.NoError(t, m.WriteReview("## Verdict: pass\n"))
	require.NoError(t, m.WriteSummary("# Summary\n"))

	pack, err := m.ReadContextPack()
	require.NoError(t, err)
	assert.Equal(t, "# Project Context\n", pack)

	review, err := m.ReadReview()
	require.NoError(t, err)
	assert.Contains(t, review, "pass")

	assert.True(t, m.HasSummary())
}

func TestWorkdirManager_Attach(t *testing.T) {
	root := t.TempDir()
	m, err := NewWorkdirManager(root)
	require.NoError(t, err)
	dir, err := m.Create("feature")
	require.NoError(t, err)
	require.NoError(t, m.WriteGateReport("- lint: PASS\n"))

	// A second manager attaches to the same run directory.
	other, err := NewWorkdirManager(root)
	require.NoError(t, err)
	require.NoError(t, other.Attach(dir))
	assert.Equal(t, dir, other.Path())

	report, err := other.ReadGateReport()
	require.NoError(t, err)
	assert.Contains(t, report, "PASS")

	assert.Error(t, other.Attach(filepath.Join(root, "missing")))
}

func TestWorkdirManager_WriteRun(t *testing.T) {
	m, err := NewWorkdirManager(t.TempDir())
	require.NoError(t, err)
	dir, err := m.Create("feature")
	require.NoError(t, err)

	require.NoError(t, m.WriteRun(1, "- lint: PASS\n"))
	require.NoError(t, m.WriteRun(2, "- lint: FAIL (exit 1)\n"))

	assert.FileExists(t, filepath.Join(dir, "run_1.md"))
	assert.FileExists(t, filepath.Join(dir, "run_2.md"))
}

func TestWorkdirManager_Logs(t *testing.T) {
	m, err := NewWorkdirManager(t.TempDir())
	require.NoError(t, err)
	_, err = m.Create("feature")
	require.NoError(t, err)

	require.NoError(t, m.WriteLog("pytest.log", []byte("1 passed")))
	assert.FileExists(t, m.LogPath("pytest.log"))

	files, err := m.ListFiles()
	require.NoError(t, err)
	assert.Contains(t, files, filepath.Join("logs", "pytest.log"))
}

func TestWorkdirManager_NoWorkdir(t *testing.T) {
	m, err := NewWorkdirManager(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, m.WriteSummary("x"))
	_, err = m.ReadSummary()
	assert.Error(t, err)
	assert.Empty(t, m.SummaryPath())
	assert.False(t, m.HasSummary())
}

func TestLatestWorkdir(t *testing.T) {
	root := t.TempDir()

	_, err := LatestWorkdir(root)
	assert.Error(t, err)

	m, err := NewWorkdirManager(root)
	require.NoError(t, err)
	dir, err := m.Create("feature")
	require.NoError(t, err)

	latest, err := LatestWorkdir(root)
	require.NoError(t, err)
	assert.Equal(t, dir, latest)
}
