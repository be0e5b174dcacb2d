package workflow

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// WorkdirManager handles phase artifact creation and retrieval.
// Each run gets a timestamped directory under .prpkit/workdir.
type WorkdirManager struct {
	baseDir string
	current string
}

// NewWorkdirManager creates a new workdir manager.
func NewWorkdirManager(baseDir string) (*WorkdirManager, error) {
	if baseDir == "" {
		baseDir = "."
	}

	workdirBase := filepath.Join(baseDir, ".prpkit", "workdir")
	if err := os.MkdirAll(workdirBase, 0755); err != nil {
		return nil, fmt.Errorf("create workdir base: %w", err)
	}

	return &WorkdirManager{
		baseDir: workdirBase,
	}, nil
}

// Create creates a new workdir for a run.
func (m *WorkdirManager) Create(name string) (string, error) {
	// Format: YYYY-MM-DD-HHMM-name
	timestamp := time.Now().Format("2006-01-02-1504")
	dirname := timestamp + "-" + name

	m.current = filepath.Join(m.baseDir, dirname)
	if err := os.MkdirAll(m.current, 0755); err != nil {
		return "", fmt.Errorf("create workdir: %w", err)
	}

	logsDir := filepath.Join(m.current, "logs")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return "", fmt.Errorf("create logs dir: %w", err)
	}

	return m.current, nil
}

// Attach points the manager at an existing workdir, typically one
// recorded in a saved session by another process.
func (m *WorkdirManager) Attach(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("attach workdir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("attach workdir: %s is not a directory", dir)
	}
	m.current = dir
	return nil
}

// Path returns the current workdir path.
func (m *WorkdirManager) Path() string {
	return m.current
}

// WriteContextPack writes context-pack.md.
func (m *WorkdirManager) WriteContextPack(content string) error {
	return m.writeFile("context-pack.md", content)
}

// ReadContextPack reads context-pack.md.
func (m *WorkdirManager) ReadContextPack() (string, error) {
	return m.readFile("context-pack.md")
}

// WriteDraft writes prp-draft.md.
func (m *WorkdirManager) WriteDraft(content string) error {
	return m.writeFile("prp-draft.md", content)
}

// ReadDraft reads prp-draft.md.
func (m *WorkdirManager) ReadDraft() (string, error) {
	return m.readFile("prp-draft.md")
}

// WriteGateReport writes gate-report.md.
func (m *WorkdirManager) WriteGateReport(content string) error {
	return m.writeFile("gate-report.md", content)
}

// ReadGateReport reads gate-report.md.
func (m *WorkdirManager) ReadGateReport() (string, error) {
	return m.readFile("gate-report.md")
}

// WriteRun writes run_N.md, preserving per-iteration gate history
// alongside the latest gate-report.md.
func (m *WorkdirManager) WriteRun(n int, content string) error {
	return m.writeFile(fmt.Sprintf("run_%d.md", n), content)
}

// WriteReview writes review.md.
func (m *WorkdirManager) WriteReview(content string) error {
	return m.writeFile("review.md", content)
}

// ReadReview reads review.md.
func (m *WorkdirManager) ReadReview() (string, error) {
	return m.readFile("review.md")
}

// WriteSummary writes summary.md.
func (m *WorkdirManager) WriteSummary(content string) error {
	return m.writeFile("summary.md", content)
}

// ReadSummary reads summary.md.
func (m *WorkdirManager) ReadSummary() (string, error) {
	return m.readFile("summary.md")
}

// WriteLog writes to the logs/ subdirectory.
func (m *WorkdirManager) WriteLog(name string, content []byte) error {
	if m.current == "" {
		return fmt.Errorf("no workdir created")
	}
	path := filepath.Join(m.current, "logs", name)
	return os.WriteFile(path, content, 0644)
}

// LogPath returns the full path for a log file.
func (m *WorkdirManager) LogPath(name string) string {
	if m.current == "" {
		return ""
	}
	return filepath.Join(m.current, "logs", name)
}

// SummaryPath returns the path to summary.md.
func (m *WorkdirManager) SummaryPath() string {
	if m.current == "" {
		return ""
	}
	return filepath.Join(m.current, "summary.md")
}

// HasSummary returns true if summary.md exists.
func (m *WorkdirManager) HasSummary() bool {
	if m.current == "" {
		return false
	}
	_, err := os.Stat(m.SummaryPath())
	return err == nil
}

// ListFiles returns all files in the workdir.
func (m *WorkdirManager) ListFiles() ([]string, error) {
	if m.current == "" {
		return nil, fmt.Errorf("no workdir created")
	}

	var files []string
	err := filepath.Walk(m.current, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			rel, _ := filepath.Rel(m.current, path)
			files = append(files, rel)
		}
		return nil
	})
	return files, err
}

func (m *WorkdirManager) writeFile(filename, content string) error {
	if m.current == "" {
		return fmt.Errorf("no workdir created")
	}
	path := filepath.Join(m.current, filename)
	return os.WriteFile(path, []byte(content), 0644)
}

func (m *WorkdirManager) readFile(filename string) (string, error) {
	if m.current == "" {
		return "", fmt.Errorf("no workdir created")
	}
	data, err := os.ReadFile(filepath.Join(m.current, filename))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// LatestWorkdir returns the most recent workdir under baseDir.
func LatestWorkdir(baseDir string) (string, error) {
	workdirBase := filepath.Join(baseDir, ".prpkit", "workdir")

	entries, err := os.ReadDir(workdirBase)
	if err != nil {
		return "", err
	}

	var latest string
	var latestTime time.Time

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latest = filepath.Join(workdirBase, entry.Name())
		}
	}

	if latest == "" {
		return "", fmt.Errorf("no workdir found")
	}

	return latest, nil
}
