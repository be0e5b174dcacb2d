// Package contextpack builds the curated project context used during
// the priming phase: key docs and build files gathered into a single
// markdown pack, plus a searchable index over the collected content.
package contextpack

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultIncludes are the glob patterns collected when none are
// configured. They cover the files an implementer reads first.
var DefaultIncludes = []string{
	"README*",
	"CLAUDE.md",
	"go.mod",
	"pyproject.toml",
	"package.json",
	"Makefile",
	"docs/**/*.md",
	"PRPs/ai_docs/**/*.md",
}

// DefaultExcludes are always skipped.
var DefaultExcludes = []string{
	".git/**",
	"node_modules/**",
	"vendor/**",
	".prpkit/**",
	"**/*.lock",
}

const (
	// DefaultMaxFileBytes caps a single collected file.
	DefaultMaxFileBytes = 64 * 1024

	// DefaultMaxTotalBytes caps the whole pack.
	DefaultMaxTotalBytes = 512 * 1024
)

// File is one collected file.
type File struct {
	// Path is relative to the project root.
	Path string `json:"path"`

	// Size is the original file size in bytes.
	Size int64 `json:"size"`

	// Content is the file content, possibly truncated.
	Content string `json:"content"`

	// Truncated indicates the content was cut at the size cap.
	Truncated bool `json:"truncated,omitempty"`
}

// Pack is the assembled context pack.
type Pack struct {
	Root        string    `json:"root"`
	GeneratedAt time.Time `json:"generated_at"`
	Files       []File    `json:"files"`
}

// TotalBytes returns the sum of collected content sizes.
func (p *Pack) TotalBytes() int {
	total := 0
	for i := range p.Files {
		total += len(p.Files[i].Content)
	}
	return total
}

// Render formats the pack as markdown for prompt injection.
func (p *Pack) Render() string {
	var sb strings.Builder
	sb.WriteString("# Project Context\n\n")
	sb.WriteString(fmt.Sprintf("Root: %s\nFiles: %d\n\n", p.Root, len(p.Files)))

	for i := range p.Files {
		f := &p.Files[i]
		sb.WriteString(fmt.Sprintf("## %s\n\n", f.Path))
		sb.WriteString("```\n")
		sb.WriteString(f.Content)
		if !strings.HasSuffix(f.Content, "\n") {
			sb.WriteString("\n")
		}
		if f.Truncated {
			sb.WriteString("... (truncated)\n")
		}
		sb.WriteString("```\n\n")
	}

	return sb.String()
}

// Collector gathers context files from a project tree.
type Collector struct {
	// Root is the project root directory.
	Root string

	// Includes are doublestar patterns relative to Root.
	Includes []string

	// Excludes are doublestar patterns that always win over Includes.
	Excludes []string

	// MaxFileBytes caps a single file's collected content.
	MaxFileBytes int64

	// MaxTotalBytes caps the whole pack.
	MaxTotalBytes int64
}

// NewCollector creates a collector with default patterns and caps.
func NewCollector(root string) *Collector {
	return &Collector{
		Root:          root,
		Includes:      DefaultIncludes,
		Excludes:      DefaultExcludes,
		MaxFileBytes:  DefaultMaxFileBytes,
		MaxTotalBytes: DefaultMaxTotalBytes,
	}
}

// Collect walks the project tree and assembles the pack.
// Files are collected in sorted path order so output is deterministic.
func (c *Collector) Collect() (*Pack, error) {
	var paths []string

	err := filepath.WalkDir(c.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, relErr := filepath.Rel(c.Root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel != "." && c.excluded(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		if c.excluded(rel) || !c.included(rel) {
			return nil
		}

		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", c.Root, err)
	}

	sort.Strings(paths)

	pack := &Pack{
		Root:        c.Root,
		GeneratedAt: time.Now(),
	}

	var total int64
	for _, rel := range paths {
		if total >= c.MaxTotalBytes {
			break
		}

		f, err := c.readFile(rel)
		if err != nil {
			return nil, err
		}

		pack.Files = append(pack.Files, f)
		total += int64(len(f.Content))
	}

	return pack, nil
}

func (c *Collector) readFile(rel string) (File, error) {
	full := filepath.Join(c.Root, filepath.FromSlash(rel))

	info, err := os.Stat(full)
	if err != nil {
		return File{}, fmt.Errorf("stat %s: %w", rel, err)
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return File{}, fmt.Errorf("read %s: %w", rel, err)
	}

	f := File{
		Path: rel,
		Size: info.Size(),
	}

	if int64(len(data)) > c.MaxFileBytes {
		data = data[:c.MaxFileBytes]
		f.Truncated = true
	}
	f.Content = string(data)

	return f, nil
}

func (c *Collector) included(rel string) bool {
	for _, pattern := range c.Includes {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func (c *Collector) excluded(rel string) bool {
	rel = strings.TrimSuffix(rel, "/")
	for _, pattern := range c.Excludes {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
		// Directory prefix form: ".git/**" also excludes ".git" itself.
		if base := strings.TrimSuffix(pattern, "/**"); base != pattern && base == rel {
			return true
		}
	}
	return false
}
