package prp

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNotFound indicates a PRP does not exist in the store.
var ErrNotFound = errors.New("prp not found")

// Store manages PRP documents under a project's PRPs/ directory.
// Documents live at PRPs/{name}.md and move to PRPs/completed/ when done.
type Store struct {
	root string
}

// NewStore creates a store rooted at the given project directory.
func NewStore(root string) *Store {
	if root == "" {
		root = "."
	}
	return &Store{root: root}
}

// Dir returns the PRPs directory.
func (s *Store) Dir() string {
	return filepath.Join(s.root, "PRPs")
}

// CompletedDir returns the completed PRPs directory.
func (s *Store) CompletedDir() string {
	return filepath.Join(s.Dir(), "completed")
}

// Resolve returns the path for a feature key.
func (s *Store) Resolve(name string) string {
	return filepath.Join(s.Dir(), name+".md")
}

// Load reads and parses the PRP for a feature key.
// Completed PRPs are found under completed/ when the active path is gone.
func (s *Store) Load(name string) (*Document, error) {
	path := s.Resolve(name)
	doc, err := s.LoadPath(path)
	if err == nil {
		return doc, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	completed := filepath.Join(s.CompletedDir(), name+".md")
	doc, cerr := s.LoadPath(completed)
	if cerr != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	doc.Status = StatusCompleted
	return doc, nil
}

// LoadPath reads and parses a PRP from an explicit path.
func (s *Store) LoadPath(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("read prp: %w", err)
	}

	doc := Parse(string(data))
	doc.Path = path
	doc.Name = strings.TrimSuffix(filepath.Base(path), ".md")
	return doc, nil
}

// Save writes the document to PRPs/{name}.md, creating directories as needed.
func (s *Store) Save(doc *Document) error {
	if doc.Name == "" {
		return fmt.Errorf("prp has no name")
	}

	if err := os.MkdirAll(s.Dir(), 0755); err != nil {
		return fmt.Errorf("create prp dir: %w", err)
	}

	path := s.Resolve(doc.Name)
	if err := os.WriteFile(path, []byte(doc.Render()), 0644); err != nil {
		return fmt.Errorf("write prp: %w", err)
	}

	doc.Path = path
	return nil
}

// List returns the names of active PRPs, sorted.
// An absent PRPs directory yields an empty list, not an error.
func (s *Store) List() ([]string, error) {
	return listMarkdown(s.Dir())
}

// ListCompleted returns the names of completed PRPs, sorted.
func (s *Store) ListCompleted() ([]string, error) {
	return listMarkdown(s.CompletedDir())
}

func listMarkdown(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list prps: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".md"))
	}

	sort.Strings(names)
	return names, nil
}

// Complete relocates a PRP to the completed/ directory.
func (s *Store) Complete(name string) error {
	src := s.Resolve(name)
	if _, err := os.Stat(src); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return fmt.Errorf("stat prp: %w", err)
	}

	if err := os.MkdirAll(s.CompletedDir(), 0755); err != nil {
		return fmt.Errorf("create completed dir: %w", err)
	}

	dst := filepath.Join(s.CompletedDir(), name+".md")
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("move prp: %w", err)
	}

	return nil
}

// Exists reports whether an active PRP exists for the feature key.
func (s *Store) Exists(name string) bool {
	_, err := os.Stat(s.Resolve(name))
	return err == nil
}
