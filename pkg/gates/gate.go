// Package gates runs validation gates: named external commands (lint,
// type-check, test) whose exit status gates the PRP workflow.
package gates

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/prpkit/prpkit/pkg/prp"
)

// Gate is a single validation command.
type Gate struct {
	// Name identifies the gate in reports, e.g. "lint", "test".
	Name string `toml:"name"`

	// Command is the shell command line to run.
	Command string `toml:"command"`

	// Dir is the working directory. Empty means the project root.
	Dir string `toml:"dir"`

	// Timeout bounds execution. Zero means the runner default.
	Timeout duration `toml:"timeout"`
}

// duration wraps time.Duration for TOML decoding of strings like "5m".
type duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML.
func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = duration(parsed)
	return nil
}

// Value returns the underlying time.Duration.
func (d duration) Value() time.Duration {
	return time.Duration(d)
}

// gatesFile is the on-disk .prpkit/gates.toml structure.
type gatesFile struct {
	Gate []Gate `toml:"gate"`
}

// LoadFile reads gate definitions from a TOML file.
func LoadFile(path string) ([]Gate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read gates file: %w", err)
	}

	var file gatesFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse gates file: %w", err)
	}

	for i := range file.Gate {
		if file.Gate[i].Command == "" {
			return nil, fmt.Errorf("gate %q has no command", file.Gate[i].Name)
		}
		if file.Gate[i].Name == "" {
			file.Gate[i].Name = nameFromCommand(file.Gate[i].Command)
		}
	}

	return file.Gate, nil
}

// FromDocument extracts gates from a PRP's Validation Loop section.
// Each non-empty, non-comment line of a fenced code block becomes a gate.
func FromDocument(doc *prp.Document) []Gate {
	section := doc.Section("Validation Loop")
	if section == nil {
		return nil
	}

	var out []Gate
	for _, block := range prp.CodeBlocks(section.Body) {
		for _, line := range strings.Split(block, "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			out = append(out, Gate{
				Name:    nameFromCommand(line),
				Command: line,
			})
		}
	}

	return out
}

// nameFromCommand derives a short gate name from its command line.
// `uv run pytest tests/ -v` becomes "pytest", `ruff check --fix` becomes "ruff".
func nameFromCommand(command string) string {
	for _, f := range strings.Fields(command) {
		switch f {
		case "uv", "run", "npx", "poetry", "pdm", "sh", "-c":
			continue
		}
		if strings.HasPrefix(f, "-") {
			continue
		}
		// Strip path components: "PRPs/scripts/check.py" -> "check.py".
		if idx := strings.LastIndex(f, "/"); idx >= 0 {
			f = f[idx+1:]
		}
		return f
	}
	return "gate"
}
