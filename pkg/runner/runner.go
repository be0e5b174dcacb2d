// Package runner hands a PRP to an AI coding agent. It resolves the
// PRP file, prepends the workflow meta header, and drives the chosen
// agent backend in interactive or headless mode.
package runner

import (
	_ "embed"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

//go:embed prompts/meta_header.md
var metaHeader string

// Format selects the headless output format.
type Format string

const (
	FormatText       Format = "text"
	FormatJSON       Format = "json"
	FormatStreamJSON Format = "stream-json"
)

// ParseFormat validates an output format string.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatStreamJSON:
		return FormatStreamJSON, nil
	}
	return "", fmt.Errorf("unknown output format %q (want text, json or stream-json)", s)
}

// Options configure a run.
type Options struct {
	// PRP is the feature key; resolves to PRPs/{name}.md under Root.
	PRP string

	// PRPPath is an explicit file path and wins over PRP.
	PRPPath string

	// Root is the project root.
	Root string

	// Model selects the agent backend: "claude" or "cursor".
	Model string

	// Interactive runs the agent interactively instead of headless.
	Interactive bool

	// OutputFormat applies to headless runs.
	OutputFormat Format
}

// Resolve returns the PRP file path for the given options.
func Resolve(opts Options) (string, error) {
	if opts.PRPPath != "" {
		return opts.PRPPath, nil
	}
	if opts.PRP != "" {
		root := opts.Root
		if root == "" {
			root = "."
		}
		return filepath.Join(root, "PRPs", opts.PRP+".md"), nil
	}
	return "", fmt.Errorf("must provide either a feature key or a PRP path")
}

// BuildPrompt loads the PRP file and prepends the meta header.
func BuildPrompt(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("PRP file not found: %s", path)
		}
		return "", fmt.Errorf("read PRP: %w", err)
	}
	return metaHeader + string(data), nil
}

// Runner executes PRPs against an agent backend.
type Runner struct {
	// Stdout receives agent output.
	Stdout io.Writer

	// Stderr receives agent diagnostics.
	Stderr io.Writer
}

// New creates a runner writing to the standard streams.
func New() *Runner {
	return &Runner{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Run resolves the PRP and hands it to the backend for the selected
// model.
func (r *Runner) Run(ctx context.Context, opts Options) error {
	path, err := Resolve(opts)
	if err != nil {
		return err
	}

	prompt, err := BuildPrompt(path)
	if err != nil {
		return err
	}

	format, err := ParseFormat(string(opts.OutputFormat))
	if err != nil {
		return err
	}

	backend, err := backendFor(opts.Model)
	if err != nil {
		return err
	}

	return backend.Run(ctx, &Request{
		Prompt:      prompt,
		Interactive: opts.Interactive,
		Format:      format,
		Dir:         opts.Root,
		Stdout:      r.Stdout,
		Stderr:      r.Stderr,
	})
}

func backendFor(model string) (Backend, error) {
	switch model {
	case "", "claude":
		return &ClaudeBackend{}, nil
	case "cursor":
		return &CursorBackend{}, nil
	}
	return nil, fmt.Errorf("unknown model %q (want claude or cursor)", model)
}
