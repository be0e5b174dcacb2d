package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// Request carries one prepared run to a backend.
type Request struct {
	Prompt      string
	Interactive bool
	Format      Format
	Dir         string
	Stdout      io.Writer
	Stderr      io.Writer
}

// Backend drives one AI coding agent.
type Backend interface {
	// Name returns the backend name.
	Name() string

	// Run executes the request. The agent's exit status propagates as
	// the returned error.
	Run(ctx context.Context, req *Request) error
}

// ClaudeBackend runs the claude CLI.
type ClaudeBackend struct {
	// Command overrides the executable name, mainly for tests.
	Command string
}

// Name returns the backend name.
func (b *ClaudeBackend) Name() string {
	return "claude"
}

// Run invokes the claude CLI. Interactive runs start a session seeded
// with the prompt; headless runs use -p with the output format.
func (b *ClaudeBackend) Run(ctx context.Context, req *Request) error {
	command := b.Command
	if command == "" {
		command = "claude"
	}

	var args []string
	if req.Interactive {
		args = []string{req.Prompt}
	} else {
		args = []string{"-p", req.Prompt, "--output-format", string(req.Format)}
		if req.Format == FormatStreamJSON {
			// The CLI refuses stream-json without verbose output.
			args = append(args, "--verbose")
		}
	}

	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Dir = req.Dir
	cmd.Stdout = req.Stdout
	cmd.Stderr = req.Stderr
	if req.Interactive {
		cmd.Stdin = os.Stdin
	}

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", command, err)
	}
	return nil
}

// CursorBackend prepares a prompt for the Cursor environment. Cursor
// has no headless CLI, so the backend emits the prompt for pasting.
type CursorBackend struct{}

// Name returns the backend name.
func (b *CursorBackend) Name() string {
	return "cursor"
}

// Run writes the prompt to stdout. Interactive mode adds usage
// instructions around it.
func (b *CursorBackend) Run(_ context.Context, req *Request) error {
	out := req.Stdout
	if out == nil {
		out = os.Stdout
	}

	if !req.Interactive {
		_, err := fmt.Fprintln(out, req.Prompt)
		return err
	}

	fmt.Fprintln(out, "=== PRP LOADED FOR CURSOR ===")
	fmt.Fprintln(out, req.Prompt)
	fmt.Fprintln(out, "\n=== INSTRUCTIONS ===")
	fmt.Fprintln(out, "1. Copy the PRP content above")
	fmt.Fprintln(out, "2. Paste it into Cursor")
	fmt.Fprintln(out, "3. Follow the workflow guidance to implement the PRP")
	fmt.Fprintln(out, "4. Use the validation commands to verify your implementation")
	return nil
}
