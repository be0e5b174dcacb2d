package gates

import (
	"context"
	"errors"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeout bounds a single gate when the gate specifies none.
const DefaultTimeout = 10 * time.Minute

// Result captures one gate execution.
type Result struct {
	// Gate is the executed gate.
	Gate Gate `json:"gate"`

	// ExitCode is the command's exit status. Zero means pass.
	ExitCode int `json:"exit_code"`

	// Output is combined stdout and stderr.
	Output string `json:"output"`

	// Duration is wall-clock execution time.
	Duration time.Duration `json:"duration"`

	// Err is set when the command could not run at all.
	Err error `json:"-"`
}

// Passed reports whether the gate succeeded.
func (r *Result) Passed() bool {
	return r.Err == nil && r.ExitCode == 0
}

// Report is the outcome of running a gate set.
type Report struct {
	// Results are per-gate outcomes in run order.
	Results []Result `json:"results"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// Duration is total wall-clock time.
	Duration time.Duration `json:"duration"`
}

// AllPassed reports whether every gate passed.
func (rep *Report) AllPassed() bool {
	for i := range rep.Results {
		if !rep.Results[i].Passed() {
			return false
		}
	}
	return true
}

// Failed returns the gates that did not pass.
func (rep *Report) Failed() []Result {
	var failed []Result
	for _, r := range rep.Results {
		if !r.Passed() {
			failed = append(failed, r)
		}
	}
	return failed
}

// Summary renders a one-line-per-gate report body.
func (rep *Report) Summary() string {
	var sb strings.Builder
	for i := range rep.Results {
		r := &rep.Results[i]
		status := "PASS"
		if !r.Passed() {
			status = "FAIL"
		}
		sb.WriteString("- " + r.Gate.Name + ": " + status)
		if r.ExitCode != 0 {
			sb.WriteString(" (exit " + strconv.Itoa(r.ExitCode) + ")")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// Runner executes gates in a working directory.
type Runner struct {
	// Dir is the default working directory.
	Dir string

	// Timeout is the per-gate default timeout.
	Timeout time.Duration

	// FailFast stops the run at the first failing gate.
	FailFast bool
}

// NewRunner creates a runner for the given project directory.
func NewRunner(dir string) *Runner {
	return &Runner{
		Dir:     dir,
		Timeout: DefaultTimeout,
	}
}

// RunGate executes a single gate.
// The command runs through the shell so compound lines like
// `ruff check --fix && mypy .` behave as documented.
func (r *Runner) RunGate(ctx context.Context, gate Gate) Result {
	timeout := gate.Timeout.Value()
	if timeout == 0 {
		timeout = r.Timeout
	}
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", gate.Command)
	cmd.Dir = gate.Dir
	if cmd.Dir == "" {
		cmd.Dir = r.Dir
	}

	start := time.Now()
	out, err := cmd.CombinedOutput()

	result := Result{
		Gate:     gate,
		Output:   string(out),
		Duration: time.Since(start),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.Err = err
			result.ExitCode = -1
		}
	}

	if ctx.Err() == context.DeadlineExceeded {
		result.Err = ctx.Err()
	}

	return result
}

// Run executes all gates in order and returns the report.
func (r *Runner) Run(ctx context.Context, gateSet []Gate) *Report {
	report := &Report{StartedAt: time.Now()}

	for _, gate := range gateSet {
		if ctx.Err() != nil {
			break
		}

		result := r.RunGate(ctx, gate)
		report.Results = append(report.Results, result)

		if r.FailFast && !result.Passed() {
			break
		}
	}

	report.Duration = time.Since(report.StartedAt)
	return report
}
