package gates

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunGate_Pass(t *testing.T) {
	runner := NewRunner(t.TempDir())

	result := runner.RunGate(context.Background(), Gate{Name: "echo", Command: "echo ok"})

	assert.True(t, result.Passed())
	assert.Equal(t, 0, result.ExitCode)
	assert.Contains(t, result.Output, "ok")
	assert.Greater(t, result.Duration, time.Duration(0))
}

func TestRunGate_Fail(t *testing.T) {
	runner := NewRunner(t.TempDir())

	result := runner.RunGate(context.Background(), Gate{Name: "fail", Command: "exit 3"})

	assert.False(t, result.Passed())
	assert.Equal(t, 3, result.ExitCode)
	assert.NoError(t, result.Err)
}

func TestRunGate_Compound(t *testing.T) {
	runner := NewRunner(t.TempDir())

	// The second command must not run when the first fails.
	result := runner.RunGate(context.Background(), Gate{Command: "false && echo reached"})

	assert.False(t, result.Passed())
	assert.NotContains(t, result.Output, "reached")
}

func TestRunGate_Timeout(t *testing.T) {
	runner := NewRunner(t.TempDir())

	result := runner.RunGate(context.Background(), Gate{
		Name:    "slow",
		Command: "sleep 5",
		Timeout: duration(50 * time.Millisecond),
	})

	assert.False(t, result.Passed())
	assert.Error(t, result.Err)
}

func TestRun_Report(t *testing.T) {
	runner := NewRunner(t.TempDir())

	report := runner.Run(context.Background(), []Gate{
		{Name: "a", Command: "true"},
		{Name: "b", Command: "exit 1"},
		{Name: "c", Command: "true"},
	})

	require.Len(t, report.Results, 3)
	assert.False(t, report.AllPassed())
	require.Len(t, report.Failed(), 1)
	assert.Equal(t, "b", report.Failed()[0].Gate.Name)
}

func TestRun_FailFast(t *testing.T) {
	runner := NewRunner(t.TempDir())
	runner.FailFast = true

	report := runner.Run(context.Background(), []Gate{
		{Name: "a", Command: "exit 1"},
		{Name: "b", Command: "true"},
	})

	// Second gate never ran.
	require.Len(t, report.Results, 1)
	assert.False(t, report.AllPassed())
}

func TestRun_Cancelled(t *testing.T) {
	runner := NewRunner(t.TempDir())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := runner.Run(ctx, []Gate{{Name: "a", Command: "true"}})
	assert.Empty(t, report.Results)
}

func TestReport_Summary(t *testing.T) {
	report := &Report{
		Results: []Result{
			{Gate: Gate{Name: "lint"}, ExitCode: 0},
			{Gate: Gate{Name: "test"}, ExitCode: 2},
		},
	}

	summary := report.Summary()
	assert.Contains(t, summary, "- lint: PASS")
	assert.Contains(t, summary, "- test: FAIL (exit 2)")
}

func TestReport_AllPassedEmpty(t *testing.T) {
	report := &Report{}
	assert.True(t, report.AllPassed())
}
