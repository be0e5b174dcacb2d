package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prpkit/prpkit/pkg/gates"
)

func TestVerdict_Pass(t *testing.T) {
	v := Pass()

	assert.True(t, v.IsPassing())
	assert.False(t, v.IsRejecting())
	assert.Empty(t, v.Reasons)
}

func TestVerdict_Reject(t *testing.T) {
	v := Reject("tests failed", "missing docs")

	assert.True(t, v.IsRejecting())
	assert.Len(t, v.Reasons, 2)
}

func TestVerdict_WithGates(t *testing.T) {
	v := Pass().WithGates(false)

	assert.True(t, v.IsRejecting())
	assert.Contains(t, v.Reasons, "Validation gates failed")
}

func TestVerdict_WithGatesPassing(t *testing.T) {
	v := Pass().WithGates(true)

	assert.True(t, v.IsPassing())
	assert.True(t, v.GatesPassed)
}

func TestVerdict_Criteria(t *testing.T) {
	v := Pass().
		SetCriterion("login works", true).
		SetCriterion("tokens expire", false)

	assert.False(t, v.AllCriteriaMet())

	v.SetCriterion("tokens expire", true)
	assert.True(t, v.AllCriteriaMet())
}

func TestFromGateReport(t *testing.T) {
	report := &gates.Report{
		Results: []gates.Result{
			{Gate: gates.Gate{Name: "lint"}, ExitCode: 0},
			{Gate: gates.Gate{Name: "test"}, ExitCode: 1},
		},
	}

	v := FromGateReport(report)

	assert.True(t, v.IsRejecting())
	assert.False(t, v.GatesPassed)
	require.Len(t, v.Reasons, 2)
	assert.Contains(t, v.Reasons[1], `Gate "test" failed (exit 1)`)
}

func TestVerdict_ToDocumentRoundTrip(t *testing.T) {
	v := Reject("gate output missing").WithGates(false)
	v.SetCriterion("feature works", false)

	doc := v.ToDocument("user-auth")
	assert.Contains(t, doc, "# Review: user-auth")
	assert.Contains(t, doc, "Verdict: reject")
	assert.Contains(t, doc, "Result: FAIL")

	parsed, err := ParseVerdict(doc)
	require.NoError(t, err)
	assert.True(t, parsed.IsRejecting())
	assert.Contains(t, parsed.Reasons, "gate output missing")
}

func TestParseVerdict_Pass(t *testing.T) {
	content := "# Review: x\n\n## Gate Status\n- Result: PASS\n\n## Verdict: pass\n"

	v, err := ParseVerdict(content)
	require.NoError(t, err)

	assert.True(t, v.IsPassing())
	assert.True(t, v.GatesPassed)
}
