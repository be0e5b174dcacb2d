package workflow

import (
	"fmt"
	"strings"

	"github.com/prpkit/prpkit/pkg/gates"
)

// VerdictStatus indicates review outcome.
type VerdictStatus string

const (
	VerdictPass   VerdictStatus = "pass"
	VerdictReject VerdictStatus = "reject"
)

// Verdict is the result of reviewing an executed PRP.
type Verdict struct {
	// Status is pass or reject.
	Status VerdictStatus

	// Reasons are rejection reasons.
	Reasons []string

	// CriteriaStatus maps success criteria to verification.
	CriteriaStatus map[string]bool

	// GatesPassed indicates every validation gate passed.
	GatesPassed bool

	// Document is the raw review document.
	Document string
}

// NewVerdict creates a new verdict.
func NewVerdict(status VerdictStatus) *Verdict {
	return &Verdict{
		Status:         status,
		CriteriaStatus: make(map[string]bool),
	}
}

// Pass creates a passing verdict.
func Pass() *Verdict {
	return NewVerdict(VerdictPass)
}

// Reject creates a rejecting verdict with reasons.
func Reject(reasons ...string) *Verdict {
	v := NewVerdict(VerdictReject)
	v.Reasons = reasons
	return v
}

// WithReason adds a rejection reason.
func (v *Verdict) WithReason(reason string) *Verdict {
	v.Reasons = append(v.Reasons, reason)
	return v
}

// WithGates sets gate status. A failing gate set rejects the verdict.
func (v *Verdict) WithGates(passed bool) *Verdict {
	v.GatesPassed = passed
	if !passed && v.Status == VerdictPass {
		v.Status = VerdictReject
		v.Reasons = append(v.Reasons, "Validation gates failed")
	}
	return v
}

// SetCriterion sets a success criterion's verification status.
func (v *Verdict) SetCriterion(criterion string, verified bool) *Verdict {
	if v.CriteriaStatus == nil {
		v.CriteriaStatus = make(map[string]bool)
	}
	v.CriteriaStatus[criterion] = verified
	return v
}

// IsPassing returns true if the verdict is a pass.
func (v *Verdict) IsPassing() bool {
	return v.Status == VerdictPass
}

// IsRejecting returns true if the verdict is a rejection.
func (v *Verdict) IsRejecting() bool {
	return v.Status == VerdictReject
}

// AllCriteriaMet returns true if every criterion is verified.
func (v *Verdict) AllCriteriaMet() bool {
	for _, verified := range v.CriteriaStatus {
		if !verified {
			return false
		}
	}
	return true
}

// FromGateReport builds a verdict from a gate run.
func FromGateReport(report *gates.Report) *Verdict {
	v := Pass().WithGates(report.AllPassed())
	for _, r := range report.Failed() {
		v.WithReason(fmt.Sprintf("Gate %q failed (exit %d)", r.Gate.Name, r.ExitCode))
	}
	return v
}

// ToDocument generates the review.md content.
func (v *Verdict) ToDocument(prpName string) string {
	var sb strings.Builder

	sb.WriteString("# Review: " + prpName + "\n\n")

	sb.WriteString("## Gate Status\n")
	if v.GatesPassed {
		sb.WriteString("- Result: PASS\n")
	} else {
		sb.WriteString("- Result: FAIL\n")
	}
	sb.WriteString("\n")

	sb.WriteString("## Success Criteria\n")
	sb.WriteString("| Criterion | Status |\n")
	sb.WriteString("|-----------|--------|\n")
	for criterion, verified := range v.CriteriaStatus {
		status := "✗"
		if verified {
			status = "✓"
		}
		sb.WriteString("| " + criterion + " | " + status + " |\n")
	}
	sb.WriteString("\n")

	sb.WriteString("## Verdict: " + string(v.Status) + "\n\n")

	if v.Status == VerdictReject && len(v.Reasons) > 0 {
		sb.WriteString("## Rejection Reasons\n")
		for i, reason := range v.Reasons {
			sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, reason))
		}
	}

	return sb.String()
}

// ParseVerdict parses a review document into a Verdict.
func ParseVerdict(content string) (*Verdict, error) {
	verdict := NewVerdict(VerdictPass)
	verdict.Document = content

	lower := strings.ToLower(content)
	if strings.Contains(lower, "verdict: reject") {
		verdict.Status = VerdictReject
	}

	if strings.Contains(content, "## Gate Status") && strings.Contains(content, "Result: PASS") {
		verdict.GatesPassed = true
	}

	if verdict.Status == VerdictReject {
		inReasons := false
		for _, line := range strings.Split(content, "\n") {
			trimmed := strings.TrimSpace(line)
			if strings.HasPrefix(trimmed, "## ") {
				inReasons = strings.EqualFold(strings.TrimPrefix(trimmed, "## "), "Rejection Reasons")
				continue
			}
			if !inReasons || len(trimmed) < 3 {
				continue
			}
			if trimmed[0] >= '1' && trimmed[0] <= '9' && trimmed[1] == '.' {
				verdict.Reasons = append(verdict.Reasons, strings.TrimSpace(trimmed[2:]))
			}
		}
	}

	return verdict, nil
}
