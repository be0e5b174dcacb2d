// Package workflow coordinates the PRP lifecycle: priming project
// context, creating a PRP, executing its validation gates, and
// reviewing the result before completion.
package workflow

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/prpkit/prpkit/pkg/contextpack"
	"github.com/prpkit/prpkit/pkg/gates"
	"github.com/prpkit/prpkit/pkg/llm"
	"github.com/prpkit/prpkit/pkg/prp"
)

// Config configures a workflow.
type Config struct {
	// Root is the project root directory.
	Root string

	// MaxReviewRetries bounds the execute/review loop.
	MaxReviewRetries int

	// GateTimeout overrides the per-gate timeout when nonzero.
	GateTimeout time.Duration
}

// Workflow drives a PRP through its phases.
type Workflow struct {
	mu sync.Mutex

	root      string
	store     *prp.Store
	runner    *gates.Runner
	collector *contextpack.Collector
	workdir   *WorkdirManager
	router    *llm.Router
	session   *Session

	maxRetries int
}

// New creates a workflow for a project. The router may be nil; PRP
// drafting then falls back to the scaffold template.
func New(config Config, router *llm.Router) (*Workflow, error) {
	if config.Root == "" {
		config.Root = "."
	}
	if config.MaxReviewRetries == 0 {
		config.MaxReviewRetries = 3
	}

	workdir, err := NewWorkdirManager(config.Root)
	if err != nil {
		return nil, err
	}

	runner := gates.NewRunner(config.Root)
	if config.GateTimeout > 0 {
		runner.Timeout = config.GateTimeout
	}

	return &Workflow{
		root:       config.Root,
		store:      prp.NewStore(config.Root),
		runner:     runner,
		collector:  contextpack.NewCollector(config.Root),
		workdir:    workdir,
		router:     router,
		maxRetries: config.MaxReviewRetries,
	}, nil
}

// Store returns the PRP store.
func (w *Workflow) Store() *prp.Store {
	return w.store
}

// Workdir returns the workdir manager.
func (w *Workflow) Workdir() *WorkdirManager {
	return w.workdir
}

// Session returns the current session, loading a saved one if needed.
func (w *Workflow) Session() *Session {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.loadSession()
}

func (w *Workflow) loadSession() *Session {
	if w.session == nil {
		if s, err := LoadSession(w.root); err == nil {
			w.session = s
		}
	}
	// Reattach the persisted workdir so artifacts keep landing in the
	// same run directory across processes.
	if w.session != nil && w.session.Workdir != "" && w.workdir.Path() == "" {
		_ = w.workdir.Attach(w.session.Workdir)
	}
	return w.session
}

func (w *Workflow) beginSession(name string) *Session {
	s := w.loadSession()
	if s == nil || s.PRP != name {
		s = NewSession(name)
		w.session = s
	}
	return s
}

// Prime collects project context and writes the context-pack artifact.
func (w *Workflow) Prime(ctx context.Context, name string) (*contextpack.Pack, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	session := w.beginSession(name)

	if w.workdir.Path() == "" {
		dir, err := w.workdir.Create(name)
		if err != nil {
			return nil, fmt.Errorf("create workdir: %w", err)
		}
		session.Workdir = dir
	}

	pack, err := w.collector.Collect()
	if err != nil {
		return nil, fmt.Errorf("collect context: %w", err)
	}

	if err := w.workdir.WriteContextPack(pack.Render()); err != nil {
		return nil, fmt.Errorf("write context pack: %w", err)
	}

	session.Record(PhasePrime, true, fmt.Sprintf("%d files collected", len(pack.Files)))
	session.Advance(PhaseCreate)
	if err := session.Save(w.root); err != nil {
		return nil, err
	}

	return pack, nil
}

// Create drafts a PRP and saves it to the store. With a configured
// router the draft comes from the creation model seeded with the
// context pack; otherwise the scaffold template is used. The document
// must lint clean before it is saved.
func (w *Workflow) Create(ctx context.Context, name, goal string) (*prp.Document, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.store.Exists(name) {
		return nil, fmt.Errorf("prp %q already exists", name)
	}

	session := w.beginSession(name)

	doc, err := w.draft(ctx, name, goal)
	if err != nil {
		return nil, err
	}

	if report := doc.Lint(); !report.OK() {
		return nil, fmt.Errorf("draft incomplete: %s", report.Problems())
	}

	if err := w.store.Save(doc); err != nil {
		return nil, err
	}

	if w.workdir.Path() != "" {
		if err := w.workdir.WriteDraft(doc.Render()); err != nil {
			return nil, fmt.Errorf("write draft: %w", err)
		}
	}

	session.Record(PhaseCreate, true, doc.Path)
	session.Advance(PhaseExecute)
	if err := session.Save(w.root); err != nil {
		return nil, err
	}

	return doc, nil
}

func (w *Workflow) draft(ctx context.Context, name, goal string) (*prp.Document, error) {
	if w.router == nil {
		return prp.Scaffold(prp.TemplateData{Name: name, Goal: goal})
	}

	prompt := w.draftPrompt(name, goal)
	resp, err := w.router.ForCreation().Complete(ctx, &llm.CompletionRequest{
		System:   draftSystemPrompt,
		Messages: []llm.Message{llm.UserMessage(prompt)},
	})
	if err != nil {
		// Drafting degrades to the template when the model is down.
		return prp.Scaffold(prp.TemplateData{Name: name, Goal: goal})
	}

	doc := prp.Parse(resp.Content)
	doc.Name = name
	if !doc.Lint().OK() {
		return prp.Scaffold(prp.TemplateData{Name: name, Goal: goal})
	}
	return doc, nil
}

const draftSystemPrompt = `You write Product Requirement Prompts (PRPs): implementation
briefs that give an AI coding agent everything needed to ship a feature in one pass.
Respond with a complete markdown PRP containing exactly these sections:
Goal, Why, What, Success Criteria, All Needed Context, Implementation Blueprint,
Validation Loop. Put runnable commands in the Validation Loop as a fenced bash block.`

const reviewSystemPrompt = `You review a completed PRP implementation against its own
document and gate results. Be adversarial: assume the work is incomplete until the
evidence says otherwise. Respond in markdown ending with a "## Verdict: pass" or
"## Verdict: reject" heading; when rejecting, list the reasons as a numbered list
under a "## Rejection Reasons" heading.`

func (w *Workflow) draftPrompt(name, goal string) string {
	var sb strings.Builder
	sb.WriteString("Feature key: " + name + "\n")
	sb.WriteString("Goal: " + goal + "\n\n")

	if pack, err := w.workdir.ReadContextPack(); err == nil {
		sb.WriteString(pack)
	}

	return sb.String()
}

// Execute runs the PRP's validation gates and writes the gate report.
// Gates come from .prpkit/gates.toml when present, otherwise from the
// document's Validation Loop section.
func (w *Workflow) Execute(ctx context.Context, name string) (*gates.Report, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	doc, err := w.store.Load(name)
	if err != nil {
		return nil, err
	}

	gateSet, err := w.gatesFor(doc)
	if err != nil {
		return nil, err
	}
	if len(gateSet) == 0 {
		return nil, fmt.Errorf("prp %q defines no validation gates", name)
	}

	session := w.beginSession(name)

	report := w.runner.Run(ctx, gateSet)

	if w.workdir.Path() != "" {
		if err := w.workdir.WriteGateReport(report.Summary()); err != nil {
			return nil, fmt.Errorf("write gate report: %w", err)
		}
		if err := w.workdir.WriteRun(session.PhaseCount(PhaseExecute)+1, report.Summary()); err != nil {
			return nil, fmt.Errorf("write run report: %w", err)
		}
		for _, r := range report.Results {
			_ = w.workdir.WriteLog(r.Gate.Name+".log", []byte(r.Output))
		}
	}

	session.Record(PhaseExecute, report.AllPassed(), report.Summary())
	session.Advance(PhaseReview)
	if err := session.Save(w.root); err != nil {
		return nil, err
	}

	return report, nil
}

func (w *Workflow) gatesFor(doc *prp.Document) ([]gates.Gate, error) {
	override := filepath.Join(w.root, ".prpkit", "gates.toml")
	if _, err := os.Stat(override); err == nil {
		return gates.LoadFile(override)
	}
	return gates.FromDocument(doc), nil
}

// Review judges an executed PRP: gates must pass and each success
// criterion is carried into the verdict. With a configured router the
// review model is asked for additional findings.
func (w *Workflow) Review(ctx context.Context, name string) (*Verdict, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	doc, err := w.store.Load(name)
	if err != nil {
		return nil, err
	}

	gateSet, err := w.gatesFor(doc)
	if err != nil {
		return nil, err
	}

	session := w.beginSession(name)

	report := w.runner.Run(ctx, gateSet)
	verdict := FromGateReport(report)

	for _, criterion := range successCriteria(doc) {
		// Checked boxes in the document count as verified.
		verdict.SetCriterion(criterion.text, criterion.checked)
		if !criterion.checked && verdict.Status == VerdictPass {
			verdict.Status = VerdictReject
			verdict.WithReason("Unverified criterion: " + criterion.text)
		}
	}

	if w.router != nil {
		w.reviewWithModel(ctx, doc, verdict)
	}

	if w.workdir.Path() != "" {
		if err := w.workdir.WriteReview(verdict.ToDocument(name)); err != nil {
			return nil, fmt.Errorf("write review: %w", err)
		}
	}

	session.Record(PhaseReview, verdict.IsPassing(), string(verdict.Status))
	if err := session.Save(w.root); err != nil {
		return nil, err
	}

	return verdict, nil
}

func (w *Workflow) reviewWithModel(ctx context.Context, doc *prp.Document, verdict *Verdict) {
	resp, err := w.router.ForReview().Complete(ctx, &llm.CompletionRequest{
		System: reviewSystemPrompt,
		Messages: []llm.Message{
			llm.UserMessage(doc.Render() + "\n\n---\n\nGate results:\n" + verdict.ToDocument(doc.Name)),
		},
	})
	if err != nil {
		// Model review is advisory; gate results stand on their own.
		return
	}

	parsed, err := ParseVerdict(resp.Content)
	if err != nil || parsed == nil {
		return
	}
	if parsed.IsRejecting() {
		verdict.Status = VerdictReject
		verdict.Reasons = append(verdict.Reasons, parsed.Reasons...)
	}
}

// Complete moves a reviewed PRP to the completed folder and clears
// the session.
func (w *Workflow) Complete(name string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.store.Complete(name); err != nil {
		return err
	}

	if w.workdir.Path() != "" {
		_ = w.workdir.WriteSummary(fmt.Sprintf("# Summary\n\nPRP %s completed.\n", name))
	}

	return ClearSession(w.root)
}

// Run drives a PRP through execute and review, retrying the loop
// until the review passes or retries are exhausted. A passing run
// completes the PRP.
func (w *Workflow) Run(ctx context.Context, name string) (*Verdict, error) {
	var verdict *Verdict

	for attempt := 1; attempt <= w.maxRetries; attempt++ {
		if _, err := w.Execute(ctx, name); err != nil {
			return nil, fmt.Errorf("execute: %w", err)
		}

		var err error
		verdict, err = w.Review(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("review: %w", err)
		}

		if verdict.IsPassing() {
			if err := w.Complete(name); err != nil {
				return nil, fmt.Errorf("complete: %w", err)
			}
			return verdict, nil
		}
	}

	return verdict, fmt.Errorf("prp %q rejected after %d attempts: %v",
		name, w.maxRetries, verdict.Reasons)
}

// criterion is one Success Criteria checkbox.
type criterion struct {
	text    string
	checked bool
}

// successCriteria extracts checkbox items from the Success Criteria
// section.
func successCriteria(doc *prp.Document) []criterion {
	section := doc.Section("Success Criteria")
	if section == nil {
		return nil
	}

	var out []criterion
	for _, line := range strings.Split(section.Body, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "- [x]"), strings.HasPrefix(line, "- [X]"):
			out = append(out, criterion{text: strings.TrimSpace(line[5:]), checked: true})
		case strings.HasPrefix(line, "- [ ]"):
			out = append(out, criterion{text: strings.TrimSpace(line[5:]), checked: false})
		}
	}
	return out
}
