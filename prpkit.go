// Package prpkit drives Product Requirement Prompts (PRPs) through
// their lifecycle.
//
// A PRP is an implementation brief with enough context and validation
// commands for an AI coding agent to ship a feature in one pass. The
// workflow has four phases:
//   - Prime: collect project context into a context pack
//   - Create: draft the PRP (LLM-assisted or from the template)
//   - Execute: run the PRP's validation gates
//   - Review: judge gates and success criteria into a verdict
//
// # Quick Start
//
//	wf, err := prpkit.New(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	doc, err := wf.Create(ctx, "user-auth", "Add login with sessions")
//	report, err := wf.Execute(ctx, "user-auth")
//	verdict, err := wf.Review(ctx, "user-auth")
//
// A passing verdict lets Complete move the PRP to PRPs/completed/.
// The prpkit CLI and prpkit-service binaries wrap the same workflow.
package prpkit

import (
	"github.com/prpkit/prpkit/pkg/llm"
	"github.com/prpkit/prpkit/pkg/prp"
	"github.com/prpkit/prpkit/pkg/workflow"
)

// Document is an alias for the PRP document type.
type Document = prp.Document

// Store is an alias for the PRP file store.
type Store = prp.Store

// Workflow is an alias for the workflow orchestrator.
type Workflow = workflow.Workflow

// Session is an alias for the persisted workflow session.
type Session = workflow.Session

// Verdict is an alias for the review verdict.
type Verdict = workflow.Verdict

// Router is an alias for the phase-to-model router.
type Router = llm.Router

// New creates a workflow rooted at dir without an LLM; drafting falls
// back to the template and review to gates and criteria.
func New(dir string) (*Workflow, error) {
	return workflow.New(workflow.Config{Root: dir}, nil)
}

// NewWithRouter creates a workflow with an LLM router for drafting
// and review.
func NewWithRouter(dir string, router *Router) (*Workflow, error) {
	return workflow.New(workflow.Config{Root: dir}, router)
}

// NewClaudeRouter builds a router backed by the Claude API.
func NewClaudeRouter(apiKey string) *Router {
	return llm.NewRouter(llm.NewClaudeProvider(apiKey))
}
