// Package main provides the prpkit CLI.
//
// prpkit drives Product Requirement Prompts (PRPs) through their
// lifecycle: prime project context, create a PRP, hand it to an AI
// coding agent, run its validation gates, review the result, and
// complete it.
//
// Usage:
//
//	prpkit prime [name]                      - Collect project context
//	prpkit create <name> [--goal "..."]      - Draft a new PRP
//	prpkit run [--prp name|--prp-path path]  - Hand a PRP to an agent
//	prpkit gates <name>                      - Run validation gates
//	prpkit review <name>                     - Review gates and criteria
//	prpkit loop <name>                       - Gate/review loop to completion
//	prpkit complete <name>                   - Move a PRP to completed/
//	prpkit lint <name>                       - Check required sections
//	prpkit list                              - List PRPs
//	prpkit status                            - Show session status
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/prpkit/prpkit/internal/config"
	"github.com/prpkit/prpkit/pkg/llm"
	"github.com/prpkit/prpkit/pkg/runner"
	"github.com/prpkit/prpkit/pkg/workflow"
)

// version is set via -ldflags at build time
var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "prime":
		err = cmdPrime(args)
	case "create":
		err = cmdCreate(args)
	case "run":
		err = cmdRun(args)
	case "gates", "execute":
		err = cmdGates(args)
	case "review":
		err = cmdReview(args)
	case "loop":
		err = cmdLoop(args)
	case "complete":
		err = cmdComplete(args)
	case "lint":
		err = cmdLint(args)
	case "list":
		err = cmdList(args)
	case "status":
		err = cmdStatus(args)
	case "version", "-v", "--version":
		fmt.Printf("prpkit version %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`prpkit - Product Requirement Prompt workflow

Commands:
  prime [name]                         Collect project context into the workdir
  create <name> [--goal "..."]         Draft a new PRP (LLM or template)
  run [flags]                          Hand a PRP to an AI coding agent
      --prp <name>                     Feature key (PRPs/<name>.md)
      --prp-path <path>                Explicit PRP file path
      --interactive                    Run the agent interactively
      --output-format <fmt>            text, json or stream-json (headless)
      --model <name>                   claude (default) or cursor
  gates <name>                         Run the PRP's validation gates
  review <name>                        Review gate results and success criteria
  loop <name>                          Repeat gates+review until pass or retries exhausted
  complete <name>                      Move a passing PRP to PRPs/completed/
  lint <name>                          Check the PRP for required sections
  list                                 List active and completed PRPs
  status                               Show the current session
  version                              Show version
  help                                 Show this help

Environment:
  ANTHROPIC_API_KEY    Enables LLM drafting and review (optional)
  GEMINI_API_KEY       Enables the Gemini provider (optional)`)
}

// buildWorkflow assembles a workflow rooted at the current directory.
func buildWorkflow() (*workflow.Workflow, error) {
	root, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}

	cfg, err := config.Load(config.DefaultConfigPath())
	if err != nil {
		cfg = config.DefaultConfig()
	}

	wfConfig := workflow.Config{
		Root:             root,
		MaxReviewRetries: cfg.Workflow.MaxReviewRetries,
	}
	if cfg.Workflow.GateTimeout != "" {
		if d, err := time.ParseDuration(cfg.Workflow.GateTimeout); err == nil {
			wfConfig.GateTimeout = d
		}
	}

	return workflow.New(wfConfig, buildRouter(cfg))
}

func buildRouter(cfg *config.Config) *llm.Router {
	var provider llm.Provider

	switch cfg.LLM.Provider {
	case "gemini":
		p, err := llm.NewGeminiProvider(context.Background(), cfg.LLM.GeminiAPIKey)
		if err != nil {
			return nil
		}
		provider = p
	default:
		if cfg.LLM.ClaudeAPIKey == "" {
			return nil
		}
		provider = llm.NewClaudeProvider(cfg.LLM.ClaudeAPIKey)
	}

	return llm.NewRouter(provider).
		SetCreationModel(cfg.LLM.CreationModel).
		SetExecutionModel(cfg.LLM.ExecutionModel).
		SetReviewModel(cfg.LLM.ReviewModel)
}

// cmdPrime collects project context and writes the context pack.
func cmdPrime(args []string) error {
	name := "context"
	if len(args) > 0 {
		name = args[0]
	}

	wf, err := buildWorkflow()
	if err != nil {
		return err
	}

	pack, err := wf.Prime(context.Background(), name)
	if err != nil {
		return err
	}

	fmt.Printf("Collected %d files (%d bytes) into %s\n",
		len(pack.Files), pack.TotalBytes(), wf.Workdir().Path())
	return nil
}

// cmdCreate drafts a new PRP.
func cmdCreate(args []string) error {
	if len(args) < 1 || strings.HasPrefix(args[0], "-") {
		return fmt.Errorf("usage: prpkit create <name> [--goal \"...\"]")
	}
	name := args[0]

	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	goal := fs.String("goal", "", "one-line goal for the PRP")
	if err := parseArgs(fs, args[1:]); err != nil {
		return err
	}

	wf, err := buildWorkflow()
	if err != nil {
		return err
	}

	doc, err := wf.Create(context.Background(), name, *goal)
	if err != nil {
		return err
	}

	fmt.Printf("Created %s\n", doc.Path)
	fmt.Println("Edit the PRP, then run:")
	fmt.Printf("  prpkit run --prp %s\n", name)
	return nil
}

// cmdRun hands a PRP to an AI coding agent.
func cmdRun(args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	prpName := fs.String("prp", "", "feature key (PRPs/<name>.md)")
	prpPath := fs.String("prp-path", "", "explicit PRP file path")
	interactive := fs.Bool("interactive", false, "run the agent interactively")
	outputFormat := fs.String("output-format", "text", "headless output format: text, json, stream-json")
	model := fs.String("model", "claude", "agent backend: claude or cursor")
	if err := parseArgs(fs, args); err != nil {
		return err
	}

	root, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	return runner.New().Run(context.Background(), runner.Options{
		PRP:          *prpName,
		PRPPath:      *prpPath,
		Root:         root,
		Model:        *model,
		Interactive:  *interactive,
		OutputFormat: runner.Format(*outputFormat),
	})
}

// cmdGates runs a PRP's validation gates.
func cmdGates(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: prpkit gates <name>")
	}

	wf, err := buildWorkflow()
	if err != nil {
		return err
	}

	report, err := wf.Execute(context.Background(), args[0])
	if err != nil {
		return err
	}

	fmt.Print(report.Summary())
	if !report.AllPassed() {
		os.Exit(1)
	}
	return nil
}

// cmdReview reviews gate results and success criteria.
func cmdReview(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: prpkit review <name>")
	}

	wf, err := buildWorkflow()
	if err != nil {
		return err
	}

	verdict, err := wf.Review(context.Background(), args[0])
	if err != nil {
		return err
	}

	fmt.Print(verdict.ToDocument(args[0]))
	if verdict.IsRejecting() {
		os.Exit(1)
	}
	return nil
}

// cmdLoop drives the gates+review loop until pass or retries run out.
func cmdLoop(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: prpkit loop <name>")
	}

	wf, err := buildWorkflow()
	if err != nil {
		return err
	}

	verdict, err := wf.Run(context.Background(), args[0])
	if err != nil {
		return err
	}

	fmt.Print(verdict.ToDocument(args[0]))
	fmt.Printf("\nPRP %s completed.\n", args[0])
	return nil
}

// cmdComplete moves a PRP to the completed folder.
func cmdComplete(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: prpkit complete <name>")
	}

	wf, err := buildWorkflow()
	if err != nil {
		return err
	}

	if err := wf.Complete(args[0]); err != nil {
		return err
	}

	fmt.Printf("PRP %s moved to %s\n", args[0], wf.Store().CompletedDir())
	return nil
}

// cmdLint checks a PRP for the required sections.
func cmdLint(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: prpkit lint <name>")
	}

	wf, err := buildWorkflow()
	if err != nil {
		return err
	}

	doc, err := wf.Store().Load(args[0])
	if err != nil {
		return err
	}

	report := doc.Lint()
	if report.OK() {
		fmt.Println("All required sections present.")
		return nil
	}

	for _, h := range report.Missing {
		fmt.Printf("missing: %s\n", h)
	}
	for _, h := range report.Empty {
		fmt.Printf("empty:   %s\n", h)
	}
	os.Exit(1)
	return nil
}

// cmdList lists active and completed PRPs.
func cmdList(args []string) error {
	wf, err := buildWorkflow()
	if err != nil {
		return err
	}

	active, err := wf.Store().List()
	if err != nil {
		return err
	}
	completed, err := wf.Store().ListCompleted()
	if err != nil {
		return err
	}

	if len(active) == 0 && len(completed) == 0 {
		fmt.Println("No PRPs found. Run 'prpkit create <name>' to start one.")
		return nil
	}

	if len(active) > 0 {
		fmt.Println("Active:")
		for _, name := range active {
			fmt.Printf("  %s\n", name)
		}
	}
	if len(completed) > 0 {
		fmt.Println("Completed:")
		for _, name := range completed {
			fmt.Printf("  %s\n", name)
		}
	}
	return nil
}

// cmdStatus shows the current session.
func cmdStatus(args []string) error {
	wf, err := buildWorkflow()
	if err != nil {
		return err
	}

	session := wf.Session()
	if session == nil {
		fmt.Println("No active session.")
		return nil
	}

	fmt.Printf("PRP:     %s\n", session.PRP)
	fmt.Printf("Phase:   %s\n", session.Phase)
	fmt.Printf("Workdir: %s\n", session.Workdir)
	fmt.Printf("Started: %s\n", session.StartedAt.Format(time.RFC3339))

	if len(session.History) > 0 {
		fmt.Println("History:")
		for _, rec := range session.History {
			status := "ok"
			if !rec.Passed {
				status = "failed"
			}
			fmt.Printf("  %-8s %-6s %s\n", rec.Phase, status, rec.Notes)
		}
	}
	return nil
}

// parseArgs parses flags, suppressing the default usage spam so errors
// surface once through main.
func parseArgs(fs *flag.FlagSet, args []string) error {
	fs.SetOutput(os.Stderr)
	return fs.Parse(args)
}
