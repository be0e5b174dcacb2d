// Package main provides the entry point for prpkit-service.
//
// prpkit-service is a standalone service providing:
// - REST API for programmatic access to the PRP workflow
// - MCP server for AI assistant integration
// - Persistent per-project context indexes
//
// Usage:
//
//	prpkit-service                    Start the service (default)
//	prpkit-service serve              Start the service
//	prpkit-service version            Show version
//	prpkit-service status             Show service status
//	prpkit-service stop               Stop the running service
//	prpkit-service mcp                Start MCP server (stdio mode)
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/philippgille/chromem-go"

	"github.com/prpkit/prpkit/internal/api"
	"github.com/prpkit/prpkit/internal/config"
	"github.com/prpkit/prpkit/internal/logger"
	"github.com/prpkit/prpkit/internal/mcp"
	"github.com/prpkit/prpkit/internal/service"
	"github.com/prpkit/prpkit/pkg/contextpack"
	"github.com/prpkit/prpkit/pkg/llm"
	"github.com/prpkit/prpkit/pkg/workflow"
)

// version is set via -ldflags at build time
var version = "dev"

func main() {
	// Set version in API package
	api.SetVersion(version)

	if len(os.Args) < 2 {
		// Default: start service
		if err := cmdServe(); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	var err error
	switch os.Args[1] {
	case "serve", "start":
		err = cmdServe()
	case "version", "-v", "--version":
		cmdVersion()
	case "status":
		err = cmdStatus()
	case "stop":
		err = cmdStop()
	case "mcp", "mcp-server":
		err = cmdMCP()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`prpkit-service - PRP workflow service

Usage:
  prpkit-service [command]

Commands:
  serve         Start the service (default)
  version       Show version information
  status        Show service status
  stop          Stop the running service
  mcp           Start MCP server (stdio mode for AI assistants)
  help          Show this help

Environment:
  ANTHROPIC_API_KEY    API key for Claude drafting and review (optional)
  GEMINI_API_KEY       API key for Gemini and semantic search (optional)

Configuration:
  Config file: ~/.prpkit/config.yaml (or $APPDATA/prpkit on Windows)

Examples:
  prpkit-service                  Start the service
  prpkit-service mcp              Start MCP server for an AI assistant
  curl localhost:8430/health      Check service health
  curl localhost:8430/prps        List PRPs in the served project`)
}

func cmdVersion() {
	fmt.Printf("prpkit-service version %s\n", version)
}

func cmdServe() error {
	cfg, err := config.Load(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Check if already running
	if running, pid := service.IsRunning(cfg); running {
		return fmt.Errorf("service already running (PID %d)", pid)
	}

	log := logger.SetupLogger(cfg)
	defer logger.Stop()

	root, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	ctx := context.Background()

	wf, err := buildWorkflow(ctx, cfg, root)
	if err != nil {
		return fmt.Errorf("build workflow: %w", err)
	}

	idx, err := buildIndex(ctx, cfg, root)
	if err != nil {
		log.Warn().Err(err).Msg("Context index unavailable, search disabled")
	}

	if watcher := startWatcher(ctx, root, idx); watcher != nil {
		defer watcher.Stop()
	}

	apiServer := api.NewServer(cfg, wf, idx)

	daemon := service.NewDaemon(cfg)
	if err := daemon.Start(apiServer.Handler()); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}

	log.Info().Str("version", version).Str("address", cfg.Address()).Msg("prpkit-service started")

	fmt.Printf("prpkit-service v%s started on %s\n", version, cfg.Address())
	fmt.Printf("Project: %s\n", root)
	fmt.Printf("API: http://%s/prps\n", cfg.Address())

	// Wait for shutdown signal
	daemon.Wait()

	return nil
}

func cmdStatus() error {
	cfg, err := config.Load(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	running, pid := service.IsRunning(cfg)
	if running {
		fmt.Printf("prpkit-service: running (PID %d)\n", pid)
		fmt.Printf("Address: %s\n", cfg.Address())
	} else {
		fmt.Println("prpkit-service: stopped")
	}

	return nil
}

func cmdStop() error {
	cfg, err := config.Load(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	running, pid := service.IsRunning(cfg)
	if !running {
		fmt.Println("prpkit-service is not running")
		return nil
	}

	fmt.Printf("Stopping prpkit-service (PID %d)...\n", pid)
	if err := service.StopRunning(cfg); err != nil {
		return err
	}

	fmt.Println("prpkit-service stopped")
	return nil
}

func cmdMCP() error {
	// Optional project path argument
	root, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}
	if len(os.Args) > 2 {
		root = os.Args[2]
	}

	cfg, err := config.Load(config.DefaultConfigPath())
	if err != nil {
		cfg = config.DefaultConfig()
	}

	if cfg.LLM.GeminiAPIKey == "" {
		fmt.Fprintf(os.Stderr, "[prpkit-service] Warning: GEMINI_API_KEY not set.\n")
		fmt.Fprintf(os.Stderr, "[prpkit-service] Semantic context search disabled.\n")
	}

	ctx := context.Background()

	wf, err := buildWorkflow(ctx, cfg, root)
	if err != nil {
		return fmt.Errorf("build workflow: %w", err)
	}

	idx, err := buildIndex(ctx, cfg, root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[prpkit-service] Context index unavailable: %v\n", err)
	}

	// Seed an empty index from the project's context pack
	if idx != nil && idx.Count() == 0 {
		fmt.Fprintf(os.Stderr, "[prpkit-service] Indexing context for %s...\n", root)
		pack, err := contextpack.NewCollector(root).Collect()
		if err != nil {
			fmt.Fprintf(os.Stderr, "[prpkit-service] Context collection failed: %v\n", err)
		} else if err := idx.AddPack(ctx, pack); err != nil {
			fmt.Fprintf(os.Stderr, "[prpkit-service] Context indexing failed: %v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "[prpkit-service] Indexed %d files\n", idx.Count())
		}
	}

	if watcher := startWatcher(ctx, root, idx); watcher != nil {
		defer watcher.Stop()
	}

	mcpServer := mcp.NewServer(wf, idx, version)
	return mcpServer.ServeStdio()
}

// startWatcher keeps the index fresh while the process runs. Returns
// nil when there is no index or the watcher cannot start.
func startWatcher(ctx context.Context, root string, idx *contextpack.Index) *contextpack.Watcher {
	if idx == nil {
		return nil
	}

	watcher, err := contextpack.NewWatcher(root, func(path string) {
		data, err := os.ReadFile(path)
		if err != nil {
			return
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		_ = idx.Add(ctx, rel, string(data), map[string]string{"path": rel})
	})
	if err != nil {
		return nil
	}
	if err := watcher.Start(); err != nil {
		return nil
	}
	return watcher
}

// buildWorkflow assembles the workflow for a project root, wiring the
// configured LLM provider when one is available.
func buildWorkflow(ctx context.Context, cfg *config.Config, root string) (*workflow.Workflow, error) {
	wfConfig := workflow.Config{
		Root:             root,
		MaxReviewRetries: cfg.Workflow.MaxReviewRetries,
	}
	if cfg.Workflow.GateTimeout != "" {
		d, err := time.ParseDuration(cfg.Workflow.GateTimeout)
		if err != nil {
			return nil, fmt.Errorf("parse gate_timeout: %w", err)
		}
		wfConfig.GateTimeout = d
	}

	return workflow.New(wfConfig, buildRouter(ctx, cfg))
}

// buildRouter creates an LLM router for the configured provider, or
// nil when no provider is configured. The workflow then falls back to
// template drafting and gate-only review.
func buildRouter(ctx context.Context, cfg *config.Config) *llm.Router {
	var provider llm.Provider

	switch cfg.LLM.Provider {
	case "gemini":
		p, err := llm.NewGeminiProvider(ctx, cfg.LLM.GeminiAPIKey)
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

// buildIndex opens the persistent context index for a project. With a
// Gemini key the index embeds documents for semantic search; without
// one it degrades to keyword search.
func buildIndex(ctx context.Context, cfg *config.Config, root string) (*contextpack.Index, error) {
	var embed chromem.EmbeddingFunc
	if cfg.LLM.GeminiAPIKey != "" {
		if p, err := llm.NewGeminiProvider(ctx, cfg.LLM.GeminiAPIKey); err == nil {
			embed = contextpack.GeminiEmbedding(p.Client(), "")
		}
	}

	indexDir := cfg.ProjectIndexDir(root)
	if err := os.MkdirAll(indexDir, 0755); err != nil {
		return nil, fmt.Errorf("create index directory: %w", err)
	}

	return contextpack.NewIndex(indexDir, embed)
}
