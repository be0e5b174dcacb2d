package llm

import (
	"context"
	"sync"
)

// Router routes requests to different models based on the workflow
// phase. Creation drafts PRPs, execution implements them, review
// judges the result.
type Router struct {
	mu sync.RWMutex

	provider Provider

	creationModel  string
	executionModel string
	reviewModel    string
	defaultModel   string
}

// NewRouter creates a new router with the given provider.
func NewRouter(provider Provider) *Router {
	return &Router{provider: provider}
}

// SetCreationModel sets the model for PRP drafting.
func (r *Router) SetCreationModel(model string) *Router {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creationModel = model
	return r
}

// SetExecutionModel sets the model for PRP execution.
func (r *Router) SetExecutionModel(model string) *Router {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executionModel = model
	return r
}

// SetReviewModel sets the model for code review.
func (r *Router) SetReviewModel(model string) *Router {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reviewModel = model
	return r
}

// SetDefaultModel sets the fallback model.
func (r *Router) SetDefaultModel(model string) *Router {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaultModel = model
	return r
}

// CreationModel returns the drafting model, falling back to the default.
func (r *Router) CreationModel() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.creationModel != "" {
		return r.creationModel
	}
	return r.defaultModel
}

// ExecutionModel returns the execution model, falling back to the default.
func (r *Router) ExecutionModel() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.executionModel != "" {
		return r.executionModel
	}
	return r.defaultModel
}

// ReviewModel returns the review model, falling back to the default.
func (r *Router) ReviewModel() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.reviewModel != "" {
		return r.reviewModel
	}
	return r.defaultModel
}

// ForCreation returns a provider pinned to the drafting model.
func (r *Router) ForCreation() Provider {
	return &routedProvider{router: r, model: r.CreationModel()}
}

// ForExecution returns a provider pinned to the execution model.
func (r *Router) ForExecution() Provider {
	return &routedProvider{router: r, model: r.ExecutionModel()}
}

// ForReview returns a provider pinned to the review model.
func (r *Router) ForReview() Provider {
	return &routedProvider{router: r, model: r.ReviewModel()}
}

// Provider returns the underlying provider.
func (r *Router) Provider() Provider {
	return r.provider
}

// Name returns the router name.
func (r *Router) Name() string {
	return "router:" + r.provider.Name()
}

// Complete generates a completion using the default model.
func (r *Router) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	if req.Model == "" {
		r.mu.RLock()
		req.Model = r.defaultModel
		r.mu.RUnlock()
	}
	return r.provider.Complete(ctx, req)
}

// routedProvider wraps a router with a fixed model.
type routedProvider struct {
	router *Router
	model  string
}

func (p *routedProvider) Name() string {
	return p.router.provider.Name()
}

func (p *routedProvider) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	req.Model = p.model
	return p.router.provider.Complete(ctx, req)
}
