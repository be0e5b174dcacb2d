package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/prpkit/prpkit/pkg/prp"
)

// version is set via -ldflags at build time
var version = "dev"

// SetVersion sets the version string (called from main).
func SetVersion(v string) {
	version = v
}

// Response types

// HealthResponse is the response for /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// VersionResponse is the response for /version.
type VersionResponse struct {
	Version string `json:"version"`
	Service string `json:"service"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ListPRPsResponse lists active and completed PRPs.
type ListPRPsResponse struct {
	Active    []string `json:"active"`
	Completed []string `json:"completed"`
}

// CreatePRPRequest is the request body for creating a PRP.
type CreatePRPRequest struct {
	Name string `json:"name"`
	Goal string `json:"goal"`
}

// PRPResponse represents a PRP in API responses.
type PRPResponse struct {
	Name     string `json:"name"`
	Title    string `json:"title"`
	Status   string `json:"status"`
	Path     string `json:"path"`
	Document string `json:"document"`
}

// LintResponse wraps a lint report.
type LintResponse struct {
	OK      bool     `json:"ok"`
	Present []string `json:"present,omitempty"`
	Missing []string `json:"missing,omitempty"`
	Empty   []string `json:"empty,omitempty"`
}

// GateResultItem is one gate outcome.
type GateResultItem struct {
	Name     string `json:"name"`
	Command  string `json:"command"`
	ExitCode int    `json:"exit_code"`
	Passed   bool   `json:"passed"`
	Output   string `json:"output"`
}

// GateReportResponse wraps a gate run.
type GateReportResponse struct {
	AllPassed bool             `json:"all_passed"`
	Results   []GateResultItem `json:"results"`
}

// ReviewResponse wraps a review verdict.
type ReviewResponse struct {
	Status      string   `json:"status"`
	GatesPassed bool     `json:"gates_passed"`
	Reasons     []string `json:"reasons,omitempty"`
}

// PrimeRequest is the request body for priming.
type PrimeRequest struct {
	Name string `json:"name"`
}

// PrimeResponse reports the collected context pack.
type PrimeResponse struct {
	Files      int `json:"files"`
	TotalBytes int `json:"total_bytes"`
}

// SearchRequest is the request body for context search.
type SearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// SearchResultItem is one search hit.
type SearchResultItem struct {
	Path  string  `json:"path"`
	Score float32 `json:"score"`
	Rank  int     `json:"rank"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResultItem `json:"results"`
	Query   string             `json:"query"`
	Total   int                `json:"total"`
}

// Handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{
		Version: version,
		Service: "prpkit-service",
	})
}

func (s *Server) handleListPRPs(w http.ResponseWriter, r *http.Request) {
	store := s.workflow.Store()

	active, err := store.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	completed, err := store.ListCompleted()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, ListPRPsResponse{Active: active, Completed: completed})
}

func (s *Server) handleCreatePRP(w http.ResponseWriter, r *http.Request) {
	var req CreatePRPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}

	doc, err := s.workflow.Create(r.Context(), req.Name, req.Goal)
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, toPRPResponse(doc))
}

func (s *Server) handleGetPRP(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.loadPRP(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toPRPResponse(doc))
}

func (s *Server) handleLintPRP(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.loadPRP(w, r)
	if !ok {
		return
	}

	report := doc.Lint()
	writeJSON(w, http.StatusOK, LintResponse{
		OK:      report.OK(),
		Present: report.Present,
		Missing: report.Missing,
		Empty:   report.Empty,
	})
}

func (s *Server) handleRunGates(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	report, err := s.workflow.Execute(r.Context(), name)
	if err != nil {
		if errors.Is(err, prp.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := GateReportResponse{AllPassed: report.AllPassed()}
	for _, result := range report.Results {
		resp.Results = append(resp.Results, GateResultItem{
			Name:     result.Gate.Name,
			Command:  result.Gate.Command,
			ExitCode: result.ExitCode,
			Passed:   result.Passed(),
			Output:   result.Output,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReviewPRP(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	verdict, err := s.workflow.Review(r.Context(), name)
	if err != nil {
		if errors.Is(err, prp.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, ReviewResponse{
		Status:      string(verdict.Status),
		GatesPassed: verdict.GatesPassed,
		Reasons:     verdict.Reasons,
	})
}

func (s *Server) handleCompletePRP(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if err := s.workflow.Complete(name); err != nil {
		if errors.Is(err, prp.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "completed", "name": name})
}

func (s *Server) handlePrime(w http.ResponseWriter, r *http.Request) {
	var req PrimeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" {
		req.Name = "context"
	}

	pack, err := s.workflow.Prime(r.Context(), req.Name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, PrimeResponse{
		Files:      len(pack.Files),
		TotalBytes: pack.TotalBytes(),
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.index == nil {
		writeError(w, http.StatusServiceUnavailable, "Context index not configured")
		return
	}

	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "Query is required")
		return
	}

	results, err := s.index.Search(r.Context(), req.Query, req.Limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := SearchResponse{Query: req.Query, Total: len(results)}
	for _, result := range results {
		resp.Results = append(resp.Results, SearchResultItem{
			Path:  result.Path,
			Score: result.Score,
			Rank:  result.Rank,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	session := s.workflow.Session()
	if session == nil {
		writeError(w, http.StatusNotFound, "No active session")
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// loadPRP fetches the PRP named in the URL, writing the error response
// on failure.
func (s *Server) loadPRP(w http.ResponseWriter, r *http.Request) (*prp.Document, bool) {
	name := chi.URLParam(r, "name")

	doc, err := s.workflow.Store().Load(name)
	if err != nil {
		if errors.Is(err, prp.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return nil, false
	}
	return doc, true
}

func toPRPResponse(doc *prp.Document) PRPResponse {
	return PRPResponse{
		Name:     doc.Name,
		Title:    doc.Title,
		Status:   string(doc.Status),
		Path:     doc.Path,
		Document: doc.Render(),
	}
}

// Helper functions

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
