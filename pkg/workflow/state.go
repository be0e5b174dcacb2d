package workflow

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Phase identifies a workflow phase.
type Phase string

const (
	PhasePrime   Phase = "prime"
	PhaseCreate  Phase = "create"
	PhaseExecute Phase = "execute"
	PhaseReview  Phase = "review"
)

// ErrNoSession indicates no saved session exists.
var ErrNoSession = errors.New("no session found")

// PhaseRecord is one completed phase in the session history.
type PhaseRecord struct {
	Phase       Phase     `json:"phase"`
	CompletedAt time.Time `json:"completed_at"`
	Passed      bool      `json:"passed"`
	Notes       string    `json:"notes,omitempty"`
}

// Session tracks one PRP through the workflow. It persists to
// .prpkit/state.json so the CLI can resume across invocations.
type Session struct {
	ID        string        `json:"id"`
	PRP       string        `json:"prp"`
	Phase     Phase         `json:"phase"`
	Workdir   string        `json:"workdir,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	History   []PhaseRecord `json:"history,omitempty"`
}

// NewSession starts a session for a PRP.
func NewSession(prpName string) *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.NewString(),
		PRP:       prpName,
		Phase:     PhasePrime,
		StartedAt: now,
		UpdatedAt: now,
	}
}

// Advance moves the session to a phase.
func (s *Session) Advance(phase Phase) {
	s.Phase = phase
	s.UpdatedAt = time.Now()
}

// Record appends a completed phase to the history.
func (s *Session) Record(phase Phase, passed bool, notes string) {
	s.History = append(s.History, PhaseRecord{
		Phase:       phase,
		CompletedAt: time.Now(),
		Passed:      passed,
		Notes:       notes,
	})
	s.UpdatedAt = time.Now()
}

// PhaseCount returns how many times a phase appears in the history.
func (s *Session) PhaseCount(phase Phase) int {
	n := 0
	for _, rec := range s.History {
		if rec.Phase == phase {
			n++
		}
	}
	return n
}

// Save writes the session to .prpkit/state.json under root.
func (s *Session) Save(root string) error {
	path := statePath(root)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// LoadSession reads the saved session under root.
func LoadSession(root string) (*Session, error) {
	data, err := os.ReadFile(statePath(root))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("read state: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse state: %w", err)
	}

	return &s, nil
}

// ClearSession removes the saved session.
func ClearSession(root string) error {
	err := os.Remove(statePath(root))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func statePath(root string) string {
	return filepath.Join(root, ".prpkit", "state.json")
}
