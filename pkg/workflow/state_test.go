package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_New(t *testing.T) {
	s := NewSession("user-auth")

	assert.NotEmpty(t, s.ID)
	assert.Equal(t, "user-auth", s.PRP)
	assert.Equal(t, PhasePrime, s.Phase)
	assert.False(t, s.StartedAt.IsZero())
}

func TestSession_SaveLoad(t *testing.T) {
	root := t.TempDir()

	s := NewSession("user-auth")
	s.Advance(PhaseExecute)
	s.Record(PhaseCreate, true, "PRPs/user-auth.md")
	require.NoError(t, s.Save(root))

	loaded, err := LoadSession(root)
	require.NoError(t, err)

	assert.Equal(t, s.ID, loaded.ID)
	assert.Equal(t, PhaseExecute, loaded.Phase)
	require.Len(t, loaded.History, 1)
	assert.Equal(t, PhaseCreate, loaded.History[0].Phase)
	assert.True(t, loaded.History[0].Passed)
}

func TestSession_PhaseCount(t *testing.T) {
	s := NewSession("user-auth")
	assert.Zero(t, s.PhaseCount(PhaseExecute))

	s.Record(PhaseExecute, false, "- test: FAIL")
	s.Record(PhaseReview, false, "reject")
	s.Record(PhaseExecute, true, "- test: PASS")

	assert.Equal(t, 2, s.PhaseCount(PhaseExecute))
	assert.Equal(t, 1, s.PhaseCount(PhaseReview))
	assert.Zero(t, s.PhaseCount(PhaseCreate))
}

func TestLoadSession_Missing(t *testing.T) {
	_, err := LoadSession(t.TempDir())
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestClearSession(t *testing.T) {
	root := t.TempDir()

	// Clearing a missing session is not an error.
	require.NoError(t, ClearSession(root))

	s := NewSession("feature")
	require.NoError(t, s.Save(root))
	require.NoError(t, ClearSession(root))

	_, err := LoadSession(root)
	assert.ErrorIs(t, err, ErrNoSession)
}
