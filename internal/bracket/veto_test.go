package bracket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T) *VetoEngine {
	t.Helper()
	e, err := NewVetoEngine(DefaultMapPool)
	require.NoError(t, err)
	return e
}

// runVeto plays the given maps in order and returns the final session.
func runVeto(t *testing.T, e *VetoEngine, bestOf int, first Slot, maps ...string) *VetoSession {
	t.Helper()
	var steps []VetoStep
	for _, m := range maps {
		s, err := e.Session(bestOf, first, steps)
		require.NoError(t, err)
		added, err := e.Choose(s, m)
		require.NoError(t, err, "choosing %s", m)
		steps = append(steps, added...)
	}
	s, err := e.Session(bestOf, first, steps)
	require.NoError(t, err)
	return s
}

func TestNewVetoEngineValidation(t *testing.T) {
	_, err := NewVetoEngine(DefaultMapPool[:6])
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = NewVetoEngine([]string{"a", "b", "c", "d", "e", "f", "a"})
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = newVetoEngine([]string{"a", "b", "c"}, map[int][]ScriptStep{1: {firstBan, secondPick}})
	assert.ErrorIs(t, err, ErrConfiguration)

	e, err := NewVetoEngine(DefaultMapPool)
	require.NoError(t, err)
	assert.Equal(t, DefaultMapPool, e.Pool())
}

func TestBestOfOneVeto(t *testing.T) {
	e := newEngine(t)
	s := runVeto(t, e, 1, Team2, "ancient", "anubis", "dust2", "inferno", "mirage", "nuke")

	assert.True(t, s.Completed)
	require.Len(t, s.Steps, 7)
	assert.Equal(t, []string{"train"}, s.Maps)
	assert.Empty(t, s.Remaining)
	assert.Nil(t, s.Next)

	leftover := s.Steps[6]
	assert.Equal(t, VetoLeftover, leftover.Action)
	assert.Equal(t, "train", leftover.Map)
	assert.Equal(t, 7, leftover.Order)

	for i, step := range s.Steps[:6] {
		assert.Equal(t, VetoBan, step.Action)
		if i%2 == 0 {
			assert.Equal(t, Team2, step.Team, "step %d", i+1)
		} else {
			assert.Equal(t, Team1, step.Team, "step %d", i+1)
		}
	}
}

func TestBestOfThreeVeto(t *testing.T) {
	e := newEngine(t)
	s := runVeto(t, e, 3, Team1, "nuke", "train", "mirage", "inferno", "ancient", "anubis")

	assert.True(t, s.Completed)
	assert.Equal(t, []string{"mirage", "inferno", "dust2"}, s.Maps)

	seen := map[string]bool{}
	for _, m := range s.Maps {
		assert.False(t, seen[m], "map %s repeated", m)
		seen[m] = true
	}

	actions := make([]VetoAction, 0, len(s.Steps))
	for _, step := range s.Steps {
		actions = append(actions, step.Action)
	}
	assert.Equal(t, []VetoAction{VetoBan, VetoBan, VetoPick, VetoPick, VetoBan, VetoBan, VetoLeftover}, actions)
	assert.Equal(t, Team1, s.Steps[2].Team)
	assert.Equal(t, Team2, s.Steps[3].Team)
}

func TestChooseRejections(t *testing.T) {
	e := newEngine(t)

	s := runVeto(t, e, 1, Team1, "nuke")
	require.NotNil(t, s.Next)
	assert.Equal(t, NextStep{Team: Team2, Action: VetoBan}, *s.Next)

	_, err := e.Choose(s, "nuke")
	assert.ErrorIs(t, err, ErrMapUsed)

	_, err = e.Choose(s, "cache")
	assert.ErrorIs(t, err, ErrMapUnknown)

	done := runVeto(t, e, 1, Team1, "ancient", "anubis", "dust2", "inferno", "mirage", "nuke")
	_, err = e.Choose(done, "train")
	assert.ErrorIs(t, err, ErrVetoCompleted)

	_, err = e.Session(5, Team1, nil)
	assert.ErrorIs(t, err, ErrUnsupportedBestOf)
}

func TestUndo(t *testing.T) {
	e := newEngine(t)

	assert.Equal(t, 0, Undo(nil))

	s := runVeto(t, e, 3, Team1, "nuke", "train")
	assert.Equal(t, 1, Undo(s.Steps))

	maps := []string{"nuke", "train", "mirage", "inferno", "ancient", "anubis"}
	done := runVeto(t, e, 3, Team1, maps...)
	require.True(t, done.Completed)

	keep := Undo(done.Steps)
	assert.Equal(t, 5, keep)

	rewound, err := e.Session(3, Team1, done.Steps[:keep])
	require.NoError(t, err)
	before := runVeto(t, e, 3, Team1, maps[:5]...)
	assert.Equal(t, before, rewound)
	assert.False(t, rewound.Completed)
	assert.Contains(t, rewound.Remaining, "anubis")
}

func TestSessionRejectsInconsistentSteps(t *testing.T) {
	e := newEngine(t)

	_, err := e.Session(1, Team1, []VetoStep{{Team: Team2, Action: VetoBan, Map: "nuke", Order: 1}})
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = e.Session(1, Team1, []VetoStep{{Team: Team1, Action: VetoBan, Map: "nuke", Order: 2}})
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = e.Session(3, Team1, []VetoStep{{Team: Team1, Action: VetoLeftover, Map: "nuke", Order: 1}})
	assert.ErrorIs(t, err, ErrConfiguration)
}
