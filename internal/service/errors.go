package service

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/AdamBeresnev/esports-bracket/internal/bracket"
	"github.com/AdamBeresnev/esports-bracket/internal/store"
	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrConcurrentUpdate is transient; the caller may retry.
	ErrConcurrentUpdate = errors.New("concurrent update, retry")
	ErrBracketExists    = errors.New("bracket already generated")
	ErrTeamCount        = errors.New("exactly 8 distinct teams are required")
	ErrUnknownTeam      = errors.New("unknown team")
	ErrInvalidInput     = errors.New("invalid input")
)

// TransitionError is a refused operation on a match. It carries the state
// the match was in and unwraps to the guard that failed.
type TransitionError struct {
	MatchID uuid.UUID
	Round   bracket.Round
	Status  bracket.MatchStatus
	Op      string
	Err     error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s match %s (%s, %s): %v", e.Op, e.MatchID, e.Round, e.Status, e.Err)
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}

func guard(op string, m *bracket.Match, err error) error {
	if err == nil {
		return nil
	}
	return &TransitionError{MatchID: m.ID, Round: m.Round, Status: m.Status, Op: op, Err: err}
}

// lookupErr turns a missing row into ErrNotFound and wraps anything else.
func lookupErr(what string, id uuid.UUID, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
	}
	return fmt.Errorf("failed to get %s: %w", what, err)
}

func writeErr(what string, err error) error {
	if errors.Is(err, store.ErrVersionConflict) {
		return fmt.Errorf("failed to update %s: %w", what, ErrConcurrentUpdate)
	}
	return fmt.Errorf("failed to update %s: %w", what, err)
}
