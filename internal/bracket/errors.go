package bracket

import "errors"

// Guard violations. They describe why a requested transition was refused and
// are never retried.
var (
	ErrInvalidStatus     = errors.New("operation not allowed in the current status")
	ErrTeamsNotSet       = errors.New("both teams must be set")
	ErrSameTeam          = errors.New("a team cannot play itself")
	ErrTieScore          = errors.New("a match cannot end in a draw")
	ErrNegativeScore     = errors.New("score cannot be negative")
	ErrInvalidSlot       = errors.New("slot must be team1 or team2")
	ErrUnsupportedBestOf = errors.New("best-of must be 1 or 3")
	ErrWinnerConflict    = errors.New("match already finished with a different winner")
	ErrSlotClosed        = errors.New("slot already holds a different team and can no longer change")

	ErrVetoNotStarted     = errors.New("veto has not been started")
	ErrVetoAlreadyStarted = errors.New("veto has already been started")
	ErrVetoCompleted      = errors.New("veto is already completed")
	ErrVetoExhausted      = errors.New("veto script is exhausted")
	ErrMapUnknown         = errors.New("map is not in the pool")
	ErrMapUsed            = errors.New("map has already been banned or picked")
)

// ErrConfiguration marks an inconsistency that construction-time validation
// should have made unreachable.
var ErrConfiguration = errors.New("configuration inconsistency")
