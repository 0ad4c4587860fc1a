package bracket

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// The methods below apply one lifecycle transition to an in-memory match.
// They never touch storage; callers persist the result with a
// compare-and-set on Version.

// Promote moves a pending match to scheduled once both teams are known and
// distinct. It reports whether the status changed.
func (m *Match) Promote() bool {
	if m.Status != MatchPending || !m.HasBothTeams() {
		return false
	}
	if *m.Team1ID == *m.Team2ID {
		return false
	}
	m.Status = MatchScheduled
	return true
}

// Start puts a scheduled match live at the given time and returns how late it
// started compared to its scheduled time (zero when unscheduled or early).
func (m *Match) Start(at time.Time) (time.Duration, error) {
	if m.Status != MatchScheduled {
		return 0, ErrInvalidStatus
	}
	if !m.HasBothTeams() {
		return 0, ErrTeamsNotSet
	}
	at = at.UTC()
	m.Status = MatchLive
	m.IsLive = true
	m.StartedAt = &at

	if m.ScheduledAt == nil {
		return 0, nil
	}
	delay := at.Sub(*m.ScheduledAt)
	if delay < 0 {
		return 0, nil
	}
	return delay, nil
}

// Result is the outcome of a finished match.
type Result struct {
	Winner uuid.UUID
	Loser  uuid.UUID
	// Repeat is set when the match was already finished with the same winner.
	Repeat bool
}

// Finish records the final score of a live match. An already finished match
// accepts a repeated result naming the same winner so re-advancement stays
// idempotent; a different winner is refused.
func (m *Match) Finish(team1Score, team2Score int, at time.Time) (Result, error) {
	if m.Status != MatchLive && m.Status != MatchFinished {
		return Result{}, ErrInvalidStatus
	}
	if !m.HasBothTeams() {
		return Result{}, ErrTeamsNotSet
	}
	if team1Score < 0 || team2Score < 0 {
		return Result{}, ErrNegativeScore
	}
	if team1Score == team2Score {
		return Result{}, ErrTieScore
	}

	winner, loser := *m.Team1ID, *m.Team2ID
	if team2Score > team1Score {
		winner, loser = loser, winner
	}

	if m.Status == MatchFinished {
		if m.WinnerID == nil || *m.WinnerID != winner {
			return Result{}, ErrWinnerConflict
		}
		m.Team1Score, m.Team2Score = team1Score, team2Score
		return Result{Winner: winner, Loser: loser, Repeat: true}, nil
	}

	at = at.UTC()
	m.Team1Score, m.Team2Score = team1Score, team2Score
	m.WinnerID = &winner
	m.Status = MatchFinished
	m.IsLive = false
	m.FinishedAt = &at
	return Result{Winner: winner, Loser: loser}, nil
}

// Cancel ends a non-finished match without a winner. Cancelling twice is a
// no-op and reports changed=false.
func (m *Match) Cancel() (bool, error) {
	switch m.Status {
	case MatchCancelled:
		return false, nil
	case MatchFinished:
		return false, ErrInvalidStatus
	}
	m.Status = MatchCancelled
	m.IsLive = false
	return true, nil
}

// AdjustScore changes one side's running score while the match is live.
func (m *Match) AdjustScore(slot Slot, delta int) error {
	if m.Status != MatchLive {
		return ErrInvalidStatus
	}
	if !slot.Valid() {
		return ErrInvalidSlot
	}
	score := &m.Team1Score
	if slot == Team2 {
		score = &m.Team2Score
	}
	if *score+delta < 0 {
		return ErrNegativeScore
	}
	*score += delta
	return nil
}

// Place writes team into one side of the match and reports whether it
// changed. Re-placing the team already there is a no-op in any status.
// Otherwise the side must be open: the match has not started and its veto
// has not begun. A cancelled match still accepts a team into an empty side
// so the bracket records who would have played.
func (m *Match) Place(slot Slot, team uuid.UUID) (bool, error) {
	if !slot.Valid() {
		return false, ErrInvalidSlot
	}
	current := m.TeamIn(slot)
	if current != nil && *current == team {
		return false, nil
	}
	switch m.Status {
	case MatchPending, MatchScheduled:
		if m.VetoFirstTeam != nil {
			return false, ErrVetoAlreadyStarted
		}
	case MatchCancelled:
		if current != nil {
			return false, ErrSlotClosed
		}
	default:
		return false, ErrSlotClosed
	}
	m.SetTeam(slot, team)
	return true, nil
}

// Assign places teams into a match that has not started yet. Nil leaves the
// slot untouched.
func (m *Match) Assign(team1, team2 *uuid.UUID) error {
	if m.Status != MatchPending && m.Status != MatchScheduled {
		return ErrInvalidStatus
	}
	for i, team := range []*uuid.UUID{team1, team2} {
		if team == nil {
			continue
		}
		if _, err := m.Place(Slot(i+1), *team); err != nil {
			return err
		}
	}
	if m.HasBothTeams() && *m.Team1ID == *m.Team2ID {
		return ErrSameTeam
	}
	m.Promote()
	return nil
}

func (m *Match) Schedule(at time.Time) error {
	if m.Status != MatchPending && m.Status != MatchScheduled {
		return ErrInvalidStatus
	}
	at = at.UTC()
	m.ScheduledAt = &at
	return nil
}

func (m *Match) SetBestOf(n int) error {
	if n != 1 && n != 3 {
		return ErrUnsupportedBestOf
	}
	if m.Status != MatchPending && m.Status != MatchScheduled {
		return ErrInvalidStatus
	}
	if m.VetoFirstTeam != nil {
		return ErrVetoAlreadyStarted
	}
	m.BestOf = n
	return nil
}

// DelayPolicy decides how far the rest of the schedule slips when a match
// starts late.
type DelayPolicy struct {
	Grace    time.Duration
	MinShift time.Duration
}

var DefaultDelayPolicy = DelayPolicy{Grace: 5 * time.Minute, MinShift: 10 * time.Minute}

// Shift returns the amount later matches are pushed back, or false when the
// delay is within the grace period.
func (p DelayPolicy) Shift(delay time.Duration) (time.Duration, bool) {
	if delay <= p.Grace {
		return 0, false
	}
	return max(delay, p.MinShift), true
}

// ShiftSchedule pushes back every not-yet-started match scheduled after
// `after` by shift. It returns the matches it changed; relative order is kept
// because every one of them moves by the same amount.
func ShiftSchedule(matches []Match, skip uuid.UUID, after time.Time, shift time.Duration) []*Match {
	var shifted []*Match
	for i := range matches {
		m := &matches[i]
		if m.ID == skip || m.ScheduledAt == nil {
			continue
		}
		if m.Status != MatchPending && m.Status != MatchScheduled {
			continue
		}
		if !m.ScheduledAt.After(after) {
			continue
		}
		next := m.ScheduledAt.Add(shift).UTC()
		m.ScheduledAt = &next
		shifted = append(shifted, m)
	}
	return shifted
}

func (m *Match) String() string {
	return fmt.Sprintf("%s (%s)", m.ID, m.Round)
}
