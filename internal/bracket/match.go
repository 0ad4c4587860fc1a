package bracket

import (
	"time"

	"github.com/google/uuid"
)

type MatchStatus string

const (
	MatchPending   MatchStatus = "pending"
	MatchScheduled MatchStatus = "scheduled"
	MatchLive      MatchStatus = "live"
	MatchFinished  MatchStatus = "finished"
	MatchCancelled MatchStatus = "cancelled"
)

// Terminal reports whether no further transition is allowed.
func (s MatchStatus) Terminal() bool {
	return s == MatchFinished || s == MatchCancelled
}

type BracketSide string

const (
	WinnersSide BracketSide = "winners"
	LosersSide  BracketSide = "losers"
	FinalsSide  BracketSide = "finals"
)

// Match is one slot of the bracket. Rows are created at generation time and
// only mutated afterwards.
type Match struct {
	ID           uuid.UUID `db:"id" json:"id"`
	TournamentID uuid.UUID `db:"tournament_id" json:"tournament_id"`
	Round        Round     `db:"round" json:"round"`

	// Position in the tournament for reconstructing the view
	BracketSide BracketSide `db:"bracket_side" json:"bracket_side"`
	RoundNumber int         `db:"round_number" json:"round_number"`
	MatchOrder  int         `db:"match_order" json:"match_order"`

	Team1ID *uuid.UUID `db:"team1_id" json:"team1_id"`
	Team2ID *uuid.UUID `db:"team2_id" json:"team2_id"`

	Team1Score int         `db:"team1_score" json:"team1_score"`
	Team2Score int         `db:"team2_score" json:"team2_score"`
	Status     MatchStatus `db:"status" json:"status"`
	WinnerID   *uuid.UUID  `db:"winner_id" json:"winner_id"`
	IsLive     bool        `db:"is_live" json:"is_live"`

	BestOf    int     `db:"best_of" json:"best_of"`
	MapName   *string `db:"map_name" json:"map_name"`
	StreamURL *string `db:"stream_url" json:"stream_url"`

	// Nil while no veto session exists for the match.
	VetoFirstTeam *Slot `db:"veto_first_team" json:"veto_first_team"`

	ScheduledAt *time.Time `db:"scheduled_at" json:"scheduled_at"`
	StartedAt   *time.Time `db:"started_at" json:"started_at"`
	FinishedAt  *time.Time `db:"finished_at" json:"finished_at"`

	Version   int       `db:"version" json:"version"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

func (m *Match) TeamIn(slot Slot) *uuid.UUID {
	if slot == Team1 {
		return m.Team1ID
	}
	return m.Team2ID
}

func (m *Match) SetTeam(slot Slot, id uuid.UUID) {
	if slot == Team1 {
		m.Team1ID = &id
	} else {
		m.Team2ID = &id
	}
}

func (m *Match) HasBothTeams() bool {
	return m.Team1ID != nil && m.Team2ID != nil
}
