// Package events defines the bracket's outbound messages and publishes them
// over a watermill publisher as JSON.
package events

import (
	"time"

	"github.com/AdamBeresnev/esports-bracket/internal/bracket"
	"github.com/google/uuid"
)

const (
	TopicMapResolved     = "bracket.map_resolved"
	TopicAdvancement     = "bracket.advancement"
	TopicScheduleShifted = "bracket.schedule_shifted"
)

// MetadataTournamentID is set on every message so consumers can route
// without decoding the payload.
const MetadataTournamentID = "tournament_id"

type Event interface {
	Topic() string
	Tournament() uuid.UUID
}

// MapResolved is emitted once a veto completes. Maps is in play order.
type MapResolved struct {
	TournamentID uuid.UUID     `json:"tournament_id"`
	MatchID      uuid.UUID     `json:"match_id"`
	Round        bracket.Round `json:"round"`
	BestOf       int           `json:"best_of"`
	Team1ID      *uuid.UUID    `json:"team1_id"`
	Team2ID      *uuid.UUID    `json:"team2_id"`
	Maps         []string      `json:"maps"`
	ResolvedAt   time.Time     `json:"resolved_at"`
}

func (e MapResolved) Topic() string         { return TopicMapResolved }
func (e MapResolved) Tournament() uuid.UUID { return e.TournamentID }

// SlotChange describes one destination slot written by advancement.
type SlotChange struct {
	MatchID uuid.UUID           `json:"match_id"`
	Round   bracket.Round       `json:"round"`
	Slot    bracket.Slot        `json:"slot"`
	TeamID  uuid.UUID           `json:"team_id"`
	Status  bracket.MatchStatus `json:"status"`
}

// Advancement lists only the slots a finish actually changed.
type Advancement struct {
	TournamentID  uuid.UUID     `json:"tournament_id"`
	SourceMatchID uuid.UUID     `json:"source_match_id"`
	SourceRound   bracket.Round `json:"source_round"`
	WinnerID      uuid.UUID     `json:"winner_id"`
	LoserID       uuid.UUID     `json:"loser_id"`
	Slots         []SlotChange  `json:"slots"`
}

func (e Advancement) Topic() string         { return TopicAdvancement }
func (e Advancement) Tournament() uuid.UUID { return e.TournamentID }

type ScheduleShifted struct {
	TournamentID uuid.UUID     `json:"tournament_id"`
	MatchID      uuid.UUID     `json:"match_id"`
	Delay        time.Duration `json:"delay"`
	Shift        time.Duration `json:"shift"`
	Shifted      []uuid.UUID   `json:"shifted"`
}

func (e ScheduleShifted) Topic() string         { return TopicScheduleShifted }
func (e ScheduleShifted) Tournament() uuid.UUID { return e.TournamentID }
