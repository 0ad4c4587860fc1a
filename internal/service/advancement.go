package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/AdamBeresnev/esports-bracket/internal/bracket"
	"github.com/AdamBeresnev/esports-bracket/internal/events"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Placement is one destination slot touched by advancement.
type Placement struct {
	MatchID uuid.UUID           `json:"match_id"`
	Round   bracket.Round       `json:"round"`
	Slot    bracket.Slot        `json:"slot"`
	TeamID  uuid.UUID           `json:"team_id"`
	Status  bracket.MatchStatus `json:"status"`
	Changed bool                `json:"changed"`
}

// advance routes the winner and loser of a finished match into their
// destination slots. Writes are unconditional and idempotent; a repeated call
// with the same result reports every placement as unchanged. Grand final
// results route nowhere.
func (s *MatchService) advance(ctx context.Context, tx *sqlx.Tx, source *bracket.Match, res bracket.Result) ([]Placement, error) {
	route, ok := bracket.Lookup(source.Round)
	if !ok {
		return nil, nil
	}

	winner, err := s.place(ctx, tx, source, route.Winner, res.Winner)
	if err != nil {
		return nil, err
	}
	placements := []Placement{winner}

	if route.Loser != nil {
		loser, err := s.place(ctx, tx, source, *route.Loser, res.Loser)
		if err != nil {
			return nil, err
		}
		placements = append(placements, loser)
	}
	return placements, nil
}

// place reads the destination inside the transaction, so a second feeder of
// the same slot sees the first one's write before the pending→scheduled
// check. A destination that has been played, or whose veto has begun,
// refuses a different team and the whole finish rolls back.
func (s *MatchService) place(ctx context.Context, tx *sqlx.Tx, source *bracket.Match, edge bracket.Edge, team uuid.UUID) (Placement, error) {
	dest, err := s.store.GetMatchByRoundTx(ctx, tx, source.TournamentID, edge.Round)
	if errors.Is(err, sql.ErrNoRows) {
		return Placement{}, fmt.Errorf("%w: %s routes to missing slot %s", bracket.ErrConfiguration, source.Round, edge.Round)
	}
	if err != nil {
		return Placement{}, fmt.Errorf("failed to get %s: %w", edge.Round, err)
	}

	written, err := dest.Place(edge.Slot, team)
	if err != nil {
		return Placement{}, guard("advance into", dest, err)
	}

	if dest.HasBothTeams() && *dest.Team1ID == *dest.Team2ID {
		s.deps.Logger.WarnContext(ctx, "slot holds the same team on both sides",
			"match_id", dest.ID, "round", dest.Round, "team_id", *dest.Team1ID)
	}

	promoted := dest.Promote()
	changed := written || promoted
	if changed {
		if err := s.store.UpdateMatch(ctx, tx, dest); err != nil {
			return Placement{}, writeErr(string(dest.Round), err)
		}
	}

	s.deps.Metrics.Advanced(changed)
	return Placement{
		MatchID: dest.ID,
		Round:   dest.Round,
		Slot:    edge.Slot,
		TeamID:  team,
		Status:  dest.Status,
		Changed: changed,
	}, nil
}

func advancementEvent(source *bracket.Match, res bracket.Result, placements []Placement) events.Advancement {
	ev := events.Advancement{
		TournamentID:  source.TournamentID,
		SourceMatchID: source.ID,
		SourceRound:   source.Round,
		WinnerID:      res.Winner,
		LoserID:       res.Loser,
		Slots:         make([]events.SlotChange, 0, len(placements)),
	}
	for _, p := range placements {
		if !p.Changed {
			continue
		}
		ev.Slots = append(ev.Slots, events.SlotChange{
			MatchID: p.MatchID,
			Round:   p.Round,
			Slot:    p.Slot,
			TeamID:  p.TeamID,
			Status:  p.Status,
		})
	}
	return ev
}
