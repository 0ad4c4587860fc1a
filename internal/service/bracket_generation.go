package service

import (
	"time"

	"github.com/AdamBeresnev/esports-bracket/internal/bracket"
	"github.com/google/uuid"
)

// seededPairs returns the 1-based seed pairings for the first round: the top
// seed meets the bottom seed, and so on inwards.
func seededPairs(n int) [][2]int {
	pairs := make([][2]int, 0, n/2)
	for i := 1; i <= n/2; i++ {
		pairs = append(pairs, [2]int{i, n + 1 - i})
	}
	return pairs
}

// generateDoubleElimBracket builds every slot of the bracket. teams is in seed
// order. Only the quarterfinals get teams; they come out scheduled, the rest
// pending.
func generateDoubleElimBracket(tournamentID uuid.UUID, teams []uuid.UUID, now time.Time) []bracket.Match {
	matches := make([]bracket.Match, 0, len(bracket.Rounds))
	for _, round := range bracket.Rounds {
		pos, _ := bracket.PositionOf(round)
		matches = append(matches, bracket.Match{
			ID:           uuid.New(),
			TournamentID: tournamentID,
			Round:        round,
			BracketSide:  pos.Side,
			RoundNumber:  pos.RoundNumber,
			MatchOrder:   pos.MatchOrder,
			Status:       bracket.MatchPending,
			BestOf:       pos.BestOf,
			CreatedAt:    now,
		})
	}

	for i, pair := range seededPairs(len(teams)) {
		qf := bracket.QuarterFinals[i]
		for j := range matches {
			if matches[j].Round != qf {
				continue
			}
			matches[j].SetTeam(bracket.Team1, teams[pair[0]-1])
			matches[j].SetTeam(bracket.Team2, teams[pair[1]-1])
			matches[j].Promote()
		}
	}
	return matches
}

// validateSeeding checks for exactly TeamCount distinct, non-nil ids.
func validateSeeding(teams []uuid.UUID) error {
	if len(teams) != bracket.TeamCount {
		return ErrTeamCount
	}
	seen := make(map[uuid.UUID]bool, len(teams))
	for _, id := range teams {
		if id == uuid.Nil || seen[id] {
			return ErrTeamCount
		}
		seen[id] = true
	}
	return nil
}
