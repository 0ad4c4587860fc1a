package bracket

import (
	"cmp"
	"slices"

	"github.com/google/uuid"
)

// Layout is the bracket as presentation layers draw it: sides in display
// order, each side's rounds left to right and each round's matches top to
// bottom. Placement comes from the topology, not from the stored rows.
type Layout struct {
	Sides []SideLayout       `json:"sides"`
	Teams map[uuid.UUID]Team `json:"teams"`
}

type SideLayout struct {
	Side   BracketSide   `json:"side"`
	Rounds []RoundLayout `json:"rounds"`
}

type RoundLayout struct {
	Number  int     `json:"number"`
	Matches []Match `json:"matches"`
}

var sideOrder = []BracketSide{WinnersSide, LosersSide, FinalsSide}

// drawOrder is Rounds sorted by side, round number and match order.
var drawOrder = func() []Round {
	rounds := slices.Clone(Rounds)
	slices.SortStableFunc(rounds, func(a, b Round) int {
		pa, _ := PositionOf(a)
		pb, _ := PositionOf(b)
		return cmp.Or(
			cmp.Compare(slices.Index(sideOrder, pa.Side), slices.Index(sideOrder, pb.Side)),
			cmp.Compare(pa.RoundNumber, pb.RoundNumber),
			cmp.Compare(pa.MatchOrder, pb.MatchOrder),
		)
	})
	return rounds
}()

// NewLayout places matches by their round. Rounds with no match are left
// out, and so are matches of rounds the topology does not know.
func NewLayout(teams []Team, matches []Match) Layout {
	layout := Layout{
		Sides: []SideLayout{},
		Teams: make(map[uuid.UUID]Team, len(teams)),
	}
	for _, t := range teams {
		layout.Teams[t.ID] = t
	}

	byRound := make(map[Round]Match, len(matches))
	for _, m := range matches {
		byRound[m.Round] = m
	}

	for _, r := range drawOrder {
		m, ok := byRound[r]
		if !ok {
			continue
		}
		pos, _ := PositionOf(r)

		if n := len(layout.Sides); n == 0 || layout.Sides[n-1].Side != pos.Side {
			layout.Sides = append(layout.Sides, SideLayout{Side: pos.Side})
		}
		side := &layout.Sides[len(layout.Sides)-1]

		if n := len(side.Rounds); n == 0 || side.Rounds[n-1].Number != pos.RoundNumber {
			side.Rounds = append(side.Rounds, RoundLayout{Number: pos.RoundNumber})
		}
		round := &side.Rounds[len(side.Rounds)-1]
		round.Matches = append(round.Matches, m)
	}
	return layout
}
