package bracket

import (
	"fmt"
	"slices"
)

type Round string

const (
	WinnerQuarter1 Round = "winner_quarter_1"
	WinnerQuarter2 Round = "winner_quarter_2"
	WinnerQuarter3 Round = "winner_quarter_3"
	WinnerQuarter4 Round = "winner_quarter_4"
	WinnerSemi1    Round = "winner_semi_1"
	WinnerSemi2    Round = "winner_semi_2"
	WinnerFinal    Round = "winner_final"
	LoserRound1_1  Round = "loser_round1_1"
	LoserRound1_2  Round = "loser_round1_2"
	LoserRound2_1  Round = "loser_round2_1"
	LoserRound2_2  Round = "loser_round2_2"
	LoserSemi      Round = "loser_semi"
	LoserFinal     Round = "loser_final"
	GrandFinal     Round = "grand_final"
)

// Slot is one of the two team positions of a match.
type Slot int

const (
	Team1 Slot = 1
	Team2 Slot = 2
)

func (s Slot) String() string {
	switch s {
	case Team1:
		return "team1"
	case Team2:
		return "team2"
	}
	return fmt.Sprintf("slot(%d)", int(s))
}

func (s Slot) Valid() bool {
	return s == Team1 || s == Team2
}

func (s Slot) Other() Slot {
	if s == Team1 {
		return Team2
	}
	return Team1
}

func (s Slot) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid slot %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *Slot) UnmarshalText(text []byte) error {
	parsed, err := ParseSlot(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func ParseSlot(s string) (Slot, error) {
	switch s {
	case "team1", "1":
		return Team1, nil
	case "team2", "2":
		return Team2, nil
	}
	return 0, fmt.Errorf("unknown slot %q", s)
}

// Edge points at a team position of a destination round.
type Edge struct {
	Round Round
	Slot  Slot
}

// Route is where the winner and, optionally, the loser of a round go next.
type Route struct {
	Winner Edge
	Loser  *Edge
}

// Position places a round in the drawn bracket.
type Position struct {
	Side        BracketSide
	RoundNumber int
	MatchOrder  int
	BestOf      int
}

// Rounds lists every slot of the 8-team double elimination bracket in play order.
var Rounds = []Round{
	WinnerQuarter1, WinnerQuarter2, WinnerQuarter3, WinnerQuarter4,
	LoserRound1_1, LoserRound1_2,
	WinnerSemi1, WinnerSemi2,
	LoserRound2_1, LoserRound2_2,
	LoserSemi,
	WinnerFinal,
	LoserFinal,
	GrandFinal,
}

// QuarterFinals are the rounds populated from seeding.
var QuarterFinals = []Round{WinnerQuarter1, WinnerQuarter2, WinnerQuarter3, WinnerQuarter4}

var routes = map[Round]Route{
	WinnerQuarter1: {Winner: Edge{WinnerSemi1, Team1}, Loser: &Edge{LoserRound1_1, Team1}},
	WinnerQuarter2: {Winner: Edge{WinnerSemi1, Team2}, Loser: &Edge{LoserRound1_1, Team2}},
	WinnerQuarter3: {Winner: Edge{WinnerSemi2, Team1}, Loser: &Edge{LoserRound1_2, Team1}},
	WinnerQuarter4: {Winner: Edge{WinnerSemi2, Team2}, Loser: &Edge{LoserRound1_2, Team2}},
	WinnerSemi1:    {Winner: Edge{WinnerFinal, Team1}, Loser: &Edge{LoserRound2_1, Team1}},
	WinnerSemi2:    {Winner: Edge{WinnerFinal, Team2}, Loser: &Edge{LoserRound2_2, Team1}},
	WinnerFinal:    {Winner: Edge{GrandFinal, Team1}, Loser: &Edge{LoserFinal, Team1}},
	LoserRound1_1:  {Winner: Edge{LoserRound2_1, Team2}},
	LoserRound1_2:  {Winner: Edge{LoserRound2_2, Team2}},
	LoserRound2_1:  {Winner: Edge{LoserSemi, Team1}},
	LoserRound2_2:  {Winner: Edge{LoserSemi, Team2}},
	LoserSemi:      {Winner: Edge{LoserFinal, Team2}},
	LoserFinal:     {Winner: Edge{GrandFinal, Team2}},
}

var positions = map[Round]Position{
	WinnerQuarter1: {WinnersSide, 1, 1, 1},
	WinnerQuarter2: {WinnersSide, 1, 2, 1},
	WinnerQuarter3: {WinnersSide, 1, 3, 1},
	WinnerQuarter4: {WinnersSide, 1, 4, 1},
	WinnerSemi1:    {WinnersSide, 2, 1, 1},
	WinnerSemi2:    {WinnersSide, 2, 2, 1},
	WinnerFinal:    {WinnersSide, 3, 1, 3},
	LoserRound1_1:  {LosersSide, 1, 1, 1},
	LoserRound1_2:  {LosersSide, 1, 2, 1},
	LoserRound2_1:  {LosersSide, 2, 1, 1},
	LoserRound2_2:  {LosersSide, 2, 2, 1},
	LoserSemi:      {LosersSide, 3, 1, 1},
	LoserFinal:     {LosersSide, 4, 1, 3},
	GrandFinal:     {FinalsSide, 1, 1, 3},
}

// Lookup returns the outgoing edges of a round. ok is false for terminal or
// unknown rounds, which callers treat as a no-op.
func Lookup(r Round) (Route, bool) {
	route, ok := routes[r]
	return route, ok
}

func PositionOf(r Round) (Position, bool) {
	p, ok := positions[r]
	return p, ok
}

// PlayIndex is the round's position in Rounds, or -1 for an unknown round.
func PlayIndex(r Round) int {
	return slices.Index(Rounds, r)
}

func (r Round) Valid() bool {
	_, ok := positions[r]
	return ok
}

// Validate checks that the topology table is consistent with the round list:
// every round is placed, every edge lands on a known round, no team position
// is fed twice and only the grand final is terminal.
func Validate() error {
	if len(positions) != len(Rounds) {
		return fmt.Errorf("topology: %d positions for %d rounds", len(positions), len(Rounds))
	}
	for _, r := range Rounds {
		if _, ok := positions[r]; !ok {
			return fmt.Errorf("topology: round %s has no position", r)
		}
		if _, ok := routes[r]; !ok && r != GrandFinal {
			return fmt.Errorf("topology: round %s has no outgoing edge", r)
		}
	}

	fed := make(map[Edge]Round)
	check := func(from Round, e Edge) error {
		if !e.Round.Valid() {
			return fmt.Errorf("topology: %s routes to unknown round %s", from, e.Round)
		}
		if !e.Slot.Valid() {
			return fmt.Errorf("topology: %s routes to invalid slot %d", from, int(e.Slot))
		}
		if e.Round == from {
			return fmt.Errorf("topology: %s routes to itself", from)
		}
		if prev, dup := fed[e]; dup {
			return fmt.Errorf("topology: %s.%s is fed by both %s and %s", e.Round, e.Slot, prev, from)
		}
		fed[e] = from
		return nil
	}
	for from, route := range routes {
		if err := check(from, route.Winner); err != nil {
			return err
		}
		if route.Loser != nil {
			if err := check(from, *route.Loser); err != nil {
				return err
			}
		}
	}

	// Every slot outside the quarterfinals must be fed exactly once per team position.
	for _, r := range Rounds {
		if isQuarterFinal(r) {
			continue
		}
		for _, s := range []Slot{Team1, Team2} {
			if _, ok := fed[Edge{r, s}]; !ok {
				return fmt.Errorf("topology: %s.%s is never fed", r, s)
			}
		}
	}
	return nil
}

func isQuarterFinal(r Round) bool {
	for _, q := range QuarterFinals {
		if q == r {
			return true
		}
	}
	return false
}
