package bracket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTopology(t *testing.T) {
	require.NoError(t, Validate())
}

func TestLookup(t *testing.T) {
	testCases := []struct {
		round  Round
		winner Edge
		loser  *Edge
	}{
		{WinnerQuarter1, Edge{WinnerSemi1, Team1}, &Edge{LoserRound1_1, Team1}},
		{WinnerQuarter2, Edge{WinnerSemi1, Team2}, &Edge{LoserRound1_1, Team2}},
		{WinnerQuarter3, Edge{WinnerSemi2, Team1}, &Edge{LoserRound1_2, Team1}},
		{WinnerQuarter4, Edge{WinnerSemi2, Team2}, &Edge{LoserRound1_2, Team2}},
		{WinnerSemi1, Edge{WinnerFinal, Team1}, &Edge{LoserRound2_1, Team1}},
		{WinnerSemi2, Edge{WinnerFinal, Team2}, &Edge{LoserRound2_2, Team1}},
		{WinnerFinal, Edge{GrandFinal, Team1}, &Edge{LoserFinal, Team1}},
		{LoserRound1_1, Edge{LoserRound2_1, Team2}, nil},
		{LoserRound1_2, Edge{LoserRound2_2, Team2}, nil},
		{LoserRound2_1, Edge{LoserSemi, Team1}, nil},
		{LoserRound2_2, Edge{LoserSemi, Team2}, nil},
		{LoserSemi, Edge{LoserFinal, Team2}, nil},
		{LoserFinal, Edge{GrandFinal, Team2}, nil},
	}

	for _, tc := range testCases {
		t.Run(string(tc.round), func(t *testing.T) {
			route, ok := Lookup(tc.round)
			require.True(t, ok)
			assert.Equal(t, tc.winner, route.Winner)
			assert.Equal(t, tc.loser, route.Loser)
		})
	}
}

func TestLookupTerminalRound(t *testing.T) {
	_, ok := Lookup(GrandFinal)
	assert.False(t, ok)

	_, ok = Lookup(Round("winner_quarter_9"))
	assert.False(t, ok)
}

func TestEveryRoundHasPosition(t *testing.T) {
	assert.Len(t, Rounds, 14)
	for _, r := range Rounds {
		pos, ok := PositionOf(r)
		require.True(t, ok, "round %s", r)
		assert.Contains(t, []int{1, 3}, pos.BestOf)
	}
}

func TestSlotText(t *testing.T) {
	b, err := Team2.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "team2", string(b))

	var s Slot
	require.NoError(t, s.UnmarshalText([]byte("team1")))
	assert.Equal(t, Team1, s)
	assert.Equal(t, Team2, s.Other())

	assert.Error(t, s.UnmarshalText([]byte("team3")))
	_, err = Slot(0).MarshalText()
	assert.Error(t, err)
}
