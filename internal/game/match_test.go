package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func playRound(t *testing.T, m *Match, moves []int) {
	t.Helper()
	if len(m.Rounds()) > 0 {
		require.NoError(t, m.NextRound())
	}
	playAll(t, m.Play, moves)
}

func TestMatchEndsAfterTwoWins(t *testing.T) {
	m := NewMatch()
	assert.Equal(t, 1, m.RoundNumber())

	playRound(t, m, xWinsTopRow)
	assert.False(t, m.Over())
	playRound(t, m, xWinsTopRow)

	assert.True(t, m.Over())
	assert.Equal(t, Player1Win, m.Result())
	p1, p2 := m.Score()
	assert.Equal(t, 2, p1)
	assert.Equal(t, 0, p2)
	assert.Len(t, m.Rounds(), 2)

	assert.ErrorIs(t, m.NextRound(), ErrMatchOver)
	assert.ErrorIs(t, m.Play(0), ErrMatchOver)
}

func TestMatchThreeRounds(t *testing.T) {
	tests := []struct {
		name   string
		rounds [][]int
		want   MatchResult
	}{
		{"player 2 after split", [][]int{xWinsTopRow, oWinsMiddle, oWinsMiddle}, Player2Win},
		{"one win and two draws", [][]int{drawnGame, oWinsMiddle, drawnGame}, Player2Win},
		{"one each and a draw", [][]int{xWinsTopRow, drawnGame, oWinsMiddle}, MatchDraw},
		{"three draws", [][]int{drawnGame, drawnGame, drawnGame}, MatchDraw},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMatch()
			for i, moves := range tt.rounds {
				require.False(t, m.Over(), "match ended before round %d", i+1)
				playRound(t, m, moves)
			}
			assert.True(t, m.Over())
			assert.Equal(t, tt.want, m.Result())
			assert.Len(t, m.Rounds(), MatchRounds)
		})
	}
}

func TestMatchRoundHistory(t *testing.T) {
	m := NewMatch()
	playRound(t, m, oWinsMiddle)
	playRound(t, m, drawnGame)

	rounds := m.Rounds()
	require.Len(t, rounds, 2)
	assert.Equal(t, Round{Number: 1, Winner: "O", Player1Score: 0, Player2Score: 1}, rounds[0])
	assert.Equal(t, Round{Number: 2, Winner: "DRAW", Player1Score: 0, Player2Score: 1}, rounds[1])
	assert.Equal(t, 2, m.RoundNumber())

	require.NoError(t, m.NextRound())
	assert.Equal(t, 3, m.RoundNumber())
}

func TestMatchNextRoundNeedsFinishedGame(t *testing.T) {
	m := NewMatch()
	require.NoError(t, m.Play(4))
	assert.ErrorIs(t, m.NextRound(), ErrRoundOpen)
}

func TestMatchEachRoundStartsWithX(t *testing.T) {
	m := NewMatch()
	playRound(t, m, oWinsMiddle)
	require.NoError(t, m.NextRound())
	assert.Equal(t, "X", m.Current().Turn().String())
	assert.Empty(t, m.Current().Moves())
}
