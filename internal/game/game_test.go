package game

import (
	"errors"
	"testing"

	"github.com/dmmcquay/tictactoe-mcp/internal/engine"
	"github.com/dmmcquay/tictactoe-mcp/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	xWinsTopRow = []int{0, 3, 1, 4, 2}
	oWinsMiddle = []int{0, 3, 1, 4, 8, 5}
	drawnGame   = []int{0, 1, 2, 4, 3, 5, 7, 6, 8}
)

func playAll(t *testing.T, play func(int) error, moves []int) {
	t.Helper()
	for _, m := range moves {
		require.NoError(t, play(m), "move %d", m)
	}
}

func TestGameAlternatesStartingWithX(t *testing.T) {
	g := NewGame()
	assert.NotEmpty(t, g.ID)
	assert.Equal(t, engine.PlayerX, g.Turn())

	require.NoError(t, g.Play(4))
	assert.Equal(t, engine.PlayerO, g.Turn())
	assert.Equal(t, engine.X, g.Board()[4])

	require.NoError(t, g.Play(0))
	assert.Equal(t, engine.PlayerX, g.Turn())
	assert.Equal(t, []Move{{"X", 4}, {"O", 0}}, g.Moves())
}

func TestGameRejectsBadMoves(t *testing.T) {
	g := NewGame()
	require.NoError(t, g.Play(4))

	err := g.Play(4)
	assert.True(t, errors.Is(err, engine.ErrCellOccupied), "got %v", err)
	assert.ErrorIs(t, g.Play(9), engine.ErrInvalidMove)
	assert.Len(t, g.Moves(), 1)
	assert.Equal(t, engine.PlayerO, g.Turn())
}

func TestGameResults(t *testing.T) {
	tests := []struct {
		name   string
		moves  []int
		result engine.GameResult
		winner string
		line   []int
	}{
		{"x wins", xWinsTopRow, engine.XWin, "X", []int{0, 1, 2}},
		{"o wins", oWinsMiddle, engine.OWin, "O", []int{3, 4, 5}},
		{"draw", drawnGame, engine.Draw, "DRAW", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGame()
			playAll(t, g.Play, tt.moves)

			assert.True(t, g.Over())
			assert.Equal(t, tt.result, g.Result())
			assert.Equal(t, tt.winner, g.Winner())
			assert.ErrorIs(t, g.Play(8), ErrGameOver)

			s := g.State()
			assert.Equal(t, tt.result.String(), s.Result)
			assert.Equal(t, tt.line, s.WinningLine)
			assert.Len(t, s.Moves, len(tt.moves))
		})
	}
}

func TestGameMovesIsACopy(t *testing.T) {
	g := NewGame()
	require.NoError(t, g.Play(0))
	moves := g.Moves()
	moves[0].Index = 8
	assert.Equal(t, 0, g.Moves()[0].Index)
}

func TestSelfPlayHardAgainstHardDraws(t *testing.T) {
	eng := engine.NewEngine(nil, logging.NewNopLogger(), nil)
	g, err := SelfPlay(eng, engine.Hard, engine.Hard)
	require.NoError(t, err)

	assert.True(t, g.Over())
	assert.Equal(t, engine.Draw, g.Result())
	assert.Len(t, g.Moves(), 9)
}

func TestSelfPlayHardNeverLosesToEasy(t *testing.T) {
	eng := engine.NewEngine(nil, logging.NewNopLogger(), nil)
	for i := 0; i < 10; i++ {
		g, err := SelfPlay(eng, engine.Easy, engine.Hard)
		require.NoError(t, err)
		assert.NotEqual(t, engine.XWin, g.Result(), "hard O lost: %v", g.Moves())
	}
}

func TestSelfPlayWithMock(t *testing.T) {
	// The mock always takes the first empty cell, so X ends on the 2-4-6 diagonal.
	g, err := SelfPlay(engine.NewMockEngine(), engine.Hard, engine.Hard)
	require.NoError(t, err)
	assert.Equal(t, engine.XWin, g.Result())
	assert.Equal(t, []Move{{"X", 0}, {"O", 1}, {"X", 2}, {"O", 3}, {"X", 4}, {"O", 5}, {"X", 6}}, g.Moves())
}

func TestSelfPlayStopsWhenEngineHasNoMove(t *testing.T) {
	mock := engine.NewMockEngine()
	mock.SetMoveResponse(&engine.MoveResult{Move: engine.NoMove}, nil)

	_, err := SelfPlay(mock, engine.Easy, engine.Easy)
	assert.Error(t, err)
}
