// Package game keeps the state of games and best-of-three matches in memory.
package game

import (
	"errors"
	"fmt"

	"github.com/dmmcquay/tictactoe-mcp/internal/engine"
	"github.com/google/uuid"
)

var (
	ErrGameOver  = errors.New("game is over")
	ErrMatchOver = errors.New("match is over")
	ErrRoundOpen = errors.New("current round is still in progress")
)

// Move is one entry in a game's history.
type Move struct {
	Player string `json:"player"`
	Index  int    `json:"index"`
}

// Game is a single game. X always moves first.
type Game struct {
	ID     string
	board  engine.Board
	turn   engine.Player
	moves  []Move
	result engine.GameResult
}

func NewGame() *Game {
	return &Game{ID: uuid.NewString(), turn: engine.PlayerX}
}

func (g *Game) Board() engine.Board       { return g.board }
func (g *Game) Turn() engine.Player       { return g.turn }
func (g *Game) Result() engine.GameResult { return g.result }
func (g *Game) Over() bool                { return g.result.Terminal() }

// Winner returns "X", "O", "DRAW", or "" while the game is running.
func (g *Game) Winner() string { return engine.Winner(g.board) }

// Moves returns a copy of the move history.
func (g *Game) Moves() []Move {
	return append([]Move(nil), g.moves...)
}

// Play places the mark of the side to move at idx.
func (g *Game) Play(idx int) error {
	if g.Over() {
		return ErrGameOver
	}
	next, err := g.board.Play(idx, g.turn)
	if err != nil {
		return fmt.Errorf("move %d: %w", idx, err)
	}

	g.board = next
	g.moves = append(g.moves, Move{Player: g.turn.String(), Index: idx})
	g.result = engine.Evaluate(&g.board)
	g.turn = g.turn.Opponent()
	return nil
}

// State is a serializable snapshot of a game.
type State struct {
	ID          string   `json:"id"`
	Board       []string `json:"board"`
	Turn        string   `json:"turn"`
	Result      string   `json:"result"`
	Winner      string   `json:"winner,omitempty"`
	WinningLine []int    `json:"winningLine,omitempty"`
	Moves       []Move   `json:"moves"`
}

func (g *Game) State() State {
	s := State{
		ID:     g.ID,
		Board:  g.board.Strings(),
		Turn:   g.turn.String(),
		Result: g.result.String(),
		Winner: g.Winner(),
		Moves:  g.Moves(),
	}
	if line, ok := engine.WinningLine(g.board); ok {
		s.WinningLine = line[:]
	}
	return s
}

// SelfPlay lets the engine play both sides until the game ends.
func SelfPlay(eng engine.EngineInterface, xDifficulty, oDifficulty engine.Difficulty) (*Game, error) {
	g := NewGame()
	for !g.Over() {
		difficulty := xDifficulty
		if g.Turn() == engine.PlayerO {
			difficulty = oDifficulty
		}

		res := eng.GetBestMove(g.Board(), g.Turn(), difficulty)
		if res.Move == engine.NoMove {
			return g, fmt.Errorf("engine found no move for %s on %s", g.Turn(), g.Board())
		}
		if err := g.Play(res.Move); err != nil {
			return g, err
		}
	}
	return g, nil
}
