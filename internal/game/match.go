package game

import (
	"github.com/dmmcquay/tictactoe-mcp/internal/engine"
	"github.com/google/uuid"
)

// MatchResult is the outcome of a match. Player 1 plays X.
type MatchResult string

const (
	MatchInProgress MatchResult = ""
	Player1Win      MatchResult = "player1_win"
	Player2Win      MatchResult = "player2_win"
	MatchDraw       MatchResult = "draw"
)

const (
	MatchRounds = 3
	winsNeeded  = 2
)

// Round records a finished game and the running score after it.
type Round struct {
	Number       int    `json:"round"`
	Winner       string `json:"winner"`
	Player1Score int    `json:"player1Score"`
	Player2Score int    `json:"player2Score"`
}

// Match is a best-of-three series. It stops as soon as one side has two
// wins; after three rounds the side with more wins takes it.
type Match struct {
	ID      string
	current *Game
	rounds  []Round
	p1, p2  int
	result  MatchResult
}

func NewMatch() *Match {
	return &Match{ID: uuid.NewString(), current: NewGame()}
}

// Current returns the game of the round being played, or the last one once
// it has finished.
func (m *Match) Current() *Game      { return m.current }
func (m *Match) Result() MatchResult { return m.result }
func (m *Match) Over() bool          { return m.result != MatchInProgress }
func (m *Match) Score() (int, int)   { return m.p1, m.p2 }
func (m *Match) RoundNumber() int    { return len(m.rounds) + boolToInt(!m.current.Over()) }

func (m *Match) Rounds() []Round {
	return append([]Round(nil), m.rounds...)
}

// Play makes a move in the current round and settles the round when the
// game ends.
func (m *Match) Play(idx int) error {
	if m.Over() {
		return ErrMatchOver
	}
	if err := m.current.Play(idx); err != nil {
		return err
	}
	if m.current.Over() {
		m.finishRound()
	}
	return nil
}

// NextRound starts a fresh game once the current one has ended.
func (m *Match) NextRound() error {
	if m.Over() {
		return ErrMatchOver
	}
	if !m.current.Over() {
		return ErrRoundOpen
	}
	m.current = NewGame()
	return nil
}

func (m *Match) finishRound() {
	winner := m.current.Winner()
	switch m.current.Result() {
	case engine.XWin:
		m.p1++
	case engine.OWin:
		m.p2++
	}
	m.rounds = append(m.rounds, Round{
		Number:       len(m.rounds) + 1,
		Winner:       winner,
		Player1Score: m.p1,
		Player2Score: m.p2,
	})

	switch {
	case m.p1 >= winsNeeded:
		m.result = Player1Win
	case m.p2 >= winsNeeded:
		m.result = Player2Win
	case len(m.rounds) == MatchRounds:
		switch {
		case m.p1 > m.p2:
			m.result = Player1Win
		case m.p2 > m.p1:
			m.result = Player2Win
		default:
			m.result = MatchDraw
		}
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
