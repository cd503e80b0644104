package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dmmcquay/tictactoe-mcp/internal/engine"
	"github.com/dmmcquay/tictactoe-mcp/internal/game"
	"github.com/dmmcquay/tictactoe-mcp/internal/logging"
	"github.com/peterh/liner"
)

// Prompter reads one line of input. *liner.State satisfies it.
type Prompter interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

// CLI runs terminal games against the engine.
type CLI struct {
	engine engine.EngineInterface
	logger logging.ContextLogger
	line   Prompter
	out    io.Writer
	close  func() error

	// match is the match in progress, if any.
	match *game.Match
}

// New creates a CLI. line may be nil for commands that never prompt.
func New(eng engine.EngineInterface, logger logging.ContextLogger, line Prompter, out io.Writer) *CLI {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &CLI{
		engine: eng,
		logger: logger,
		line:   line,
		out:    out,
	}
}

// NewCLI creates an interactive terminal interface reading from a liner
// prompt and writing to stdout.
func NewCLI(eng engine.EngineInterface, logger logging.ContextLogger) *CLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	c := New(eng, logger, line, os.Stdout)
	c.close = line.Close
	return c
}

// Close restores the terminal.
func (c *CLI) Close() error {
	if c.close == nil {
		return nil
	}
	return c.close()
}

// errQuit ends a play session early.
var errQuit = errors.New("quit")

// Play runs a best-of-three match. The human plays the given mark in every
// round; X always opens.
func (c *CLI) Play(human engine.Player, difficulty engine.Difficulty) error {
	match := game.NewMatch()
	c.match = match
	player1, player2 := "You", "Engine"
	if human == engine.PlayerO {
		player1, player2 = "Engine", "You"
	}

	C.Header.Fprintf(c.out, "--- Tic-Tac-Toe: you are %s, engine is %s (%s) ---\n", human, human.Opponent(), difficulty)
	c.printHelp()
	c.logger.Info("Match started", "match_id", match.ID, "human", human.String(), "difficulty", string(difficulty))

	for !match.Over() {
		C.Header.Fprintf(c.out, "\n--- Round %d ---\n", match.RoundNumber())
		if err := c.playRound(match, human, difficulty); err != nil {
			if errors.Is(err, errQuit) {
				C.Info.Fprintln(c.out, "Goodbye!")
				return nil
			}
			return err
		}

		g := match.Current()
		RenderBoard(c.out, g.Board())
		switch winner := g.Winner(); winner {
		case human.String():
			C.Win.Fprintln(c.out, "You win this round!")
		case human.Opponent().String():
			C.Loss.Fprintln(c.out, "The engine wins this round.")
		default:
			C.Draw.Fprintln(c.out, "This round is a draw.")
		}

		p1, p2 := match.Score()
		C.Info.Fprintf(c.out, "Score: %s %d - %d %s\n", player1, p1, p2, player2)
		if !match.Over() {
			if err := match.NextRound(); err != nil {
				return err
			}
		}
	}

	fmt.Fprintln(c.out)
	RenderRounds(c.out, match.Rounds(), player1, player2)
	switch match.Result() {
	case game.MatchDraw:
		C.Draw.Fprintln(c.out, "Match over: it's a draw.")
	case game.Player1Win:
		c.announceMatch(player1)
	case game.Player2Win:
		c.announceMatch(player2)
	}
	c.logger.Info("Match finished", "match_id", match.ID, "result", string(match.Result()))
	return nil
}

func (c *CLI) announceMatch(winner string) {
	if winner == "You" {
		C.Win.Fprintln(c.out, "Match over: you win the match!")
		return
	}
	C.Loss.Fprintln(c.out, "Match over: the engine wins the match.")
}

func (c *CLI) playRound(match *game.Match, human engine.Player, difficulty engine.Difficulty) error {
	for g := match.Current(); !g.Over(); g = match.Current() {
		if g.Turn() != human {
			res := c.engine.GetBestMove(g.Board(), g.Turn(), difficulty)
			if res.Move == engine.NoMove {
				return fmt.Errorf("engine found no move on %s", g.Board())
			}
			if err := match.Play(res.Move); err != nil {
				return err
			}
			C.Info.Fprintf(c.out, "Engine plays %d (%s).\n", res.Move, engine.PositionName(res.Move))
			continue
		}

		RenderBoard(c.out, g.Board())
		idx, err := c.readMove(g.Board(), human)
		if err != nil {
			return err
		}
		if err := match.Play(idx); err != nil {
			C.Warn.Fprintf(c.out, "Cannot play there: %v\n", err)
		}
	}
	return nil
}

// readMove prompts until the human enters a cell index, handling the other
// commands along the way.
func (c *CLI) readMove(board engine.Board, human engine.Player) (int, error) {
	for {
		input, err := c.line.Prompt(fmt.Sprintf("(%s) move 0-8> ", human))
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				return 0, errQuit
			}
			return 0, fmt.Errorf("error reading line: %w", err)
		}

		input = strings.ToLower(strings.TrimSpace(input))
		if input == "" {
			continue
		}
		c.line.AppendHistory(input)

		switch input {
		case "quit", "q":
			return 0, errQuit
		case "help", "h":
			c.printHelp()
			continue
		case "board", "b":
			RenderBoard(c.out, board)
			continue
		case "hint":
			c.hint(board, human)
			continue
		}

		idx, err := strconv.Atoi(input)
		if err != nil || !engine.IsValidMove(board, idx) {
			C.Warn.Fprintf(c.out, "Invalid move '%s'. Enter the number of an empty cell.\n", input)
			continue
		}
		return idx, nil
	}
}

func (c *CLI) hint(board engine.Board, human engine.Player) {
	analysis := c.engine.EvaluatePosition(board, human)
	if analysis.BestMove == engine.NoMove {
		C.Warn.Fprintln(c.out, "No moves left.")
		return
	}
	C.Info.Fprintln(c.out, analysis.Analysis)
	if exp := analysis.Explanation; exp != nil {
		scores := engine.MoveEvaluation{exp.Move: exp.Score}
		for _, alt := range exp.Alternatives {
			scores[alt.Move] = alt.Score
		}
		RenderMoveScores(c.out, scores, human, exp.Move)
	}
}

func (c *CLI) printHelp() {
	C.Info.Fprintln(c.out, "Enter a cell number (0-8), 'hint' for a suggestion, 'board' to redraw, 'help', or 'quit'.")
}

// SelfPlay plays games engine-against-engine. A single game is shown move
// by move; a batch is summarized.
func (c *CLI) SelfPlay(xDifficulty, oDifficulty engine.Difficulty, games int) (SelfPlayTally, error) {
	var tally SelfPlayTally
	if games < 1 {
		games = 1
	}

	for i := 0; i < games; i++ {
		g, err := game.SelfPlay(c.engine, xDifficulty, oDifficulty)
		if err != nil {
			return tally, err
		}
		tally.add(g.Result())

		if games == 1 {
			for _, m := range g.Moves() {
				C.Info.Fprintf(c.out, "%s plays %d (%s)\n", m.Player, m.Index, engine.PositionName(m.Index))
			}
			RenderBoard(c.out, g.Board())
			C.Header.Fprintf(c.out, "Result: %s\n", g.Result())
		}
	}

	if games > 1 {
		RenderTally(c.out, tally, xDifficulty, oDifficulty)
	}
	c.logger.Info("Self-play finished",
		"games", games,
		"x_wins", tally.XWins,
		"o_wins", tally.OWins,
		"draws", tally.Draws,
	)
	return tally, nil
}
