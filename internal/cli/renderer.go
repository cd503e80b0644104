package cli

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/dmmcquay/tictactoe-mcp/internal/engine"
	"github.com/dmmcquay/tictactoe-mcp/internal/game"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// C holds pre-configured color objects for printing to the console.
var C = struct {
	X, O, Empty, Win, Loss, Draw, Info, Warn, Header *color.Color
}{
	X:      color.New(color.FgCyan, color.Bold),
	O:      color.New(color.FgMagenta, color.Bold),
	Empty:  color.New(color.FgHiBlack),
	Win:    color.New(color.FgGreen, color.Bold),
	Loss:   color.New(color.FgRed),
	Draw:   color.New(color.FgYellow),
	Info:   color.New(color.FgCyan),
	Warn:   color.New(color.FgHiYellow),
	Header: color.New(color.FgWhite, color.Bold),
}

// colorizeCell shows a mark in its player's color, or the index of an
// empty cell. Cells on a winning line are highlighted.
func colorizeCell(b engine.Board, idx int, winning map[int]bool) string {
	switch {
	case b[idx] == engine.Empty:
		return C.Empty.Sprint(strconv.Itoa(idx))
	case winning[idx]:
		return C.Win.Sprint(b[idx].String())
	case b[idx] == engine.X:
		return C.X.Sprint("X")
	default:
		return C.O.Sprint("O")
	}
}

// RenderBoard draws the board as a 3x3 grid.
func RenderBoard(w io.Writer, b engine.Board) {
	winning := make(map[int]bool)
	if line, ok := engine.WinningLine(b); ok {
		for _, idx := range line {
			winning[idx] = true
		}
	}

	t := table.NewWriter()
	for row := 0; row < 3; row++ {
		cells := table.Row{}
		for col := 0; col < 3; col++ {
			cells = append(cells, colorizeCell(b, row*3+col, winning))
		}
		t.AppendRow(cells)
	}
	t.SetStyle(table.StyleLight)
	t.Style().Options.SeparateRows = true
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignCenter},
		{Number: 2, Align: text.AlignCenter},
		{Number: 3, Align: text.AlignCenter},
	})
	fmt.Fprintln(w, t.Render())
}

// RenderMoveScores lists every searched move, best first for the mover.
func RenderMoveScores(w io.Writer, scores engine.MoveEvaluation, player engine.Player, chosen int) {
	if len(scores) == 0 {
		return
	}
	moves := make([]int, 0, len(scores))
	for m := range scores {
		moves = append(moves, m)
	}
	sort.Slice(moves, func(i, j int) bool {
		si, sj := scores[moves[i]], scores[moves[j]]
		if si != sj {
			if player.Maximizer() {
				return si > sj
			}
			return si < sj
		}
		return moves[i] < moves[j]
	})

	t := table.NewWriter()
	t.SetTitle("Move scores for %s", player)
	t.AppendHeader(table.Row{"Move", "Position", "Score", ""})
	for _, m := range moves {
		marker := ""
		if m == chosen {
			marker = C.Win.Sprint("chosen")
		}
		t.AppendRow(table.Row{m, engine.PositionName(m), scores[m], marker})
	}
	t.SetStyle(table.StyleRounded)
	t.Style().Title.Align = text.AlignCenter
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
	})
	fmt.Fprintln(w, t.Render())
}

// RenderRounds shows the finished rounds of a match.
func RenderRounds(w io.Writer, rounds []game.Round, player1, player2 string) {
	t := table.NewWriter()
	t.SetTitle("Match")
	t.AppendHeader(table.Row{"Round", "Winner", player1, player2})
	for _, r := range rounds {
		t.AppendRow(table.Row{r.Number, winnerLabel(r.Winner, player1, player2), r.Player1Score, r.Player2Score})
	}
	t.SetStyle(table.StyleRounded)
	t.Style().Title.Align = text.AlignCenter
	fmt.Fprintln(w, t.Render())
}

// winnerLabel names the side behind a mark. Player 1 always plays X.
func winnerLabel(winner, player1, player2 string) string {
	switch winner {
	case "X":
		return player1
	case "O":
		return player2
	default:
		return "draw"
	}
}

// SelfPlayTally counts self-play outcomes.
type SelfPlayTally struct {
	XWins int
	OWins int
	Draws int
}

func (t *SelfPlayTally) add(result engine.GameResult) {
	switch result {
	case engine.XWin:
		t.XWins++
	case engine.OWin:
		t.OWins++
	default:
		t.Draws++
	}
}

// RenderTally summarizes a batch of self-play games.
func RenderTally(w io.Writer, tally SelfPlayTally, xDifficulty, oDifficulty engine.Difficulty) {
	t := table.NewWriter()
	t.SetTitle("X (%s) vs O (%s)", xDifficulty, oDifficulty)
	t.AppendHeader(table.Row{"X wins", "O wins", "Draws"})
	t.AppendRow(table.Row{tally.XWins, tally.OWins, tally.Draws})
	t.SetStyle(table.StyleRounded)
	t.Style().Title.Align = text.AlignCenter
	fmt.Fprintln(w, t.Render())
}
