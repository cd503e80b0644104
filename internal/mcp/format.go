package mcp

import (
	"fmt"
	"strings"

	"github.com/dmmcquay/tictactoe-mcp/internal/engine"
)

// renderBoard draws the board with empty cells showing their index, and the
// chosen move (if any) in brackets.
func renderBoard(b engine.Board, move int) string {
	var sb strings.Builder
	for row := 0; row < 3; row++ {
		if row > 0 {
			sb.WriteString("---+---+---\n")
		}
		for col := 0; col < 3; col++ {
			idx := row*3 + col
			if col > 0 {
				sb.WriteString("|")
			}
			switch {
			case idx == move:
				sb.WriteString("[" + b[idx].String() + "]")
			case b[idx] == engine.Empty:
				fmt.Fprintf(&sb, " %d ", idx)
			default:
				sb.WriteString(" " + b[idx].String() + " ")
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func formatMove(before engine.Board, player engine.Player, res *engine.MoveResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Best move for %s: %d (%s)\n", player, res.Move, engine.PositionName(res.Move))
	fmt.Fprintf(&sb, "Difficulty: %s (strategy: %s)\n", res.Difficulty, res.Strategy)
	fmt.Fprintf(&sb, "Score: %d\n", res.Score)
	if res.Cached {
		sb.WriteString("Cached: yes\n")
	}

	after, err := before.Play(res.Move, player)
	if err != nil {
		after = before
	}
	sb.WriteString("\n")
	sb.WriteString(renderBoard(after, res.Move))
	sb.WriteString("\n")
	sb.WriteString(res.Explanation)
	sb.WriteString("\n")
	return sb.String()
}
