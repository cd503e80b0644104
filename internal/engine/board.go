package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cast"
)

// BoardSize is the number of cells on a tic-tac-toe board.
const BoardSize = 9

// NoMove is returned in place of a board index when no legal move exists.
const NoMove = -1

var (
	// ErrInvalidBoard is returned when a board does not have exactly 9 cells.
	ErrInvalidBoard = errors.New("board must have exactly 9 cells")
	// ErrInvalidCell is returned for a cell symbol other than X, O or empty.
	ErrInvalidCell = errors.New("board cells must be empty, X, or O")
	// ErrInvalidPlayer is returned for a player other than X or O.
	ErrInvalidPlayer = errors.New("player must be X or O")
	// ErrInvalidMove is returned for an index outside 0-8.
	ErrInvalidMove = errors.New("move must be between 0 and 8")
	// ErrCellOccupied is returned when playing on a non-empty cell.
	ErrCellOccupied = errors.New("cell already occupied")
)

// Cell is the content of one board square.
type Cell uint8

const (
	Empty Cell = iota
	X
	O
)

// String returns "X", "O", or "" for an empty cell.
func (c Cell) String() string {
	switch c {
	case X:
		return "X"
	case O:
		return "O"
	default:
		return ""
	}
}

// ParseCell converts an external symbol into a Cell. The empty string maps
// to Empty; callers decoding JSON null should pass "".
func ParseCell(s string) (Cell, error) {
	switch s {
	case "":
		return Empty, nil
	case "X":
		return X, nil
	case "O":
		return O, nil
	default:
		return Empty, fmt.Errorf("%w: got %q", ErrInvalidCell, s)
	}
}

// Player is the side to move. O maximizes, X minimizes.
type Player uint8

const (
	PlayerX Player = Player(X)
	PlayerO Player = Player(O)
)

// ParsePlayer accepts exactly "X" or "O".
func ParsePlayer(s string) (Player, error) {
	switch s {
	case "X":
		return PlayerX, nil
	case "O":
		return PlayerO, nil
	default:
		return 0, fmt.Errorf("%w: got %q", ErrInvalidPlayer, s)
	}
}

// Mark returns the cell value this player places.
func (p Player) Mark() Cell { return Cell(p) }

// Opponent returns the other side.
func (p Player) Opponent() Player {
	if p == PlayerX {
		return PlayerO
	}
	return PlayerX
}

// Maximizer reports whether the player is the score-maximizing side.
func (p Player) Maximizer() bool { return p == PlayerO }

func (p Player) String() string { return p.Mark().String() }

// Board is a row-major 3x3 grid, indices 0-8.
type Board [BoardSize]Cell

// ParseBoard normalizes external cells into a Board. Empty strings are
// treated as empty cells.
func ParseBoard(cells []string) (Board, error) {
	var b Board
	if len(cells) != BoardSize {
		return b, fmt.Errorf("%w: got %d", ErrInvalidBoard, len(cells))
	}
	for i, s := range cells {
		c, err := ParseCell(s)
		if err != nil {
			return b, fmt.Errorf("cell %d: %w", i, err)
		}
		b[i] = c
	}
	return b, nil
}

// CellsFromJSON converts decoded JSON cells to symbols. null becomes an empty
// cell; anything else is stringified and left for ParseBoard to reject.
func CellsFromJSON(values []interface{}) ([]string, error) {
	cells := make([]string, len(values))
	for i, v := range values {
		s, err := cast.ToStringE(v)
		if err != nil {
			return nil, fmt.Errorf("cell %d: %w", i, ErrInvalidCell)
		}
		cells[i] = s
	}
	return cells, nil
}

// ParseLayout parses a compact 9-character layout such as "XX-OO----",
// where '-', '.', or ' ' mark empty cells.
func ParseLayout(layout string) (Board, error) {
	var b Board
	if len(layout) != BoardSize {
		return b, fmt.Errorf("%w: layout has %d characters", ErrInvalidBoard, len(layout))
	}
	for i, r := range layout {
		switch r {
		case 'X', 'x':
			b[i] = X
		case 'O', 'o':
			b[i] = O
		case '-', '.', ' ':
			b[i] = Empty
		default:
			return b, fmt.Errorf("cell %d: %w: %q", i, ErrInvalidCell, r)
		}
	}
	return b, nil
}

// MustParseBoard is ParseLayout for tests and fixed positions. It panics on
// malformed input.
func MustParseBoard(layout string) Board {
	b, err := ParseLayout(layout)
	if err != nil {
		panic(err)
	}
	return b
}

// Strings returns the board as external symbols ("" for empty).
func (b Board) Strings() []string {
	out := make([]string, BoardSize)
	for i, c := range b {
		out[i] = c.String()
	}
	return out
}

// String renders the board in the compact layout accepted by MustParseBoard.
func (b Board) String() string {
	var sb strings.Builder
	for _, c := range b {
		if c == Empty {
			sb.WriteByte('-')
			continue
		}
		sb.WriteString(c.String())
	}
	return sb.String()
}

// Count returns the number of cells holding the given value.
func (b Board) Count(c Cell) int {
	n := 0
	for _, v := range b {
		if v == c {
			n++
		}
	}
	return n
}

// SideToMove infers whose turn it is, assuming X moves first.
func (b Board) SideToMove() Player {
	if b.Count(X) > b.Count(O) {
		return PlayerO
	}
	return PlayerX
}

// IsValidMove reports whether idx is on the board and empty.
func IsValidMove(b Board, idx int) bool {
	return idx >= 0 && idx < BoardSize && b[idx] == Empty
}

// Play returns a copy of the board with the player's mark at idx.
func (b Board) Play(idx int, p Player) (Board, error) {
	if idx < 0 || idx >= BoardSize {
		return b, fmt.Errorf("%w: got %d", ErrInvalidMove, idx)
	}
	if b[idx] != Empty {
		return b, fmt.Errorf("%w: position %d", ErrCellOccupied, idx)
	}
	b[idx] = p.Mark()
	return b, nil
}

// LegalMoves lists empty cell indices in ascending order. Search relies on
// this order to break score ties in favour of the lowest index.
func LegalMoves(b *Board) []int {
	moves := make([]int, 0, BoardSize)
	for i, c := range b {
		if c == Empty {
			moves = append(moves, i)
		}
	}
	return moves
}
