package engine

// GameResult classifies a position.
type GameResult int

const (
	Ongoing GameResult = iota
	XWin
	OWin
	Draw
)

func (r GameResult) String() string {
	switch r {
	case XWin:
		return "X_WIN"
	case OWin:
		return "O_WIN"
	case Draw:
		return "DRAW"
	default:
		return "ONGOING"
	}
}

// Terminal reports whether the game is over.
func (r GameResult) Terminal() bool { return r != Ongoing }

// WinScore is the undiscounted value of a won position; O wins score
// positive, X wins negative.
const WinScore = 10

// winningLines are the 3 rows, 3 columns and 2 diagonals. Shared read-only.
var winningLines = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Evaluate classifies the board as a win for either side, a draw, or ongoing.
func Evaluate(b *Board) GameResult {
	for _, line := range winningLines {
		c := b[line[0]]
		if c == Empty || c != b[line[1]] || c != b[line[2]] {
			continue
		}
		if c == X {
			return XWin
		}
		return OWin
	}
	for _, c := range b {
		if c == Empty {
			return Ongoing
		}
	}
	return Draw
}

// WinningLine returns the first completed line on the board, if any.
func WinningLine(b Board) ([3]int, bool) {
	for _, line := range winningLines {
		c := b[line[0]]
		if c != Empty && c == b[line[1]] && c == b[line[2]] {
			return line, true
		}
	}
	return [3]int{}, false
}

// Winner returns "X", "O", "DRAW", or "" while the game is still running.
func Winner(b Board) string {
	switch Evaluate(&b) {
	case XWin:
		return "X"
	case OWin:
		return "O"
	case Draw:
		return "DRAW"
	default:
		return ""
	}
}

// terminalScore scores a leaf from O's point of view. Wins are discounted by
// depth so the maximizer prefers fast wins and slow losses.
func terminalScore(r GameResult, depth int) int {
	switch r {
	case OWin:
		return WinScore - depth
	case XWin:
		return -WinScore + depth
	default:
		return 0
	}
}
