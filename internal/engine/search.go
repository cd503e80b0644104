package engine

import "math"

// Depth limits for the bounded and full searches. A game never lasts more
// than 9 plies, so HardDepth always reaches terminal positions.
const (
	MediumDepth = 2
	HardDepth   = 9
)

// SearchMetrics are counters for a single top-level call.
type SearchMetrics struct {
	NodesEvaluated  int `json:"nodesEvaluated"`
	BranchesPruned  int `json:"branchesPruned"`
	MaxDepthReached int `json:"maxDepthReached"`
}

// MoveEvaluation maps each legal move to the score the search assigned it.
type MoveEvaluation map[int]int

// searcher owns the scratch board and counters for one search. It is never
// shared between calls, so concurrent searches on one Engine do not mix
// their metrics.
type searcher struct {
	board   Board
	limit   int
	metrics SearchMetrics
}

func newSearcher(b Board, limit int) *searcher {
	return &searcher{board: b, limit: limit}
}

// searchOutcome is the result of the top-level driver.
type searchOutcome struct {
	move   int
	score  int
	scores MoveEvaluation
}

// withMove places mark at idx, runs fn, and clears idx again before
// returning, so the scratch board is unchanged across every call.
func (s *searcher) withMove(idx int, mark Cell, fn func() int) int {
	s.board[idx] = mark
	defer func() { s.board[idx] = Empty }()
	return fn()
}

// run scores every legal move for player and keeps the best one. O keeps the
// strictly greatest score, X the strictly least; ties keep the earliest index.
// The alpha/beta window is carried across root siblings and tightened by the
// best score found so far.
func (s *searcher) run(player Player) searchOutcome {
	out := searchOutcome{move: NoMove, scores: make(MoveEvaluation)}
	alpha, beta := math.MinInt, math.MaxInt
	best := math.MaxInt
	if player.Maximizer() {
		best = math.MinInt
	}

	replyMaximizing := !player.Maximizer()
	for _, m := range LegalMoves(&s.board) {
		score := s.withMove(m, player.Mark(), func() int {
			return s.minimax(0, replyMaximizing, alpha, beta)
		})
		out.scores[m] = score

		if player.Maximizer() {
			if score > best {
				best, out.move = score, m
			}
			alpha = max(alpha, best)
		} else {
			if score < best {
				best, out.move = score, m
			}
			beta = min(beta, best)
		}
	}

	if out.move != NoMove {
		out.score = best
	}
	return out
}

// minimax scores the scratch board from O's point of view.
func (s *searcher) minimax(depth int, maximizing bool, alpha, beta int) int {
	s.metrics.NodesEvaluated++
	s.metrics.MaxDepthReached = max(s.metrics.MaxDepthReached, depth)

	result := Evaluate(&s.board)
	if result.Terminal() || depth >= s.limit {
		return terminalScore(result, depth)
	}

	if maximizing {
		best := math.MinInt
		for _, m := range LegalMoves(&s.board) {
			score := s.withMove(m, O, func() int {
				return s.minimax(depth+1, false, alpha, beta)
			})
			best = max(best, score)
			alpha = max(alpha, best)
			if beta <= alpha {
				s.metrics.BranchesPruned++
				break
			}
		}
		return best
	}

	best := math.MaxInt
	for _, m := range LegalMoves(&s.board) {
		score := s.withMove(m, X, func() int {
			return s.minimax(depth+1, true, alpha, beta)
		})
		best = min(best, score)
		beta = min(beta, best)
		if beta <= alpha {
			s.metrics.BranchesPruned++
			break
		}
	}
	return best
}
