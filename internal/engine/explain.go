package engine

import (
	"fmt"
	"sort"
	"strings"
)

// Outcome classes used by explanations. Thresholds are applied to the score
// seen from the mover's side.
const (
	OutcomeWin       = "win"
	OutcomeDefensive = "defensive"
	OutcomeDraw      = "draw"

	winThreshold = 7
)

var positionNames = [BoardSize]string{
	"top-left", "top-center", "top-right",
	"middle-left", "center", "middle-right",
	"bottom-left", "bottom-center", "bottom-right",
}

// MoveExplanation provides structured reasoning for a chosen move.
type MoveExplanation struct {
	Move         int               `json:"move"`
	Position     string            `json:"position"`
	Region       string            `json:"region"`
	Score        int               `json:"score"`
	Outcome      string            `json:"outcome"`
	Explanation  string            `json:"explanation"`
	Alternatives []AlternativeMove `json:"alternatives"`
}

// AlternativeMove describes a move the search considered but did not pick.
type AlternativeMove struct {
	Move      int    `json:"move"`
	Position  string `json:"position"`
	Score     int    `json:"score"`
	ScoreDiff int    `json:"scoreDiff"`
	Reason    string `json:"reason"`
}

// PositionName returns the human-readable name of a board index.
func PositionName(idx int) string {
	if idx < 0 || idx >= BoardSize {
		return "none"
	}
	return positionNames[idx]
}

// BoardRegion classifies an index as corner, edge, or center.
func BoardRegion(idx int) string {
	switch idx {
	case 0, 2, 6, 8:
		return "corner"
	case 4:
		return "center"
	case 1, 3, 5, 7:
		return "edge"
	default:
		return "unknown"
	}
}

// Explain builds the text describing why move was selected.
func Explain(move, score int, scores MoveEvaluation, player Player) string {
	return ExplainMove(move, score, scores, player).Explanation
}

// ExplainMove builds the structured explanation for a selected move. It only
// looks at the scores it is given, never at the board.
func ExplainMove(move, score int, scores MoveEvaluation, player Player) MoveExplanation {
	exp := MoveExplanation{
		Move:     move,
		Position: PositionName(move),
		Region:   BoardRegion(move),
		Score:    score,
		Outcome:  classifyOutcome(relativeScore(score, player)),
	}
	exp.Alternatives = findAlternatives(move, score, scores, player)
	exp.Explanation = generateMoveExplanation(&exp)
	return exp
}

// relativeScore flips the score so that positive is good for player.
func relativeScore(score int, player Player) int {
	if player.Maximizer() {
		return score
	}
	return -score
}

func classifyOutcome(relative int) string {
	switch {
	case relative >= winThreshold:
		return OutcomeWin
	case relative <= -winThreshold:
		return OutcomeDefensive
	default:
		return OutcomeDraw
	}
}

func generateMoveExplanation(exp *MoveExplanation) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Selected %s (position %d) with evaluation score %d. ", exp.Position, exp.Move, exp.Score)

	switch exp.Outcome {
	case OutcomeWin:
		sb.WriteString("This move leads to a guaranteed win!")
	case OutcomeDefensive:
		sb.WriteString("This is a defensive move: the opponent can force a win, so it holds out as long as possible.")
	default:
		if exp.Score == 0 {
			sb.WriteString("This move leads to a draw with optimal play.")
		} else {
			sb.WriteString("This move keeps some pressure, but a draw is likely with accurate defence.")
		}
	}

	if len(exp.Alternatives) > 0 {
		sb.WriteString("\n\nAlternative moves considered:")
		for _, alt := range exp.Alternatives {
			fmt.Fprintf(&sb, "\n- %s: score %d", alt.Position, alt.Score)
		}
	}
	return sb.String()
}

// findAlternatives returns up to three other moves, best first for player.
func findAlternatives(chosen, chosenScore int, scores MoveEvaluation, player Player) []AlternativeMove {
	moves := make([]int, 0, len(scores))
	for m := range scores {
		if m != chosen {
			moves = append(moves, m)
		}
	}
	sort.Slice(moves, func(i, j int) bool {
		si, sj := relativeScore(scores[moves[i]], player), relativeScore(scores[moves[j]], player)
		if si != sj {
			return si > sj
		}
		return moves[i] < moves[j]
	})
	if len(moves) > 3 {
		moves = moves[:3]
	}

	chosenRel := relativeScore(chosenScore, player)
	alternatives := make([]AlternativeMove, 0, len(moves))
	for _, m := range moves {
		rel := relativeScore(scores[m], player)
		alt := AlternativeMove{
			Move:      m,
			Position:  PositionName(m),
			Score:     scores[m],
			ScoreDiff: rel - chosenRel,
		}

		switch {
		case alt.ScoreDiff == 0:
			alt.Reason = "Same evaluation; the earlier position was preferred"
		case classifyOutcome(rel) == OutcomeDefensive && classifyOutcome(chosenRel) != OutcomeDefensive:
			alt.Reason = "Allows the opponent a forced win"
		case classifyOutcome(chosenRel) == OutcomeWin && classifyOutcome(rel) != OutcomeWin:
			alt.Reason = "Lets a forced win slip"
		default:
			switch BoardRegion(m) {
			case "corner":
				alt.Reason = "Corner alternative"
			case "center":
				alt.Reason = "Central alternative"
			default:
				alt.Reason = "Edge alternative"
			}
		}
		alternatives = append(alternatives, alt)
	}
	return alternatives
}

// describeSearch summarizes the counters of a search.
func describeSearch(m SearchMetrics) string {
	return fmt.Sprintf("Explored %d possible future positions. Pruned %d unnecessary branches using alpha-beta optimization. Maximum search depth: %d moves ahead.",
		m.NodesEvaluated, m.BranchesPruned, m.MaxDepthReached)
}

// describeRandomMove explains an unsearched random pick.
func describeRandomMove(available int) string {
	return fmt.Sprintf("Random move selected from %d available positions. No strategy applied.", available)
}
