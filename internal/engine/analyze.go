package engine

import "fmt"

// PositionAnalysis is a full-depth assessment of a position for one side.
type PositionAnalysis struct {
	BestMove    int              `json:"bestMove"`
	Evaluation  int              `json:"evaluation"`
	Result      string           `json:"result"`
	WinningLine []int            `json:"winningLine,omitempty"`
	Analysis    string           `json:"analysis"`
	Explanation *MoveExplanation `json:"explanation,omitempty"`
	Performance SearchMetrics    `json:"performance"`
	Cached      bool             `json:"cached"`
}

// EvaluatePosition always searches at Hard, whatever the configured default.
func (e *Engine) EvaluatePosition(board Board, player Player) *PositionAnalysis {
	res := e.GetBestMove(board, player, Hard)

	analysis := &PositionAnalysis{
		BestMove:    res.Move,
		Evaluation:  res.Score,
		Result:      Evaluate(&board).String(),
		Analysis:    res.Explanation,
		Performance: res.Metrics(),
		Cached:      res.Cached,
	}
	if line, ok := WinningLine(board); ok {
		analysis.WinningLine = line[:]
	}
	if res.Move != NoMove {
		exp := ExplainMove(res.Move, res.Score, res.Evaluations, player)
		analysis.Explanation = &exp
	}
	return analysis
}

// AlgorithmDescription documents how moves are chosen at each difficulty.
type AlgorithmDescription struct {
	Algorithm   string            `json:"algorithm"`
	Description string            `json:"description"`
	HowItWorks  []string          `json:"howItWorks"`
	Scoring     map[string]string `json:"scoring"`
	Complexity  map[string]string `json:"complexity"`
	Guarantees  map[string]string `json:"guarantees"`
	DepthLimits map[string]int    `json:"depthLimits"`
}

// AlgorithmInfo describes the search using this engine's settings.
func (e *Engine) AlgorithmInfo() AlgorithmDescription {
	return AlgorithmDescription{
		Algorithm:   "Minimax with Alpha-Beta Pruning",
		Description: "A recursive decision-making algorithm that assumes both players play optimally",
		HowItWorks: []string{
			"Generate all possible moves from the current position",
			"Recursively evaluate each move by simulating future game states",
			"Assign scores to terminal states (O win: +10, X win: -10, draw: 0), adjusted by depth",
			"Propagate scores back up the tree",
			"O (maximizer) chooses the highest score, X (minimizer) the lowest",
			"Alpha-beta pruning skips branches that cannot change the final decision",
		},
		Scoring: map[string]string{
			"oWin":   fmt.Sprintf("%d - depth", WinScore),
			"xWin":   fmt.Sprintf("-%d + depth", WinScore),
			"draw":   "0",
			"cutoff": "0 (depth limit reached before the game ended)",
		},
		Complexity: map[string]string{
			"time":         "O(b^d) without pruning, where b=branching factor, d=depth",
			"space":        "O(d) for the recursive call stack; the board is modified in place",
			"optimization": "Alpha-beta pruning reduces nodes by 50-90%",
		},
		Guarantees: map[string]string{
			"hard":   "Always finds the optimal move; never loses",
			"medium": fmt.Sprintf("Looks %d moves ahead and plays a random move %.0f%% of the time; beatable", e.mediumDepth, e.blunderRate*100),
			"easy":   "Random moves; easily beatable",
		},
		DepthLimits: map[string]int{
			string(Easy):   0,
			string(Medium): e.mediumDepth,
			string(Hard):   HardDepth,
		},
	}
}
