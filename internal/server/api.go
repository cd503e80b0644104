package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dmmcquay/tictactoe-mcp/internal/engine"
)

const maxBodyBytes = 64 << 10

// moveRequest accepts null, "", "X" or "O" for each cell.
type moveRequest struct {
	Board      []interface{} `json:"board"`
	Player     string        `json:"player"`
	Difficulty string        `json:"difficulty"`
}

type moveResponse struct {
	Move            int    `json:"move"`
	Score           int    `json:"score"`
	NodesEvaluated  int    `json:"nodes_evaluated"`
	BranchesPruned  int    `json:"branches_pruned"`
	MaxDepthReached int    `json:"max_depth_reached"`
	Explanation     string `json:"explanation"`
	Difficulty      string `json:"difficulty"`
	Strategy        string `json:"strategy"`
	Cached          bool   `json:"cached"`
}

func newMoveResponse(res *engine.MoveResult) moveResponse {
	return moveResponse{
		Move:            res.Move,
		Score:           res.Score,
		NodesEvaluated:  res.NodesEvaluated,
		BranchesPruned:  res.BranchesPruned,
		MaxDepthReached: res.MaxDepthReached,
		Explanation:     res.Explanation,
		Difficulty:      string(res.Difficulty),
		Strategy:        res.Strategy,
		Cached:          res.Cached,
	}
}

type performance struct {
	NodesEvaluated  int `json:"nodes_evaluated"`
	BranchesPruned  int `json:"branches_pruned"`
	MaxDepthReached int `json:"max_depth_reached"`
}

type evaluateResponse struct {
	BestMove    int                     `json:"best_move"`
	Evaluation  int                     `json:"evaluation"`
	Result      string                  `json:"result"`
	WinningLine []int                   `json:"winning_line,omitempty"`
	Analysis    string                  `json:"analysis"`
	Explanation *engine.MoveExplanation `json:"explanation,omitempty"`
	Performance performance             `json:"performance"`
	Cached      bool                    `json:"cached"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func decodeMoveRequest(w http.ResponseWriter, r *http.Request) (engine.MoveRequest, error) {
	var body moveRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		return engine.MoveRequest{}, fmt.Errorf("invalid request body: %w", err)
	}
	if len(body.Board) != engine.BoardSize {
		return engine.MoveRequest{}, fmt.Errorf("invalid board: %w: got %d", engine.ErrInvalidBoard, len(body.Board))
	}
	cells, err := engine.CellsFromJSON(body.Board)
	if err != nil {
		return engine.MoveRequest{}, fmt.Errorf("invalid board: %w", err)
	}
	return engine.MoveRequest{Board: cells, Player: body.Player, Difficulty: body.Difficulty}, nil
}

func (s *HTTPServer) handleMove(w http.ResponseWriter, r *http.Request) {
	req, err := decodeMoveRequest(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.deps.Engine.Move(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if res.Move == engine.NoMove {
		writeError(w, http.StatusBadRequest, "No valid moves available")
		return
	}
	writeJSON(w, http.StatusOK, newMoveResponse(res))
}

// handleEvaluate always analyses at full depth; a difficulty in the body is
// ignored.
func (s *HTTPServer) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	req, err := decodeMoveRequest(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	board, err := engine.ParseBoard(req.Board)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid board: "+err.Error())
		return
	}
	player, err := engine.ParsePlayer(req.Player)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid player: "+err.Error())
		return
	}

	a := s.deps.Engine.EvaluatePosition(board, player)
	writeJSON(w, http.StatusOK, evaluateResponse{
		BestMove:    a.BestMove,
		Evaluation:  a.Evaluation,
		Result:      a.Result,
		WinningLine: a.WinningLine,
		Analysis:    a.Analysis,
		Explanation: a.Explanation,
		Performance: performance{
			NodesEvaluated:  a.Performance.NodesEvaluated,
			BranchesPruned:  a.Performance.BranchesPruned,
			MaxDepthReached: a.Performance.MaxDepthReached,
		},
		Cached: a.Cached,
	})
}

func (s *HTTPServer) handleAlgorithm(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Engine.AlgorithmInfo())
}

func (s *HTTPServer) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := map[string]interface{}{
		"rate_limit": s.deps.Limiter.GetStatus(),
	}
	if s.deps.Stats != nil {
		stats["search"] = s.deps.Stats.GetStats()
	}
	if s.deps.Cache != nil {
		stats["cache"] = s.deps.Cache.Stats()
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *HTTPServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Tic-Tac-Toe minimax engine",
		"version": s.deps.Version,
		"status":  "operational",
		"endpoints": map[string]string{
			"move":      "POST /api/ai/move",
			"evaluate":  "POST /api/ai/evaluate",
			"algorithm": "GET /api/ai/algorithm",
			"stats":     "GET /api/ai/stats",
			"play":      "GET /ws/play",
			"health":    "GET /health",
			"ready":     "GET /ready",
			"metrics":   "GET /metrics",
		},
	})
}
