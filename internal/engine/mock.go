package engine

import (
	"context"
	"sync"
)

// MockEngine is a mock implementation of EngineInterface for testing. By
// default it plays the first empty cell.
type MockEngine struct {
	mu            sync.Mutex
	pingErr       error
	moveResp      *MoveResult
	moveErr       error
	pingCallCount int
	moveCallCount int
	lastRequest   MoveRequest
}

func NewMockEngine() *MockEngine {
	return &MockEngine{}
}

// SetPingError sets the error to return from Ping.
func (m *MockEngine) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingErr = err
}

// SetMoveResponse fixes the result of Move and GetBestMove.
func (m *MockEngine) SetMoveResponse(resp *MoveResult, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.moveResp = resp
	m.moveErr = err
}

func (m *MockEngine) GetPingCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pingCallCount
}

func (m *MockEngine) GetMoveCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.moveCallCount
}

// LastRequest returns the most recent request passed to Move.
func (m *MockEngine) LastRequest() MoveRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastRequest
}

func (m *MockEngine) Move(req MoveRequest) (*MoveResult, error) {
	m.mu.Lock()
	m.lastRequest = req
	if m.moveErr != nil {
		m.moveCallCount++
		err := m.moveErr
		m.mu.Unlock()
		return nil, err
	}
	m.mu.Unlock()

	board, err := ParseBoard(req.Board)
	if err != nil {
		return nil, err
	}
	player, err := ParsePlayer(req.Player)
	if err != nil {
		return nil, err
	}
	return m.GetBestMove(board, player, ParseDifficulty(req.Difficulty)), nil
}

func (m *MockEngine) GetBestMove(board Board, _ Player, difficulty Difficulty) *MoveResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.moveCallCount++
	if m.moveResp != nil {
		res := *m.moveResp
		return &res
	}

	res := &MoveResult{Move: NoMove, Difficulty: difficulty, Strategy: StrategyNone, NodesEvaluated: 1}
	if moves := LegalMoves(&board); len(moves) > 0 {
		res.Move = moves[0]
		res.Strategy = StrategyFull
		res.Explanation = "Mock move: first empty cell"
	}
	return res
}

func (m *MockEngine) EvaluatePosition(board Board, player Player) *PositionAnalysis {
	res := m.GetBestMove(board, player, Hard)
	return &PositionAnalysis{
		BestMove:    res.Move,
		Evaluation:  res.Score,
		Result:      Evaluate(&board).String(),
		Analysis:    res.Explanation,
		Performance: res.Metrics(),
	}
}

func (m *MockEngine) AlgorithmInfo() AlgorithmDescription {
	return AlgorithmDescription{Algorithm: "mock"}
}

func (m *MockEngine) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingCallCount++
	return m.pingErr
}
