package engine

import "context"

// EngineInterface is what transports and health checks need from an engine.
// This allows for mocking in tests.
type EngineInterface interface {
	// Move validates an external request and picks a move
	Move(req MoveRequest) (*MoveResult, error)

	// GetBestMove picks a move for an already parsed position
	GetBestMove(board Board, player Player, difficulty Difficulty) *MoveResult

	// EvaluatePosition analyses a position at full depth
	EvaluatePosition(board Board, player Player) *PositionAnalysis

	// AlgorithmInfo describes the search
	AlgorithmInfo() AlgorithmDescription

	// Ping checks the engine answers a known position correctly
	Ping(ctx context.Context) error
}

var _ EngineInterface = (*Engine)(nil)
