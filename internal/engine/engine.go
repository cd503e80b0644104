package engine

import (
	"context"
	"fmt"
	"maps"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/dmmcquay/tictactoe-mcp/internal/cache"
	"github.com/dmmcquay/tictactoe-mcp/internal/config"
	"github.com/dmmcquay/tictactoe-mcp/internal/logging"
)

// Difficulty selects the move strategy.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// ParseDifficulty is case-insensitive. Anything unrecognized is Hard.
func ParseDifficulty(s string) Difficulty {
	switch Difficulty(strings.ToLower(strings.TrimSpace(s))) {
	case Easy:
		return Easy
	case Medium:
		return Medium
	default:
		return Hard
	}
}

// Strategy names reported in MoveResult.
const (
	StrategyRandom  = "random"
	StrategyBlunder = "blunder"
	StrategyBounded = "bounded"
	StrategyFull    = "full"
	StrategyNone    = "none"
)

// Random is the source used by Easy and by Medium's blunder roll.
// *rand.Rand satisfies it.
type Random interface {
	Intn(n int) int
	Float64() float64
}

// SearchObserver is notified after every move decision.
type SearchObserver interface {
	ObserveSearch(difficulty, strategy string, nodes, pruned, maxDepth int, d time.Duration)
}

// MoveRequest is the external form of a move query.
type MoveRequest struct {
	Board      []string `json:"board"`
	Player     string   `json:"player"`
	Difficulty string   `json:"difficulty"`
}

// MoveResult is the outcome of one move decision. Move is NoMove when the
// board has no empty cell.
type MoveResult struct {
	Move            int            `json:"move"`
	Score           int            `json:"score"`
	NodesEvaluated  int            `json:"nodesEvaluated"`
	BranchesPruned  int            `json:"branchesPruned"`
	MaxDepthReached int            `json:"maxDepthReached"`
	Explanation     string         `json:"explanation"`
	Difficulty      Difficulty     `json:"difficulty"`
	Strategy        string         `json:"strategy"`
	Evaluations     MoveEvaluation `json:"evaluations,omitempty"`
	Cached          bool           `json:"cached"`
}

// Metrics returns the search counters of the result.
func (r *MoveResult) Metrics() SearchMetrics {
	return SearchMetrics{
		NodesEvaluated:  r.NodesEvaluated,
		BranchesPruned:  r.BranchesPruned,
		MaxDepthReached: r.MaxDepthReached,
	}
}

// Engine chooses moves. It is safe for concurrent use: every search owns
// its scratch board and counters, and the random source is locked.
type Engine struct {
	logger    logging.ContextLogger
	cache     *cache.Manager[MoveResult]
	observers []SearchObserver

	defaultDifficulty Difficulty
	blunderRate       float64
	mediumDepth       int

	mu  sync.Mutex
	rng Random
}

// Option configures an Engine.
type Option func(*Engine)

// WithRandom replaces the random source.
func WithRandom(r Random) Option {
	return func(e *Engine) { e.rng = r }
}

// WithObservers registers observers for every move decision.
func WithObservers(obs ...SearchObserver) Option {
	return func(e *Engine) { e.observers = append(e.observers, obs...) }
}

// NewEngine creates an engine. cfg may be nil for defaults and cacheManager
// may be nil to disable result caching.
func NewEngine(cfg *config.EngineConfig, logger logging.ContextLogger, cacheManager *cache.Manager[MoveResult], opts ...Option) *Engine {
	if cfg == nil {
		cfg = &config.Default().Engine
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	e := &Engine{
		logger:            logger,
		cache:             cacheManager,
		defaultDifficulty: ParseDifficulty(cfg.DefaultDifficulty),
		blunderRate:       cfg.BlunderRate,
		mediumDepth:       cfg.MediumDepth,
		rng:               rand.New(rand.NewSource(seed)), // #nosec G404 -- game randomness, not security
	}
	if e.mediumDepth <= 0 {
		e.mediumDepth = MediumDepth
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Move validates an external request and dispatches it. An empty difficulty
// uses the configured default.
func (e *Engine) Move(req MoveRequest) (*MoveResult, error) {
	board, err := ParseBoard(req.Board)
	if err != nil {
		return nil, fmt.Errorf("invalid board: %w", err)
	}
	player, err := ParsePlayer(req.Player)
	if err != nil {
		return nil, fmt.Errorf("invalid player: %w", err)
	}

	difficulty := e.defaultDifficulty
	if req.Difficulty != "" {
		difficulty = ParseDifficulty(req.Difficulty)
	}
	return e.GetBestMove(board, player, difficulty), nil
}

// GetBestMove picks a move for player. It never fails: a full board yields a
// result with Move == NoMove.
func (e *Engine) GetBestMove(board Board, player Player, difficulty Difficulty) *MoveResult {
	start := time.Now()
	difficulty = ParseDifficulty(string(difficulty))

	var res *MoveResult
	switch moves := LegalMoves(&board); {
	case len(moves) == 0:
		res = &MoveResult{Move: NoMove, Strategy: StrategyNone, Explanation: "No valid moves available."}
	case difficulty == Easy:
		res = e.randomMove(moves, StrategyRandom)
	case difficulty == Medium:
		if e.roll() < e.blunderRate {
			res = e.randomMove(moves, StrategyBlunder)
		} else {
			res = search(board, player, e.mediumDepth, StrategyBounded)
		}
	default:
		res = e.hardMove(board, player)
	}
	res.Difficulty = difficulty

	elapsed := time.Since(start)
	for _, obs := range e.observers {
		obs.ObserveSearch(string(difficulty), res.Strategy, res.NodesEvaluated, res.BranchesPruned, res.MaxDepthReached, elapsed)
	}
	e.logger.Debug("Move selected",
		"board", board.String(),
		"player", player.String(),
		"difficulty", string(difficulty),
		"strategy", res.Strategy,
		"move", res.Move,
		"score", res.Score,
		"nodes", res.NodesEvaluated,
		"pruned", res.BranchesPruned,
		"cached", res.Cached,
		"duration", elapsed,
	)
	return res
}

func (e *Engine) hardMove(board Board, player Player) *MoveResult {
	key := e.cache.Key(board.String(), player.String())
	if cached, ok := e.cache.Get(key); ok {
		cached.Cached = true
		cached.Evaluations = maps.Clone(cached.Evaluations)
		return &cached
	}

	res := search(board, player, HardDepth, StrategyFull)
	stored := *res
	stored.Evaluations = maps.Clone(res.Evaluations)
	e.cache.Put(key, stored)
	return res
}

func (e *Engine) randomMove(moves []int, strategy string) *MoveResult {
	return &MoveResult{
		Move:           moves[e.intn(len(moves))],
		Score:          0,
		NodesEvaluated: 1,
		BranchesPruned: 0,
		Explanation:    describeRandomMove(len(moves)),
		Strategy:       strategy,
	}
}

// search runs a depth-limited alpha-beta search from a fresh searcher.
func search(board Board, player Player, limit int, strategy string) *MoveResult {
	s := newSearcher(board, limit)
	out := s.run(player)

	return &MoveResult{
		Move:            out.move,
		Score:           out.score,
		NodesEvaluated:  s.metrics.NodesEvaluated,
		BranchesPruned:  s.metrics.BranchesPruned,
		MaxDepthReached: s.metrics.MaxDepthReached,
		Explanation:     Explain(out.move, out.score, out.scores, player) + "\n\n" + describeSearch(s.metrics),
		Strategy:        strategy,
		Evaluations:     out.scores,
	}
}

func (e *Engine) intn(n int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.Intn(n)
}

func (e *Engine) roll() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.Float64()
}

// selfCheckBoard has an immediate win for X at index 2.
var selfCheckBoard = MustParseBoard("XX-OO----")

// Ping runs a full search on a fixed position and checks the answer. It
// bypasses the cache and observers.
func (e *Engine) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	res := search(selfCheckBoard, PlayerX, HardDepth, StrategyFull)
	if res.Move != 2 {
		return fmt.Errorf("self-check failed: expected move 2, got %d", res.Move)
	}
	return nil
}
