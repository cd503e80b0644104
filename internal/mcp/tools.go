package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dmmcquay/tictactoe-mcp/internal/cache"
	"github.com/dmmcquay/tictactoe-mcp/internal/engine"
	"github.com/dmmcquay/tictactoe-mcp/internal/game"
	"github.com/dmmcquay/tictactoe-mcp/internal/logging"
	"github.com/dmmcquay/tictactoe-mcp/internal/metrics"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cast"
)

var errNoMoves = errors.New("no valid moves available")

// CacheStats reports the move cache.
type CacheStats interface {
	Stats() cache.Stats
}

// ToolsHandler manages MCP tools for the tic-tac-toe engine.
type ToolsHandler struct {
	engine     engine.EngineInterface
	logger     logging.ContextLogger
	middleware *Middleware
	stats      *metrics.Collector
	cache      CacheStats
}

// NewToolsHandler creates a new tools handler.
func NewToolsHandler(eng engine.EngineInterface, logger logging.ContextLogger) *ToolsHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ToolsHandler{
		engine: eng,
		logger: logger,
	}
}

// SetMiddleware sets the middleware for the tools handler.
func (h *ToolsHandler) SetMiddleware(middleware *Middleware) {
	h.middleware = middleware
}

// SetStats sets the sources reported by getSearchStats. Either may be nil.
func (h *ToolsHandler) SetStats(stats *metrics.Collector, cacheStats CacheStats) {
	h.stats = stats
	h.cache = cacheStats
}

// RegisterTools registers all tools with the MCP server.
func (h *ToolsHandler) RegisterTools(s *server.MCPServer) {
	boardDescription := "Board as 9 cells in row-major order (null, \"\", \"X\" or \"O\"), " +
		"or a 9-character string such as \"XX-OO----\" where '-' or '.' is empty"

	getBestMoveTool := mcp.NewTool("getBestMove",
		mcp.WithDescription("Choose the next move for a tic-tac-toe position and explain why"),
		mcp.WithArray("board",
			mcp.Description(boardDescription),
			mcp.Required(),
		),
		mcp.WithString("player",
			mcp.Description("Side to move. Defaults to the side whose turn it is."),
			mcp.Enum("X", "O"),
		),
		mcp.WithString("difficulty",
			mcp.Description("easy (random), medium (shallow search with blunders) or hard (unbeatable)"),
			mcp.Enum("easy", "medium", "hard"),
		),
		mcp.WithBoolean("json",
			mcp.Description("Return the raw result as JSON"),
		),
	)
	h.addTool(s, getBestMoveTool, h.HandleGetBestMove)

	evaluatePositionTool := mcp.NewTool("evaluatePosition",
		mcp.WithDescription("Analyze a position at full depth: best move, score, result and alternatives"),
		mcp.WithArray("board",
			mcp.Description(boardDescription),
			mcp.Required(),
		),
		mcp.WithString("player",
			mcp.Description("Side to evaluate for. Defaults to the side whose turn it is."),
			mcp.Enum("X", "O"),
		),
	)
	h.addTool(s, evaluatePositionTool, h.HandleEvaluatePosition)

	explainAlgorithmTool := mcp.NewTool("explainAlgorithm",
		mcp.WithDescription("Describe the minimax search and how each difficulty uses it"),
	)
	h.addTool(s, explainAlgorithmTool, h.HandleExplainAlgorithm)

	selfPlayTool := mcp.NewTool("selfPlay",
		mcp.WithDescription("Let the engine play a full game against itself"),
		mcp.WithString("xDifficulty",
			mcp.Description("Difficulty for X (default: hard)"),
			mcp.Enum("easy", "medium", "hard"),
		),
		mcp.WithString("oDifficulty",
			mcp.Description("Difficulty for O (default: hard)"),
			mcp.Enum("easy", "medium", "hard"),
		),
	)
	h.addTool(s, selfPlayTool, h.HandleSelfPlay)

	getSearchStatsTool := mcp.NewTool("getSearchStats",
		mcp.WithDescription("Get search, tool call and cache statistics since startup"),
	)
	h.addTool(s, getSearchStatsTool, h.HandleGetSearchStats)

	getEngineStatusTool := mcp.NewTool("getEngineStatus",
		mcp.WithDescription("Run the engine self-check"),
	)
	h.addTool(s, getEngineStatusTool, h.HandleGetEngineStatus)
}

func (h *ToolsHandler) addTool(s *server.MCPServer, tool mcp.Tool, handler ToolHandler) {
	if h.middleware != nil {
		handler = h.middleware.WrapTool(tool.Name, handler)
	}
	s.AddTool(tool, server.ToolHandlerFunc(handler))
}

// requestLogger tags the context with fresh correlation and request IDs.
func (h *ToolsHandler) requestLogger(ctx context.Context, tool string) (context.Context, logging.ContextLogger) {
	ctx = logging.ContextWithCorrelationID(ctx, logging.GenerateCorrelationID())
	ctx = logging.ContextWithRequestID(ctx, logging.GenerateRequestID())
	return ctx, h.logger.WithContext(ctx).WithField("tool", tool)
}

// HandleGetBestMove handles the getBestMove tool.
func (h *ToolsHandler) HandleGetBestMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, logger := h.requestLogger(ctx, "getBestMove")
	logger.Info("Handling getBestMove request")

	args, err := argumentsOf(request)
	if err != nil {
		return nil, err
	}
	board, player, err := parsePosition(args)
	if err != nil {
		return nil, err
	}
	difficulty := cast.ToString(args["difficulty"])

	res, err := h.engine.Move(engine.MoveRequest{
		Board:      board.Strings(),
		Player:     player.String(),
		Difficulty: difficulty,
	})
	if err != nil {
		logger.Error("Move failed: %v", err)
		return nil, fmt.Errorf("failed to choose move: %w", err)
	}
	if res.Move == engine.NoMove {
		return nil, errNoMoves
	}

	logger.Debug("Move chosen",
		"move", res.Move,
		"score", res.Score,
		"strategy", res.Strategy,
	)

	if cast.ToBool(args["json"]) {
		return jsonResult(res)
	}
	return mcp.NewToolResultText(formatMove(board, player, res)), nil
}

// HandleEvaluatePosition handles the evaluatePosition tool.
func (h *ToolsHandler) HandleEvaluatePosition(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, logger := h.requestLogger(ctx, "evaluatePosition")
	logger.Info("Handling evaluatePosition request")

	args, err := argumentsOf(request)
	if err != nil {
		return nil, err
	}
	board, player, err := parsePosition(args)
	if err != nil {
		return nil, err
	}

	analysis := h.engine.EvaluatePosition(board, player)
	logger.Debug("Position evaluated",
		"result", analysis.Result,
		"bestMove", analysis.BestMove,
		"evaluation", analysis.Evaluation,
	)
	return jsonResult(analysis)
}

// HandleExplainAlgorithm handles the explainAlgorithm tool.
func (h *ToolsHandler) HandleExplainAlgorithm(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, logger := h.requestLogger(ctx, "explainAlgorithm")
	logger.Info("Handling explainAlgorithm request")

	return jsonResult(h.engine.AlgorithmInfo())
}

// HandleSelfPlay handles the selfPlay tool.
func (h *ToolsHandler) HandleSelfPlay(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, logger := h.requestLogger(ctx, "selfPlay")
	logger.Info("Handling selfPlay request")

	args, _ := request.Params.Arguments.(map[string]interface{})
	xDifficulty := engine.ParseDifficulty(cast.ToString(args["xDifficulty"]))
	oDifficulty := engine.ParseDifficulty(cast.ToString(args["oDifficulty"]))

	g, err := game.SelfPlay(h.engine, xDifficulty, oDifficulty)
	if err != nil {
		logger.Error("Self-play failed: %v", err)
		return nil, fmt.Errorf("self-play failed: %w", err)
	}

	logger.Debug("Self-play finished", "result", g.Result().String(), "moves", len(g.Moves()))
	return jsonResult(g.State())
}

// HandleGetSearchStats handles the getSearchStats tool.
func (h *ToolsHandler) HandleGetSearchStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, logger := h.requestLogger(ctx, "getSearchStats")
	logger.Info("Handling getSearchStats request")

	stats := make(map[string]interface{})
	if h.stats != nil {
		stats["search"] = h.stats.GetStats()
	}
	if h.cache != nil {
		stats["cache"] = h.cache.Stats()
	}
	return jsonResult(stats)
}

// HandleGetEngineStatus handles the getEngineStatus tool.
func (h *ToolsHandler) HandleGetEngineStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx, logger := h.requestLogger(ctx, "getEngineStatus")
	logger.Info("Handling getEngineStatus request")

	if err := h.engine.Ping(ctx); err != nil {
		logger.Error("Engine self-check failed: %v", err)
		return nil, fmt.Errorf("engine self-check failed: %w", err)
	}
	return mcp.NewToolResultText("Engine status: healthy (self-check passed)"), nil
}

func argumentsOf(request mcp.CallToolRequest) (map[string]interface{}, error) {
	if request.Params.Arguments == nil {
		return nil, fmt.Errorf("missing arguments")
	}
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid arguments format")
	}
	return args, nil
}

// parsePosition reads board and player. A missing player means the side to
// move.
func parsePosition(args map[string]interface{}) (engine.Board, engine.Player, error) {
	var board engine.Board
	switch v := args["board"].(type) {
	case nil:
		return board, 0, fmt.Errorf("board is required")
	case string:
		b, err := engine.ParseLayout(v)
		if err != nil {
			return board, 0, fmt.Errorf("invalid board: %w", err)
		}
		board = b
	case []interface{}:
		cells, err := engine.CellsFromJSON(v)
		if err != nil {
			return board, 0, fmt.Errorf("invalid board: %w", err)
		}
		b, err := engine.ParseBoard(cells)
		if err != nil {
			return board, 0, fmt.Errorf("invalid board: %w", err)
		}
		board = b
	default:
		return board, 0, fmt.Errorf("invalid board: expected an array or string, got %T", v)
	}

	playerArg := strings.ToUpper(strings.TrimSpace(cast.ToString(args["player"])))
	if playerArg == "" {
		return board, board.SideToMove(), nil
	}
	player, err := engine.ParsePlayer(playerArg)
	if err != nil {
		return board, 0, fmt.Errorf("invalid player: %w", err)
	}
	return board, player, nil
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
