package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/dmmcquay/tictactoe-mcp/internal/logging"
	"github.com/dmmcquay/tictactoe-mcp/internal/metrics"
	"github.com/dmmcquay/tictactoe-mcp/internal/ratelimit"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cast"
)

const anonymousClient = "anonymous"

// Middleware wraps MCP tool handlers with rate limiting, metrics, and logging.
type Middleware struct {
	logger      logging.ContextLogger
	metrics     *metrics.Collector
	prometheus  *metrics.PrometheusCollector
	rateLimiter *ratelimit.Limiter
}

// NewMiddleware creates a new middleware instance. A nil rate limiter lets
// every call through.
func NewMiddleware(logger logging.ContextLogger, collector *metrics.Collector, rateLimiter *ratelimit.Limiter) *Middleware {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if collector == nil {
		collector = metrics.NewCollector()
	}
	return &Middleware{
		logger:      logger,
		metrics:     collector,
		prometheus:  metrics.NewPrometheusCollector(),
		rateLimiter: rateLimiter,
	}
}

// ToolHandler is the function signature for MCP tool handlers.
type ToolHandler func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// WrapTool wraps a tool handler with middleware functionality.
func (m *Middleware) WrapTool(toolName string, handler ToolHandler) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		clientID := extractClientID(ctx, request)

		m.logger.Info("Tool request received",
			"tool", toolName,
			"client", clientID,
			"arguments", request.Params.Arguments,
		)

		if allowed, err := m.rateLimiter.Allow(clientID, toolName); !allowed {
			m.record(toolName, "rate_limited", time.Since(start))
			return nil, fmt.Errorf("rate limit exceeded for tool %s: %w", toolName, err)
		}

		result, err := handler(ctx, request)

		status := "success"
		if err != nil {
			status = "error"
			m.logger.Error("Tool request failed",
				"tool", toolName,
				"client", clientID,
				"error", err,
				"duration", time.Since(start),
			)
		} else {
			m.logger.Info("Tool request completed",
				"tool", toolName,
				"client", clientID,
				"duration", time.Since(start),
			)
		}
		m.record(toolName, status, time.Since(start))

		return result, err
	}
}

func (m *Middleware) record(toolName, status string, d time.Duration) {
	m.metrics.RecordToolCall(toolName, status, d)
	m.prometheus.RecordToolCall(toolName, status, d.Seconds())
}

// extractClientID prefers the MCP session, then a clientID argument.
func extractClientID(ctx context.Context, request mcp.CallToolRequest) string {
	if session := server.ClientSessionFromContext(ctx); session != nil {
		if id := session.SessionID(); id != "" {
			return id
		}
	}

	if args, ok := request.Params.Arguments.(map[string]interface{}); ok {
		if id := cast.ToString(args["clientID"]); id != "" {
			return id
		}
	}

	return anonymousClient
}
