package mcp

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dmmcquay/tictactoe-mcp/internal/config"
	"github.com/dmmcquay/tictactoe-mcp/internal/logging"
	"github.com/dmmcquay/tictactoe-mcp/internal/metrics"
	"github.com/dmmcquay/tictactoe-mcp/internal/ratelimit"
	"github.com/mark3labs/mcp-go/mcp"
)

func toolCalls(t *testing.T, collector *metrics.Collector, tool string) map[string]interface{} {
	t.Helper()
	tools, ok := collector.GetStats()["tools"].(map[string]interface{})
	if !ok {
		t.Fatal("Expected tools section in stats")
	}
	stats, ok := tools[tool].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected stats for tool %s", tool)
	}
	return stats
}

func TestMiddleware(t *testing.T) {
	logger := logging.NewNopLogger()

	t.Run("WrapTool", func(t *testing.T) {
		collector := metrics.NewCollector()
		middleware := NewMiddleware(logger, collector, nil)

		var called bool
		handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			called = true
			return mcp.NewToolResultText("success"), nil
		}

		wrapped := middleware.WrapTool("testTool", handler)
		req := mcp.CallToolRequest{
			Params: mcp.CallToolParams{},
		}
		result, err := wrapped(context.Background(), req)

		if err != nil {
			t.Errorf("Expected no error, got %v", err)
		}
		if !called {
			t.Error("Handler was not called")
		}
		if result == nil {
			t.Error("Expected result, got nil")
		}
		if calls := toolCalls(t, collector, "testTool")["calls"]; calls != int64(1) {
			t.Errorf("Expected 1 recorded call, got %v", calls)
		}
	})

	t.Run("RateLimiting", func(t *testing.T) {
		limiter := ratelimit.NewLimiter(&config.RateLimitConfig{
			Enabled:        true,
			RequestsPerMin: 60,
			BurstSize:      2,
		}, logger, nil)
		defer limiter.Stop()
		collector := metrics.NewCollector()
		middleware := NewMiddleware(logger, collector, limiter)

		var calls int
		handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			calls++
			return mcp.NewToolResultText("success"), nil
		}

		wrapped := middleware.WrapTool("testTool", handler)
		req := mcp.CallToolRequest{
			Params: mcp.CallToolParams{},
		}

		// First two calls should succeed (burst)
		for i := 0; i < 2; i++ {
			result, err := wrapped(context.Background(), req)
			if err != nil {
				t.Errorf("Call %d: Expected no error, got %v", i+1, err)
			}
			if result == nil {
				t.Errorf("Call %d: Expected result, got nil", i+1)
			}
		}

		result, err := wrapped(context.Background(), req)
		if err == nil {
			t.Fatal("Expected rate limit error, got nil")
		}
		if result != nil {
			t.Error("Expected nil result when rate limited")
		}
		if !strings.Contains(err.Error(), "rate limit exceeded") {
			t.Errorf("Expected rate limit error, got: %v", err)
		}
		if calls != 2 {
			t.Errorf("Expected handler to run twice, ran %d times", calls)
		}

		rateLimits := collector.GetStats()["rate_limits"].(map[string]interface{})
		if hits := rateLimits["hits"]; hits != int64(1) {
			t.Errorf("Expected 1 rate limit hit, got %v", hits)
		}
	})

	t.Run("ErrorHandling", func(t *testing.T) {
		collector := metrics.NewCollector()
		middleware := NewMiddleware(logger, collector, nil)

		expectedErr := errors.New("test error")
		handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return nil, expectedErr
		}

		wrapped := middleware.WrapTool("testTool", handler)
		req := mcp.CallToolRequest{
			Params: mcp.CallToolParams{},
		}

		result, err := wrapped(context.Background(), req)
		if !errors.Is(err, expectedErr) {
			t.Errorf("Expected %v, got %v", expectedErr, err)
		}
		if result != nil {
			t.Error("Expected nil result on error")
		}
		if errs := toolCalls(t, collector, "testTool")["errors"]; errs != int64(1) {
			t.Errorf("Expected 1 recorded error, got %v", errs)
		}
	})

	t.Run("NilDependencies", func(t *testing.T) {
		middleware := NewMiddleware(nil, nil, nil)
		handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("success"), nil
		}
		if _, err := middleware.WrapTool("testTool", handler)(context.Background(), mcp.CallToolRequest{}); err != nil {
			t.Errorf("Expected no error, got %v", err)
		}
	})
}

func TestExtractClientID(t *testing.T) {
	tests := []struct {
		name string
		args interface{}
		want string
	}{
		{"no arguments", nil, "anonymous"},
		{"string client", map[string]interface{}{"clientID": "arg-client"}, "arg-client"},
		{"numeric client", map[string]interface{}{"clientID": 42}, "42"},
		{"empty client", map[string]interface{}{"clientID": ""}, "anonymous"},
		{"unexpected arguments", []interface{}{"x"}, "anonymous"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := mcp.CallToolRequest{
				Params: mcp.CallToolParams{Arguments: tt.args},
			}
			if got := extractClientID(context.Background(), req); got != tt.want {
				t.Errorf("extractClientID() = %q, want %q", got, tt.want)
			}
		})
	}
}
