package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmmcquay/tictactoe-mcp/internal/logging"
)

func newTestChecker() *Checker {
	return NewChecker(logging.NewNopLogger(), "tictactoe-mcp", "1.0.0")
}

func TestNewChecker(t *testing.T) {
	checker := newTestChecker()

	if checker == nil {
		t.Fatal("Expected non-nil checker")
	}
	if checker.service != "tictactoe-mcp" {
		t.Errorf("Expected service tictactoe-mcp, got %s", checker.service)
	}
	if checker.version != "1.0.0" {
		t.Errorf("Expected version 1.0.0, got %s", checker.version)
	}
	if NewChecker(nil, "svc", "v").logger == nil {
		t.Error("Expected a nop logger when none is given")
	}
}

func TestRegisterCheck(t *testing.T) {
	checker := newTestChecker()

	checkCalled := false
	checker.RegisterCheck("test", func(ctx context.Context) error {
		checkCalled = true
		return nil
	})
	if len(checker.checks) != 1 {
		t.Errorf("Expected 1 check, got %d", len(checker.checks))
	}

	response := checker.CheckHealth(context.Background())
	if !checkCalled {
		t.Error("Expected check to be called")
	}
	if response.Status != StatusHealthy {
		t.Errorf("Expected healthy status, got %s", response.Status)
	}
}

func TestCheckHealth(t *testing.T) {
	tests := []struct {
		name           string
		checks         map[string]error
		expectedStatus Status
		expectedComps  int
	}{
		{
			name:           "no checks",
			checks:         map[string]error{},
			expectedStatus: StatusHealthy,
			expectedComps:  0,
		},
		{
			name: "all healthy",
			checks: map[string]error{
				"cache":  nil,
				"engine": nil,
			},
			expectedStatus: StatusHealthy,
			expectedComps:  2,
		},
		{
			name: "one unhealthy",
			checks: map[string]error{
				"cache":  nil,
				"engine": errors.New("self-check failed"),
			},
			expectedStatus: StatusUnhealthy,
			expectedComps:  2,
		},
		{
			name: "all unhealthy",
			checks: map[string]error{
				"cache":  errors.New("cache full"),
				"engine": errors.New("self-check failed"),
			},
			expectedStatus: StatusUnhealthy,
			expectedComps:  2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := newTestChecker()
			for name, err := range tt.checks {
				checkErr := err
				checker.RegisterCheck(name, func(ctx context.Context) error {
					return checkErr
				})
			}

			response := checker.CheckHealth(context.Background())

			if response.Status != tt.expectedStatus {
				t.Errorf("Expected status %s, got %s", tt.expectedStatus, response.Status)
			}
			if len(response.Components) != tt.expectedComps {
				t.Fatalf("Expected %d components, got %d", tt.expectedComps, len(response.Components))
			}
			for i, comp := range response.Components {
				if i > 0 && response.Components[i-1].Name > comp.Name {
					t.Errorf("Components not sorted: %s before %s", response.Components[i-1].Name, comp.Name)
				}
				expectedErr := tt.checks[comp.Name]
				if expectedErr == nil && comp.Status != StatusHealthy {
					t.Errorf("Expected component %s to be healthy", comp.Name)
				} else if expectedErr != nil && (comp.Status != StatusUnhealthy || comp.Message != expectedErr.Error()) {
					t.Errorf("Expected component %s to be unhealthy with %q, got %s %q", comp.Name, expectedErr, comp.Status, comp.Message)
				}
			}
		})
	}
}

func TestCheckHealthTimeout(t *testing.T) {
	checker := newTestChecker()
	checker.RegisterCheck("slow", func(ctx context.Context) error {
		select {
		case <-time.After(10 * time.Second):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	response := checker.CheckHealth(ctx)
	if d := time.Since(start); d > 6*time.Second {
		t.Errorf("Check took too long: %v", d)
	}

	if len(response.Components) != 1 {
		t.Fatalf("Expected 1 component, got %d", len(response.Components))
	}
	if response.Components[0].Status != StatusUnhealthy {
		t.Error("Expected component to be unhealthy due to timeout")
	}
}

func TestLivenessHandler(t *testing.T) {
	checker := newTestChecker()
	checker.RegisterCheck("engine", func(ctx context.Context) error {
		return errors.New("liveness must not run checks")
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	checker.LivenessHandler()(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected JSON content type, got %s", ct)
	}

	var response Response
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.Status != StatusHealthy {
		t.Errorf("Expected healthy status, got %s", response.Status)
	}
	if response.Service != "tictactoe-mcp" || response.Version != "1.0.0" {
		t.Errorf("Unexpected identity %s %s", response.Service, response.Version)
	}
	if len(response.Components) != 0 {
		t.Errorf("Liveness should not report components, got %d", len(response.Components))
	}
}

func TestReadinessHandler(t *testing.T) {
	tests := []struct {
		name           string
		checks         map[string]error
		expectedCode   int
		expectedStatus Status
	}{
		{
			name:           "no checks - healthy",
			checks:         map[string]error{},
			expectedCode:   http.StatusOK,
			expectedStatus: StatusHealthy,
		},
		{
			name: "all healthy",
			checks: map[string]error{
				"cache":  nil,
				"engine": nil,
			},
			expectedCode:   http.StatusOK,
			expectedStatus: StatusHealthy,
		},
		{
			name: "one unhealthy",
			checks: map[string]error{
				"cache":  nil,
				"engine": errors.New("self-check failed"),
			},
			expectedCode:   http.StatusServiceUnavailable,
			expectedStatus: StatusUnhealthy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := newTestChecker()
			for name, err := range tt.checks {
				checkErr := err
				checker.RegisterCheck(name, func(ctx context.Context) error {
					return checkErr
				})
			}

			req := httptest.NewRequest(http.MethodGet, "/ready", nil)
			rec := httptest.NewRecorder()
			checker.ReadinessHandler()(rec, req)

			if rec.Code != tt.expectedCode {
				t.Errorf("Expected status %d, got %d", tt.expectedCode, rec.Code)
			}

			var response Response
			if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if response.Status != tt.expectedStatus {
				t.Errorf("Expected status %s, got %s", tt.expectedStatus, response.Status)
			}
			if len(response.Components) != len(tt.checks) {
				t.Errorf("Expected %d components, got %d", len(tt.checks), len(response.Components))
			}
		})
	}
}

func TestConcurrentHealthChecks(t *testing.T) {
	checker := newTestChecker()
	for i := 0; i < 5; i++ {
		checker.RegisterCheck(string(rune('a'+i)), func(ctx context.Context) error {
			time.Sleep(20 * time.Millisecond)
			return nil
		})
	}

	start := time.Now()
	response := checker.CheckHealth(context.Background())
	if d := time.Since(start); d > 90*time.Millisecond {
		t.Errorf("Checks took too long, might not be parallel: %v", d)
	}

	if response.Status != StatusHealthy {
		t.Errorf("Expected healthy status, got %s", response.Status)
	}
	if len(response.Components) != 5 {
		t.Errorf("Expected 5 components, got %d", len(response.Components))
	}
}
