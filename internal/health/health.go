package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/dmmcquay/tictactoe-mcp/internal/logging"
)

// Status represents the health status of a component.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

const checkTimeout = 5 * time.Second

// Check reports a component's health; a nil error means healthy.
type Check func(ctx context.Context) error

// Pinger is anything that can verify itself, such as the move engine.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Recorder receives the outcome of every engine self-check.
type Recorder interface {
	RecordEngineHealthCheck(success bool)
}

// Component is the result of one check.
type Component struct {
	Name        string        `json:"name"`
	Status      Status        `json:"status"`
	Message     string        `json:"message,omitempty"`
	LastChecked time.Time     `json:"last_checked"`
	Duration    time.Duration `json:"duration_ns"`
}

// Response is the body of both health endpoints.
type Response struct {
	Status        Status      `json:"status"`
	Service       string      `json:"service"`
	Version       string      `json:"version,omitempty"`
	Timestamp     time.Time   `json:"timestamp"`
	UptimeSeconds float64     `json:"uptime_seconds"`
	Components    []Component `json:"components,omitempty"`
}

// Checker runs registered checks and serves liveness and readiness.
type Checker struct {
	logger    logging.ContextLogger
	service   string
	version   string
	startedAt time.Time

	mu     sync.RWMutex
	checks map[string]Check
}

// NewChecker creates a health checker with no checks registered.
func NewChecker(logger logging.ContextLogger, service, version string) *Checker {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Checker{
		logger:    logger,
		service:   service,
		version:   version,
		startedAt: time.Now(),
		checks:    make(map[string]Check),
	}
}

// RegisterCheck adds or replaces the check for a component.
func (c *Checker) RegisterCheck(name string, check Check) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// EngineCheck wraps a Ping as a Check and records each result.
func EngineCheck(p Pinger, rec Recorder) Check {
	return func(ctx context.Context) error {
		err := p.Ping(ctx)
		if rec != nil {
			rec.RecordEngineHealthCheck(err == nil)
		}
		return err
	}
}

// CheckHealth runs every check in parallel. Components are sorted by name.
func (c *Checker) CheckHealth(ctx context.Context) Response {
	c.mu.RLock()
	checks := make(map[string]Check, len(c.checks))
	for name, check := range c.checks {
		checks[name] = check
	}
	c.mu.RUnlock()

	response := c.baseResponse()
	response.Components = make([]Component, 0, len(checks))

	results := make(chan Component, len(checks))
	var wg sync.WaitGroup
	for name, check := range checks {
		wg.Add(1)
		go func(name string, check Check) {
			defer wg.Done()
			results <- c.run(ctx, name, check)
		}(name, check)
	}
	wg.Wait()
	close(results)

	for comp := range results {
		response.Components = append(response.Components, comp)
		if comp.Status == StatusUnhealthy {
			response.Status = StatusUnhealthy
		}
	}
	sort.Slice(response.Components, func(i, j int) bool {
		return response.Components[i].Name < response.Components[j].Name
	})
	return response
}

func (c *Checker) run(ctx context.Context, name string, check Check) Component {
	checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	start := time.Now()
	comp := Component{
		Name:        name,
		Status:      StatusHealthy,
		LastChecked: start.UTC(),
	}
	if err := check(checkCtx); err != nil {
		comp.Status = StatusUnhealthy
		comp.Message = err.Error()
		c.logger.WithField("component", name).Error("Health check failed", "error", err)
	}
	comp.Duration = time.Since(start)
	return comp
}

func (c *Checker) baseResponse() Response {
	return Response{
		Status:        StatusHealthy,
		Service:       c.service,
		Version:       c.version,
		Timestamp:     time.Now().UTC(),
		UptimeSeconds: time.Since(c.startedAt).Seconds(),
	}
}

// LivenessHandler reports healthy whenever the process can serve requests.
func (c *Checker) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c.write(w, http.StatusOK, c.baseResponse(), c.logger)
	}
}

// ReadinessHandler runs all checks and answers 503 if any fail.
func (c *Checker) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.ContextWithCorrelationID(r.Context(), logging.GenerateCorrelationID())
		logger := c.logger.WithContext(ctx)
		logger.Debug("Performing readiness check")

		response := c.CheckHealth(ctx)
		status := http.StatusOK
		if response.Status != StatusHealthy {
			status = http.StatusServiceUnavailable
		}
		c.write(w, status, response, logger)
	}
}

func (c *Checker) write(w http.ResponseWriter, status int, response Response, logger logging.ContextLogger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error("Failed to encode health response", "error", err)
	}
}
