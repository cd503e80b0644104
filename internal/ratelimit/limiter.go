package ratelimit

import (
	"fmt"
	"sync"
	"time"

	"github.com/dmmcquay/tictactoe-mcp/internal/config"
	"github.com/dmmcquay/tictactoe-mcp/internal/logging"
	"golang.org/x/time/rate"
)

const (
	cleanupInterval = 5 * time.Minute
	staleTimeout    = 30 * time.Minute
)

// Recorder receives every rate limit decision.
type Recorder interface {
	RecordRateLimit(client, tool string, hit bool)
}

// Limiter enforces a global budget, optional per-tool budgets, and the same
// budgets again for each client.
type Limiter struct {
	logger   logging.ContextLogger
	config   *config.RateLimitConfig
	recorder Recorder

	mu      sync.RWMutex
	global  *rate.Limiter
	tools   map[string]*rate.Limiter
	clients map[string]*clientLimits

	stop     chan struct{}
	stopOnce sync.Once
}

type budget struct {
	scope   string
	limiter *rate.Limiter
}

type clientLimits struct {
	global   *rate.Limiter
	tools    map[string]*rate.Limiter
	lastSeen time.Time
}

// NewLimiter returns nil when rate limiting is disabled; a nil *Limiter
// allows everything.
func NewLimiter(cfg *config.RateLimitConfig, logger logging.ContextLogger, recorder Recorder) *Limiter {
	if cfg == nil || !cfg.Enabled {
		return nil
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	l := &Limiter{
		logger:   logger,
		config:   cfg,
		recorder: recorder,
		clients:  make(map[string]*clientLimits),
		stop:     make(chan struct{}),
	}
	l.global, l.tools = l.newBudgets()

	go l.cleanupStaleClients()
	return l
}

// perMinute converts a requests-per-minute budget into a token bucket.
func perMinute(requests, burst int) *rate.Limiter {
	return rate.NewLimiter(rate.Limit(float64(requests)/60.0), burst)
}

// toolBurst scales the global burst down to a tool's share of the budget.
func (l *Limiter) toolBurst(limit int) int {
	if l.config.RequestsPerMin <= 0 {
		return 1
	}
	burst := (l.config.BurstSize * limit) / l.config.RequestsPerMin
	if burst < 1 {
		burst = 1
	}
	return burst
}

func (l *Limiter) newBudgets() (*rate.Limiter, map[string]*rate.Limiter) {
	tools := make(map[string]*rate.Limiter, len(l.config.PerToolLimits))
	for tool, limit := range l.config.PerToolLimits {
		tools[tool] = perMinute(limit, l.toolBurst(limit))
	}
	return perMinute(l.config.RequestsPerMin, l.config.BurstSize), tools
}

// Allow reports whether a request from clientID for toolName may proceed.
// A rejected request consumes no tokens from any bucket.
func (l *Limiter) Allow(clientID, toolName string) (bool, error) {
	if l == nil {
		return true, nil
	}

	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	checks := []budget{{"global", l.global}}
	if tl, ok := l.tools[toolName]; ok {
		checks = append(checks, budget{"tool", tl})
	}
	if clientID != "" {
		client := l.client(clientID, now)
		checks = append(checks, budget{"client", client.global})
		if tl := l.clientTool(client, toolName); tl != nil {
			checks = append(checks, budget{"client tool", tl})
		}
	}

	reservations := make([]*rate.Reservation, 0, len(checks))
	for _, c := range checks {
		r := c.limiter.ReserveN(now, 1)
		if !r.OK() || r.DelayFrom(now) > 0 {
			r.CancelAt(now)
			for _, prev := range reservations {
				prev.CancelAt(now)
			}
			l.logger.Warn("Rate limit exceeded",
				"scope", c.scope,
				"client", clientID,
				"tool", toolName,
			)
			l.record(clientID, toolName, true)
			return false, rejection(c.scope, toolName)
		}
		reservations = append(reservations, r)
	}

	l.record(clientID, toolName, false)
	return true, nil
}

func rejection(scope, toolName string) error {
	switch scope {
	case "tool":
		return fmt.Errorf("rate limit exceeded for tool %s", toolName)
	case "client tool":
		return fmt.Errorf("client rate limit exceeded for tool %s", toolName)
	default:
		return fmt.Errorf("%s rate limit exceeded", scope)
	}
}

func (l *Limiter) record(clientID, toolName string, hit bool) {
	if l.recorder != nil {
		l.recorder.RecordRateLimit(clientID, toolName, hit)
	}
}

// client returns the budgets for clientID, creating them on first use.
// Callers hold l.mu.
func (l *Limiter) client(clientID string, now time.Time) *clientLimits {
	c, ok := l.clients[clientID]
	if !ok {
		c = &clientLimits{
			global: perMinute(l.config.RequestsPerMin, l.config.BurstSize),
			tools:  make(map[string]*rate.Limiter),
		}
		l.clients[clientID] = c
	}
	c.lastSeen = now
	return c
}

func (l *Limiter) clientTool(c *clientLimits, toolName string) *rate.Limiter {
	limit, ok := l.config.PerToolLimits[toolName]
	if !ok {
		return nil
	}
	tl, ok := c.tools[toolName]
	if !ok {
		tl = perMinute(limit, l.toolBurst(limit))
		c.tools[toolName] = tl
	}
	return tl
}

// Wait returns how long until the global budget would admit one request.
func (l *Limiter) Wait(clientID, toolName string) time.Duration {
	if l == nil {
		return 0
	}

	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	r := l.global.ReserveN(now, 1)
	defer r.CancelAt(now)
	if !r.OK() {
		return rate.InfDuration
	}
	return r.DelayFrom(now)
}

// Reset refills every bucket and forgets all clients.
func (l *Limiter) Reset() {
	if l == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.global, l.tools = l.newBudgets()
	l.clients = make(map[string]*clientLimits)
}

// Stop ends the background cleanup. It is safe to call more than once.
func (l *Limiter) Stop() {
	if l == nil {
		return
	}
	l.stopOnce.Do(func() { close(l.stop) })
}

func (l *Limiter) cleanupStaleClients() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case now := <-ticker.C:
			l.removeStaleClients(now)
		}
	}
}

func (l *Limiter) removeStaleClients(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for clientID, c := range l.clients {
		if now.Sub(c.lastSeen) > staleTimeout {
			delete(l.clients, clientID)
			l.logger.Debug("Removed stale client rate limit tracking", "client", clientID)
		}
	}
}

// GetStatus returns the current state of the limiter for monitoring.
func (l *Limiter) GetStatus() map[string]interface{} {
	if l == nil {
		return map[string]interface{}{
			"enabled": false,
		}
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	toolLimits := make(map[string]interface{}, len(l.tools))
	for tool, tl := range l.tools {
		toolLimits[tool] = map[string]interface{}{
			"limit":  l.config.PerToolLimits[tool],
			"tokens": tl.Tokens(),
		}
	}

	return map[string]interface{}{
		"enabled":        true,
		"requestsPerMin": l.config.RequestsPerMin,
		"burstSize":      l.config.BurstSize,
		"globalTokens":   l.global.Tokens(),
		"activeClients":  len(l.clients),
		"toolLimits":     toolLimits,
	}
}
