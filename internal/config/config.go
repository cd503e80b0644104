package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Engine configuration
	Engine EngineConfig `json:"engine" yaml:"engine"`

	// Server configuration
	Server ServerConfig `json:"server" yaml:"server"`

	// Logging configuration
	Logging LoggingConfig `json:"logging" yaml:"logging"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `json:"rateLimit" yaml:"rateLimit"`

	// Result cache configuration
	Cache CacheConfig `json:"cache" yaml:"cache"`
}

type EngineConfig struct {
	DefaultDifficulty string  `json:"defaultDifficulty" yaml:"defaultDifficulty"`
	BlunderRate       float64 `json:"blunderRate" yaml:"blunderRate"`
	MediumDepth       int     `json:"mediumDepth" yaml:"mediumDepth"`
	// Seed fixes the random source when non-zero.
	Seed int64 `json:"seed" yaml:"seed"`
}

type ServerConfig struct {
	Name        string `json:"name" yaml:"name"`
	Version     string `json:"version" yaml:"version"`
	Description string `json:"description" yaml:"description"`
	HTTPAddr    string `json:"httpAddr" yaml:"httpAddr"`
	EnableMCP   bool   `json:"enableMCP" yaml:"enableMCP"`
}

type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
	// File, when set, receives a copy of every log line.
	File string `json:"file" yaml:"file"`
}

type RateLimitConfig struct {
	Enabled        bool           `json:"enabled" yaml:"enabled"`
	RequestsPerMin int            `json:"requestsPerMin" yaml:"requestsPerMin"`
	BurstSize      int            `json:"burstSize" yaml:"burstSize"`
	PerToolLimits  map[string]int `json:"perToolLimits" yaml:"perToolLimits"`
}

type CacheConfig struct {
	Enabled      bool  `json:"enabled" yaml:"enabled"`
	MaxItems     int   `json:"maxItems" yaml:"maxItems"`
	MaxSizeBytes int64 `json:"maxSizeBytes" yaml:"maxSizeBytes"`
	TTLSeconds   int64 `json:"ttlSeconds" yaml:"ttlSeconds"`
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			DefaultDifficulty: "hard",
			BlunderRate:       0.2,
			MediumDepth:       2,
		},
		Server: ServerConfig{
			Name:        "tictactoe-mcp",
			Version:     "0.1.0",
			Description: "Tic-tac-toe minimax engine with alpha-beta pruning",
			HTTPAddr:    ":8080",
			EnableMCP:   false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		RateLimit: RateLimitConfig{
			Enabled:        true,
			RequestsPerMin: 120,
			BurstSize:      20,
			PerToolLimits:  make(map[string]int),
		},
		Cache: CacheConfig{
			Enabled:      true,
			MaxItems:     10000,
			MaxSizeBytes: 16 * 1024 * 1024,
			TTLSeconds:   0,
		},
	}
}

func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := unmarshal(configPath, data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func unmarshal(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	default:
		return json.Unmarshal(data, cfg)
	}
}

func (c *Config) applyEnvOverrides() {
	// Engine settings
	if v := os.Getenv("TICTACTOE_DEFAULT_DIFFICULTY"); v != "" {
		c.Engine.DefaultDifficulty = v
	}
	if v := os.Getenv("TICTACTOE_BLUNDER_RATE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Engine.BlunderRate = f
		}
	}
	if v := os.Getenv("TICTACTOE_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Engine.Seed = n
		}
	}

	// Server settings
	if v := os.Getenv("TICTACTOE_HTTP_ADDR"); v != "" {
		c.Server.HTTPAddr = v
	}
	if v := os.Getenv("TICTACTOE_ENABLE_MCP"); v != "" {
		c.Server.EnableMCP = strings.ToLower(v) == "true"
	}

	// Logging settings
	if v := os.Getenv("TICTACTOE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("TICTACTOE_LOG_FORMAT"); v != "" {
		c.Logging.Format = strings.ToLower(v)
	}
	if v := os.Getenv("TICTACTOE_LOG_FILE"); v != "" {
		c.Logging.File = v
	}

	// Rate limit settings
	if v := os.Getenv("TICTACTOE_RATE_LIMIT_ENABLED"); v != "" {
		c.RateLimit.Enabled = strings.ToLower(v) == "true"
	}

	// Cache settings
	if v := os.Getenv("TICTACTOE_CACHE_ENABLED"); v != "" {
		c.Cache.Enabled = strings.ToLower(v) == "true"
	}
}

func (c *Config) validate() error {
	switch strings.ToLower(c.Engine.DefaultDifficulty) {
	case "easy", "medium", "hard":
	case "":
		c.Engine.DefaultDifficulty = "hard"
	default:
		return fmt.Errorf("unknown default difficulty %q", c.Engine.DefaultDifficulty)
	}

	// Clamp numeric ranges
	if c.Engine.BlunderRate < 0 {
		c.Engine.BlunderRate = 0
	}
	if c.Engine.BlunderRate > 1 {
		c.Engine.BlunderRate = 1
	}
	if c.Engine.MediumDepth < 1 {
		c.Engine.MediumDepth = 1
	}
	if c.Engine.MediumDepth > 9 {
		c.Engine.MediumDepth = 9
	}

	switch c.Logging.Format {
	case "", "json", "text":
	default:
		return fmt.Errorf("unknown log format %q", c.Logging.Format)
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.RequestsPerMin < 1 {
			c.RateLimit.RequestsPerMin = 1
		}
		if c.RateLimit.BurstSize < 1 {
			c.RateLimit.BurstSize = 1
		}
	}
	if c.RateLimit.PerToolLimits == nil {
		c.RateLimit.PerToolLimits = make(map[string]int)
	}

	if c.Cache.MaxItems < 0 {
		c.Cache.MaxItems = 0
	}
	if c.Cache.MaxSizeBytes < 0 {
		c.Cache.MaxSizeBytes = 0
	}
	if c.Cache.TTLSeconds < 0 {
		c.Cache.TTLSeconds = 0
	}

	return nil
}

func GetConfigPath() string {
	// Check environment variable first
	if path := os.Getenv("TICTACTOE_MCP_CONFIG"); path != "" {
		return path
	}

	// Check current directory
	for _, name := range []string{"config.json", "config.yaml", "config.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}

	// Check home directory
	if home, err := os.UserHomeDir(); err == nil {
		configPath := filepath.Join(home, ".tictactoe-mcp", "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
	}

	return ""
}
