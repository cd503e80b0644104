package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dmmcquay/tictactoe-mcp/internal/cache"
	"github.com/dmmcquay/tictactoe-mcp/internal/cli"
	"github.com/dmmcquay/tictactoe-mcp/internal/config"
	"github.com/dmmcquay/tictactoe-mcp/internal/engine"
	"github.com/dmmcquay/tictactoe-mcp/internal/health"
	"github.com/dmmcquay/tictactoe-mcp/internal/logging"
	mcptools "github.com/dmmcquay/tictactoe-mcp/internal/mcp"
	"github.com/dmmcquay/tictactoe-mcp/internal/metrics"
	"github.com/dmmcquay/tictactoe-mcp/internal/ratelimit"
	httpserver "github.com/dmmcquay/tictactoe-mcp/internal/server"
	"github.com/dmmcquay/tictactoe-mcp/internal/shutdown"
	"github.com/mark3labs/mcp-go/server"
)

var (
	// Version information injected at build time.
	GitCommit string = "unknown"
	BuildTime string = "unknown"
)

const usage = `Usage: tictactoe-mcp [-version] [-config path] <command> [flags]

Commands:
  serve     HTTP API, websocket play and metrics; -mcp also serves MCP on stdio (default)
  play      play a best-of-three match in the terminal
  selfplay  let the engine play itself
`

// app holds the components shared by every command.
type app struct {
	cfg        *config.Config
	logger     logging.ContextLogger
	stats      *metrics.Collector
	prometheus *metrics.PrometheusCollector
	cache      *cache.Manager[engine.MoveResult]
	engine     *engine.Engine
	shutdown   *shutdown.Manager
}

func main() {
	var showVersion bool
	var configPath string
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.StringVar(&configPath, "config", "", "Path to a JSON or YAML config file")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if showVersion {
		fmt.Printf("tictactoe-mcp version %s\n", config.Default().Server.Version)
		fmt.Printf("Git commit: %s\n", GitCommit)
		fmt.Printf("Build time: %s\n", BuildTime)
		os.Exit(0)
	}

	if configPath == "" {
		configPath = config.GetConfigPath()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	args := flag.Args()
	command := "serve"
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}

	a := newApp(cfg, command != "serve")
	switch command {
	case "serve":
		err = a.serve(args)
	case "play":
		err = a.play(args)
	case "selfplay":
		err = a.selfPlay(args)
	default:
		flag.Usage()
		err = fmt.Errorf("unknown command %q", command)
	}

	_ = a.shutdown.Shutdown(shutdown.DefaultTimeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newApp wires the engine and its observers. Terminal commands only log
// warnings so the board stays readable.
func newApp(cfg *config.Config, quiet bool) *app {
	logger, closer := logging.NewLoggerFromConfig(&logging.Config{
		Level:   cfg.Logging.Level,
		Format:  logging.LogFormat(cfg.Logging.Format),
		Service: cfg.Server.Name,
		Version: cfg.Server.Version,
		File:    cfg.Logging.File,
	})
	if quiet && logger.GetLevel() < logging.WarnLevel {
		logger.SetLevel(logging.WarnLevel)
	}

	shutdownManager := shutdown.NewManager(logger)
	if closer != nil {
		shutdownManager.RegisterCloser("log file", closer.Close)
	}

	prom := metrics.NewPrometheusCollector()
	stats := metrics.NewCollector()
	cacheManager := cache.NewManager[engine.MoveResult](&cfg.Cache, logger, prom)
	eng := engine.NewEngine(&cfg.Engine, logger, cacheManager, engine.WithObservers(stats, prom))

	return &app{
		cfg:        cfg,
		logger:     logger,
		stats:      stats,
		prometheus: prom,
		cache:      cacheManager,
		engine:     eng,
		shutdown:   shutdownManager,
	}
}

func (a *app) serve(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", a.cfg.Server.HTTPAddr, "HTTP listen address")
	enableMCP := fs.Bool("mcp", a.cfg.Server.EnableMCP, "Also serve MCP tools on stdio")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a.logger.Info("Starting tic-tac-toe server version %s (commit: %s, built: %s)",
		a.cfg.Server.Version, GitCommit, BuildTime)

	rateLimiter := ratelimit.NewLimiter(&a.cfg.RateLimit, a.logger, a.prometheus)
	a.shutdown.RegisterCloser("rate limiter", func() error {
		rateLimiter.Stop()
		return nil
	})

	healthChecker := health.NewChecker(a.logger, a.cfg.Server.Name, a.cfg.Server.Version)
	healthChecker.RegisterCheck("engine", health.EngineCheck(a.engine, a.prometheus))

	httpServer := httpserver.NewHTTPServer(*addr, a.logger, httpserver.Deps{
		Engine:  a.engine,
		Checker: healthChecker,
		Stats:   a.stats,
		Cache:   a.cache,
		Limiter: rateLimiter,
		Version: a.cfg.Server.Version,
	})
	if err := httpServer.Start(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	a.shutdown.Register("http server", httpServer.Stop)
	a.logger.Info("HTTP server started", "addr", httpServer.Addr())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a.shutdown.HandleSignals(ctx)

	if !*enableMCP {
		a.shutdown.WaitForShutdown()
		return nil
	}

	mcpServer := server.NewMCPServer(
		a.cfg.Server.Name,
		a.cfg.Server.Version,
		server.WithLogging(),
	)

	toolsHandler := mcptools.NewToolsHandler(a.engine, a.logger)
	toolsHandler.SetMiddleware(mcptools.NewMiddleware(a.logger, a.stats, rateLimiter))
	toolsHandler.SetStats(a.stats, a.cache)
	toolsHandler.RegisterTools(mcpServer)

	a.logger.Info("MCP server ready on stdio")

	done := make(chan error, 1)
	go func() {
		done <- server.ServeStdio(mcpServer)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("MCP server error: %w", err)
		}
		a.logger.Info("MCP client disconnected")
	case <-a.shutdown.Done():
		a.logger.Info("Server stopped by signal")
	}
	return nil
}

func (a *app) play(args []string) error {
	fs := flag.NewFlagSet("play", flag.ExitOnError)
	as := fs.String("as", "X", "Your mark: X or O")
	difficulty := fs.String("difficulty", a.cfg.Engine.DefaultDifficulty, "easy, medium or hard")
	if err := fs.Parse(args); err != nil {
		return err
	}

	human, err := engine.ParsePlayer(strings.ToUpper(*as))
	if err != nil {
		return fmt.Errorf("invalid -as: %w", err)
	}

	c := cli.NewCLI(a.engine, a.logger)
	defer c.Close()
	return c.Play(human, engine.ParseDifficulty(*difficulty))
}

func (a *app) selfPlay(args []string) error {
	fs := flag.NewFlagSet("selfplay", flag.ExitOnError)
	x := fs.String("x", "hard", "Difficulty for X")
	o := fs.String("o", "hard", "Difficulty for O")
	games := fs.Int("games", 1, "Number of games")
	if err := fs.Parse(args); err != nil {
		return err
	}

	start := time.Now()
	c := cli.New(a.engine, a.logger, nil, os.Stdout)
	if _, err := c.SelfPlay(engine.ParseDifficulty(*x), engine.ParseDifficulty(*o), *games); err != nil {
		return err
	}
	a.logger.Debug("Self-play took %s", time.Since(start))
	return nil
}
