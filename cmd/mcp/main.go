package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/emmett/voxwake/internal/app"
	"github.com/emmett/voxwake/internal/commands"
	"github.com/emmett/voxwake/internal/config"
	"github.com/emmett/voxwake/internal/logging"
	"github.com/emmett/voxwake/internal/server/mcp"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
	GitBranch = "unknown"
)

var (
	configFile  = flag.String("config", "", "Path to config file (default: ~/.voxwake.yaml)")
	commandsDir = flag.String("commands", "", "Command registry directory (overrides config)")
	showVersion = flag.Bool("version", false, "Show version information")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("voxwake MCP v%s\n", Version)
		fmt.Printf("  Commit:  %s\n", GitCommit)
		fmt.Printf("  Branch:  %s\n", GitBranch)
		fmt.Printf("  Built:   %s\n", BuildTime)
		os.Exit(0)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "MCP server error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadWithFallback(*configFile)
	if err != nil {
		return err
	}
	if *commandsDir != "" {
		cfg.Commands.Dir = *commandsDir
	}

	// stdout carries the protocol, logs go to stderr
	logger, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: "json"})
	if err != nil {
		return err
	}
	defer logger.Sync()

	fs := afero.NewOsFs()
	registry, err := app.LoadCommands(fs, cfg, logger)
	if err != nil {
		return err
	}
	resolver, player, err := app.NewSoundStack(fs, cfg, nil, logger)
	if err != nil {
		return err
	}
	defer player.Close()

	srv, err := mcp.NewServer(mcp.Config{
		ServerName:    "voxwake",
		ServerVersion: Version,
		Matcher:       commands.NewMatcher(registry, cfg.Commands.FuzzyThreshold),
		Executor: commands.NewExecutor(commands.ExecutorConfig{
			Player:   player,
			Resolver: resolver,
			Timeout:  cfg.Commands.Timeout,
			Logger:   logger,
		}),
		FillerPhrases: cfg.FillerPhrases,
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("MCP server starting", zap.Int("commands", registry.Len()), zap.String("version", Version))
	return srv.Run(ctx)
}
