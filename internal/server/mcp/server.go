// Package mcp exposes the command registry to MCP clients over stdio.
package mcp

import (
	"context"
	"fmt"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/emmett/voxwake/internal/commands"
)

// Executor runs a command entry
type Executor interface {
	Execute(ctx context.Context, entry commands.Entry) (commands.Outcome, error)
}

type Config struct {
	ServerName    string
	ServerVersion string
	Matcher       *commands.Matcher
	Executor      Executor
	FillerPhrases []string
	Logger        *zap.Logger
}

type Server struct {
	config    Config
	mcpServer *sdk.Server
	logger    *zap.Logger
}

func NewServer(cfg Config) (*Server, error) {
	if cfg.Matcher == nil {
		return nil, fmt.Errorf("command matcher is required")
	}
	if cfg.Executor == nil {
		return nil, fmt.Errorf("command executor is required")
	}
	if cfg.ServerName == "" {
		cfg.ServerName = "voxwake"
	}

	s := &Server{
		config: cfg,
		logger: cfg.Logger,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}

	s.mcpServer = sdk.NewServer(&sdk.Implementation{
		Name:    cfg.ServerName,
		Version: cfg.ServerVersion,
	}, nil)

	s.registerTools()

	return s, nil
}

// Run serves over stdio until ctx is cancelled or the client disconnects
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &sdk.StdioTransport{})
}

// Connect serves a single session over t
func (s *Server) Connect(ctx context.Context, t sdk.Transport) (*sdk.ServerSession, error) {
	return s.mcpServer.Connect(ctx, t, nil)
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcpServer, &sdk.Tool{
		Name:        "list_commands",
		Description: "List the voice commands in the registry",
	}, s.handleListCommands)

	sdk.AddTool(s.mcpServer, &sdk.Tool{
		Name:        "match_command",
		Description: "Show which command a spoken phrase would trigger, without running it",
	}, s.handleMatchCommand)

	sdk.AddTool(s.mcpServer, &sdk.Tool{
		Name:        "run_command",
		Description: "Run a command by registry path or by spoken phrase",
	}, s.handleRunCommand)
}
