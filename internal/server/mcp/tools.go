package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/emmett/voxwake/internal/app"
	"github.com/emmett/voxwake/internal/commands"
)

type ListCommandsArgs struct {
	Pack string `json:"pack,omitempty" jsonschema:"Only list commands from this pack"`
}

type CommandInfo struct {
	Path        string   `json:"path"`
	Type        string   `json:"type"`
	Phrases     []string `json:"phrases"`
	Description string   `json:"description,omitempty"`
}

type ListCommandsResult struct {
	Commands []CommandInfo `json:"commands"`
}

type MatchCommandArgs struct {
	Text string `json:"text" jsonschema:"Recognized speech, filler phrases are removed before matching"`
}

type MatchCommandResult struct {
	Matched bool    `json:"matched"`
	Text    string  `json:"text"`
	Path    string  `json:"path,omitempty"`
	Phrase  string  `json:"phrase,omitempty"`
	Kind    string  `json:"kind,omitempty"`
	Score   float64 `json:"score,omitempty"`
}

type RunCommandArgs struct {
	Path string `json:"path,omitempty" jsonschema:"Registry path such as media/pause"`
	Text string `json:"text,omitempty" jsonschema:"Spoken phrase used when path is empty"`
}

type RunCommandResult struct {
	Path       string `json:"path"`
	Output     string `json:"output,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

var errTerminateRemote = errors.New("terminate commands can only run from the listener")

func (s *Server) handleListCommands(ctx context.Context, req *sdk.CallToolRequest, args ListCommandsArgs) (*sdk.CallToolResult, ListCommandsResult, error) {
	result := ListCommandsResult{Commands: []CommandInfo{}}
	for _, entry := range s.config.Matcher.Registry().Entries() {
		if args.Pack != "" && entry.Pack != args.Pack {
			continue
		}
		result.Commands = append(result.Commands, CommandInfo{
			Path:        entry.Path(),
			Type:        string(entry.Type),
			Phrases:     entry.Phrases,
			Description: entry.Description,
		})
	}

	lines := []string{fmt.Sprintf("Commands (%d):", len(result.Commands))}
	for _, c := range result.Commands {
		lines = append(lines, fmt.Sprintf("- %s [%s]: %s", c.Path, c.Type, strings.Join(c.Phrases, ", ")))
	}

	return &sdk.CallToolResult{
		Content: []sdk.Content{&sdk.TextContent{Text: strings.Join(lines, "\n")}},
	}, result, nil
}

func (s *Server) handleMatchCommand(ctx context.Context, req *sdk.CallToolRequest, args MatchCommandArgs) (*sdk.CallToolResult, MatchCommandResult, error) {
	text := app.StripFillers(args.Text, s.config.FillerPhrases)
	result := MatchCommandResult{Text: text}

	m, ok := s.match(text)
	if !ok {
		return &sdk.CallToolResult{
			Content: []sdk.Content{&sdk.TextContent{Text: fmt.Sprintf("No command matches %q", text)}},
		}, result, nil
	}

	result.Matched = true
	result.Path = m.Entry.Path()
	result.Phrase = m.Phrase
	result.Kind = string(m.Kind)
	result.Score = m.Score

	return &sdk.CallToolResult{
		Content: []sdk.Content{&sdk.TextContent{
			Text: fmt.Sprintf("%q matches %s via %s phrase %q (score %.2f)", text, result.Path, result.Kind, m.Phrase, m.Score),
		}},
	}, result, nil
}

func (s *Server) handleRunCommand(ctx context.Context, req *sdk.CallToolRequest, args RunCommandArgs) (*sdk.CallToolResult, RunCommandResult, error) {
	entry, err := s.lookup(args)
	if err != nil {
		return nil, RunCommandResult{}, err
	}
	if entry.Type == commands.TypeTerminate {
		return nil, RunCommandResult{}, fmt.Errorf("%s: %w", entry.Path(), errTerminateRemote)
	}

	s.logger.Info("Running command for MCP client", zap.String("command", entry.Path()))
	outcome, err := s.config.Executor.Execute(ctx, entry)
	if err != nil {
		return nil, RunCommandResult{}, fmt.Errorf("command %s failed: %w", entry.Path(), err)
	}

	result := RunCommandResult{
		Path:       outcome.Path,
		Output:     outcome.Output,
		DurationMs: outcome.Duration.Milliseconds(),
	}
	text := fmt.Sprintf("Ran %s in %s", outcome.Path, outcome.Duration)
	if outcome.Output != "" {
		text += "\n" + outcome.Output
	}

	return &sdk.CallToolResult{
		Content: []sdk.Content{&sdk.TextContent{Text: text}},
	}, result, nil
}

func (s *Server) lookup(args RunCommandArgs) (commands.Entry, error) {
	if args.Path != "" {
		entry, ok := s.config.Matcher.Registry().Lookup(args.Path)
		if !ok {
			return commands.Entry{}, fmt.Errorf("unknown command %q", args.Path)
		}
		return entry, nil
	}
	if args.Text == "" {
		return commands.Entry{}, errors.New("either path or text is required")
	}

	text := app.StripFillers(args.Text, s.config.FillerPhrases)
	m, ok := s.match(text)
	if !ok {
		return commands.Entry{}, fmt.Errorf("%w: %q", commands.ErrNoMatch, text)
	}
	return m.Entry, nil
}

func (s *Server) match(text string) (commands.Match, bool) {
	if text == "" {
		return commands.Match{}, false
	}
	return s.config.Matcher.Match(text)
}
