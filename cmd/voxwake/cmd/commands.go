package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/emmett/voxwake/internal/app"
	"github.com/emmett/voxwake/internal/commands"
	"github.com/emmett/voxwake/internal/output"
)

var commandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "Inspect the command registry",
	Long: `Lists the loaded command packs and shows which command a phrase
would trigger.

Examples:
  voxwake commands list
  voxwake commands match "jarvis turn off the music"`,
}

var commandsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered commands",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := app.LoadCommands(afero.NewOsFs(), cfg, logger)
		if err != nil {
			return err
		}

		rows := make([][]string, 0, reg.Len())
		for _, e := range reg.Entries() {
			rows = append(rows, []string{e.Path(), string(e.Type), strings.Join(e.Phrases, ", ")})
		}
		console := output.NewConsoleOutput(output.ConsoleConfig{Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr()})
		return console.Table([]string{"COMMAND", "TYPE", "PHRASES"}, rows)
	},
}

var commandsMatchCmd = &cobra.Command{
	Use:   "match <text>",
	Short: "Show the command a phrase would run",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := app.LoadCommands(afero.NewOsFs(), cfg, logger)
		if err != nil {
			return err
		}

		text := app.StripFillers(strings.Join(args, " "), cfg.FillerPhrases)
		if text == "" {
			return fmt.Errorf("nothing left to match after removing filler phrases")
		}
		m, ok := commands.NewMatcher(reg, cfg.Commands.FuzzyThreshold).Match(text)
		if !ok {
			return fmt.Errorf("%w: %q", commands.ErrNoMatch, text)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%q -> %s (%s phrase %q, score %.2f)\n", text, m.Entry.Path(), m.Kind, m.Phrase, m.Score)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(commandsCmd)
	commandsCmd.AddCommand(commandsListCmd, commandsMatchCmd)
}
