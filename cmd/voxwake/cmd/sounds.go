package cmd

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/emmett/voxwake/internal/app"
	"github.com/emmett/voxwake/internal/output"
)

var soundsCmd = &cobra.Command{
	Use:   "sounds",
	Short: "Show where each cue resolves for the active voice",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		resolver, player, err := app.NewSoundStack(afero.NewOsFs(), cfg, nil, logger)
		if err != nil {
			return err
		}
		defer player.Close()

		out := cmd.OutOrStdout()
		voiceDir, ok := resolver.SoundDirectory()
		if !ok {
			voiceDir = "(none)"
		}
		defaultDir, ok := resolver.DefaultVoiceDirectory()
		if !ok {
			defaultDir = "(none)"
		}
		fmt.Fprintf(out, "Sound root:      %s\n", resolver.Root())
		fmt.Fprintf(out, "Voice directory: %s\n", voiceDir)
		fmt.Fprintf(out, "Default voice:   %s\n\n", defaultDir)

		cues := []string{app.StartupCue, app.ActivationCue, app.AcceptCue, app.CancelCue, app.NotFoundCue}
		rows := make([][]string, 0, len(cues))
		for _, cue := range cues {
			p, ok := resolver.Resolve(cue)
			if !ok {
				p = "missing"
			}
			rows = append(rows, []string{cue, p})
		}
		console := output.NewConsoleOutput(output.ConsoleConfig{Writer: out, ErrWriter: cmd.ErrOrStderr()})
		return console.Table([]string{"CUE", "PATH"}, rows)
	},
}

var soundsPlayCmd = &cobra.Command{
	Use:   "play <name>",
	Short: "Play a cue through the configured backend",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resolver, player, err := app.NewSoundStack(afero.NewOsFs(), cfg, nil, logger)
		if err != nil {
			return err
		}
		defer player.Close()

		p, ok := resolver.Resolve(args[0])
		if !ok {
			return fmt.Errorf("sound %q not found in %s", args[0], resolver.Root())
		}
		player.Play(p, true)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(soundsCmd)
	soundsCmd.AddCommand(soundsPlayCmd)
}
