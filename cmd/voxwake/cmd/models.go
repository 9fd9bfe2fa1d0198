package cmd

import (
	"github.com/spf13/cobra"

	"github.com/emmett/voxwake/internal/app"
	"github.com/emmett/voxwake/internal/models"
)

var (
	modelsEngine     string
	modelsDownloaded bool
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Manage speech and wake-word models",
	Long: `Shows the downloadable Vosk and whisper.cpp models and manages the
per-engine default.

Examples:
  voxwake models list
  voxwake models list --downloaded
  voxwake models download vosk-model-small-en-us-0.15
  voxwake models default ggml-tiny.en`,
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available models",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mm := newModelManager(cmd)
		if modelsDownloaded {
			return mm.ListDownloaded()
		}
		return mm.ListModels(modelsEngine)
	},
}

var modelsDownloadCmd = &cobra.Command{
	Use:   "download <model>",
	Short: "Download a model",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return newModelManager(cmd).Download(cmd.Context(), args[0])
	},
}

var modelsDefaultCmd = &cobra.Command{
	Use:   "default <model>",
	Short: "Set the default model for the model's engine",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return newModelManager(cmd).SetDefault(args[0])
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.AddCommand(modelsListCmd, modelsDownloadCmd, modelsDefaultCmd)

	modelsListCmd.Flags().StringVar(&modelsEngine, "for", "", "only show models for this engine (vosk, whisper)")
	modelsListCmd.Flags().BoolVar(&modelsDownloaded, "downloaded", false, "only show downloaded models")
}

func newModelManager(cmd *cobra.Command) *app.ModelManager {
	return app.NewModelManager(models.NewManager(models.ManagerConfig{}), cmd.OutOrStdout(), cmd.InOrStdin())
}
