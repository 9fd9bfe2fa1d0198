package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/emmett/voxwake/internal/app"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio capture and playback devices",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dm := app.NewDeviceManager(nil, cmd.OutOrStdout())
		if cfg.Audio.Device != "" {
			name, err := dm.SelectCapture(cfg.Audio.Device)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configured capture device: %s\n\n", name)
		}
		return dm.ListDevices()
	},
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}
