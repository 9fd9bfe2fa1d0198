package cmd

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/emmett/voxwake/internal/app"
	"github.com/emmett/voxwake/internal/server/health"
)

var autoDownload bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Listen for the wake word and run commands",
	Long: `Starts the listening loop. The health server and /metrics endpoint
are started alongside it when enabled in the server section.

Examples:
  voxwake run
  voxwake run --voice jarvis-remake --engine template
  voxwake run --auto-download`,
	Args: cobra.NoArgs,
	Run:  runListener,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&autoDownload, "auto-download", false, "download missing models without asking")
}

// runListener never returns: the process ends through app.Close
func runListener(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.OutOrStdout(), "voxwake v%s (commit: %s, branch: %s, built: %s)\n",
		Version, GitCommit, GitBranch, BuildTime)

	rt, err := app.Bootstrap(ctx, cfg, logger, app.Options{
		AutoDownload: autoDownload,
		In:           cmd.InOrStdin(),
		Out:          cmd.OutOrStdout(),
	})
	if err != nil {
		logger.Error("Startup failed", zap.Error(err))
		app.Close(logger, 1)
		return
	}

	err = serve(ctx, rt)
	if cerr := rt.Close(); cerr != nil {
		logger.Warn("Shutdown incomplete", zap.Error(cerr))
	}
	if err != nil {
		logger.Error("Assistant stopped", zap.Error(err))
	}
	app.Close(logger, app.ExitCode(err))
}

func serve(ctx context.Context, rt *app.Runtime) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		// Ending the loop, by terminate command or failure, stops the servers
		defer cancel()
		return rt.Assistant.Run(ctx)
	})

	if rt.Config.Server.Enabled {
		hs := health.NewServer(health.Config{
			Host:   rt.Config.Server.Host,
			Port:   rt.Config.Server.Port,
			Logger: logger,
		})
		hs.Watch(rt.Assistant.States())
		g.Go(func() error { return hs.Run(ctx) })
	}

	if rt.Provider != nil {
		addr := net.JoinHostPort(rt.Config.Server.Host, fmt.Sprint(rt.Config.Server.MetricsPort))
		logger.Info("Serving metrics", zap.String("addr", addr))
		g.Go(func() error { return rt.Provider.Serve(ctx, addr) })
	}

	return g.Wait()
}
