package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the timer HTTP API",
	Long: `Run the timer HTTP API on localhost until interrupted.

Open projects are paused and saved on shutdown.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, cleanup, err := openApp(false)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.Logger.Info("Starting project timer",
		zap.String("env", a.Config.Env),
		zap.String("config_path", configPath),
		zap.Int("port", a.Config.Server.Port),
	)

	if err := a.CheckBackend(ctx); err != nil {
		a.Logger.Warn("Backend is not reachable, saves will fall back locally", zap.Error(err))
	}

	if err := a.Serve(ctx); err != nil {
		return eris.Wrap(err, "failed to serve timer API")
	}

	a.Logger.Info("Shutting down project timer")
	return nil
}
