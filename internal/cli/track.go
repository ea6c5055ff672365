package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hobbytrack/project-timer/internal/tui"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var trackStart bool

var trackCmd = &cobra.Command{
	Use:   "track <project-id>",
	Short: "Open the timer dashboard for a project",
	Long: `Open a project in the terminal dashboard.

The project's total is reconciled with any unsaved local time before the
timer is shown. Leaving the terminal window pauses the timer when
timer.auto_pause_on_blur is set. Quitting saves the elapsed total.

Examples:
  project-timer track 3f2a...           # Open the dashboard
  project-timer track 3f2a... --start   # Open and start timing`,
	Args: cobra.ExactArgs(1),
	RunE: runTrack,
}

func init() {
	rootCmd.AddCommand(trackCmd)
	trackCmd.Flags().BoolVar(&trackStart, "start", false, "Start the timer immediately")
}

func runTrack(cmd *cobra.Command, args []string) error {
	projectID := args[0]

	a, cleanup, err := openApp(true)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	view, err := a.Dashboard.Open(ctx, projectID)
	if err != nil {
		return eris.Wrapf(err, "failed to open project %s", projectID)
	}
	if trackStart {
		if view, err = a.Dashboard.Start(projectID); err != nil {
			return eris.Wrap(err, "failed to start timer")
		}
	}

	// The beacon endpoint lets a browser tab report its visibility for this project.
	if a.Config.Server.Enabled {
		go func() {
			if err := a.Serve(ctx); err != nil {
				a.Logger.Error("Timer API stopped", zap.Error(err))
			}
		}()
	}

	err = tui.Run(tui.Options{
		Context:       ctx,
		Timer:         a.Dashboard,
		Hub:           a.Hub,
		Notifications: a.Notifications,
		ProjectID:     projectID,
		Initial:       view,
	})
	if err != nil && !eris.Is(err, context.Canceled) {
		return eris.Wrap(err, "dashboard failed")
	}

	done, err := a.Dashboard.Close(projectID)
	if err != nil {
		return eris.Wrap(err, "failed to close project")
	}
	select {
	case <-done:
	case <-time.After(a.Config.Timer.SaveTimeout):
		a.Logger.Warn("Final save still running at exit", zap.String("project_id", projectID))
	}
	return nil
}
