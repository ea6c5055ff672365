package cli

import (
	"context"
	"fmt"

	"hobbytrack/project-timer/internal/app"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var reconcilePending bool

var reconcileCmd = &cobra.Command{
	Use:   "reconcile [project-id...]",
	Short: "Recover unsaved time from the local fallback",
	Long: `Compare each project's stored total with the time kept locally and
raise the stored total when the local value is higher.

Examples:
  project-timer reconcile 3f2a...     # Reconcile one project
  project-timer reconcile --pending   # Reconcile every project with local entries`,
	RunE: runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
	reconcileCmd.Flags().BoolVar(&reconcilePending, "pending", false, "Reconcile every project with local entries")
}

func runReconcile(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && !reconcilePending {
		return eris.New("give at least one project id or --pending")
	}

	a, cleanup, err := openApp(false)
	if err != nil {
		return err
	}
	defer cleanup()

	ids := args
	if reconcilePending {
		ids = append(ids, a.Fallback.PendingProjects()...)
	}
	if len(ids) == 0 {
		fmt.Println("No unsaved time found.")
		return nil
	}

	return reconcileAll(cmd.Context(), a, ids)
}

func reconcileAll(ctx context.Context, a *app.App, ids []string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var failed int
	for _, id := range ids {
		res, err := a.Reconciler.Run(ctx, id)
		switch {
		case err != nil:
			failed++
			fmt.Printf("%s: %v\n", id, err)
		case res.Err != nil:
			failed++
			fmt.Printf("%s: kept local entries, update failed: %v\n", id, res.Err)
		case res.Raised:
			fmt.Printf("%s: raised total from %d to %d seconds\n", id, res.Authoritative, res.Candidate)
		default:
			fmt.Printf("%s: up to date at %d seconds\n", id, res.Authoritative)
		}
	}

	if failed > 0 {
		return eris.Errorf("%d of %d projects could not be reconciled", failed, len(ids))
	}
	return nil
}
