package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"hobbytrack/project-timer/internal/tui"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var sessionsJSON bool

var sessionsCmd = &cobra.Command{
	Use:   "sessions <project-id>",
	Short: "Show a project's work session log",
	Long: `List the recorded work sessions of a project, newest first.

Examples:
  project-timer sessions 3f2a...          # Table output
  project-timer sessions 3f2a... --json   # JSON output`,
	Args: cobra.ExactArgs(1),
	RunE: runSessions,
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.Flags().BoolVar(&sessionsJSON, "json", false, "Output in JSON format")
}

func runSessions(cmd *cobra.Command, args []string) error {
	a, cleanup, err := openApp(false)
	if err != nil {
		return err
	}
	defer cleanup()

	log, err := a.Projects.Sessions(cmd.Context(), args[0])
	if err != nil {
		return eris.Wrap(err, "failed to load sessions")
	}

	if sessionsJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(log)
	}

	if len(log.Sessions) == 0 {
		fmt.Println("No sessions recorded yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tDURATION")
	for _, s := range log.Sessions {
		fmt.Fprintf(w, "%s\t%s\n", s.StartedAt.Local().Format("2006-01-02 15:04"), tui.FormatDuration(s.DurationSeconds))
	}
	fmt.Fprintf(w, "TOTAL\t%s\n", tui.FormatDuration(log.TotalSeconds))
	return w.Flush()
}
