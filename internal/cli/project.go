package cli

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var projectTag string

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
}

var projectCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a project",
	Long: `Create a project owned by the configured user and print its id.

Examples:
  project-timer project create "Winter scarf"
  project-timer project create "Socks" --tag knitting`,
	Args: cobra.ExactArgs(1),
	RunE: runProjectCreate,
}

var projectShowCmd = &cobra.Command{
	Use:   "show <project-id>",
	Short: "Show a project's counters",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectShow,
}

func init() {
	rootCmd.AddCommand(projectCmd)
	projectCmd.AddCommand(projectCreateCmd, projectShowCmd)
	projectCreateCmd.Flags().StringVar(&projectTag, "tag", "", "Optional project tag")
}

func runProjectCreate(cmd *cobra.Command, args []string) error {
	a, cleanup, err := openApp(false)
	if err != nil {
		return err
	}
	defer cleanup()

	var tag *string
	if projectTag != "" {
		tag = &projectTag
	}

	p, err := a.Projects.CreateProject(cmd.Context(), args[0], tag)
	if err != nil {
		return eris.Wrap(err, "failed to create project")
	}

	fmt.Println(p.ID)
	return nil
}

func runProjectShow(cmd *cobra.Command, args []string) error {
	a, cleanup, err := openApp(false)
	if err != nil {
		return err
	}
	defer cleanup()

	p, err := a.Projects.GetProject(cmd.Context(), args[0])
	if err != nil {
		return eris.Wrap(err, "failed to load project")
	}

	fmt.Printf("Name:     %s\n", p.Name)
	if p.Tag != nil {
		fmt.Printf("Tag:      %s\n", *p.Tag)
	}
	fmt.Printf("Time:     %d seconds\n", p.TotalTimeSeconds)
	fmt.Printf("Rows:     %d\n", p.RowCount)
	fmt.Printf("Stitches: %d\n", p.StitchCount)
	return nil
}
