package cli

import (
	"fmt"
	"os"

	"hobbytrack/project-timer/internal/config"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with default values",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(configPath); err == nil && !configForce {
		return eris.Errorf("%s already exists, use --force to overwrite", configPath)
	}

	cfg, err := config.Default()
	if err != nil {
		return eris.Wrap(err, "failed to build default configuration")
	}
	if err := config.Save(configPath, cfg); err != nil {
		return eris.Wrap(err, "failed to write configuration")
	}

	fmt.Printf("Wrote %s\n", configPath)
	return nil
}
