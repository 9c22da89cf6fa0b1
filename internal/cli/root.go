// Package cli wires the courtcal commands.
package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"courtcal/internal/config"
	appLog "courtcal/internal/log"
)

const version = "0.1.0"

var (
	configPath string
	outputJSON bool
	verbose    bool
	conf       *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "courtcal",
	Short: "Recurring class scheduling and calendar layout for court facilities",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			appLog.Error("failed to load config", err, "config_path", configPath)
			return err
		}
		conf = loaded

		level := appLog.ParseLevel(conf.LogLevel)
		if verbose {
			level = appLog.LevelDebug
		}
		appLog.SetLevel(level)
		return nil
	},
	SilenceUsage: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = version
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(calendarCmd())
	rootCmd.AddCommand(relocateCmd())
	rootCmd.AddCommand(removeCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(directoryCmd())
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "/etc/courtcal/config.yaml", "Path to config file")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Output JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
}
