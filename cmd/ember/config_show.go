package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nodeforge/ember/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration commands",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		fmt.Printf("state_dir:        %s\n", cfg.StateDir)
		fmt.Printf("backup_extension: %s\n", cfg.BackupExtension)
		fmt.Printf("log_level:        %s\n", cfg.LogLevel)
		fmt.Printf("metrics_addr:     %s\n", cfg.MetricsAddr)
		fmt.Printf("report_addr:      %s\n", cfg.ReportAddr)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
}
