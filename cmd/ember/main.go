package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Version information, set at build time with -ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var rootCmd = &cobra.Command{
	Use:     "ember",
	Short:   "ember - a desired-state configuration engine",
	Long:    `ember converges a host toward the state declared in a Lua recipe by applying idempotent resources.`,
	Version: Version,
}

var (
	flagVerbose bool
	flagQuiet   bool
	flagConfig  string
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug-level logging")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "warn-level logging only")
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "path to ember config file")

	rootCmd.AddCommand(convergeCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)

	cobra.OnInitialize(initLogger)
}

func initLogger() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch {
	case flagVerbose:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case flagQuiet:
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ember %s\n", Version)
		if BuildTime != "unknown" {
			fmt.Printf("built: %s\n", BuildTime)
		}
		if GitCommit != "unknown" {
			fmt.Printf("commit: %s\n", GitCommit)
		}
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
