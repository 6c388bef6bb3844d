package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"rxdesk/m/internal/config"
	"rxdesk/m/internal/logger"
)

var (
	debug bool

	rootCmd = &cobra.Command{
		Use:   "rxdesk",
		Short: "Pharmacy prescription desk",
		Long: `rxdesk reads prescription images with a hosted vision model and
fulfils them against the pharmacy's drug stock, all or nothing.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(fulfillCmd)
	rootCmd.AddCommand(tablesCmd)
	rootCmd.AddCommand(queryCmd)
}

// setup loads configuration and builds the logger every command shares.
func setup() (config.Config, zerolog.Logger) {
	cfg := config.Load()
	level := cfg.LogLevel
	if debug {
		level = "debug"
	}
	log := logger.New(level, os.Stderr)
	for _, w := range cfg.Warnings {
		log.Warn().Msg(w)
	}
	return cfg, log
}
