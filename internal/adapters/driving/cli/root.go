// Package cli provides the cobra command tree for sercha-ask.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-ask/internal/logger"
)

var version = "dev"

var (
	verbose  bool
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "sercha-ask",
	Short: "Search and ask questions over a Sercha document backend",
	Long: `sercha-ask is a client for a remote document search and RAG backend.

It pages through keyword, semantic and hybrid search results, streams
answers with citations, and can serve both as MCP tools.`,
	SilenceUsage:      true,
	PersistentPreRunE: configureLogging,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "show debug output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
}

func configureLogging(_ *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	if logLevel == "" {
		return nil
	}
	level, err := logger.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}
	logger.SetLevel(level)
	return nil
}

// SetVersion sets the version printed by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
