// Package cmd wires the CLI commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "curator",
	Short: "curator builds a prioritized daily digest from RSS feeds",
	Long: `curator ingests RSS articles across many feeds and produces a ranked,
curated daily digest tailored to a reader's interests and trusted sources:
anomaly tagging, semantic clustering, priority buckets, and an LLM-backed
editorial selection.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: none, env + defaults)")
}
