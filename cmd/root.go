package cmd

import (
	"github.com/spf13/cobra"

	"github.com/joelrodriguezguzman/markdown/internal/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "mdview",
	Short: "Local markdown workspace editor with diagram preview and printing",
	Long: `mdview lists the markdown files of a project, opens them in a split-view
editor in your browser, saves edits back to disk and produces printable
snapshots with mermaid diagrams rendered as static images.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultConfigFile, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
