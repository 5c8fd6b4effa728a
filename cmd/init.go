package cmd

import (
	"github.com/spf13/cobra"

	"github.com/joelrodriguezguzman/markdown/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize mdview configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure mdview for your project and writes the config file (.mdview.yml unless --config is set).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
