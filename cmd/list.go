package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joelrodriguezguzman/markdown/internal/lister"
)

var listCmd = &cobra.Command{
	Use:   "list [root]",
	Short: "List the markdown files of the workspace",
	Long: `Lists the markdown files directly inside the root and inside every folder
named in the path-list file, in discovery order.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(args)
		if err != nil {
			return err
		}
		abs, _ := cmd.Flags().GetBool("abs")

		listing, err := lister.List(listerOptions(cfg))
		if err != nil {
			return err
		}
		for _, msg := range listing.WarningMessages() {
			fmt.Fprintf(os.Stderr, "Warning: %s\n", msg)
		}
		out := cmd.OutOrStdout()
		for _, f := range listing.Files {
			if abs {
				fmt.Fprintln(out, f.Path)
			} else {
				fmt.Fprintln(out, f.Label)
			}
		}
		return nil
	},
}

func init() {
	listCmd.Flags().Bool("abs", false, "print absolute paths instead of labels")
	rootCmd.AddCommand(listCmd)
}
