// ABOUTME: CLI command that prints the build version.
// ABOUTME: Skips config loading so it works without a valid config file.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "habitetl %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
