package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "corobus",
	Short: "Cooperative channel bus",
	Long:  "corobus runs tasks on a single cooperative scheduler and moves values between them over bounded channels.",
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the corobus version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "corobus", version)
	},
}

// Execute runs the root command and exits on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = version

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}
