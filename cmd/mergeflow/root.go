package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mergeflow",
	Short: "Mergeflow drives data-bundle merges against a merge service",
	Long: `Mergeflow uploads two bundles of data files to a merge service, submits the
merge job, follows it to completion, and keeps the results available for
inspection afterwards.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Path to the config file (default .mergeflow/config.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable debug logging")
}
