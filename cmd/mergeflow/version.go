package main

import (
	"fmt"

	"github.com/mergeflow/mergeflow"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of mergeflow",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("mergeflow version %s\n", mergeflow.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
