package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mergeflow/mergeflow/pkg/ports"
)

var resultCmd = &cobra.Command{
	Use:   "result",
	Short: "Manage stored merge results",
	Long:  `List, inspect, and remove merge results kept in the configured result store.`,
}

var resultLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List sessions with a stored result",
	Run: func(cmd *cobra.Command, args []string) {
		store := mustStore(cmd)
		sessions, err := store.List(cmd.Context())
		if err != nil {
			fatalf("Error listing results: %v", err)
		}

		if len(sessions) == 0 {
			fmt.Println("No stored results found.")
			return
		}

		fmt.Println("Stored results:")
		for _, s := range sessions {
			fmt.Println("- " + s)
		}
	},
}

var resultInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Print the stored result for a session",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		sessionID := args[0]
		store := mustStore(cmd)

		result, err := store.Load(cmd.Context(), sessionID)
		if err != nil {
			fatalf("Error loading result '%s': %v", sessionID, err)
		}

		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			fatalf("Error marshaling result: %v", err)
		}

		fmt.Println(string(data))
	},
}

var resultRmCmd = &cobra.Command{
	Use:   "rm <session-id>...",
	Short: "Remove one or more stored results",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store := mustStore(cmd)
		hasError := false

		for _, sessionID := range args {
			if err := store.Delete(cmd.Context(), sessionID); err != nil {
				fmt.Printf("Error removing '%s': %v\n", sessionID, err)
				hasError = true
			} else {
				fmt.Printf("Removed result '%s'\n", sessionID)
			}
		}

		if hasError {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(resultCmd)
	resultCmd.AddCommand(resultLsCmd)
	resultCmd.AddCommand(resultInspectCmd)
	resultCmd.AddCommand(resultRmCmd)
}

func mustStore(cmd *cobra.Command) ports.ResultStore {
	cfg, err := loadConfig(cmd)
	if err != nil {
		fatalf("Error loading config: %v", err)
	}
	store, err := getStore(cfg)
	if err != nil {
		fatalf("Error: %v", err)
	}
	return store
}
