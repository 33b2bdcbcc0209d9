package main

import (
	"fmt"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/mergeflow/mergeflow/pkg/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current state of a job or session",
	Run: func(cmd *cobra.Command, args []string) {
		jobID, _ := cmd.Flags().GetString("job")
		sessionID, _ := cmd.Flags().GetString("session")

		if (jobID == "") == (sessionID == "") {
			fatalf("Error: exactly one of --job or --session is required")
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			fatalf("Error loading config: %v", err)
		}
		client := getClient(cfg, getLogger(cmd))

		if jobID != "" {
			job, err := client.JobStatus(cmd.Context(), jobID)
			if err != nil {
				fatalf("Error: %v", err)
			}
			printJobStatus(job)
			if job.Error != "" {
				fmt.Printf("  error: %s\n", job.Error)
			}
			if job.Result != nil && len(job.Result.OutputFiles) > 0 {
				fmt.Printf("  output: %v\n", job.Result.OutputFiles)
			}
			return
		}

		status, err := client.SessionStatus(cmd.Context(), sessionID)
		if err != nil {
			fatalf("Error: %v", err)
		}
		printSessionStatus(status)
	},
}

func printSessionStatus(status *domain.SessionStatus) {
	p := termenv.ColorProfile()
	ready := termenv.String("not ready").Foreground(p.Color("#eab308"))
	if status.ReadyToMerge {
		ready = termenv.String("ready to merge").Foreground(p.Color("#22c55e"))
	}
	fmt.Printf("Session %s: %s\n", status.SessionID, ready)
	fmt.Printf("  bundle A files: %d\n", status.BundleAFiles)
	fmt.Printf("  bundle B files: %d\n", status.BundleBFiles)
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().String("job", "", "Job id to query")
	statusCmd.Flags().StringP("session", "s", "", "Session id to query")
}
