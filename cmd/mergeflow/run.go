package main

import (
	"fmt"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/mergeflow/mergeflow/pkg/domain"
	"github.com/mergeflow/mergeflow/pkg/workflow"
)

var runCmd = &cobra.Command{
	Use:   "run <bundle A files...>",
	Short: "Run the whole merge workflow in one go",
	Long: `Uploads Bundle A (establishing the session), Bundle B, and any schema
files, submits the merge job, follows it to completion, and stores the result
under the session id.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		bundleB, _ := cmd.Flags().GetStringSlice("with-b")
		schemaA, _ := cmd.Flags().GetStringSlice("schema-a")
		schemaB, _ := cmd.Flags().GetStringSlice("schema-b")

		if len(bundleB) == 0 {
			fatalf("Error: --with-b needs at least one Bundle B file")
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			fatalf("Error loading config: %v", err)
		}
		logger := getLogger(cmd)

		store, err := getStore(cfg)
		if err != nil {
			fatalf("Error: %v", err)
		}

		ctrl := workflow.NewController(getClient(cfg, logger), store,
			workflow.WithLogger(logger),
			workflow.WithPollInterval(cfg.PollInterval()),
			workflow.WithStatusNotifier(printJobStatus),
		)
		ctx := cmd.Context()

		batches := []struct {
			bundle domain.Bundle
			paths  []string
		}{
			{domain.BundleA, args},
			{domain.BundleB, bundleB},
			{domain.SchemaA, schemaA},
			{domain.SchemaB, schemaB},
		}
		for _, batch := range batches {
			if len(batch.paths) == 0 {
				continue
			}
			uploads, closeAll, err := openUploads(batch.paths)
			if err != nil {
				fatalf("Error: %v", err)
			}
			err = ctrl.AddFiles(ctx, batch.bundle, uploads)
			closeAll()
			if err != nil {
				fatalf("Upload failed: %v", err)
			}
			if batch.bundle == domain.BundleA {
				fmt.Printf("Session established: %s\n", ctrl.SessionID())
			}
			fmt.Printf("Bundle %s: %d file(s) uploaded\n", batch.bundle, len(ctrl.Files(batch.bundle)))
		}

		fmt.Println("Submitting merge job...")
		result, err := ctrl.Continue(ctx)
		if err != nil {
			fatalf("Merge failed: %v", err)
		}

		fmt.Printf("\nMerge complete for session %s\n", ctrl.SessionID())
		client := getClient(cfg, logger)
		for _, name := range result.OutputFiles {
			fmt.Printf("  %s\n    %s\n", name, client.DownloadURL(ctrl.SessionID(), name))
		}
		if summary := result.SummaryText(); summary != "" {
			fmt.Printf("\n%s\n", summary)
		}
		fmt.Printf("\nInspect with: mergeflow results %s\n", ctrl.SessionID())
	},
}

// printJobStatus renders one colored status line per observed poll.
func printJobStatus(job *domain.Job) {
	p := termenv.ColorProfile()
	s := termenv.String("  job " + job.ID + ": " + string(job.Status))
	switch job.Status {
	case domain.JobSuccess:
		s = s.Foreground(p.Color("#22c55e"))
	case domain.JobFailed:
		s = s.Foreground(p.Color("#ef4444"))
	case domain.JobRunning:
		s = s.Foreground(p.Color("#eab308"))
	default:
		s = s.Faint()
	}
	fmt.Println(s)
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringSlice("with-b", nil, "Bundle B files (required)")
	runCmd.Flags().StringSlice("schema-a", nil, "Schema files describing Bundle A")
	runCmd.Flags().StringSlice("schema-b", nil, "Schema files describing Bundle B")
}
