package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mergeflow/mergeflow/pkg/domain"
	"github.com/mergeflow/mergeflow/pkg/workflow"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <files...>",
	Short: "Validate and upload files to a bundle",
	Long: `Validates the named files locally and uploads them to the merge service.

Bundle A establishes the session and prints its id; every other bundle needs
--session with an id from a previous Bundle A upload.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		bundleFlag, _ := cmd.Flags().GetString("bundle")
		sessionID, _ := cmd.Flags().GetString("session")

		bundle, err := parseBundle(bundleFlag)
		if err != nil {
			fatalf("Error: %v", err)
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

		uploads, closeAll, err := openUploads(args)
		if err != nil {
			fatalf("Error: %v", err)
		}
		defer closeAll()

		ctrl := workflow.NewController(getClient(cfg, logger), store,
			workflow.WithLogger(logger),
			workflow.WithSession(sessionID),
		)

		if err := ctrl.AddFiles(cmd.Context(), bundle, uploads); err != nil {
			fatalf("Upload failed: %v", err)
		}

		for _, f := range ctrl.Files(bundle) {
			fmt.Printf("  uploaded %s (%s)\n", f.Name, f.PrettySize)
		}
		if bundle == domain.BundleA {
			fmt.Printf("Session established: %s\n", ctrl.SessionID())
			fmt.Printf("Continue with: mergeflow upload --bundle B --session %s <files...>\n", ctrl.SessionID())
		}
	},
}

func init() {
	rootCmd.AddCommand(uploadCmd)
	uploadCmd.Flags().StringP("bundle", "b", "A", "Target bundle: A, B, schema-a, or schema-b")
	uploadCmd.Flags().StringP("session", "s", "", "Session id (required for every bundle except A)")
}
