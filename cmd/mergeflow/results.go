package main

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/mergeflow/mergeflow/pkg/domain"
)

var resultsCmd = &cobra.Command{
	Use:   "results <session-id>",
	Short: "Show the merge result for a session",
	Long: `Shows the stored merge result for a session: output files with download
links, the proposed field mappings, and the merge summary.

The command reads only the local result store. When no result is stored it
falls back to asking the merge service for the session status and shows the
default output listing.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		sessionID := args[0]

		cfg, err := loadConfig(cmd)
		if err != nil {
			fatalf("Error loading config: %v", err)
		}
		logger := getLogger(cmd)
		client := getClient(cfg, logger)

		store, err := getStore(cfg)
		if err != nil {
			fatalf("Error: %v", err)
		}

		result, err := store.Load(cmd.Context(), sessionID)
		if err != nil {
			if !errors.Is(err, domain.ErrResultNotFound) {
				fatalf("Error loading result: %v", err)
			}
			// No stored result: degrade to the conservative default view.
			fmt.Printf("No stored result for session %s; showing defaults.\n", sessionID)
			fmt.Printf("  merged_output.zip\n    %s\n", client.DownloadURL(sessionID, "merged_output.zip"))
			if status, err := client.SessionStatus(cmd.Context(), sessionID); err == nil {
				printSessionStatus(status)
			}
			return
		}

		fmt.Printf("Merge result for session %s\n\n", sessionID)
		fmt.Println("Output files:")
		for _, name := range result.OutputFiles {
			fmt.Printf("  %s\n    %s\n", name, client.DownloadURL(sessionID, name))
		}
		if len(result.OutputFiles) == 0 {
			fmt.Printf("  merged_output.zip\n    %s\n", client.DownloadURL(sessionID, "merged_output.zip"))
		}
		fmt.Printf("\nMapping document: %s\n", client.MappingPDFURL(sessionID))

		if result.Mappings != nil && len(result.Mappings.TableMappings) > 0 {
			fmt.Println()
			fmt.Println(renderMappingTable(result.Mappings))
		}

		if summary := result.SummaryText(); summary != "" {
			fmt.Println(renderMarkdown(summary))
		}
		if result.Message != "" {
			fmt.Println(result.Message)
		}
	},
}

// renderMappingTable lays out the proposed field mappings, one row per field.
func renderMappingTable(report *domain.MappingReport) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Source", "Target", "Confidence", "Reasoning"})

	for _, tm := range report.TableMappings {
		for _, fm := range tm.FieldMappings {
			tw.AppendRow(table.Row{
				tm.SourceTable + "." + fm.SourceField,
				tm.TargetTable + "." + fm.TargetField,
				fmt.Sprintf("%.0f%%", fm.Confidence*100),
				fm.Reasoning,
			})
		}
	}
	return tw.Render()
}

// renderMarkdown renders the summary through glamour, falling back to the raw
// text when the terminal renderer cannot be built.
func renderMarkdown(markdown string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
	)
	if err != nil {
		return markdown
	}
	out, err := r.Render(markdown)
	if err != nil {
		return markdown
	}
	return out
}

func init() {
	rootCmd.AddCommand(resultsCmd)
}
