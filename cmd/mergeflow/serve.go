package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/mergeflow/mergeflow/internal/metrics"
	"github.com/mergeflow/mergeflow/pkg/adapters/httpview"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the results-view HTTP server",
	Long: `Serves stored merge results over HTTP. The server reads only the result
store and the merge service; it shares no memory with upload or run commands,
so it can run on a different host against the same store.`,
	Run: func(cmd *cobra.Command, args []string) {
		port, _ := cmd.Flags().GetString("port")

		cfg, err := loadConfig(cmd)
		if err != nil {
			fatalf("Error loading config: %v", err)
		}
		logger := getLogger(cmd)

		store, err := getStore(cfg)
		if err != nil {
			fatalf("Error: %v", err)
		}
		client := getClient(cfg, logger)

		reg := prometheus.NewRegistry()
		metrics.NewSet(reg)

		view := httpview.NewServer(store,
			httpview.WithService(client),
			httpview.WithURLBuilder(client),
			httpview.WithLogger(logger),
			httpview.WithGatherer(reg),
		)

		srv := &http.Server{
			Addr:    ":" + port,
			Handler: view.Handler(),
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			fmt.Printf("Starting results view on %s\n", srv.Addr)
			fmt.Printf("Result store: %s\n", cfg.Store)
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)

		case sig := <-shutdown:
			fmt.Printf("\nStart shutdown... Signal: %v\n", sig)

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				fmt.Printf("Graceful shutdown did not complete in %v: %v\n", 5*time.Second, err)
				if err := srv.Close(); err != nil {
					fmt.Printf("Error killing server: %v\n", err)
				}
			}
			fmt.Println("Results view stopped gracefully")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
}
