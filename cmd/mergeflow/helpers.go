package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mergeflow/mergeflow/internal/config"
	"github.com/mergeflow/mergeflow/internal/logging"
	"github.com/mergeflow/mergeflow/pkg/adapters/file"
	"github.com/mergeflow/mergeflow/pkg/adapters/httpapi"
	"github.com/mergeflow/mergeflow/pkg/adapters/memory"
	"github.com/mergeflow/mergeflow/pkg/adapters/redis"
	"github.com/mergeflow/mergeflow/pkg/domain"
	"github.com/mergeflow/mergeflow/pkg/ports"
	"github.com/mergeflow/mergeflow/pkg/workflow"
)

// loadConfig resolves the effective configuration for a command invocation.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = config.DefaultPath()
	}
	return config.Load(path)
}

func getLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	return logging.New(level)
}

func getClient(cfg *config.Config, logger *slog.Logger) *httpapi.Client {
	return httpapi.New(cfg.APIBase, httpapi.WithLogger(logger))
}

// getStore builds the configured result store backend.
func getStore(cfg *config.Config) (ports.ResultStore, error) {
	switch cfg.Store {
	case "file":
		return file.New(cfg.ResultsDir), nil
	case "redis":
		return redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB), nil
	case "memory":
		// Useful only for dry runs: nothing survives the process.
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store)
	}
}

// openUploads opens local paths for a bundle upload. The caller owns the
// returned closer.
func openUploads(paths []string) ([]workflow.Upload, func(), error) {
	var files []*os.File
	closeAll := func() {
		for _, f := range files {
			f.Close()
		}
	}

	uploads := make([]workflow.Upload, 0, len(paths))
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		info, err := f.Stat()
		if err != nil {
			f.Close()
			closeAll()
			return nil, nil, fmt.Errorf("failed to stat %s: %w", path, err)
		}
		files = append(files, f)
		uploads = append(uploads, workflow.Upload{
			Name:      info.Name(),
			SizeBytes: info.Size(),
			Content:   f,
		})
	}
	return uploads, closeAll, nil
}

// parseBundle maps the CLI spelling of an upload slot to its domain name.
func parseBundle(s string) (domain.Bundle, error) {
	switch strings.ToLower(s) {
	case "a":
		return domain.BundleA, nil
	case "b":
		return domain.BundleB, nil
	case "schema-a":
		return domain.SchemaA, nil
	case "schema-b":
		return domain.SchemaB, nil
	}
	return "", fmt.Errorf("unknown bundle %q (want A, B, schema-a, or schema-b)", s)
}

// fatalf reports the error on stderr and exits; stdout stays reserved for
// command output and tables.
func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
