package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/kozaktomas/face-registry/internal/config"
	"github.com/kozaktomas/face-registry/internal/database"
	"github.com/kozaktomas/face-registry/internal/database/mariadb"
	"github.com/kozaktomas/face-registry/internal/database/memory"
	"github.com/kozaktomas/face-registry/internal/database/postgres"
	"github.com/kozaktomas/face-registry/internal/facematch"
	"github.com/kozaktomas/face-registry/internal/registry"
	"github.com/spf13/cobra"
)

func init() {
	database.RegisterBackend(config.DriverPostgres, postgres.Open)
	database.RegisterBackend(config.DriverMariaDB, mariadb.Open)
	database.RegisterBackend(config.DriverMemory, memory.Open)

	rootCmd.PersistentFlags().Float64("threshold", 0, "Match threshold override (default MATCH_THRESHOLD or 0.45)")
}

// loadConfig reads the environment and applies global flag overrides.
func loadConfig(cmd *cobra.Command) *config.Config {
	cfg := config.Load()
	if threshold := mustGetFloat64(cmd, "threshold"); threshold != 0 {
		cfg.Matching.Threshold = threshold
	}
	return cfg
}

// openService connects the configured store and wraps it in a registry service.
// The caller must close the returned store.
func openService(ctx context.Context, cfg *config.Config) (*registry.Service, database.IdentityStore, error) {
	if cfg.Database.RequiresURL() && cfg.Database.URL == "" {
		return nil, nil, errors.New("DATABASE_URL environment variable is required")
	}

	matcher, err := facematch.New(cfg.Matching.Threshold)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid match threshold: %w", err)
	}

	store, err := database.Open(ctx, &cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	return registry.NewService(store, matcher), store, nil
}

// closeStore closes the store and reports (but does not return) failures.
func closeStore(store database.IdentityStore) {
	if err := store.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: closing store: %v\n", err)
	}
}

// readDescriptor loads a descriptor from the --descriptor flag or the --file
// flag ("-" reads stdin). Both accept a JSON array of numbers.
func readDescriptor(cmd *cobra.Command) (facematch.Descriptor, error) {
	inline := mustGetString(cmd, "descriptor")
	path := mustGetString(cmd, "file")

	var data []byte
	switch {
	case inline != "" && path != "":
		return nil, errors.New("use either --descriptor or --file, not both")
	case inline != "":
		data = []byte(inline)
	case path == "-":
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		data = b
	case path != "":
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading descriptor file: %w", err)
		}
		data = b
	default:
		return nil, errors.New("a descriptor is required (--descriptor or --file)")
	}
	return parseDescriptor(data)
}

func addDescriptorFlags(cmd *cobra.Command) {
	cmd.Flags().String("descriptor", "", "Descriptor as a JSON array of 128 numbers")
	cmd.Flags().String("file", "", "Read the descriptor JSON array from a file (- for stdin)")
	cmd.Flags().Bool("json", false, "Output as JSON")
}

// parseDescriptor decodes a JSON array of numbers. Length and value checks
// are left to the matcher so the CLI reports the same errors as the API.
func parseDescriptor(data []byte) (facematch.Descriptor, error) {
	var values []float64
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("descriptor must be a JSON array of numbers: %w", err)
	}
	return facematch.DescriptorFromFloat64(values), nil
}

// formatDistance prints a distance, or n/a when none could be computed.
func formatDistance(d float64) string {
	if math.IsInf(d, 0) || math.IsNaN(d) {
		return "n/a"
	}
	return fmt.Sprintf("%.4f", d)
}
