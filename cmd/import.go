package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/kozaktomas/face-registry/internal/config"
	"github.com/kozaktomas/face-registry/internal/registry"
	"github.com/kozaktomas/face-registry/internal/stats"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Bulk import subjects from a JSON file",
	Long: `Import subjects from a JSON file into the registry.

The file must contain a JSON array of records:

  [{"name": "Jane Doe", "role": "student", "descriptor": [0.1, ...]}, ...]

Each record goes through the same duplicate check as the API, so faces
too close to an already enrolled subject are rejected and counted as
duplicates.

Example:
  face-registry import subjects.json`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

// importRecord mirrors the registration API payload.
type importRecord struct {
	Name       string    `json:"name"`
	Role       string    `json:"role"`
	Descriptor []float64 `json:"descriptor"`
}

func (r importRecord) validate(cfg *config.Config) error {
	if r.Name == "" {
		return errors.New("name is required")
	}
	if r.Role == "" {
		return errors.New("role is required")
	}
	if !cfg.Roles.Known(r.Role) {
		return fmt.Errorf("unknown role %q", r.Role)
	}
	if len(r.Descriptor) != cfg.Matching.EmbeddingDim {
		return fmt.Errorf("descriptor must have %d values, got %d", cfg.Matching.EmbeddingDim, len(r.Descriptor))
	}
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("cannot read file: %w", err)
	}

	var records []importRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("cannot parse %s: %w", args[0], err)
	}
	if len(records) == 0 {
		fmt.Println("No records found in the file.")
		return nil
	}

	store, statsStore, closeBackend, err := openBackend(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeBackend(); err != nil {
			fmt.Printf("Error closing storage: %v\n", err)
		}
	}()

	reg := registry.New(store, stats.NewCounter(statsStore), cfg.Matching)

	fmt.Printf("Importing %d record(s)\n\n", len(records))

	importBar := progressbar.NewOptions(len(records),
		progressbar.OptionSetDescription("Importing"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("subjects"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)

	ctx := context.Background()
	var admitted, duplicates, invalid int
	var failures []string

	for i, record := range records {
		if err := record.validate(cfg); err != nil {
			invalid++
			failures = append(failures, fmt.Sprintf("record %d (%s): %v", i, record.Name, err))
			_ = importBar.Add(1)
			continue
		}

		_, err := reg.Register(ctx, registry.Registration{
			Name:      record.Name,
			Role:      record.Role,
			Embedding: record.Descriptor,
		})
		var dup *registry.DuplicateError
		switch {
		case errors.As(err, &dup):
			duplicates++
			failures = append(failures, fmt.Sprintf("record %d (%s): already enrolled as %q", i, record.Name, dup.Existing.Name))
		case err != nil:
			return fmt.Errorf("importing record %d (%s): %w", i, record.Name, err)
		default:
			admitted++
		}
		_ = importBar.Add(1)
	}

	fmt.Printf("\n\nImport complete: %d admitted, %d duplicates, %d invalid\n", admitted, duplicates, invalid)
	for _, failure := range failures {
		fmt.Printf("  skipped %s\n", failure)
	}
	return nil
}
