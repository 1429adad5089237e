// Command test-export writes a synthetic tagging export with known defects,
// normalizes it and verifies that every row is accounted for.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/tagclips/internal/testexport"
	"github.com/okian/tagclips/pkg/logger"
)

// Default configuration constants.
const (
	defaultEvents         = 1000
	defaultVideos         = 8
	defaultDuplicateEvery = 10
	defaultBadTimeEvery   = 25
	defaultTestTimeout    = 5 * time.Minute
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	cfg := &testexport.Config{}
	cmd := &cobra.Command{
		Use:           "test-export",
		Short:         "Generate a defective export and check normalization against it",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), defaultTestTimeout)
			defer cancel()
			if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
				return err
			}
			stats, err := testexport.Run(ctx, cfg)
			if stats != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Generated %d rows -> wrote %d, skipped %d, mismatches %d in %s\n",
					stats.RowsGenerated, stats.RowsWritten, stats.RowsSkipped, stats.Mismatches, stats.Duration)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&cfg.Dir, "dir", "test_export", "output directory")
	cmd.Flags().IntVar(&cfg.Events, "events", defaultEvents, "distinct events to generate")
	cmd.Flags().IntVar(&cfg.Videos, "videos", defaultVideos, "source videos")
	cmd.Flags().IntVar(&cfg.DuplicateEvery, "duplicate-every", defaultDuplicateEvery, "tag every Nth event twice (0 = never)")
	cmd.Flags().IntVar(&cfg.BadTimeEvery, "bad-time-every", defaultBadTimeEvery, "add a broken-time row after every Nth event (0 = never)")
	cmd.Flags().IntVar(&cfg.MissingVideos, "missing-videos", 1, "videos left without a placeholder file")
	cmd.Flags().Int64Var(&cfg.Seed, "seed", time.Now().UnixNano(), "label seed")
	cmd.Flags().BoolVar(&cfg.BOM, "bom", true, "write a UTF-8 byte order mark")

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		os.Stderr.WriteString("Test failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
