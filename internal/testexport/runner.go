// Package testexport generates synthetic tagging exports with known defects
// and checks that normalization accounts for every row.
package testexport

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/okian/tagclips/internal/manifest"
	"github.com/okian/tagclips/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0o750
	filePermission      = 0o600
)

// Output names inside Config.Dir.
const (
	ExportFileName   = "raw_export.csv"
	ManifestFileName = "manifest.csv"
	VideoDirName     = "videos"
)

// Run generates an export in cfg.Dir, normalizes it and verifies the result.
// Placeholder videos are left in cfg.Dir/videos for a follow-up extract run.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	log := logger.Named("test-export")

	log.Info(ctx, "starting synthetic export test",
		logger.String("dir", cfg.Dir),
		logger.Int("events", cfg.Events),
		logger.Int("videos", cfg.Videos),
		logger.Int64("seed", cfg.Seed),
	)

	rows, exp := Generate(cfg)
	stats.RowsGenerated = len(rows)

	exportPath := filepath.Join(cfg.Dir, ExportFileName)
	if err := WriteExport(exportPath, rows, cfg.BOM); err != nil {
		return stats, fmt.Errorf("export write failed: %w", err)
	}
	if err := TouchVideos(filepath.Join(cfg.Dir, VideoDirName), exp.Videos, cfg.MissingVideos); err != nil {
		return stats, err
	}

	manifestPath := filepath.Join(cfg.Dir, ManifestFileName)
	sum, err := manifest.New(manifest.WithLogger(log.Named("manifest"))).Run(ctx, exportPath, manifestPath)
	if err != nil {
		return stats, fmt.Errorf("normalization failed: %w", err)
	}
	stats.RowsWritten = sum.RowsWritten
	stats.RowsSkipped = sum.RowsSkipped

	problems := verifySummary(&exp, sum)
	fileProblems, err := verifyManifest(manifestPath, &exp)
	if err != nil {
		return stats, fmt.Errorf("manifest read failed: %w", err)
	}
	problems = append(problems, fileProblems...)
	stats.Mismatches = len(problems)

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, log, stats)

	if len(problems) > 0 {
		for _, p := range problems {
			log.Error(ctx, "mismatch", logger.String("detail", p))
		}
		return stats, fmt.Errorf("%w: %s", ErrMismatch, strings.Join(problems, "; "))
	}
	log.Info(ctx, "test completed successfully")
	return stats, nil
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	log.Info(ctx, "final statistics",
		logger.Int("rowsGenerated", stats.RowsGenerated),
		logger.Int("rowsWritten", stats.RowsWritten),
		logger.Int("rowsSkipped", stats.RowsSkipped),
		logger.Int("mismatches", stats.Mismatches),
		logger.String("duration", stats.Duration.String()),
	)
}
