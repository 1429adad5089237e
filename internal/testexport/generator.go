package testexport

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/okian/tagclips/internal/adapters/csvio"
)

// ExportHeader is the column layout of the tagging UI export.
var ExportHeader = []string{"Event ID", "Timestamp (seconds)", "Time", "Event Type", "Player", "Outcome", "Video ID"} //nolint:gochecknoglobals // file format

// Label tables. Raw labels map to the canonical action the default
// vocabulary produces.
var (
	rawActions = []struct{ raw, canonical string }{ //nolint:gochecknoglobals // fixed table
		{"Serve", "serve"}, {"Hit", "spike"}, {"Attack", "spike"}, {"Spike", "spike"},
		{"Assist", "set"}, {"Set", "set"}, {"Receive", "pass"}, {"Block", "block"}, {"Dig", "dig"},
	}
	rawOutcomes = []string{"Successful", "success", "yes", "1", "no", "fail", "0", "Lost", "?"} //nolint:gochecknoglobals // fixed table
	players     = []string{"Ana", "Bo Li", "Cy", "Di", "Ed", "Johnny Tran"}                        //nolint:gochecknoglobals // fixed table
)

// Event spacing in seconds. Quarter seconds keep clock strings exact.
const (
	eventSpacing = 2.5
	eventOffset  = 0.25
	videoEpoch   = 1712345678
)

// Generate builds the export rows for cfg and the manifest they must yield.
// The same cfg always yields the same rows.
func Generate(cfg *Config) ([][]string, Expected) {
	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // reproducible fixtures
	videos := max(cfg.Videos, 1)

	exp := Expected{Actions: make(map[string]int)}
	for v := 0; v < videos; v++ {
		exp.Videos = append(exp.Videos, fmt.Sprintf("game%d.mp4", v+1))
	}

	rows := make([][]string, 0, cfg.Events)
	for i := 0; i < cfg.Events; i++ {
		v := i % videos
		videoID := fmt.Sprintf("video_game%d_%d", v+1, videoEpoch+v)
		action := rawActions[rng.Intn(len(rawActions))]
		outcome := rawOutcomes[rng.Intn(len(rawOutcomes))]
		player := players[rng.Intn(len(players))]
		clock := formatClock(float64(i/videos)*eventSpacing + eventOffset)

		rows = append(rows, []string{"", "", clock, action.raw, player, outcome, videoID})
		exp.Distinct++
		exp.Actions[action.canonical]++
		if outcome == "?" {
			exp.Defaulted++
		}

		if cfg.DuplicateEvery > 0 && (i+1)%cfg.DuplicateEvery == 0 {
			rows = append(rows, []string{"", "", clock, strings.ToUpper(action.raw), player, outcome, videoID})
			exp.Duplicates++
		}
		if cfg.BadTimeEvery > 0 && (i+1)%cfg.BadTimeEvery == 0 {
			rows = append(rows, []string{"", "", "n/a", action.raw, player, outcome, videoID})
			exp.BadTimes++
		}
	}
	exp.Rows = len(rows)
	return rows, exp
}

// formatClock renders seconds the way the UI does, as "M:SS.mmm".
func formatClock(sec float64) string {
	minutes := int(sec) / 60
	return fmt.Sprintf("%d:%06.3f", minutes, sec-float64(minutes*60))
}

// WriteExport writes rows under ExportHeader to path.
func WriteExport(path string, rows [][]string, bom bool) error {
	header := append([]string(nil), ExportHeader...)
	if bom {
		header[0] = "\ufeff" + header[0]
	}
	aw, err := csvio.CreateAtomic(path, header)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if err := aw.Write(row); err != nil {
			aw.Abort()
			return err
		}
	}
	return aw.Commit()
}

// TouchVideos creates empty placeholder files for all but the last missing
// videos.
func TouchVideos(dir string, videos []string, missing int) error {
	if err := os.MkdirAll(dir, directoryPermission); err != nil {
		return fmt.Errorf("create video directory: %w", err)
	}
	for _, name := range videos[:max(len(videos)-missing, 0)] {
		if err := os.WriteFile(filepath.Join(dir, name), nil, filePermission); err != nil {
			return fmt.Errorf("create placeholder video: %w", err)
		}
	}
	return nil
}
