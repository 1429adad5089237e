package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/okian/tagclips/internal/domain/model"
)

// Column sets of the files the pipeline writes.
var (
	ManifestHeader = []string{"event_id", "video_id", "video_filename", "t_event_sec", "action", "player", "outcome"}                  //nolint:gochecknoglobals // file format
	IndexHeader    = []string{"clip_path", "video_filename", "t_event_sec", "pre", "post", "action", "outcome", "player", "event_id"} //nolint:gochecknoglobals // file format
	SplitHeader    = []string{"clip_path", "action", "outcome", "player", "video_filename", "t_event_sec"}                             //nolint:gochecknoglobals // file format
)

// tempExt marks a file that is still being written.
const tempExt = ".temp"

// AtomicWriter writes CSV rows to a temporary file next to the destination
// and renames it into place on Commit. Until then the destination is left
// untouched.
type AtomicWriter struct {
	path string
	f    *os.File
	w    *csv.Writer
	done bool
}

// CreateAtomic starts a new file at path with the given header row. The
// parent directory is created if needed.
func CreateAtomic(path string, header []string) (*AtomicWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil { //nolint:gosec // output dirs are shared with the training job
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*"+tempExt)
	if err != nil {
		return nil, fmt.Errorf("create temp file for %s: %w", path, err)
	}
	aw := &AtomicWriter{path: path, f: f, w: csv.NewWriter(f)}
	if err := f.Chmod(0o644); err != nil { //nolint:gosec // readable by downstream consumers
		aw.Abort()
		return nil, fmt.Errorf("chmod %s: %w", f.Name(), err)
	}
	if err := aw.Write(header); err != nil {
		aw.Abort()
		return nil, err
	}
	return aw, nil
}

// Write buffers one row.
func (a *AtomicWriter) Write(row []string) error {
	if err := a.w.Write(row); err != nil {
		return fmt.Errorf("write %s: %w", a.path, err)
	}
	return nil
}

// Commit flushes, closes and renames the temporary file onto the destination.
func (a *AtomicWriter) Commit() error {
	if a.done {
		return errors.New("commit on finished writer")
	}
	a.done = true
	a.w.Flush()
	if err := a.w.Error(); err != nil {
		_ = a.f.Close()
		_ = os.Remove(a.f.Name())
		return fmt.Errorf("flush %s: %w", a.path, err)
	}
	if err := a.f.Close(); err != nil {
		_ = os.Remove(a.f.Name())
		return fmt.Errorf("close %s: %w", a.path, err)
	}
	if err := os.Rename(a.f.Name(), a.path); err != nil {
		_ = os.Remove(a.f.Name())
		return fmt.Errorf("rename temp file to %s: %w", a.path, err)
	}
	return nil
}

// Abort discards the temporary file. It is a no-op after Commit.
func (a *AtomicWriter) Abort() {
	if a.done {
		return
	}
	a.done = true
	_ = a.f.Close()
	_ = os.Remove(a.f.Name())
}

// ManifestRow renders a canonical event in ManifestHeader order.
func ManifestRow(ev model.CanonicalEvent) []string { //nolint:gocritic // hugeParam: records are passed by value
	return []string{
		ev.EventID,
		ev.VideoID,
		ev.VideoFilename,
		model.FormatSeconds(ev.TEventSec),
		ev.Action,
		ev.Player,
		model.FormatOutcome(ev.Outcome),
	}
}

// IndexRow renders a clip record in IndexHeader order.
func IndexRow(rec model.ClipRecord) []string { //nolint:gocritic // hugeParam: records are passed by value
	return []string{
		rec.ClipPath, rec.VideoFilename, rec.TEventSec, rec.Pre, rec.Post,
		rec.Action, rec.Outcome, rec.Player, rec.EventID,
	}
}

// SplitRow renders a clip record in SplitHeader order.
func SplitRow(rec model.ClipRecord) []string { //nolint:gocritic // hugeParam: records are passed by value
	return []string{rec.ClipPath, rec.Action, rec.Outcome, rec.Player, rec.VideoFilename, rec.TEventSec}
}

// WriteSplit writes one split file atomically. The header is always written,
// so an empty split still yields a valid file.
func WriteSplit(path string, recs []model.ClipRecord) error {
	aw, err := CreateAtomic(path, SplitHeader)
	if err != nil {
		return err
	}
	for _, rec := range recs {
		if err := aw.Write(SplitRow(rec)); err != nil {
			aw.Abort()
			return err
		}
	}
	return aw.Commit()
}
