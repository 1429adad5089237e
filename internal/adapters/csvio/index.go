package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/okian/tagclips/internal/domain/model"
)

// IndexWriter appends clip records to the persistent clip index. It is not
// safe for concurrent use; one goroutine owns it.
type IndexWriter struct {
	path    string
	f       *os.File
	w       *csv.Writer
	indexed map[string]struct{}
}

// OpenIndex opens the clip index at path for appending. Clip paths already
// present are remembered so re-runs do not index a clip twice. The header is
// written only when the file is new or empty.
func OpenIndex(path string) (*IndexWriter, error) {
	indexed, err := indexedPaths(path)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644) //nolint:gosec // index is shared with the training job
	if err != nil {
		return nil, fmt.Errorf("open index %s: %w", path, err)
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat index %s: %w", path, err)
	}

	iw := &IndexWriter{path: path, f: f, w: csv.NewWriter(f), indexed: indexed}
	if st.Size() == 0 {
		if err := iw.writeRow(IndexHeader); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	return iw, nil
}

// Has reports whether clipPath is already indexed.
func (iw *IndexWriter) Has(clipPath string) bool {
	_, ok := iw.indexed[clipPath]
	return ok
}

// Len returns the number of indexed clip paths, including earlier runs.
func (iw *IndexWriter) Len() int { return len(iw.indexed) }

// Append writes rec as one flushed row. It returns false without writing
// when the clip path is already indexed.
func (iw *IndexWriter) Append(rec model.ClipRecord) (bool, error) { //nolint:gocritic // hugeParam: records are passed by value
	if iw.Has(rec.ClipPath) {
		return false, nil
	}
	if err := iw.writeRow(IndexRow(rec)); err != nil {
		return false, err
	}
	iw.indexed[rec.ClipPath] = struct{}{}
	return true, nil
}

// Close closes the index file.
func (iw *IndexWriter) Close() error {
	iw.w.Flush()
	werr := iw.w.Error()
	cerr := iw.f.Close()
	if werr != nil {
		return fmt.Errorf("flush index %s: %w", iw.path, werr)
	}
	if cerr != nil {
		return fmt.Errorf("close index %s: %w", iw.path, cerr)
	}
	return nil
}

// writeRow flushes after every row so an interrupted run never leaves a
// partial row behind a complete one.
func (iw *IndexWriter) writeRow(row []string) error {
	if err := iw.w.Write(row); err != nil {
		return fmt.Errorf("write index %s: %w", iw.path, err)
	}
	iw.w.Flush()
	if err := iw.w.Error(); err != nil {
		return fmt.Errorf("flush index %s: %w", iw.path, err)
	}
	return nil
}

func indexedPaths(path string) (map[string]struct{}, error) {
	indexed := make(map[string]struct{})
	recs, err := ReadIndex(path)
	if errors.Is(err, fs.ErrNotExist) {
		return indexed, nil
	}
	if err != nil {
		return nil, err
	}
	for _, rec := range recs {
		indexed[rec.ClipPath] = struct{}{}
	}
	return indexed, nil
}

// ReadIndex loads every record of the clip index at path. Columns missing
// from the file read as "".
func ReadIndex(path string) ([]model.ClipRecord, error) {
	rd, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rd.Close() }()

	var recs []model.ClipRecord
	for {
		row, err := rd.Next()
		if errors.Is(err, io.EOF) {
			return recs, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read index %s: %w", path, err)
		}
		recs = append(recs, model.ClipRecord{
			ClipPath:      row["clip_path"],
			VideoFilename: row["video_filename"],
			TEventSec:     row["t_event_sec"],
			Pre:           row["pre"],
			Post:          row["post"],
			Action:        row["action"],
			Outcome:       row["outcome"],
			Player:        row["player"],
			EventID:       row["event_id"],
		})
	}
}
