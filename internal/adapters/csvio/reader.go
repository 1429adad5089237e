// Package csvio reads and writes the CSV files exchanged between pipeline
// stages: raw exports, the manifest, the clip index and the split files.
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/okian/tagclips/internal/domain/model"
)

// Reader yields data rows keyed by header name. Short rows resolve missing
// cells to "" and extra cells are ignored.
type Reader struct {
	r      *csv.Reader
	closer io.Closer
	header []string
	line   int
}

// NewReader wraps r, stripping a leading UTF-8 BOM, and reads the header row.
// An empty input yields a Reader with no header whose Next returns io.EOF.
func NewReader(r io.Reader) (*Reader, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	cr := csv.NewReader(decoded)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	rd := &Reader{r: cr}
	header, err := cr.Read()
	switch {
	case errors.Is(err, io.EOF):
		return rd, nil
	case err != nil:
		return nil, fmt.Errorf("read header: %w", err)
	}
	rd.header = append([]string(nil), header...)
	rd.line = 1
	return rd, nil
}

// Open opens path for reading. Close releases the file.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the operator
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	rd, err := NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	rd.closer = f
	return rd, nil
}

// Header returns the header row as read, BOM removed.
func (r *Reader) Header() []string { return r.header }

// Line returns the 1-based line number of the last row returned by Next.
func (r *Reader) Line() int { return r.line }

// Next returns the next data row, or io.EOF after the last one. Blank lines
// are skipped by the underlying csv reader.
func (r *Reader) Next() (model.RawEventRow, error) {
	if r.header == nil {
		return nil, io.EOF
	}
	rec, err := r.r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("line %d: %w", r.line+1, err)
	}
	r.line, _ = r.r.FieldPos(0)
	row := make(model.RawEventRow, len(r.header))
	for i, h := range r.header {
		if i < len(rec) {
			row[h] = rec[i]
		} else {
			row[h] = ""
		}
	}
	return row, nil
}

// Close closes the underlying file when the Reader was created by Open.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// MissingHeaders returns the names in required that header lacks, in the
// order given.
func MissingHeaders(header, required []string) []string {
	have := make(map[string]bool, len(header))
	for _, h := range header {
		have[h] = true
	}
	var missing []string
	for _, name := range required {
		if !have[name] {
			missing = append(missing, name)
		}
	}
	return missing
}
