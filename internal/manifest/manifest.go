// Package manifest normalizes raw tagging exports into the canonical,
// deduplicated event manifest.
package manifest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strconv"
	"strings"

	"github.com/okian/tagclips/internal/adapters/csvio"
	"github.com/okian/tagclips/internal/domain/canon"
	"github.com/okian/tagclips/internal/domain/dedupe"
	"github.com/okian/tagclips/internal/domain/model"
	"github.com/okian/tagclips/internal/domain/resolve"
	"github.com/okian/tagclips/pkg/logger"
	"github.com/okian/tagclips/pkg/metrics"
)

// Skip reasons reported in the summary and the rows_skipped metric.
const (
	ReasonUnparsableTime = "unparsable_time"
	ReasonDuplicate      = "duplicate"
)

// Normalizer turns raw export rows into canonical events.
type Normalizer struct {
	vocab      *canon.Vocabulary
	aliases    map[resolve.Field][]string
	appendMode bool
	logger     logger.Logger
}

// New creates a Normalizer with the default vocabulary and aliases.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		vocab:   canon.NewVocabulary(),
		aliases: resolve.DefaultAliases(),
		logger:  logger.Named("manifest"),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// run holds the state of one normalization pass.
type run struct {
	seen    dedupe.Deduper
	usedIDs map[string]struct{}
	nextID  int
	summary *Summary
}

// Run reads the raw export at inPath and writes the manifest to outPath.
// The output replaces outPath only when the whole pass succeeds. A header
// row without any time column or without an event type column fails with
// ErrMissingHeaders before anything is written.
func (n *Normalizer) Run(ctx context.Context, inPath, outPath string) (*Summary, error) {
	rd, err := csvio.Open(inPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rd.Close() }()

	res := resolve.NewResolver(rd.Header(), n.aliases)
	if err := n.precheck(res); err != nil {
		return nil, fmt.Errorf("%s: %w", inPath, err)
	}

	st := &run{
		seen:    dedupe.NewInMemoryDeduper(),
		usedIDs: make(map[string]struct{}),
		nextID:  1,
		summary: newSummary(),
	}

	out, err := csvio.CreateAtomic(outPath, csvio.ManifestHeader)
	if err != nil {
		return nil, err
	}
	defer out.Abort()

	if n.appendMode {
		if err := n.carryOver(ctx, outPath, out, st); err != nil {
			return nil, err
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return st.summary, fmt.Errorf("normalize %s: %w", inPath, err)
		}
		row, err := rd.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return st.summary, fmt.Errorf("normalize %s: %w", inPath, err)
		}

		st.summary.RowsRead++
		metrics.RecordRowRead()

		ev, reason, err := n.canonicalize(ctx, res, row, st)
		if reason != "" {
			st.summary.skip(reason)
			metrics.RecordRowSkipped(reason)
			fields := []logger.Field{logger.Int("row", rd.Line()), logger.String("reason", reason)}
			if err != nil {
				fields = append(fields, logger.Error(err))
			}
			n.logger.Warn(ctx, "skipping row", fields...)
			continue
		}

		if err := out.Write(csvio.ManifestRow(ev)); err != nil {
			return st.summary, err
		}
		st.summary.RowsWritten++
		st.summary.ActionCounts[ev.Action]++
		metrics.RecordRowWritten()
	}

	if err := out.Commit(); err != nil {
		return st.summary, err
	}
	n.logger.Info(ctx, "manifest written",
		logger.String("path", outPath),
		logger.Int("read", st.summary.RowsRead),
		logger.Int("written", st.summary.RowsWritten),
		logger.Int("skipped", st.summary.RowsSkipped),
	)
	return st.summary, nil
}

func (n *Normalizer) precheck(res *resolve.Resolver) error {
	var missing []string
	if !res.Has(resolve.FieldTimestamp) && !res.Has(resolve.FieldTime) {
		var names []string
		names = append(names, res.Aliases(resolve.FieldTimestamp)...)
		names = append(names, res.Aliases(resolve.FieldTime)...)
		missing = append(missing, "time ("+strings.Join(names, ", ")+")")
	}
	if !res.Has(resolve.FieldEventType) {
		missing = append(missing, "event type ("+strings.Join(res.Aliases(resolve.FieldEventType), ", ")+")")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingHeaders, strings.Join(missing, "; "))
	}
	return nil
}

// canonicalize builds the event for row. A non-empty reason means the row is
// skipped.
func (n *Normalizer) canonicalize(ctx context.Context, res *resolve.Resolver, row model.RawEventRow, st *run) (model.CanonicalEvent, string, error) {
	t, err := resolve.ParseSeconds(res.Value(row, resolve.FieldTimestamp), res.Value(row, resolve.FieldTime))
	if err != nil {
		return model.CanonicalEvent{}, ReasonUnparsableTime, err
	}

	videoID, filename := canon.VideoName(res.Value(row, resolve.FieldVideoID))
	action := n.vocab.Action(res.Value(row, resolve.FieldEventType))
	player := res.Value(row, resolve.FieldPlayer)

	if st.seen.SeenAndRecord(ctx, dedupe.Key(videoID, t, action, player)) {
		return model.CanonicalEvent{}, ReasonDuplicate, nil
	}

	outcome, recognized := n.vocab.Outcome(res.Value(row, resolve.FieldOutcome))
	if !recognized {
		st.summary.OutcomesDefaulted++
		metrics.RecordOutcomeDefaulted()
	}

	return model.CanonicalEvent{
		EventID:       st.assignID(strings.TrimSpace(res.Value(row, resolve.FieldEventID))),
		VideoID:       videoID,
		VideoFilename: filename,
		TEventSec:     t,
		Action:        action,
		Player:        player,
		Outcome:       outcome,
	}, "", nil
}

// assignID passes a non-empty, unused source id through; otherwise it takes
// the next counter value not already emitted.
func (st *run) assignID(source string) string {
	if source != "" {
		if _, used := st.usedIDs[source]; !used {
			st.usedIDs[source] = struct{}{}
			st.bumpPast(source)
			return source
		}
	}
	for {
		id := strconv.Itoa(st.nextID)
		st.nextID++
		if _, used := st.usedIDs[id]; !used {
			st.usedIDs[id] = struct{}{}
			return id
		}
	}
}

// bumpPast keeps the counter ahead of numeric ids already emitted so
// assigned ids keep increasing through the file.
func (st *run) bumpPast(id string) {
	if v, err := strconv.Atoi(id); err == nil && v >= st.nextID {
		st.nextID = v + 1
	}
}

// carryOver copies the rows of the existing manifest at path into out and
// seeds the dedup set and id counter from them. A missing file is not an
// error.
func (n *Normalizer) carryOver(ctx context.Context, path string, out *csvio.AtomicWriter, st *run) error {
	rd, err := csvio.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer func() { _ = rd.Close() }()

	if missing := csvio.MissingHeaders(rd.Header(), csvio.ManifestHeader); len(missing) > 0 && rd.Header() != nil {
		return fmt.Errorf("existing manifest %s: %w: %s", path, ErrMissingHeaders, strings.Join(missing, ", "))
	}

	for {
		row, err := rd.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("existing manifest %s: %w", path, err)
		}
		t, err := strconv.ParseFloat(strings.TrimSpace(row["t_event_sec"]), 64)
		if err != nil {
			return fmt.Errorf("existing manifest %s line %d: %w", path, rd.Line(), resolve.ErrUnparsableTime)
		}
		st.seen.SeenAndRecord(ctx, dedupe.Key(row["video_id"], t, row["action"], row["player"]))
		if id := row["event_id"]; id != "" {
			st.usedIDs[id] = struct{}{}
			st.bumpPast(id)
		}
		rec := make([]string, len(csvio.ManifestHeader))
		for i, h := range csvio.ManifestHeader {
			rec[i] = row[h]
		}
		if err := out.Write(rec); err != nil {
			return err
		}
		st.summary.RowsKept++
	}
	n.logger.Info(ctx, "existing manifest carried over", logger.String("path", path), logger.Int("rows", st.summary.RowsKept))
	return nil
}
