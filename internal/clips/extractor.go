// Package clips cuts one clip per manifest event and records each clip in
// the append-only clip index.
package clips

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/okian/tagclips/internal/adapters/csvio"
	"github.com/okian/tagclips/internal/adapters/ffmpeg"
	"github.com/okian/tagclips/internal/adapters/mq/queue"
	"github.com/okian/tagclips/internal/adapters/mq/worker"
	"github.com/okian/tagclips/internal/domain/model"
	"github.com/okian/tagclips/pkg/logger"
	"github.com/okian/tagclips/pkg/metrics"
)

// IndexFileName is the clip index kept in the output directory.
const IndexFileName = "clips_index.csv"

// Skip reasons reported in the summary and the clips_skipped metric.
const (
	ReasonMissingSource  = "missing_source"
	ReasonUnparsableTime = "unparsable_time"
	ReasonPerActionLimit = "per_action_limit"
	ReasonCutFailed      = "cut_failed"
	ReasonTimeout        = "timeout"
	ReasonCancelled      = "cancelled"
	ReasonNameCollision  = "name_collision"
)

// Default extractor configuration constants.
const (
	defaultTopMissing = 5
	defaultWorkers    = 1
	defaultQueueSize  = 64
)

// RequiredHeaders are the manifest columns extraction reads.
var RequiredHeaders = []string{"event_id", "video_filename", "t_event_sec", "action", "player", "outcome"} //nolint:gochecknoglobals // file format

// Extractor turns manifest rows into clip files.
type Extractor struct {
	cutter         ffmpeg.Cutter
	pre, post      float64
	limit          int
	perActionLimit int
	overwrite      bool
	workers        int
	queueSize      int
	topMissing     int
	logger         logger.Logger
}

// New creates an Extractor using cutter with a 1s/2s window and no caps.
func New(cutter ffmpeg.Cutter, opts ...Option) *Extractor {
	x := &Extractor{
		cutter:     cutter,
		pre:        1,
		post:       2,
		workers:    defaultWorkers,
		queueSize:  defaultQueueSize,
		topMissing: defaultTopMissing,
		logger:     logger.Named("clips"),
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// session is the state of one Run. Only the Run goroutine touches it.
type session struct {
	x           *Extractor
	index       *csvio.IndexWriter
	summary     *Summary
	perAction   map[string]int
	inflight    int
	inflightPer map[string]int
	maxInflight int
	claimed     map[string]int // clip path -> manifest row that owns it

	results     <-chan worker.Result
}

// Run reads the manifest at manifestPath, cuts clips from videos under
// videoRoot into outDir and appends them to outDir/clips_index.csv.
//
// A manifest lacking any of RequiredHeaders fails with ErrMissingHeaders
// before the output directory or index is touched. Row problems are counted
// in the Summary and never abort the run. When ctx is cancelled dispatch
// stops, in-flight cuts are settled, and the context error is returned along
// with the partial Summary.
func (x *Extractor) Run(ctx context.Context, manifestPath, videoRoot, outDir string) (*Summary, error) {
	rd, err := csvio.Open(manifestPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rd.Close() }()

	if missing := csvio.MissingHeaders(rd.Header(), RequiredHeaders); len(missing) > 0 {
		return nil, fmt.Errorf("%s: %w: %s", manifestPath, ErrMissingHeaders, strings.Join(missing, ", "))
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil { //nolint:gosec // clips are shared with the training job
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	indexPath := filepath.Join(outDir, IndexFileName)
	index, err := csvio.OpenIndex(indexPath)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	q := queue.NewInMemoryQueue(queue.WithCapacity(x.queueSize))
	// In-flight jobs never exceed the queue capacity, so Enqueue never
	// reports ErrFull and workers never block on results.
	pool := worker.NewPool(x.workers, q, worker.HandlerFunc(x.cut), q.Capacity())
	pool.Start(runCtx)

	s := &session{
		x:           x,
		index:       index,
		summary:     newSummary(indexPath),
		perAction:   make(map[string]int),
		inflightPer: make(map[string]int),
		maxInflight: q.Capacity(),
		claimed:     make(map[string]int),
		results:     pool.Results(),
	}

	x.logger.Info(ctx, "extracting clips",
		logger.String("manifest", manifestPath),
		logger.String("out_dir", outDir),
		logger.Int("workers", pool.Size()),
		logger.Int("already_indexed", index.Len()),
	)

	scanErr := s.scan(runCtx, rd, q, videoRoot, outDir)
	if scanErr != nil {
		cancel()
	}
	_ = q.Close()
	for r := range pool.Results() {
		if err := s.settle(ctx, r); err != nil && scanErr == nil {
			scanErr = err
			cancel()
		}
	}

	if err := index.Close(); err != nil && scanErr == nil {
		scanErr = err
	}
	s.summary.MissingTop = topMissing(s.summary.MissingByVideo, x.topMissing)

	x.logger.Info(ctx, "extraction finished",
		logger.Int("scanned", s.summary.RowsScanned),
		logger.Int("written", s.summary.Written),
		logger.Int("existing", s.summary.Existing),
		logger.Int("skipped", s.summary.Skipped),
	)
	if scanErr != nil {
		return s.summary, fmt.Errorf("extract %s: %w", manifestPath, scanErr)
	}
	return s.summary, nil
}

// cut is the worker handler. Overwritten clips are removed first because the
// cutter never replaces an existing file.
func (x *Extractor) cut(ctx context.Context, job queue.Job) error { //nolint:gocritic // hugeParam: Job is passed by value for channel semantics
	if err := ctx.Err(); err != nil {
		return err
	}
	if x.overwrite {
		if err := os.Remove(job.Dst); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove old clip: %w", err)
		}
	}
	return x.cutter.Cut(ctx, job.Src, job.Dst, job.Start, job.Dur)
}

func (s *session) scan(ctx context.Context, rd *csvio.Reader, q *queue.InMemoryQueue, videoRoot, outDir string) error {
	x := s.x
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		row, err := rd.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		action := strings.ToLower(strings.TrimSpace(row["action"]))

		if x.limit > 0 {
			for s.summary.Written+s.inflight >= x.limit && s.inflight > 0 {
				if err := s.awaitOne(ctx); err != nil {
					return err
				}
			}
			if s.summary.Written >= x.limit {
				s.summary.LimitReached = true
				return nil
			}
		}
		s.summary.RowsScanned++

		if x.perActionLimit > 0 {
			for s.perAction[action]+s.inflightPer[action] >= x.perActionLimit && s.inflightPer[action] > 0 {
				if err := s.awaitOne(ctx); err != nil {
					return err
				}
			}
			if s.perAction[action] >= x.perActionLimit {
				s.skip(ctx, rd.Line(), ReasonPerActionLimit, nil)
				continue
			}
		}

		videoFilename := strings.TrimSpace(row["video_filename"])
		src := filepath.Join(videoRoot, videoFilename)
		if _, err := os.Stat(src); err != nil {
			s.summary.MissingByVideo[videoFilename]++
			s.skip(ctx, rd.Line(), ReasonMissingSource, err)
			continue
		}

		t, err := strconv.ParseFloat(strings.TrimSpace(row["t_event_sec"]), 64)
		if err != nil || t < 0 || math.IsNaN(t) || math.IsInf(t, 0) {
			s.skip(ctx, rd.Line(), ReasonUnparsableTime, err)
			continue
		}

		start, dur := Window(t, x.pre, x.post)
		dst := filepath.Join(outDir, ClipName(videoFilename, action, row["outcome"], row["player"], t, row["event_id"]))
		rec := model.ClipRecord{
			ClipPath:      dst,
			VideoFilename: videoFilename,
			TEventSec:     model.FormatSeconds(t),
			Pre:           model.FormatSeconds(x.pre),
			Post:          model.FormatSeconds(x.post),
			Action:        action,
			Outcome:       row["outcome"],
			Player:        row["player"],
			EventID:       row["event_id"],
		}

		if owner, ok := s.claimed[dst]; ok {
			s.skip(ctx, rd.Line(), ReasonNameCollision, fmt.Errorf("%s already used by row %d", filepath.Base(dst), owner))
			continue
		}
		s.claimed[dst] = rd.Line()

		if !x.overwrite {
			if _, err := os.Stat(dst); err == nil {
				s.summary.Existing++
				metrics.RecordClipExisting()
				if err := s.accept(rec); err != nil {
					return err
				}
				continue
			}
		}

		for s.inflight >= s.maxInflight {
			if err := s.awaitOne(ctx); err != nil {
				return err
			}
		}
		job := queue.Job{Seq: rd.Line(), Src: src, Dst: dst, Start: start, Dur: dur, Record: rec}
		if err := q.Enqueue(ctx, job); err != nil {
			return err
		}
		s.inflight++
		s.inflightPer[action]++
	}
}

// awaitOne blocks for the next worker result and settles it.
func (s *session) awaitOne(ctx context.Context) error {
	r, ok := <-s.results
	if !ok {
		return errors.New("worker pool exited with jobs in flight")
	}
	return s.settle(ctx, r)
}

// settle accounts for a finished job. Only index write failures are returned.
func (s *session) settle(ctx context.Context, r worker.Result) error {
	rec := r.Job.Record
	s.inflight--
	s.inflightPer[rec.Action]--

	if r.Err == nil {
		s.x.logger.Debug(ctx, "clip cut",
			logger.String("clip", rec.ClipPath),
			logger.Duration("elapsed", r.Elapsed),
		)
		return s.accept(rec)
	}

	reason := ReasonCutFailed
	switch {
	case errors.Is(r.Err, ffmpeg.ErrTimeout):
		reason = ReasonTimeout
	case errors.Is(r.Err, context.Canceled), errors.Is(r.Err, context.DeadlineExceeded):
		reason = ReasonCancelled
	}
	s.skip(ctx, r.Job.Seq, reason, r.Err)
	return nil
}

// accept indexes a clip that is on disk and counts it against the caps.
func (s *session) accept(rec model.ClipRecord) error { //nolint:gocritic // hugeParam: records are passed by value
	added, err := s.index.Append(rec)
	if err != nil {
		return err
	}
	if !added {
		s.summary.AlreadyIndexed++
	}
	s.summary.Written++
	s.summary.ActionCounts[rec.Action]++
	s.perAction[rec.Action]++
	metrics.RecordClipWritten(rec.Action)
	return nil
}

func (s *session) skip(ctx context.Context, row int, reason string, err error) {
	s.summary.Skipped++
	s.summary.SkipReasons[reason]++
	metrics.RecordClipSkipped(reason)
	fields := []logger.Field{logger.Int("row", row), logger.String("reason", reason)}
	if err != nil {
		fields = append(fields, logger.Error(err))
	}
	if reason == ReasonPerActionLimit {
		s.x.logger.Debug(ctx, "skipping event", fields...)
		return
	}
	s.x.logger.Warn(ctx, "skipping event", fields...)
}
