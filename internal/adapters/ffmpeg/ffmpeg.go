// Package ffmpeg cuts clip windows out of source videos with the ffmpeg
// command-line tool.
package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/okian/tagclips/pkg/logger"
	"github.com/okian/tagclips/pkg/metrics"
)

// Defaults for the encoder settings.
const (
	DefaultBinary  = "ffmpeg"
	DefaultCodec   = "libx264"
	DefaultPreset  = "veryfast"
	DefaultCRF     = 23
	DefaultTimeout = 2 * time.Minute

	// stderrTail bounds how much tool output is kept for error messages.
	stderrTail = 512
	// waitDelay bounds how long output pipes are drained after a kill.
	waitDelay = 2 * time.Second
)

// Cutter materializes [start, start+dur) of src into dst.
type Cutter interface {
	Cut(ctx context.Context, src, dst string, start, dur float64) error
}

// Executor runs one ffmpeg process per cut.
type Executor struct {
	binary  string
	codec   string
	preset  string
	crf     int
	timeout time.Duration
	logger  logger.Logger
}

// New creates an Executor with the default encoder settings, then applies opts.
func New(opts ...Option) *Executor {
	e := &Executor{
		binary:  DefaultBinary,
		codec:   DefaultCodec,
		preset:  DefaultPreset,
		crf:     DefaultCRF,
		timeout: DefaultTimeout,
		logger:  logger.Named("ffmpeg"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Args returns the argument list for one cut, without the binary:
//
//	-hide_banner -loglevel error -ss START -i SRC -t DUR -c:v CODEC -preset PRESET -crf CRF -an DST
func (e *Executor) Args(src, dst string, start, dur float64) []string {
	return []string{
		"-hide_banner", "-loglevel", "error",
		"-ss", strconv.FormatFloat(start, 'f', 3, 64),
		"-i", src,
		"-t", strconv.FormatFloat(dur, 'f', 3, 64),
		"-c:v", e.codec,
		"-preset", e.preset,
		"-crf", strconv.Itoa(e.crf),
		"-an",
		dst,
	}
}

// Cut runs ffmpeg and waits for it, bounded by the configured timeout. A
// non-zero exit yields ErrCutFailed and an expired timeout ErrTimeout. On
// any failure dst is removed so no partial clip survives.
func (e *Executor) Cut(ctx context.Context, src, dst string, start, dur float64) error {
	runCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	args := e.Args(src, dst, start, dur)
	e.logger.Debug(ctx, "executing ffmpeg",
		logger.String("binary", e.binary),
		logger.String("args", strings.Join(args, " ")),
	)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, e.binary, args...) //nolint:gosec // binary is operator configuration
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	began := time.Now()
	err := cmd.Run()
	metrics.RecordCutLatency(time.Since(began).Seconds())
	if err == nil {
		return nil
	}

	if rmErr := os.Remove(dst); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
		e.logger.Warn(ctx, "failed to remove partial clip", logger.String("dst", dst), logger.Error(rmErr))
	}

	switch {
	case ctx.Err() != nil:
		return fmt.Errorf("cut %s: %w", dst, ctx.Err())
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("cut %s after %s: %w", dst, e.timeout, ErrTimeout)
	default:
		return fmt.Errorf("cut %s: %w: %v%s", dst, ErrCutFailed, err, tail(stderr.String()))
	}
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if len(s) > stderrTail {
		s = s[len(s)-stderrTail:]
	}
	return ": " + s
}
