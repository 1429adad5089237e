// Package service wires configuration into the three pipeline stages and
// runs them individually or end to end.
package service

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/okian/tagclips/internal/adapters/ffmpeg"
	"github.com/okian/tagclips/internal/clips"
	"github.com/okian/tagclips/internal/config"
	"github.com/okian/tagclips/internal/domain/canon"
	"github.com/okian/tagclips/internal/manifest"
	"github.com/okian/tagclips/internal/splits"
	"github.com/okian/tagclips/pkg/logger"
	"github.com/okian/tagclips/pkg/metrics"
)

// Stage names used in logs and the runs metric.
const (
	StageManifest = "manifest"
	StageExtract  = "extract"
	StageSplits   = "splits"
)

// ExtractParams are the per-invocation inputs of the extraction stage.
type ExtractParams struct {
	ManifestPath   string
	VideoRoot      string
	OutDir         string
	Limit          int
	PerActionLimit int
	Overwrite      bool
}

// PipelineParams are the inputs of a full run.
type PipelineParams struct {
	RawPath        string
	ManifestPath   string
	Append         bool
	VideoRoot      string
	ClipsDir       string
	SplitsDir      string
	Limit          int
	PerActionLimit int
	Overwrite      bool
}

// Report collects the summaries of a full run. Stages that did not run are nil.
type Report struct {
	RunID    string
	Manifest *manifest.Summary
	Clips    *clips.Summary
	Splits   *splits.Summary
}

// Service runs pipeline stages with one configuration and one run id.
type Service struct {
	cfg    *config.Config
	cutter ffmpeg.Cutter
	runID  string
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithCutter replaces the ffmpeg executor built from the configuration.
func WithCutter(c ffmpeg.Cutter) Option {
	return func(s *Service) {
		if c != nil {
			s.cutter = c
		}
	}
}

// WithRunID sets the run id instead of generating one.
func WithRunID(id string) Option {
	return func(s *Service) {
		if id != "" {
			s.runID = id
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service. A nil cfg means defaults.
func New(cfg *config.Config, opts ...Option) *Service {
	if cfg == nil {
		cfg = config.New()
	}
	s := &Service{
		cfg:    cfg,
		runID:  uuid.NewString(),
		logger: logger.Named("pipeline"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logger.String("run_id", s.runID))
	if s.cutter == nil {
		s.cutter = ffmpeg.New(
			ffmpeg.WithBinary(cfg.FFmpeg.Binary),
			ffmpeg.WithEncoder(cfg.FFmpeg.Codec, cfg.FFmpeg.Preset, cfg.FFmpeg.CRF),
			ffmpeg.WithTimeout(cfg.FFmpeg.Timeout),
			ffmpeg.WithLogger(s.logger.Named("ffmpeg")),
		)
	}
	return s
}

// RunID returns the id attached to every log line and run metric.
func (s *Service) RunID() string { return s.runID }

// Vocabulary builds the canonicalization tables from the configuration.
func (s *Service) Vocabulary() *canon.Vocabulary {
	var opts []canon.Option
	if len(s.cfg.Vocabulary.ActionSynonyms) > 0 {
		opts = append(opts, canon.WithSynonyms(s.cfg.Vocabulary.ActionSynonyms))
	}
	if len(s.cfg.Vocabulary.SuccessTokens) > 0 || len(s.cfg.Vocabulary.FailureTokens) > 0 {
		opts = append(opts, canon.WithOutcomeTokens(s.cfg.Vocabulary.SuccessTokens, s.cfg.Vocabulary.FailureTokens))
	}
	return canon.NewVocabulary(opts...)
}

// Manifest normalizes the raw export at inPath into outPath.
func (s *Service) Manifest(ctx context.Context, inPath, outPath string, appendMode bool) (*manifest.Summary, error) {
	s.begin(ctx, StageManifest)
	n := manifest.New(
		manifest.WithVocabulary(s.Vocabulary()),
		manifest.WithAppend(appendMode),
		manifest.WithLogger(s.logger.Named(StageManifest)),
	)
	return n.Run(ctx, inPath, outPath)
}

// Extract cuts clips for the manifest in p.
func (s *Service) Extract(ctx context.Context, p ExtractParams) (*clips.Summary, error) {
	s.begin(ctx, StageExtract)
	x := clips.New(s.cutter,
		clips.WithWindow(s.cfg.Window.Pre, s.cfg.Window.Post),
		clips.WithLimits(p.Limit, p.PerActionLimit),
		clips.WithOverwrite(p.Overwrite),
		clips.WithWorkers(s.cfg.Workers, s.cfg.QueueSize),
		clips.WithLogger(s.logger.Named(StageExtract)),
	)
	return x.Run(ctx, p.ManifestPath, p.VideoRoot, p.OutDir)
}

// Splits partitions the clip index at indexPath into outDir.
func (s *Service) Splits(ctx context.Context, indexPath, outDir string) (*splits.Summary, error) {
	s.begin(ctx, StageSplits)
	b := splits.New(
		splits.WithSeed(s.cfg.Split.Seed),
		splits.WithFractions(s.cfg.Split.ValFrac, s.cfg.Split.TestFrac),
		splits.WithPerActionCap(s.cfg.Split.PerActionCap),
		splits.WithLogger(s.logger.Named(StageSplits)),
	)
	return b.Run(ctx, indexPath, outDir)
}

// Run executes all three stages in order. It stops at the first stage that
// fails and returns the summaries gathered so far.
func (s *Service) Run(ctx context.Context, p PipelineParams) (*Report, error) {
	rep := &Report{RunID: s.runID}

	ms, err := s.Manifest(ctx, p.RawPath, p.ManifestPath, p.Append)
	rep.Manifest = ms
	if err != nil {
		return rep, fmt.Errorf("%s stage: %w", StageManifest, err)
	}

	cs, err := s.Extract(ctx, ExtractParams{
		ManifestPath:   p.ManifestPath,
		VideoRoot:      p.VideoRoot,
		OutDir:         p.ClipsDir,
		Limit:          p.Limit,
		PerActionLimit: p.PerActionLimit,
		Overwrite:      p.Overwrite,
	})
	rep.Clips = cs
	if err != nil {
		return rep, fmt.Errorf("%s stage: %w", StageExtract, err)
	}

	ss, err := s.Splits(ctx, filepath.Join(p.ClipsDir, clips.IndexFileName), p.SplitsDir)
	rep.Splits = ss
	if err != nil {
		return rep, fmt.Errorf("%s stage: %w", StageSplits, err)
	}

	s.logger.Info(ctx, "pipeline finished")
	return rep, nil
}

func (s *Service) begin(ctx context.Context, stage string) {
	metrics.RecordRun(stage, s.runID)
	s.logger.Info(ctx, "starting stage", logger.String("stage", stage))
}
