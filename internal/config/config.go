// Package config defines pipeline configuration structures and loading hooks.
//
// Conventions:
//   - Defaults live in New; Load layers a YAML file and TAGCLIPS_ env vars on top.
//   - CLI flags are applied by the caller after Load, only when explicitly set.
//   - Validation errors wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Workers sets the number of concurrent clip extraction workers.
	Workers int `koanf:"workers"`

	// QueueSize bounds the extraction job queue.
	QueueSize int `koanf:"queue_size"`

	// MetricsFile, when set, receives a Prometheus textfile at the end of a run.
	MetricsFile string `koanf:"metrics_file"`

	Window     WindowConfig     `koanf:"window"`
	FFmpeg     FFmpegConfig     `koanf:"ffmpeg"`
	Split      SplitConfig      `koanf:"split"`
	Vocabulary VocabularyConfig `koanf:"vocabulary"`
}

// WindowConfig holds the clip window offsets in seconds.
type WindowConfig struct {
	Pre  float64 `koanf:"pre"`
	Post float64 `koanf:"post"`
}

// FFmpegConfig configures the external cutter.
type FFmpegConfig struct {
	Binary  string        `koanf:"binary"`
	Codec   string        `koanf:"codec"`
	Preset  string        `koanf:"preset"`
	CRF     int           `koanf:"crf"`
	Timeout time.Duration `koanf:"timeout"`
}

// SplitConfig configures the stratified split.
type SplitConfig struct {
	Seed         int64   `koanf:"seed"`
	ValFrac      float64 `koanf:"val_frac"`
	TestFrac     float64 `koanf:"test_frac"`
	PerActionCap int     `koanf:"per_action_cap"`
}

// VocabularyConfig holds the label tables used by canonicalization.
type VocabularyConfig struct {
	ActionSynonyms map[string]string `koanf:"action_synonyms"`
	SuccessTokens  []string          `koanf:"success_tokens"`
	FailureTokens  []string          `koanf:"failure_tokens"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:  "info",
		Workers:   1,
		QueueSize: 64,
		Window: WindowConfig{
			Pre:  1.0,
			Post: 2.0,
		},
		FFmpeg: FFmpegConfig{
			Binary:  "ffmpeg",
			Codec:   "libx264",
			Preset:  "veryfast",
			CRF:     23,
			Timeout: 2 * time.Minute,
		},
		Split: SplitConfig{
			Seed:     42,
			ValFrac:  0.15,
			TestFrac: 0.15,
		},
		Vocabulary: VocabularyConfig{
			ActionSynonyms: map[string]string{
				"hit":     "spike",
				"attack":  "spike",
				"assist":  "set",
				"receive": "pass",
			},
			SuccessTokens: []string{"successful", "success", "true", "1", "yes", "made", "win", "won"},
			FailureTokens: []string{"failure", "fail", "false", "0", "no", "miss", "lost"},
		},
	}
}

// Validate checks value ranges that would otherwise surface as confusing
// runtime behavior.
func (c *Config) Validate() error {
	switch {
	case c.Workers < 1:
		return fmt.Errorf("%w: workers must be >= 1, got %d", ErrInvalidConfig, c.Workers)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be >= 1, got %d", ErrInvalidConfig, c.QueueSize)
	case c.FFmpeg.Binary == "":
		return fmt.Errorf("%w: ffmpeg.binary must not be empty", ErrInvalidConfig)
	case c.FFmpeg.CRF < 0 || c.FFmpeg.CRF > 51:
		return fmt.Errorf("%w: ffmpeg.crf must be within 0..51, got %d", ErrInvalidConfig, c.FFmpeg.CRF)
	case c.FFmpeg.Timeout < 0:
		return fmt.Errorf("%w: ffmpeg.timeout must not be negative", ErrInvalidConfig)
	case c.Split.ValFrac < 0 || c.Split.TestFrac < 0 || c.Split.ValFrac+c.Split.TestFrac > 1:
		return fmt.Errorf("%w: split fractions must be >= 0 and sum to <= 1 (val=%g test=%g)",
			ErrInvalidConfig, c.Split.ValFrac, c.Split.TestFrac)
	case c.Split.PerActionCap < 0:
		return fmt.Errorf("%w: split.per_action_cap must be >= 0", ErrInvalidConfig)
	}
	return nil
}
