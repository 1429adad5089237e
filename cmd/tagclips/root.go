package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	service "github.com/okian/tagclips/internal/app"
	"github.com/okian/tagclips/internal/clips"
	"github.com/okian/tagclips/internal/config"
	"github.com/okian/tagclips/internal/manifest"
	"github.com/okian/tagclips/pkg/logger"
	"github.com/okian/tagclips/pkg/metrics"
)

// Exit codes.
const (
	exitOK             = 0
	exitFatal          = 1
	exitMissingHeaders = 2
)

// cli carries state shared by the subcommands of one invocation.
type cli struct {
	stdout      io.Writer
	cfgPath     string
	logLevel    string
	metricsFile string
	cfg         *config.Config
	svcOpts     []service.Option
}

// execute runs the command line in args and returns the process exit code.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer, svcOpts ...service.Option) int {
	c := &cli{stdout: stdout, svcOpts: svcOpts}
	root := c.rootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if c.cfg != nil {
		if merr := metrics.WriteTextfile(c.cfg.MetricsFile); merr != nil {
			fmt.Fprintln(stderr, "Error:", merr)
			if err == nil {
				return exitFatal
			}
		}
	}
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
	}
	return exitCode(err)
}

// exitCode maps a command error to the process exit code.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, manifest.ErrMissingHeaders), errors.Is(err, clips.ErrMissingHeaders):
		return exitMissingHeaders
	default:
		return exitFatal
	}
}

func (c *cli) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "tagclips",
		Short:         "Build clip datasets from sports tagging exports",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.loadConfig(cmd)
		},
	}

	root.PersistentFlags().StringVar(&c.cfgPath, "config", "", "YAML config file (default $"+config.EnvConfigPath+")")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&c.metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile at exit")

	root.AddCommand(
		c.manifestCommand(),
		c.extractCommand(),
		c.splitsCommand(),
		c.runCommand(),
	)
	return root
}

// loadConfig layers explicitly set flags over the file and environment.
func (c *cli) loadConfig(cmd *cobra.Command) error {
	cfg, err := config.Load(cmd.Context(), c.cfgPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = c.logLevel
	}
	if flags.Changed("metrics-file") {
		cfg.MetricsFile = c.metricsFile
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}
	c.cfg = cfg
	return nil
}

// set copies val into dst when the named flag was given on the command line.
func set[T any](cmd *cobra.Command, name string, dst *T, val T) {
	if cmd.Flags().Changed(name) {
		*dst = val
	}
}

func (c *cli) service() *service.Service {
	return service.New(c.cfg, c.svcOpts...)
}

func (c *cli) manifestCommand() *cobra.Command {
	var in, out string
	var appendMode bool
	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Normalize a raw tagging export into the canonical manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sum, err := c.service().Manifest(cmd.Context(), in, out, appendMode)
			if sum != nil {
				sum.Fprint(c.stdout)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "raw export CSV")
	cmd.Flags().StringVar(&out, "out", "", "manifest CSV to write")
	cmd.Flags().BoolVar(&appendMode, "append", false, "keep the existing manifest and add only new events")
	_ = cmd.MarkFlagRequired("in")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

// extractFlags are the flags shared by extract and run.
type extractFlags struct {
	pre, post      float64
	limit          int
	perActionLimit int
	overwrite      bool
	workers        int
	timeout        time.Duration
}

func (f *extractFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.pre, "pre", 1.0, "seconds kept before each event")
	cmd.Flags().Float64Var(&f.post, "post", 2.0, "seconds kept after each event")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "stop after this many clips (0 = no limit)")
	cmd.Flags().IntVar(&f.perActionLimit, "per-action-limit", 0, "clips per action (0 = no limit)")
	cmd.Flags().BoolVar(&f.overwrite, "overwrite", false, "re-cut clips that already exist")
	cmd.Flags().IntVar(&f.workers, "workers", 1, "concurrent ffmpeg processes")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 2*time.Minute, "per-clip ffmpeg timeout")
}

func (f *extractFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	set(cmd, "pre", &cfg.Window.Pre, f.pre)
	set(cmd, "post", &cfg.Window.Post, f.post)
	set(cmd, "workers", &cfg.Workers, f.workers)
	set(cmd, "timeout", &cfg.FFmpeg.Timeout, f.timeout)
}

// splitFlags are the flags shared by splits and run.
type splitFlags struct {
	seed         int64
	perActionCap int
	valFrac      float64
	testFrac     float64
}

func (f *splitFlags) register(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&f.seed, "seed", 42, "shuffle seed")
	cmd.Flags().IntVar(&f.perActionCap, "per-action-cap", 0, "clips kept per action (0 = no cap)")
	cmd.Flags().Float64Var(&f.valFrac, "val-frac", 0.15, "share of each action assigned to val")
	cmd.Flags().Float64Var(&f.testFrac, "test-frac", 0.15, "share of each action assigned to test")
}

func (f *splitFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	set(cmd, "seed", &cfg.Split.Seed, f.seed)
	set(cmd, "per-action-cap", &cfg.Split.PerActionCap, f.perActionCap)
	set(cmd, "val-frac", &cfg.Split.ValFrac, f.valFrac)
	set(cmd, "test-frac", &cfg.Split.TestFrac, f.testFrac)
}

func (c *cli) extractCommand() *cobra.Command {
	var manifestPath, videoRoot, outDir string
	var ef extractFlags
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Cut one clip per manifest event and append it to the clip index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ef.apply(cmd, c.cfg)
			if err := c.cfg.Validate(); err != nil {
				return err
			}
			sum, err := c.service().Extract(cmd.Context(), service.ExtractParams{
				ManifestPath:   manifestPath,
				VideoRoot:      videoRoot,
				OutDir:         outDir,
				Limit:          ef.limit,
				PerActionLimit: ef.perActionLimit,
				Overwrite:      ef.overwrite,
			})
			if sum != nil {
				sum.Fprint(c.stdout)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&manifestPath, "manifest", "", "manifest CSV")
	cmd.Flags().StringVar(&videoRoot, "video-root", "", "directory holding the source videos")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "directory for clips and "+clips.IndexFileName)
	ef.register(cmd)
	for _, name := range []string{"manifest", "video-root", "out-dir"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func (c *cli) splitsCommand() *cobra.Command {
	var indexPath, outDir string
	var sf splitFlags
	cmd := &cobra.Command{
		Use:   "splits",
		Short: "Write stratified train, val and test CSVs from the clip index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sf.apply(cmd, c.cfg)
			sum, err := c.service().Splits(cmd.Context(), indexPath, outDir)
			if sum != nil {
				sum.Fprint(c.stdout)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&indexPath, "index", "", "clip index CSV")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "directory for the split CSVs")
	sf.register(cmd)
	_ = cmd.MarkFlagRequired("index")
	_ = cmd.MarkFlagRequired("out-dir")
	return cmd
}

func (c *cli) runCommand() *cobra.Command {
	var p service.PipelineParams
	var ef extractFlags
	var sf splitFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run manifest, extract and splits in sequence",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ef.apply(cmd, c.cfg)
			sf.apply(cmd, c.cfg)
			if err := c.cfg.Validate(); err != nil {
				return err
			}
			p.Limit, p.PerActionLimit, p.Overwrite = ef.limit, ef.perActionLimit, ef.overwrite
			if p.SplitsDir == "" {
				p.SplitsDir = filepath.Join(p.ClipsDir, "splits")
			}

			rep, err := c.service().Run(cmd.Context(), p)
			if rep != nil {
				c.printReport(rep)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&p.RawPath, "in", "", "raw export CSV")
	cmd.Flags().StringVar(&p.ManifestPath, "manifest", "", "manifest CSV to write")
	cmd.Flags().BoolVar(&p.Append, "append", false, "keep the existing manifest and add only new events")
	cmd.Flags().StringVar(&p.VideoRoot, "video-root", "", "directory holding the source videos")
	cmd.Flags().StringVar(&p.ClipsDir, "out-dir", "", "directory for clips and "+clips.IndexFileName)
	cmd.Flags().StringVar(&p.SplitsDir, "splits-dir", "", "directory for the split CSVs (default OUT-DIR/splits)")
	ef.register(cmd)
	sf.register(cmd)
	for _, name := range []string{"in", "manifest", "video-root", "out-dir"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func (c *cli) printReport(rep *service.Report) {
	if rep.Manifest != nil {
		fmt.Fprintln(c.stdout, "== manifest")
		rep.Manifest.Fprint(c.stdout)
	}
	if rep.Clips != nil {
		fmt.Fprintln(c.stdout, "== extract")
		rep.Clips.Fprint(c.stdout)
	}
	if rep.Splits != nil {
		fmt.Fprintln(c.stdout, "== splits")
		rep.Splits.Fprint(c.stdout)
	}
}
