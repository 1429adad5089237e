package service_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	service "github.com/okian/tagclips/internal/app"
	"github.com/okian/tagclips/internal/clips"
	"github.com/okian/tagclips/internal/config"
	"github.com/okian/tagclips/internal/manifest"
	"github.com/okian/tagclips/internal/splits"
	"github.com/okian/tagclips/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.InitWithWriter(io.Discard); err != nil {
		panic(err)
	}
}

// touchCutter records cuts and writes an empty clip.
type touchCutter struct {
	mu   sync.Mutex
	dsts []string
}

func (c *touchCutter) Cut(_ context.Context, _, dst string, _, _ float64) error {
	c.mu.Lock()
	c.dsts = append(c.dsts, dst)
	c.mu.Unlock()
	return os.WriteFile(dst, nil, 0o600)
}

const rawExport = "Event ID,Time,Event Type,Player,Outcome,Video ID\n" +
	",0:10,Serve,Ana,Successful,video_game1_1712345678\n" +
	",0:10,serve,Ana,success,video_game1_1712345678\n" +
	",0:20,Hit,Bo,no,video_game1_1712345678\n" +
	",0:30,Attack,Cy,yes,video_game1_1712345678\n" +
	",0:40,Receive,Di,1,video_game2\n" +
	",xx,Serve,Ed,1,video_game1_1712345678\n"

func TestServiceNew(t *testing.T) {
	Convey("Given a service with default configuration", t, func() {
		svc := service.New(nil)

		Convey("Then it has a run id", func() {
			So(svc.RunID(), ShouldNotBeEmpty)
			So(service.New(nil).RunID(), ShouldNotEqual, svc.RunID())
		})

		Convey("Then a fixed run id is kept", func() {
			So(service.New(nil, service.WithRunID("r1")).RunID(), ShouldEqual, "r1")
		})
	})

	Convey("Given a configured vocabulary", t, func() {
		cfg := config.New()
		cfg.Vocabulary.ActionSynonyms = map[string]string{"smash": "spike"}
		cfg.Vocabulary.SuccessTokens = []string{"kill"}
		cfg.Vocabulary.FailureTokens = []string{"error"}
		v := service.New(cfg).Vocabulary()

		Convey("Then the configured tables replace the defaults", func() {
			So(v.Action("Smash"), ShouldEqual, "spike")
			So(v.Action("hit"), ShouldEqual, "hit")
			out, ok := v.Outcome("kill")
			So(out, ShouldEqual, 1)
			So(ok, ShouldBeTrue)
			_, ok = v.Outcome("success")
			So(ok, ShouldBeFalse)
		})
	})
}

func TestServiceRun(t *testing.T) {
	Convey("Given a raw export and one of its two videos", t, func() {
		dir := t.TempDir()
		raw := filepath.Join(dir, "raw.csv")
		So(os.WriteFile(raw, []byte(rawExport), 0o600), ShouldBeNil)
		videos := filepath.Join(dir, "videos")
		So(os.MkdirAll(videos, 0o755), ShouldBeNil)
		So(os.WriteFile(filepath.Join(videos, "game1.mp4"), nil, 0o600), ShouldBeNil)

		params := service.PipelineParams{
			RawPath:      raw,
			ManifestPath: filepath.Join(dir, "manifest.csv"),
			VideoRoot:    videos,
			ClipsDir:     filepath.Join(dir, "clips"),
			SplitsDir:    filepath.Join(dir, "splits"),
		}
		cutter := &touchCutter{}
		cfg := config.New()
		cfg.Workers = 2
		cfg.Split.ValFrac = 0
		cfg.Split.TestFrac = 0
		svc := service.New(cfg, service.WithCutter(cutter), service.WithRunID("test-run"))

		Convey("When the full pipeline runs", func() {
			rep, err := svc.Run(context.Background(), params)

			Convey("Then every stage reports", func() {
				So(err, ShouldBeNil)
				So(rep.RunID, ShouldEqual, "test-run")
				So(rep.Manifest.RowsWritten, ShouldEqual, 4)
				So(rep.Manifest.SkipReasons[manifest.ReasonDuplicate], ShouldEqual, 1)
				So(rep.Manifest.SkipReasons[manifest.ReasonUnparsableTime], ShouldEqual, 1)
				So(rep.Clips.Written, ShouldEqual, 3)
				So(rep.Clips.MissingTop, ShouldResemble, []clips.VideoCount{{Video: "game2.mp4", Count: 1}})
				So(rep.Splits.Classes, ShouldResemble, []splits.ClassCount{
					{Action: "serve", Total: 1, Train: 1},
					{Action: "spike", Total: 2, Train: 2},
				})
			})

			Convey("Then the cutter saw one job per present event", func() {
				So(cutter.dsts, ShouldHaveLength, 3)
			})

			Convey("Then the train split lists every clip", func() {
				data, err := os.ReadFile(filepath.Join(params.SplitsDir, "train.csv"))
				So(err, ShouldBeNil)
				So(strings.Count(string(data), "\n"), ShouldEqual, 4)
			})

			Convey("And it runs again in append mode", func() {
				params.Append = true
				rep2, err := svc.Run(context.Background(), params)

				Convey("Then nothing new is written or cut", func() {
					So(err, ShouldBeNil)
					So(rep2.Manifest.RowsWritten, ShouldEqual, 0)
					So(rep2.Manifest.RowsKept, ShouldEqual, 4)
					So(rep2.Clips.Existing, ShouldEqual, 3)
					So(rep2.Clips.AlreadyIndexed, ShouldEqual, 3)
					So(cutter.dsts, ShouldHaveLength, 3)
				})
			})
		})

		Convey("When the raw export lacks a time column", func() {
			So(os.WriteFile(raw, []byte("Event Type,Player\nServe,Ana\n"), 0o600), ShouldBeNil)
			rep, err := svc.Run(context.Background(), params)

			Convey("Then the run stops at the manifest stage", func() {
				So(errors.Is(err, manifest.ErrMissingHeaders), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, service.StageManifest)
				So(rep.Clips, ShouldBeNil)
				_, statErr := os.Stat(params.ClipsDir)
				So(errors.Is(statErr, os.ErrNotExist), ShouldBeTrue)
			})
		})

		Convey("When the split fractions are invalid", func() {
			cfg.Split.ValFrac = 0.8
			cfg.Split.TestFrac = 0.8
			_, err := svc.Run(context.Background(), params)

			Convey("Then the splits stage fails", func() {
				So(errors.Is(err, splits.ErrInvalidFractions), ShouldBeTrue)
			})
		})
	})
}
