package testexport_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/tagclips/internal/testexport"
	"github.com/okian/tagclips/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestGenerate(t *testing.T) {
	Convey("Given a generator config", t, func() {
		cfg := &testexport.Config{Events: 40, Videos: 3, DuplicateEvery: 5, BadTimeEvery: 7, Seed: 9}

		Convey("When rows are generated", func() {
			rows, exp := testexport.Generate(cfg)

			Convey("Then the expectation accounts for every row", func() {
				So(exp.Distinct, ShouldEqual, 40)
				So(exp.Duplicates, ShouldEqual, 8)
				So(exp.BadTimes, ShouldEqual, 5)
				So(exp.Rows, ShouldEqual, len(rows))
				So(len(rows), ShouldEqual, 53)
				So(exp.Videos, ShouldResemble, []string{"game1.mp4", "game2.mp4", "game3.mp4"})
				total := 0
				for _, n := range exp.Actions {
					total += n
				}
				So(total, ShouldEqual, 40)
			})

			Convey("Then the same seed gives the same rows", func() {
				again, _ := testexport.Generate(cfg)
				So(again, ShouldResemble, rows)
			})

			Convey("Then rows match the export header", func() {
				for _, r := range rows {
					So(r, ShouldHaveLength, len(testexport.ExportHeader))
				}
			})
		})
	})
}

func TestRun(t *testing.T) {
	_ = logger.InitWithWriter(io.Discard)

	Convey("Given a synthetic export with every kind of defect", t, func() {
		dir := t.TempDir()
		cfg := &testexport.Config{
			Dir: dir, Events: 120, Videos: 4, DuplicateEvery: 6, BadTimeEvery: 11,
			MissingVideos: 1, Seed: 42, BOM: true,
		}

		Convey("When the run completes", func() {
			stats, err := testexport.Run(context.Background(), cfg)

			Convey("Then the manifest matches the expectation", func() {
				So(err, ShouldBeNil)
				So(stats.Mismatches, ShouldEqual, 0)
				So(stats.RowsWritten, ShouldEqual, 120)
				So(stats.RowsSkipped, ShouldEqual, 20+10)
			})

			Convey("Then placeholder videos exist except the missing ones", func() {
				_, err := os.Stat(filepath.Join(dir, testexport.VideoDirName, "game1.mp4"))
				So(err, ShouldBeNil)
				_, err = os.Stat(filepath.Join(dir, testexport.VideoDirName, "game4.mp4"))
				So(errors.Is(err, os.ErrNotExist), ShouldBeTrue)
			})

			Convey("Then the export starts with a byte order mark", func() {
				data, err := os.ReadFile(filepath.Join(dir, testexport.ExportFileName))
				So(err, ShouldBeNil)
				So(string(data[:3]), ShouldEqual, "\ufeff")
			})
		})
	})
}
