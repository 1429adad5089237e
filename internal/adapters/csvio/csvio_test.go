package csvio_test

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/tagclips/internal/adapters/csvio"
	"github.com/okian/tagclips/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestReader(t *testing.T) {
	Convey("Given an export with a UTF-8 BOM and ragged rows", t, func() {
		in := "\ufeffTime,Event Type,Player\n0:05,Serve,Ana\n0:07,Spike\n\n0:09,Set,Bo,extra\n"
		rd, err := csvio.NewReader(strings.NewReader(in))
		So(err, ShouldBeNil)

		Convey("Then the BOM is stripped from the header", func() {
			So(rd.Header(), ShouldResemble, []string{"Time", "Event Type", "Player"})
		})

		Convey("Then rows are keyed by header and padded", func() {
			row, err := rd.Next()
			So(err, ShouldBeNil)
			So(row["Event Type"], ShouldEqual, "Serve")
			So(rd.Line(), ShouldEqual, 2)

			row, err = rd.Next()
			So(err, ShouldBeNil)
			So(row["Player"], ShouldEqual, "")

			row, err = rd.Next()
			So(err, ShouldBeNil)
			So(row["Player"], ShouldEqual, "Bo")
			So(rd.Line(), ShouldEqual, 5)

			_, err = rd.Next()
			So(errors.Is(err, io.EOF), ShouldBeTrue)
		})
	})

	Convey("Given an empty input", t, func() {
		rd, err := csvio.NewReader(strings.NewReader(""))

		Convey("Then there is no header and no rows", func() {
			So(err, ShouldBeNil)
			So(rd.Header(), ShouldBeEmpty)
			_, err = rd.Next()
			So(errors.Is(err, io.EOF), ShouldBeTrue)
		})
	})

	Convey("Given a missing file", t, func() {
		_, err := csvio.Open(filepath.Join(t.TempDir(), "nope.csv"))

		Convey("Then the not-exist error is preserved", func() {
			So(errors.Is(err, os.ErrNotExist), ShouldBeTrue)
		})
	})
}

func TestMissingHeaders(t *testing.T) {
	Convey("Given a header and a required set", t, func() {
		missing := csvio.MissingHeaders([]string{"event_id", "action"}, []string{"event_id", "player", "action", "outcome"})

		Convey("Then absent names are listed in required order", func() {
			So(missing, ShouldResemble, []string{"player", "outcome"})
		})
	})
}

func TestAtomicWriter(t *testing.T) {
	Convey("Given an atomic writer", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "out", "manifest.csv")
		aw, err := csvio.CreateAtomic(path, csvio.ManifestHeader)
		So(err, ShouldBeNil)
		So(aw.Write(csvio.ManifestRow(model.CanonicalEvent{
			EventID: "1", VideoID: "game1", VideoFilename: "game1.mp4",
			TEventSec: 65.25, Action: "spike", Player: "Ana", Outcome: 1,
		})), ShouldBeNil)

		Convey("When it is not yet committed", func() {
			Convey("Then the destination does not exist", func() {
				_, statErr := os.Stat(path)
				So(errors.Is(statErr, os.ErrNotExist), ShouldBeTrue)
			})
		})

		Convey("When it is committed", func() {
			So(aw.Commit(), ShouldBeNil)

			Convey("Then the file holds the header and row", func() {
				data, err := os.ReadFile(path)
				So(err, ShouldBeNil)
				So(string(data), ShouldEqual,
					"event_id,video_id,video_filename,t_event_sec,action,player,outcome\n"+
						"1,game1,game1.mp4,65.250,spike,Ana,1\n")
			})

			Convey("Then no temp file is left behind", func() {
				entries, err := os.ReadDir(filepath.Dir(path))
				So(err, ShouldBeNil)
				So(len(entries), ShouldEqual, 1)
			})
		})

		Convey("When it is aborted", func() {
			aw.Abort()

			Convey("Then nothing is left behind", func() {
				entries, err := os.ReadDir(filepath.Dir(path))
				So(err, ShouldBeNil)
				So(entries, ShouldBeEmpty)
			})
		})
	})
}

func TestIndexWriter(t *testing.T) {
	Convey("Given a fresh index path", t, func() {
		path := filepath.Join(t.TempDir(), "clips_index.csv")
		rec := model.ClipRecord{
			ClipPath: "clips/a.mp4", VideoFilename: "game1.mp4", TEventSec: "0.500",
			Pre: "1.000", Post: "2.000", Action: "serve", Outcome: "1", Player: "Ana", EventID: "7",
		}

		iw, err := csvio.OpenIndex(path)
		So(err, ShouldBeNil)
		ok, err := iw.Append(rec)
		So(err, ShouldBeNil)
		So(ok, ShouldBeTrue)

		Convey("Then each row is on disk before Close", func() {
			data, err := os.ReadFile(path)
			So(err, ShouldBeNil)
			So(string(data), ShouldEqual,
				"clip_path,video_filename,t_event_sec,pre,post,action,outcome,player,event_id\n"+
					"clips/a.mp4,game1.mp4,0.500,1.000,2.000,serve,1,Ana,7\n")
			So(iw.Close(), ShouldBeNil)
		})

		Convey("When the index is reopened", func() {
			So(iw.Close(), ShouldBeNil)
			iw2, err := csvio.OpenIndex(path)
			So(err, ShouldBeNil)

			dup, err := iw2.Append(rec)
			So(err, ShouldBeNil)
			rec2 := rec
			rec2.ClipPath = "clips/b.mp4"
			added, err := iw2.Append(rec2)
			So(err, ShouldBeNil)
			So(iw2.Close(), ShouldBeNil)

			Convey("Then the header is not repeated and known clips are not re-added", func() {
				So(dup, ShouldBeFalse)
				So(added, ShouldBeTrue)

				recs, err := csvio.ReadIndex(path)
				So(err, ShouldBeNil)
				So(len(recs), ShouldEqual, 2)
				So(recs[0], ShouldResemble, rec)
				So(recs[1].ClipPath, ShouldEqual, "clips/b.mp4")
			})
		})
	})

	Convey("Given an existing empty index file", t, func() {
		path := filepath.Join(t.TempDir(), "clips_index.csv")
		So(os.WriteFile(path, nil, 0o600), ShouldBeNil)

		iw, err := csvio.OpenIndex(path)
		So(err, ShouldBeNil)
		So(iw.Close(), ShouldBeNil)

		Convey("Then the header is written", func() {
			data, err := os.ReadFile(path)
			So(err, ShouldBeNil)
			So(strings.HasPrefix(string(data), "clip_path,"), ShouldBeTrue)
		})
	})
}

func TestWriteSplit(t *testing.T) {
	Convey("Given an empty split", t, func() {
		path := filepath.Join(t.TempDir(), "val.csv")
		So(csvio.WriteSplit(path, nil), ShouldBeNil)

		Convey("Then only the header is written", func() {
			data, err := os.ReadFile(path)
			So(err, ShouldBeNil)
			So(string(data), ShouldEqual, "clip_path,action,outcome,player,video_filename,t_event_sec\n")
		})
	})
}
