package splits_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/tagclips/internal/adapters/csvio"
	"github.com/okian/tagclips/internal/domain/model"
	"github.com/okian/tagclips/internal/splits"
	"github.com/okian/tagclips/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func makeRecords(action string, n int) []model.ClipRecord {
	recs := make([]model.ClipRecord, 0, n)
	for i := 0; i < n; i++ {
		recs = append(recs, model.ClipRecord{
			ClipPath:      fmt.Sprintf("clips/%s_%02d.mp4", action, i),
			VideoFilename: "game1.mp4",
			TEventSec:     model.FormatSeconds(float64(i)),
			Pre:           "1.000",
			Post:          "2.000",
			Action:        action,
			Outcome:       "1",
			Player:        "P",
			EventID:       fmt.Sprint(i),
		})
	}
	return recs
}

func paths(recs []model.ClipRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ClipPath
	}
	return out
}

func TestSizes(t *testing.T) {
	Convey("Given class sizes and fractions", t, func() {
		cases := []struct {
			n, wantTest, wantVal int
			val, test            float64
		}{
			{10, 2, 2, 0.15, 0.15},
			{0, 0, 0, 0.15, 0.15},
			{1, 0, 0, 0.15, 0.15},
			{3, 0, 0, 0.15, 0.15},
			{4, 1, 1, 0.15, 0.15},
			{2, 1, 1, 0.5, 0.5},
			{5, 2, 2, 0.5, 0.5},
			{7, 7, 0, 0, 1},
		}

		Convey("Then counts follow round-half-even and never exceed the class", func() {
			for _, tc := range cases {
				nTest, nVal := splits.Sizes(tc.n, tc.val, tc.test)
				So(nTest, ShouldEqual, tc.wantTest)
				So(nVal, ShouldEqual, tc.wantVal)
				So(nTest+nVal, ShouldBeLessThanOrEqualTo, tc.n)
			}
		})
	})
}

func TestAssign(t *testing.T) {
	_ = logger.InitWithWriter(io.Discard)

	Convey("Given ten serve clips with default fractions", t, func() {
		recs := makeRecords("serve", 10)
		b := splits.New()

		Convey("When assigned", func() {
			asg, sum, err := b.Assign(recs)

			Convey("Then the class splits 2/2/6", func() {
				So(err, ShouldBeNil)
				So(asg[model.SplitTest], ShouldHaveLength, 2)
				So(asg[model.SplitVal], ShouldHaveLength, 2)
				So(asg[model.SplitTrain], ShouldHaveLength, 6)
				So(sum.Classes, ShouldResemble, []splits.ClassCount{
					{Action: "serve", Total: 10, Train: 6, Val: 2, Test: 2},
				})
			})

			Convey("Then every clip lands in exactly one split", func() {
				seen := map[string]int{}
				for _, split := range model.Splits {
					for _, r := range asg[split] {
						seen[r.ClipPath]++
					}
				}
				So(len(seen), ShouldEqual, 10)
				for _, n := range seen {
					So(n, ShouldEqual, 1)
				}
			})

			Convey("Then repeating gives the same assignment", func() {
				again, _, err := splits.New().Assign(makeRecords("serve", 10))
				So(err, ShouldBeNil)
				for _, split := range model.Splits {
					So(paths(again[split]), ShouldResemble, paths(asg[split]))
				}
			})
		})
	})

	Convey("Given several classes in shuffled input order", t, func() {
		var recs []model.ClipRecord
		recs = append(recs, makeRecords("serve", 13)...)
		recs = append(recs, makeRecords("spike", 7)...)
		recs = append(recs, makeRecords("block", 2)...)
		shuffled := append([]model.ClipRecord(nil), recs...)
		rand.New(rand.NewSource(7)).Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		Convey("Then the assignment is independent of row order", func() {
			a, _, err := splits.New(splits.WithSeed(3)).Assign(recs)
			So(err, ShouldBeNil)
			b, _, err := splits.New(splits.WithSeed(3)).Assign(shuffled)
			So(err, ShouldBeNil)
			for _, split := range model.Splits {
				So(paths(b[split]), ShouldResemble, paths(a[split]))
			}
		})

		Convey("Then a different seed changes the assignment", func() {
			a, _, _ := splits.New(splits.WithSeed(1)).Assign(recs)
			b, _, _ := splits.New(splits.WithSeed(2)).Assign(recs)
			same := true
			for _, split := range model.Splits {
				if strings.Join(paths(a[split]), ",") != strings.Join(paths(b[split]), ",") {
					same = false
				}
			}
			So(same, ShouldBeFalse)
		})

		Convey("When a per-action cap applies", func() {
			_, sum, err := splits.New(splits.WithPerActionCap(5)).Assign(recs)

			Convey("Then each class totals min(size, cap)", func() {
				So(err, ShouldBeNil)
				want := map[string]int{"block": 2, "serve": 5, "spike": 5}
				for _, c := range sum.Classes {
					So(c.Train+c.Val+c.Test, ShouldEqual, want[c.Action])
					So(c.Total-c.Dropped, ShouldEqual, want[c.Action])
				}
				So([]string{sum.Classes[0].Action, sum.Classes[1].Action, sum.Classes[2].Action},
					ShouldResemble, []string{"block", "serve", "spike"})
			})
		})
	})

	Convey("Given action labels that differ in case and spacing", t, func() {
		recs := makeRecords("serve", 2)
		recs[0].Action = " Serve "
		recs[1].Outcome = " 0 "

		Convey("Then they group into one normalized class", func() {
			asg, sum, err := splits.New().Assign(recs)
			So(err, ShouldBeNil)
			So(sum.Classes, ShouldHaveLength, 1)
			So(sum.Classes[0].Action, ShouldEqual, "serve")
			for _, split := range model.Splits {
				for _, r := range asg[split] {
					So(r.Action, ShouldEqual, "serve")
					So(r.Outcome, ShouldNotContainSubstring, " ")
				}
			}
		})
	})

	Convey("Given invalid fractions", t, func() {
		cases := []struct{ val, test float64 }{{-0.1, 0.1}, {0.1, 1.5}, {0.6, 0.5}}

		Convey("Then Assign fails with ErrInvalidFractions", func() {
			for _, tc := range cases {
				_, _, err := splits.New(splits.WithFractions(tc.val, tc.test)).Assign(makeRecords("serve", 3))
				So(errors.Is(err, splits.ErrInvalidFractions), ShouldBeTrue)
			}
		})
	})
}

func TestRun(t *testing.T) {
	_ = logger.InitWithWriter(io.Discard)

	Convey("Given a clip index on disk", t, func() {
		dir := t.TempDir()
		indexPath := filepath.Join(dir, "clips_index.csv")
		outDir := filepath.Join(dir, "splits")

		iw, err := csvio.OpenIndex(indexPath)
		So(err, ShouldBeNil)
		for _, rec := range makeRecords("serve", 10) {
			_, err := iw.Append(rec)
			So(err, ShouldBeNil)
		}
		So(iw.Close(), ShouldBeNil)

		Convey("When splits are built", func() {
			sum, err := splits.New().Run(context.Background(), indexPath, outDir)

			Convey("Then three files with the split header are written", func() {
				So(err, ShouldBeNil)
				wantRows := map[model.Split]int{model.SplitTrain: 6, model.SplitVal: 2, model.SplitTest: 2}
				for _, split := range model.Splits {
					raw, err := os.ReadFile(filepath.Join(outDir, string(split)+".csv"))
					So(err, ShouldBeNil)
					lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
					So(lines[0], ShouldEqual, strings.Join(csvio.SplitHeader, ","))
					So(len(lines)-1, ShouldEqual, wantRows[split])
					So(sum.Count(split), ShouldEqual, wantRows[split])
				}
			})

			Convey("Then the report lists per-class counts", func() {
				var b strings.Builder
				sum.Fprint(&b)
				So(b.String(), ShouldContainSubstring, "train: 6 -> "+filepath.Join(outDir, "train.csv")+" {serve=6}")
				So(b.String(), ShouldContainSubstring, "test : 2 -> ")
			})

			Convey("And built again", func() {
				first, err := os.ReadFile(filepath.Join(outDir, "train.csv"))
				So(err, ShouldBeNil)
				_, err = splits.New().Run(context.Background(), indexPath, outDir)
				So(err, ShouldBeNil)
				second, err := os.ReadFile(filepath.Join(outDir, "train.csv"))
				So(err, ShouldBeNil)

				Convey("Then the output is byte-identical", func() {
					So(string(second), ShouldEqual, string(first))
				})
			})
		})
	})

	Convey("Given an index with only a header", t, func() {
		dir := t.TempDir()
		indexPath := filepath.Join(dir, "clips_index.csv")
		So(os.WriteFile(indexPath, []byte(strings.Join(csvio.IndexHeader, ",")+"\n"), 0o600), ShouldBeNil)

		Convey("Then all three split files still exist with a header only", func() {
			sum, err := splits.New().Run(context.Background(), indexPath, dir)
			So(err, ShouldBeNil)
			So(sum.Classes, ShouldBeEmpty)
			for _, split := range model.Splits {
				raw, err := os.ReadFile(filepath.Join(dir, string(split)+".csv"))
				So(err, ShouldBeNil)
				So(string(raw), ShouldEqual, strings.Join(csvio.SplitHeader, ",")+"\n")
			}
		})
	})

	Convey("Given a missing index", t, func() {
		_, err := splits.New().Run(context.Background(), filepath.Join(t.TempDir(), "none.csv"), t.TempDir())

		Convey("Then the open error is returned", func() {
			So(errors.Is(err, os.ErrNotExist), ShouldBeTrue)
		})
	})
}
