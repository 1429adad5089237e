package clips_test

import (
	"strings"
	"testing"

	"github.com/okian/tagclips/internal/clips"
	. "github.com/smartystreets/goconvey/convey"
)

func TestWindow(t *testing.T) {
	Convey("Given event times and offsets", t, func() {
		Convey("When the pre-roll fits after zero", func() {
			cases := []struct{ t, pre, post, start float64 }{
				{45.2, 1, 2, 44.2},
				{1, 1, 2, 0},
				{10, 0, 3, 10},
				{5, 2.5, 0.5, 2.5},
			}

			Convey("Then dur is pre + post", func() {
				for _, tc := range cases {
					start, dur := clips.Window(tc.t, tc.pre, tc.post)
					So(start, ShouldAlmostEqual, tc.start, 1e-9)
					So(dur, ShouldAlmostEqual, tc.pre+tc.post, 1e-9)
				}
			})
		})

		Convey("When the event is closer to zero than the pre-roll", func() {
			start, dur := clips.Window(0.5, 1.0, 2.0)

			Convey("Then the clip starts at zero and keeps the post window", func() {
				So(start, ShouldEqual, 0)
				So(dur, ShouldEqual, 2.5)
			})
		})

		Convey("When offsets are negative", func() {
			start, dur := clips.Window(3, -1, -2)

			Convey("Then they count as zero", func() {
				So(start, ShouldEqual, 3)
				So(dur, ShouldEqual, 0)
			})
		})
	})
}

func TestSanitize(t *testing.T) {
	Convey("Given assorted strings", t, func() {
		inputs := []string{
			"Johnny Tran", "  padded  ", "a/b\\c:d*e?f", "émile zola", "", "   ", "!!!",
			"already_clean-1.0", strings.Repeat("x", 200), "tab\there", "naïve name.mp4",
		}

		Convey("Then output uses only the safe charset within the limit", func() {
			for _, in := range inputs {
				out := clips.Sanitize(in, 40)
				So(len(out), ShouldBeLessThanOrEqualTo, 40)
				So(out, ShouldNotBeEmpty)
				for _, c := range out {
					ok := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') ||
						c == '_' || c == '-' || c == '.'
					So(ok, ShouldBeTrue)
				}
			}
		})

		Convey("Then sanitizing twice is a no-op", func() {
			for _, in := range inputs {
				once := clips.Sanitize(in, 40)
				So(clips.Sanitize(once, 40), ShouldEqual, once)
			}
		})

		Convey("Then specific cases map as expected", func() {
			So(clips.Sanitize("Johnny Tran", 40), ShouldEqual, "Johnny_Tran")
			So(clips.Sanitize("a/b\\c:d", 80), ShouldEqual, "abcd")
			So(clips.Sanitize("   ", 80), ShouldEqual, "na")
			So(clips.Sanitize("émile", 80), ShouldEqual, "mile")
			So(clips.Sanitize(strings.Repeat("x", 200), 80), ShouldEqual, strings.Repeat("x", 80))
		})
	})
}

func TestClipName(t *testing.T) {
	Convey("Given an event", t, func() {
		Convey("Then the name carries video, action, outcome, player, ms and id", func() {
			So(clips.ClipName("game1.mp4", "spike", "1", "Johnny Tran", 45.2, "1"),
				ShouldEqual, "game1_spike_succ_Johnny_Tran_45200_1.mp4")
			So(clips.ClipName("videos/game2.mp4", "pass", "0", "", 0.5, "e7"),
				ShouldEqual, "game2_pass_fail_na_500_e7.mp4")
		})

		Convey("Then long names are bounded and keep the extension", func() {
			name := clips.ClipName("game1.mp4", "spike", "1", strings.Repeat("P", 60), 12, strings.Repeat("9", 50))
			So(len(name), ShouldBeLessThanOrEqualTo, clips.MaxNameLen)
			So(strings.HasSuffix(name, ".mp4"), ShouldBeTrue)
			So(clips.Sanitize(name, clips.MaxNameLen), ShouldEqual, name)
		})

		Convey("Then a long video name keeps the time and event id", func() {
			long := strings.Repeat("v", 60) + ".mp4"
			a := clips.ClipName(long, "spike", "1", "Ana", 10, "1")
			b := clips.ClipName(long, "spike", "1", "Ana", 20, "2")
			So(a, ShouldNotEqual, b)
			So(a, ShouldEndWith, "_10000_1.mp4")
			So(b, ShouldEndWith, "_20000_2.mp4")
			So(len(a), ShouldEqual, clips.MaxNameLen)
			So(a, ShouldStartWith, "vvvv")
		})
	})
}
