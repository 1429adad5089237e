package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given the global logger", t, func() {
		Convey("When it is initialized", func() {
			err := Init()

			Convey("Then Get returns a usable logger", func() {
				So(err, ShouldBeNil)
				So(Get(), ShouldNotBeNil)
				So(Sync(), ShouldBeNil)
			})
		})

		Convey("When it is initialized with a nil writer", func() {
			err := InitWithWriter(nil)

			Convey("Then it fails", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestLoggerOutput(t *testing.T) {
	Convey("Given a logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(InitWithWriter(&buf), ShouldBeNil)
		ctx := context.Background()

		Convey("When logging with fields", func() {
			Get().Info(ctx, "row skipped", String("reason", "bad_time"), Int("row", 7), Error(errors.New("boom")))

			Convey("Then the record carries message, fields and source", func() {
				out := buf.String()
				So(out, ShouldContainSubstring, "row skipped")
				So(out, ShouldContainSubstring, "reason=bad_time")
				So(out, ShouldContainSubstring, "row=7")
				So(out, ShouldContainSubstring, "error=boom")
				So(out, ShouldContainSubstring, "source=")
			})
		})

		Convey("When using named and enriched loggers", func() {
			Named("manifest").With(String("run_id", "abc")).Warn(ctx, "hello")

			Convey("Then component and bound fields are present", func() {
				out := buf.String()
				So(out, ShouldContainSubstring, "component=manifest")
				So(out, ShouldContainSubstring, "run_id=abc")
			})
		})

		Convey("When the level filters debug records", func() {
			So(SetLevelString("warn"), ShouldBeNil)
			Get().Debug(ctx, "hidden")
			Get().Info(ctx, "also hidden")
			So(SetLevelString("info"), ShouldBeNil)

			Convey("Then nothing is written", func() {
				So(buf.String(), ShouldBeEmpty)
			})
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given level names", t, func() {
		for _, lvl := range []string{"debug", "INFO", "", "warning", "warn", "error"} {
			So(SetLevelString(lvl), ShouldBeNil)
		}
		So(SetLevelString("verbose"), ShouldNotBeNil)
		So(SetLevelString("info"), ShouldBeNil)
	})
}

func TestNop(t *testing.T) {
	Convey("Nop logger never panics", t, func() {
		l := Nop()
		So(func() { l.Error(context.Background(), "x", String("k", "v")) }, ShouldNotPanic)
	})
}
