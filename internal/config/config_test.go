package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/tagclips/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have the pipeline defaults", func() {
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.Workers, convey.ShouldEqual, 1)
			convey.So(cfg.Window.Pre, convey.ShouldEqual, 1.0)
			convey.So(cfg.Window.Post, convey.ShouldEqual, 2.0)
			convey.So(cfg.FFmpeg.Codec, convey.ShouldEqual, "libx264")
			convey.So(cfg.FFmpeg.Preset, convey.ShouldEqual, "veryfast")
			convey.So(cfg.FFmpeg.CRF, convey.ShouldEqual, 23)
			convey.So(cfg.FFmpeg.Timeout, convey.ShouldEqual, 2*time.Minute)
			convey.So(cfg.Split.Seed, convey.ShouldEqual, 42)
			convey.So(cfg.Split.ValFrac, convey.ShouldEqual, 0.15)
			convey.So(cfg.Split.TestFrac, convey.ShouldEqual, 0.15)
			convey.So(cfg.Vocabulary.ActionSynonyms["attack"], convey.ShouldEqual, "spike")
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with out-of-range values", t, func() {
		cases := []struct {
			name   string
			mutate func(*config.Config)
		}{
			{"zero workers", func(c *config.Config) { c.Workers = 0 }},
			{"zero queue", func(c *config.Config) { c.QueueSize = 0 }},
			{"empty binary", func(c *config.Config) { c.FFmpeg.Binary = "" }},
			{"crf too high", func(c *config.Config) { c.FFmpeg.CRF = 52 }},
			{"negative timeout", func(c *config.Config) { c.FFmpeg.Timeout = -time.Second }},
			{"fractions over 1", func(c *config.Config) { c.Split.ValFrac, c.Split.TestFrac = 0.6, 0.5 }},
			{"negative fraction", func(c *config.Config) { c.Split.ValFrac = -0.1 }},
			{"negative cap", func(c *config.Config) { c.Split.PerActionCap = -1 }},
		}

		for _, tc := range cases {
			convey.Convey("When "+tc.name, func() {
				cfg := config.New()
				tc.mutate(cfg)
				err := cfg.Validate()

				convey.Convey("Then validation fails with ErrInvalidConfig", func() {
					convey.So(err, convey.ShouldNotBeNil)
					convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				})
			})
		}
	})
}
