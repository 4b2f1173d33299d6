package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/gigmatch/gigmatch/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8090")
				convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
				convey.So(cfg.CountryCode, convey.ShouldEqual, "fr")
				convey.So(cfg.NotifyBuffer, convey.ShouldEqual, 1024)
				convey.So(cfg.NotifyWorkers, convey.ShouldEqual, 2)
				convey.So(cfg.DatabaseURL, convey.ShouldBeBlank)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("GIGMATCH_ADDR", ":7070")
			_ = os.Setenv("GIGMATCH_LOG_LEVEL", "debug")
			_ = os.Setenv("GIGMATCH_COUNTRY_CODE", "be")
			_ = os.Setenv("GIGMATCH_NOTIFY_BUFFER", "64")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
				convey.So(cfg.CountryCode, convey.ShouldEqual, "be")
				convey.So(cfg.NotifyBuffer, convey.ShouldEqual, 64)
				convey.So(cfg.NotifyWorkers, convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When loading config from a YAML file", func() {
			clearConfigEnvVars()
			dir := t.TempDir()
			path := filepath.Join(dir, "config.yaml")
			yamlBody := []byte("addr: \":6060\"\nnats_url: \"nats://localhost:4222\"\n")
			convey.So(os.WriteFile(path, yamlBody, 0o600), convey.ShouldBeNil)
			_ = os.Setenv("GIGMATCH_CONFIG", path)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then file values layer over the defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":6060")
				convey.So(cfg.NATSURL, convey.ShouldEqual, "nats://localhost:4222")
				convey.So(cfg.CountryCode, convey.ShouldEqual, "fr")
			})

			convey.Convey("And env vars still beat the file", func() {
				_ = os.Setenv("GIGMATCH_ADDR", ":5050")

				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":5050")
			})
		})

		convey.Convey("When the config file is missing", func() {
			clearConfigEnvVars()
			_ = os.Setenv("GIGMATCH_CONFIG", "/nonexistent/config.yaml")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then loading fails with a load error", func() {
				convey.So(err, convey.ShouldWrap, config.ErrLoadConfig)
			})
		})

		convey.Convey("When validation constraints are violated", func() {
			clearConfigEnvVars()
			_ = os.Setenv("GIGMATCH_NOTIFY_WORKERS", "0")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then loading fails with an invalid-config error", func() {
				convey.So(err, convey.ShouldWrap, config.ErrInvalidConfig)
			})
		})
	})
}

func clearConfigEnvVars() {
	for _, key := range []string{
		"GIGMATCH_CONFIG",
		"GIGMATCH_ADDR",
		"GIGMATCH_LOG_LEVEL",
		"GIGMATCH_COUNTRY_CODE",
		"GIGMATCH_GEOCODER_BASE_URL",
		"GIGMATCH_GEOCODER_TIMEOUT_MS",
		"GIGMATCH_NOTIFY_BUFFER",
		"GIGMATCH_NOTIFY_WORKERS",
		"GIGMATCH_NATS_URL",
		"GIGMATCH_NATS_SUBJECT_PREFIX",
		"GIGMATCH_DATABASE_URL",
	} {
		_ = os.Unsetenv(key)
	}
}
