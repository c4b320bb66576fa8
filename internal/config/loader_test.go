package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/skillpulse/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		convey.Reset(clearConfigEnvVars)

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.LoadFile(ctx, "")

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.TelemetryEnabled, convey.ShouldBeTrue)
				convey.So(cfg.TelemetryWorkers, convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			setEnv("SKILLPULSE_ADDR", ":8080")
			setEnv("SKILLPULSE_STORE_DRIVER", "memory")
			setEnv("SKILLPULSE_MAX_EVENTS", "50")
			setEnv("SKILLPULSE_TELEMETRY_ENABLED", "false")
			setEnv("SKILLPULSE_RECENCY_BOOST", "0.5")
			setEnv("SKILLPULSE_DEDUPE_TTL", "90m")
			setEnv("SKILLPULSE_LEDGER_KEY", "team-a.ledger")

			cfg, err := config.LoadFile(ctx, "")

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.StoreDriver, convey.ShouldEqual, "memory")
				convey.So(cfg.MaxEvents, convey.ShouldEqual, 50)
				convey.So(cfg.TelemetryEnabled, convey.ShouldBeFalse)
				convey.So(cfg.RecencyBoost, convey.ShouldEqual, 0.5)
				convey.So(cfg.DedupeTTL, convey.ShouldEqual, 90*time.Minute)
				convey.So(cfg.LedgerKey, convey.ShouldEqual, "team-a.ledger")
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			path := filepath.Join(t.TempDir(), "skillpulse.yaml")
			body := []byte(`addr: ":7070"
catalog_path: /etc/skillpulse/skills.yaml
popular_threshold: 9
badge_period: daily
relevance_weights:
  name: 20
  tags: 8
  description: 5
  long_description: 3
  features: 4
  use_cases: 6
  featured_bonus: 0
`)
			convey.So(os.WriteFile(path, body, 0o600), convey.ShouldBeNil)
			setEnv("SKILLPULSE_CONFIG", path)
			setEnv("SKILLPULSE_POPULAR_THRESHOLD", "11")

			cfg, err := config.Load(ctx)

			convey.Convey("Then file values apply and env still wins", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.CatalogPath, convey.ShouldEqual, "/etc/skillpulse/skills.yaml")
				convey.So(cfg.PopularThreshold, convey.ShouldEqual, 11)
				convey.So(cfg.BadgePeriod, convey.ShouldEqual, "daily")
				convey.So(cfg.RelevanceWeights.Name, convey.ShouldEqual, 20)
				convey.So(cfg.RelevanceWeights.FeaturedBonus, convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When the config file does not exist", func() {
			_, err := config.LoadFile(ctx, filepath.Join(t.TempDir(), "missing.yaml"))

			convey.Convey("Then ErrLoadConfig is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When env values are invalid", func() {
			setEnv("SKILLPULSE_STORE_DRIVER", "cassandra")

			_, err := config.LoadFile(ctx, "")

			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

var touchedEnv = map[string]struct{}{}

func setEnv(key, value string) {
	touchedEnv[key] = struct{}{}
	_ = os.Setenv(key, value)
}

func clearConfigEnvVars() {
	for key := range touchedEnv {
		_ = os.Unsetenv(key)
	}
	_ = os.Unsetenv("SKILLPULSE_CONFIG")
}
