package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/bingonight/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.StoreDriver, convey.ShouldEqual, config.DriverMemory)
			convey.So(cfg.HostTokenTTL, convey.ShouldEqual, 12*time.Hour)
			convey.So(cfg.RecentEvents, convey.ShouldEqual, 20)
			convey.So(cfg.QuestionLimit(), convey.ShouldEqual, 30*time.Second)
			convey.So(cfg.DefaultQuestionPoints, convey.ShouldEqual, 10)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with one bad setting", t, func() {
		cases := []struct {
			name   string
			mutate func(*config.Config)
		}{
			{"empty addr", func(c *config.Config) { c.Addr = "" }},
			{"empty secret", func(c *config.Config) { c.HostSecret = "" }},
			{"zero ttl", func(c *config.Config) { c.HostTokenTTL = 0 }},
			{"unknown driver", func(c *config.Config) { c.StoreDriver = "mongo" }},
			{"postgres without dsn", func(c *config.Config) { c.StoreDriver = config.DriverPostgres }},
			{"archive without bucket", func(c *config.Config) { c.ArchiveEnabled = true }},
			{"zero queue", func(c *config.Config) { c.OutboxQueueSize = 0 }},
		}
		for _, tc := range cases {
			convey.Convey("When it has "+tc.name, func() {
				cfg := config.New()
				tc.mutate(cfg)
				err := cfg.Validate()

				convey.Convey("Then it should be rejected", func() {
					convey.So(err, convey.ShouldNotBeNil)
					convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				})
			})
		}
	})
}
