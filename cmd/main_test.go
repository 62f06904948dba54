package main

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/okian/bingonight/internal/adapters/http/api"
	"github.com/okian/bingonight/internal/config"
	"github.com/okian/bingonight/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.InitWith(io.Discard, "text"); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	os.Exit(m.Run())
}

func TestBuild(t *testing.T) {
	convey.Convey("Given configuration loaded from the environment", t, func() {
		t.Setenv("BINGO_ADDR", ":0")
		t.Setenv("BINGO_HOST_SECRET", "main-secret")
		t.Setenv("BINGO_OUTBOX_WORKERS", "1")
		t.Setenv("BINGO_STORE_DRIVER", "memory")

		ctx := context.Background()
		cfg, err := config.Load(ctx)
		convey.So(err, convey.ShouldBeNil)
		convey.So(cfg.HostSecret, convey.ShouldEqual, "main-secret")
		convey.So(cfg.OutboxWorkers, convey.ShouldEqual, 1)

		convey.Convey("When the components are built and started", func() {
			log := logger.Get()
			c, err := build(ctx, cfg, log)
			convey.So(err, convey.ShouldBeNil)
			convey.So(c.svc.Start(ctx), convey.ShouldBeNil)
			defer c.close(ctx, log)

			convey.So(scheduleMetrics(c.timers, c.svc, log), convey.ShouldBeNil)

			convey.Convey("Then the service metrics can be refreshed", func() {
				convey.So(updateServiceMetrics(ctx, c.svc), convey.ShouldBeNil)
				convey.So(updateSystemMetrics, convey.ShouldNotPanic)
			})

			convey.Convey("Then the HTTP server answers health checks", func() {
				srv, err := api.NewServer(c.svc, api.WithHostSecret(cfg.HostSecret), api.WithLogger(log))
				convey.So(err, convey.ShouldBeNil)

				resp, err := srv.App().Test(httptest.NewRequest("GET", "/healthz", nil), -1)
				convey.So(err, convey.ShouldBeNil)
				convey.So(resp.StatusCode, convey.ShouldEqual, 200)
				_ = resp.Body.Close()
			})
		})
	})

	convey.Convey("Given an unusable store configuration", t, func() {
		t.Setenv("BINGO_STORE_DRIVER", "postgres")
		t.Setenv("BINGO_STORE_DSN", "")

		convey.Convey("Then loading fails before anything is built", func() {
			cfg, err := config.Load(context.Background())
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(cfg, convey.ShouldBeNil)
		})
	})
}
