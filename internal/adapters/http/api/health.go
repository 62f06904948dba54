package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/okian/bingonight/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// handleHealth handles GET /healthz.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// metricsHandler serves the custom metrics registry in Prometheus format.
func metricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
}
