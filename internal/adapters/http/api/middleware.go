package api

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/okian/bingonight/pkg/metrics"
)

// metricsMiddleware records request counts and latency per route pattern.
func (s *Server) metricsMiddleware(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	status := c.Response().StatusCode()
	if err != nil {
		// The error handler has not rendered the response yet.
		status, _ = classify(err)
	}
	endpoint := c.Route().Path
	statusCode := strconv.Itoa(status)
	durationMs := float64(time.Since(start).Milliseconds())

	metrics.RecordHTTPRequest(endpoint, c.Method(), statusCode)
	metrics.RecordHTTPRequestDuration(endpoint, c.Method(), statusCode, durationMs)
	if status >= fiber.StatusBadRequest {
		metrics.RecordErrorByComponent("http", getErrorType(status))
	}
	return err
}

// getErrorType returns a standardized error type based on HTTP status code.
func getErrorType(statusCode int) string {
	switch {
	case statusCode >= fiber.StatusInternalServerError:
		return "server_error"
	case statusCode == fiber.StatusUnauthorized:
		return "unauthorized"
	case statusCode == fiber.StatusNotFound:
		return "not_found"
	case statusCode == fiber.StatusConflict:
		return "conflict"
	case statusCode >= fiber.StatusBadRequest:
		return "client_error"
	default:
		return "unknown"
	}
}
