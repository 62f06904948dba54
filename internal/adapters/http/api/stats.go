package api

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/okian/bingonight/pkg/logger"
)

// handleStats handles GET /api/admin/stats.
func (s *Server) handleStats(c *fiber.Ctx) error {
	stats, err := s.game.Stats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(stats)
}

// purge returns a handler for DELETE /api/admin/<what>.
func (s *Server) purge(what string, fn func(ctx context.Context) (int64, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		n, err := fn(c.UserContext())
		if err != nil {
			return err
		}
		s.logger.Warn(c.UserContext(), "admin purge", logger.String("target", what), logger.Int64("deleted", n))
		return c.JSON(fiber.Map{"deleted": n})
	}
}
