package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/envectorhq/envector-mcp/pkg/utils"
)

// HealthResponse is the health probe payload.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:  "ok",
		Version: utils.Version,
	})
}
