package api

import (
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/envectorhq/envector-mcp/api/mcp"
)

// Server is the HTTP server exposing the MCP endpoint and health probe.
type Server struct {
	config Config
	logger *zap.Logger
	app    *fiber.App
}

// NewServer creates a new API server around an MCP server.
// The MCP server is injected to allow sharing with other transports.
func NewServer(config Config, mcpServer *mcp.Server, logger *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config: config,
		logger: logger,
		app:    app,
	}

	app.Get("/health", s.handleHealth)

	mcpHandler := adaptor.HTTPHandler(mcpServer.Handler())
	app.All("/mcp", mcpHandler)
	app.All("/mcp/*", mcpHandler)

	return s
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		zap.String("listen", s.config.ListenAddr),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
