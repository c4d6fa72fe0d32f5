package mcp

import (
	"github.com/labstack/echo/v4"
	"github.com/mark3labs/mcp-go/server"
)

// RegisterRoutes mounts the MCP streamable HTTP endpoint.
func RegisterRoutes(e *echo.Echo, s *server.StreamableHTTPServer) {
	e.Any("/mcp", echo.WrapHandler(s))
}
