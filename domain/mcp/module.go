package mcp

import (
	"go.uber.org/fx"
)

// Module provides the MCP tool surface.
var Module = fx.Module("mcp",
	fx.Provide(
		NewToolHandler,
		NewMCPServer,
		NewHTTPServer,
	),
	fx.Invoke(RegisterRoutes),
)
