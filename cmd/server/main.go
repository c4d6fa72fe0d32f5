// Package main is the entry point for the ontoforge runtime server: a
// schema-driven validation and query engine over a user-declared graph
// ontology.
package main

import (
	"log/slog"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/rawe/ontoforge-sub000/domain/health"
	"github.com/rawe/ontoforge-sub000/domain/mcp"
	"github.com/rawe/ontoforge-sub000/domain/runtime"
	"github.com/rawe/ontoforge-sub000/domain/schema"
	"github.com/rawe/ontoforge-sub000/internal/config"
	"github.com/rawe/ontoforge-sub000/internal/database"
	"github.com/rawe/ontoforge-sub000/internal/migrate"
	"github.com/rawe/ontoforge-sub000/internal/server"
	"github.com/rawe/ontoforge-sub000/pkg/embeddings"
	"github.com/rawe/ontoforge-sub000/pkg/logger"
)

func main() {
	// Load .env files if present (for local development).
	// Load() won't overwrite existing vars, Overload() will.
	_ = godotenv.Load(".env")
	_ = godotenv.Overload(".env.local")

	fx.New(
		fx.WithLogger(func(log *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: log}
		}),

		// Infrastructure modules
		logger.Module,
		config.Module,
		database.Module,
		migrate.Module,
		server.Module,

		// Embeddings gateway (noop unless a provider is configured)
		embeddings.Module,

		// Domain modules
		health.Module,
		schema.Module,
		runtime.Module,
		mcp.Module,
	).Run()
}
