// Package embeddings provides embedding generation functionality.
package embeddings

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/rawe/ontoforge-sub000/internal/config"
	"github.com/rawe/ontoforge-sub000/pkg/embeddings/googleai"
	"github.com/rawe/ontoforge-sub000/pkg/embeddings/ollama"
)

// Module provides the embeddings fx.Module
var Module = fx.Module("embeddings",
	fx.Provide(NewService),
)

// Service provides embedding generation with automatic client selection
type Service struct {
	client  Client
	log     *slog.Logger
	enabled bool
}

// NewNoopService creates a service with a noop client (for testing)
func NewNoopService(log *slog.Logger) *Service {
	return &Service{
		client:  NewNoopClient(),
		log:     log,
		enabled: false,
	}
}

// NewService creates a new embeddings service
func NewService(lc fx.Lifecycle, cfg *config.Config, log *slog.Logger) *Service {
	embCfg := cfg.Embeddings

	if !embCfg.IsEnabled() {
		log.Info("embeddings service disabled - no provider configured")
		return &Service{
			client:  NewNoopClient(),
			log:     log,
			enabled: false,
		}
	}

	svc := &Service{
		client:  NewNoopClient(), // Replaced on start
		log:     log,
		enabled: false,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			switch embCfg.Provider {
			case "ollama":
				log.Info("initializing Ollama embeddings client",
					slog.String("base_url", embCfg.BaseURL),
					slog.String("model", embCfg.Model),
				)
				svc.client = ollama.NewClient(ollama.Config{
					BaseURL: embCfg.BaseURL,
					Model:   embCfg.Model,
					Timeout: embCfg.Timeout,
				})
				svc.enabled = true

			case "googleai":
				log.Info("initializing Google Generative AI embeddings client",
					slog.String("model", embCfg.Model),
				)
				client, err := googleai.NewClient(ctx, googleai.Config{
					APIKey: embCfg.GoogleAPIKey,
					Model:  embCfg.Model,
				}, googleai.WithLogger(log))
				if err != nil {
					log.Error("failed to initialize Generative AI client", slog.String("error", err.Error()))
					// Keep noop client, don't fail startup
					return nil
				}
				svc.client = client
				svc.enabled = true
			}
			return nil
		},
	})

	return svc
}

// IsEnabled returns true if embeddings are available
func (s *Service) IsEnabled() bool {
	return s.enabled
}

// EmbedQuery generates an embedding for a single query
func (s *Service) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	return s.client.EmbedQuery(ctx, query)
}

// EmbedDocument generates an embedding for a single document
func (s *Service) EmbedDocument(ctx context.Context, document string) ([]float32, error) {
	return s.client.EmbedDocument(ctx, document)
}
