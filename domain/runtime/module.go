package runtime

import (
	"go.uber.org/fx"

	"github.com/rawe/ontoforge-sub000/pkg/embeddings"
)

// Module provides runtime instance dependencies.
var Module = fx.Module("runtime",
	fx.Provide(
		NewRepository,
		fx.Annotate(
			func(r *Repository) Store { return r },
			fx.As(new(Store)),
		),
		fx.Annotate(
			func(s *embeddings.Service) EmbeddingGateway { return s },
			fx.As(new(EmbeddingGateway)),
		),
		NewSearcher,
		NewService,
		NewHandler,
	),
	fx.Invoke(RegisterRoutes),
)
