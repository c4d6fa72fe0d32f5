package schema

import (
	"go.uber.org/fx"
)

// Module provides schema domain dependencies.
var Module = fx.Module("schema",
	fx.Provide(
		NewRepository,
		fx.Annotate(
			func(r *Repository) Loader { return r },
			fx.As(new(Loader)),
		),
		NewCache,
		NewHandler,
	),
	fx.Invoke(RegisterRoutes),
)
