package schema

import "go.uber.org/fx"

var Module = fx.Module("schema.module",
	fx.Provide(NewRegistry),
)
