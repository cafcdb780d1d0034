package intent

import "go.uber.org/fx"

var Module = fx.Module("intent.module",
	fx.Provide(NewValidator),
)
