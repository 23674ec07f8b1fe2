package linebinding

import "go.uber.org/fx"

// Module exports the LINE binding service constructor.
var Module = fx.Module("service.linebinding",
	fx.Provide(NewService),
)
