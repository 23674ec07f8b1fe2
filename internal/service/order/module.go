package order

import "go.uber.org/fx"

// Module exports the order service constructor.
var Module = fx.Module("service.order",
	fx.Provide(NewService),
)
