package product

import "go.uber.org/fx"

// Module exports the product service constructor.
var Module = fx.Module("service.product",
	fx.Provide(NewService),
)
