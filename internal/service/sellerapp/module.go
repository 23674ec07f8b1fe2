package sellerapp

import "go.uber.org/fx"

// Module exports the seller application service constructor.
var Module = fx.Module("service.sellerapp",
	fx.Provide(NewService),
)
