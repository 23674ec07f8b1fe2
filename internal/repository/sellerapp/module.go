package sellerapp

import "go.uber.org/fx"

// Module provides the seller application repository to Fx.
var Module = fx.Provide(NewRepository)
