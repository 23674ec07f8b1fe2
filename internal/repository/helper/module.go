package helper

import "go.uber.org/fx"

// Module provides the helper grant repository to Fx.
var Module = fx.Provide(NewRepository)
