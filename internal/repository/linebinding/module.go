package linebinding

import "go.uber.org/fx"

// Module provides the binding code repository to Fx.
var Module = fx.Provide(NewRepository)
