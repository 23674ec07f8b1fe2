package helper

import "go.uber.org/fx"

// Module exports the helper grant service constructor.
var Module = fx.Module("service.helper",
	fx.Provide(NewService),
)
