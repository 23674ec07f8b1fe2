package linebinding

import (
	"go.uber.org/fx"

	"github.com/labstack/echo/v4"

	linebindingsvc "github.com/fishtvlvoe/buygo/internal/service/linebinding"
)

// Module wires HTTP LINE binding handlers.
var Module = fx.Options(
	fx.Provide(
		NewHandler,
		func(s *linebindingsvc.Service) Service { return s },
	),
	fx.Invoke(func(e *echo.Echo, h *Handler) {
		Register(e, h)
	}),
)
