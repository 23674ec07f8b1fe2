package helper

import (
	"go.uber.org/fx"

	"github.com/labstack/echo/v4"

	helpersvc "github.com/fishtvlvoe/buygo/internal/service/helper"
)

// Module wires HTTP helper grant handlers.
var Module = fx.Options(
	fx.Provide(
		NewHandler,
		func(s *helpersvc.Service) Service { return s },
	),
	fx.Invoke(func(e *echo.Echo, h *Handler) {
		Register(e, h)
	}),
)
