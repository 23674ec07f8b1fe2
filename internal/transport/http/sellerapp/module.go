package sellerapp

import (
	"go.uber.org/fx"

	"github.com/labstack/echo/v4"

	sellerappsvc "github.com/fishtvlvoe/buygo/internal/service/sellerapp"
)

// Module wires HTTP seller application handlers.
var Module = fx.Options(
	fx.Provide(
		NewHandler,
		func(s *sellerappsvc.Service) Service { return s },
	),
	fx.Invoke(func(e *echo.Echo, h *Handler) {
		Register(e, h)
	}),
)
