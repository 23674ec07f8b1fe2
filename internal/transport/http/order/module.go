package order

import (
	"go.uber.org/fx"

	"github.com/labstack/echo/v4"

	ordersvc "github.com/fishtvlvoe/buygo/internal/service/order"
)

// Module wires HTTP order handlers.
var Module = fx.Options(
	fx.Provide(
		NewHandler,
		func(s *ordersvc.Service) Service { return s },
	),
	fx.Invoke(func(e *echo.Echo, h *Handler) {
		Register(e, h)
	}),
)
