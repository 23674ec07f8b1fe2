package product

import (
	"go.uber.org/fx"

	"github.com/labstack/echo/v4"

	productsvc "github.com/fishtvlvoe/buygo/internal/service/product"
)

// Module wires HTTP product handlers.
var Module = fx.Options(
	fx.Provide(
		NewHandler,
		func(s *productsvc.Service) Service { return s },
	),
	fx.Invoke(func(e *echo.Echo, h *Handler) {
		Register(e, h)
	}),
)
