package http

import (
	"go.uber.org/fx"

	helpertransport "github.com/fishtvlvoe/buygo/internal/transport/http/helper"
	linebindingtransport "github.com/fishtvlvoe/buygo/internal/transport/http/linebinding"
	ordertransport "github.com/fishtvlvoe/buygo/internal/transport/http/order"
	producttransport "github.com/fishtvlvoe/buygo/internal/transport/http/product"
	sellerapptransport "github.com/fishtvlvoe/buygo/internal/transport/http/sellerapp"
)

// Module aggregates all HTTP transport handlers.
var Module = fx.Options(
	ordertransport.Module,
	producttransport.Module,
	sellerapptransport.Module,
	helpertransport.Module,
	linebindingtransport.Module,
)
