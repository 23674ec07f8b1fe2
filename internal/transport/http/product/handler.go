package product

import (
	"context"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"

	"github.com/fishtvlvoe/buygo/internal/dto"
	"github.com/fishtvlvoe/buygo/internal/identity"
	"github.com/fishtvlvoe/buygo/internal/presentation/http/response"
	"github.com/fishtvlvoe/buygo/internal/rbac"
	productsvc "github.com/fishtvlvoe/buygo/internal/service/product"
	"github.com/fishtvlvoe/buygo/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/fishtvlvoe/buygo/transport/http/product")

// Service is the product operations surface the handler depends on.
type Service interface {
	List(ctx context.Context, caller *identity.Caller, filter productsvc.ListFilter) ([]dto.ProductSummary, error)
}

// Handler exposes product endpoints over HTTP.
type Handler struct {
	svc Service
}

// NewHandler constructs a product Handler.
func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with the provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	e.GET("/products", h.list)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	caller, ok := identity.FromContext(c)
	if !ok {
		return b.WithError(errorbank.Unauthorized("未登入")).Build()
	}
	if !rbac.CanRead(caller.Roles) {
		return b.WithError(errorbank.Forbidden("權限不足")).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "products.list")
	defer span.End()

	page, _ := strconv.Atoi(c.QueryParam("page"))
	perPage, _ := strconv.Atoi(c.QueryParam("per_page"))

	products, err := h.svc.List(ctx, caller, productsvc.ListFilter{
		Status:  c.QueryParam("status"),
		Search:  c.QueryParam("search"),
		Page:    page,
		PerPage: perPage,
	})
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(products).WithMeta("count", len(products)).Build()
}
