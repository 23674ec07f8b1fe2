package order

import (
	"context"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fishtvlvoe/buygo/internal/dto"
	"github.com/fishtvlvoe/buygo/internal/identity"
	"github.com/fishtvlvoe/buygo/internal/presentation/http/response"
	"github.com/fishtvlvoe/buygo/internal/rbac"
	ordersvc "github.com/fishtvlvoe/buygo/internal/service/order"
	"github.com/fishtvlvoe/buygo/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/fishtvlvoe/buygo/transport/http/order")

// Service is the order operations surface the handler depends on.
type Service interface {
	List(ctx context.Context, caller *identity.Caller, filter ordersvc.ListFilter) ([]dto.OrderSummary, error)
	Get(ctx context.Context, caller *identity.Caller, id int64) (*dto.OrderDetail, error)
	Update(ctx context.Context, caller *identity.Caller, id int64, patch ordersvc.UpdatePatch) error
}

// Handler exposes order endpoints over HTTP.
type Handler struct {
	svc Service
}

// NewHandler constructs an order Handler.
func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with the provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/orders")
	g.GET("", h.list)
	g.GET("/:id", h.getByID)
	g.PUT("/:id", h.update)
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

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.list")
	defer span.End()

	orders, err := h.svc.List(ctx, caller, ordersvc.ListFilter{
		Status: c.QueryParam("status"),
		Search: c.QueryParam("search"),
	})
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(orders).WithMeta("total", len(orders)).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)

	caller, ok := identity.FromContext(c)
	if !ok {
		return b.WithError(errorbank.Unauthorized("未登入")).Build()
	}
	if !rbac.CanRead(caller.Roles) {
		return b.WithError(errorbank.Forbidden("權限不足")).Build()
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return b.WithError(errorbank.BadRequest("無效的訂單編號")).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.getByID", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := h.svc.Get(ctx, caller, id)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(order).Build()
}

func (h *Handler) update(c echo.Context) error {
	b := response.New(c)

	caller, ok := identity.FromContext(c)
	if !ok {
		return b.WithError(errorbank.Unauthorized("未登入")).Build()
	}
	if !rbac.CanWrite(caller.Roles) {
		return b.WithError(errorbank.Forbidden("權限不足")).Build()
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return b.WithError(errorbank.BadRequest("無效的訂單編號")).Build()
	}

	var patch ordersvc.UpdatePatch
	if err := c.Bind(&patch); err != nil {
		return b.WithError(errorbank.BadRequest("無效的請求內容", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.update", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	if err := h.svc.Update(ctx, caller, id, patch); err != nil {
		return b.WithError(err).Build()
	}

	return b.WithMessage("訂單已更新").Build()
}
