package sellerapp

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fishtvlvoe/buygo/internal/dto"
	"github.com/fishtvlvoe/buygo/internal/identity"
	"github.com/fishtvlvoe/buygo/internal/presentation/http/response"
	sellerappsvc "github.com/fishtvlvoe/buygo/internal/service/sellerapp"
	"github.com/fishtvlvoe/buygo/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/fishtvlvoe/buygo/transport/http/sellerapp")

// Service is the seller application surface the handler depends on.
type Service interface {
	Submit(ctx context.Context, caller *identity.Caller, req sellerappsvc.SubmitRequest) (*dto.SellerApplication, error)
	List(ctx context.Context, status string) ([]dto.SellerApplication, error)
	Review(ctx context.Context, caller *identity.Caller, id int64, req sellerappsvc.ReviewRequest) (*dto.SellerApplication, error)
}

// Handler exposes seller application endpoints over HTTP.
type Handler struct {
	svc Service
}

// NewHandler constructs a seller application Handler.
func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with the provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/seller-applications")
	g.POST("", h.submit)
	g.GET("", h.list)
	g.PUT("/:id", h.review)
}

func (h *Handler) submit(c echo.Context) error {
	b := response.New(c)

	caller, ok := identity.FromContext(c)
	if !ok {
		return b.WithError(errorbank.Unauthorized("未登入")).Build()
	}

	var req sellerappsvc.SubmitRequest
	if err := c.Bind(&req); err != nil {
		return b.WithError(errorbank.BadRequest("無效的請求內容", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "sellerapps.submit")
	defer span.End()

	app, err := h.svc.Submit(ctx, caller, req)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithStatus(http.StatusCreated).WithData(app).WithMessage("申請已送出").Build()
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	caller, ok := identity.FromContext(c)
	if !ok {
		return b.WithError(errorbank.Unauthorized("未登入")).Build()
	}
	if !caller.Admin {
		return b.WithError(errorbank.Forbidden("權限不足")).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "sellerapps.list")
	defer span.End()

	apps, err := h.svc.List(ctx, c.QueryParam("status"))
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(apps).WithMeta("count", len(apps)).Build()
}

func (h *Handler) review(c echo.Context) error {
	b := response.New(c)

	caller, ok := identity.FromContext(c)
	if !ok {
		return b.WithError(errorbank.Unauthorized("未登入")).Build()
	}
	if !caller.Admin {
		return b.WithError(errorbank.Forbidden("權限不足")).Build()
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return b.WithError(errorbank.BadRequest("無效的申請編號")).Build()
	}

	var req sellerappsvc.ReviewRequest
	if err := c.Bind(&req); err != nil {
		return b.WithError(errorbank.BadRequest("無效的請求內容", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "sellerapps.review", trace.WithAttributes(attribute.Int64("application.id", id)))
	defer span.End()

	app, err := h.svc.Review(ctx, caller, id, req)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(app).WithMessage("審核完成").Build()
}
