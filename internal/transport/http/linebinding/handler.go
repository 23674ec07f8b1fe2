package linebinding

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"

	"github.com/fishtvlvoe/buygo/internal/dto"
	"github.com/fishtvlvoe/buygo/internal/identity"
	"github.com/fishtvlvoe/buygo/internal/presentation/http/response"
	linebindingsvc "github.com/fishtvlvoe/buygo/internal/service/linebinding"
	"github.com/fishtvlvoe/buygo/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/fishtvlvoe/buygo/transport/http/linebinding")

// Service is the binding code surface the handler depends on.
type Service interface {
	Generate(ctx context.Context, caller *identity.Caller) (*dto.LineBinding, error)
	Confirm(ctx context.Context, req linebindingsvc.ConfirmRequest) error
}

// Handler exposes LINE binding endpoints over HTTP. The confirm endpoint is
// public: it is called by the messaging webhook, not by a platform user.
type Handler struct {
	svc Service
}

// NewHandler constructs a LINE binding Handler.
func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with the provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/line/bindings")
	g.POST("", h.generate)
	g.POST("/confirm", h.confirm)
}

func (h *Handler) generate(c echo.Context) error {
	b := response.New(c)

	caller, ok := identity.FromContext(c)
	if !ok {
		return b.WithError(errorbank.Unauthorized("未登入")).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "linebindings.generate")
	defer span.End()

	binding, err := h.svc.Generate(ctx, caller)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithStatus(http.StatusCreated).WithData(binding).Build()
}

func (h *Handler) confirm(c echo.Context) error {
	b := response.New(c)

	var req linebindingsvc.ConfirmRequest
	if err := c.Bind(&req); err != nil {
		return b.WithError(errorbank.BadRequest("無效的請求內容", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "linebindings.confirm")
	defer span.End()

	if err := h.svc.Confirm(ctx, req); err != nil {
		return b.WithError(err).Build()
	}

	return b.WithMessage("綁定成功").Build()
}
