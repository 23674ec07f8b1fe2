package helper

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
	"github.com/fishtvlvoe/buygo/internal/rbac"
	helpersvc "github.com/fishtvlvoe/buygo/internal/service/helper"
	"github.com/fishtvlvoe/buygo/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/fishtvlvoe/buygo/transport/http/helper")

// Service is the helper grant surface the handler depends on.
type Service interface {
	List(ctx context.Context, caller *identity.Caller) ([]dto.HelperGrant, error)
	Grant(ctx context.Context, caller *identity.Caller, req helpersvc.GrantRequest) (*dto.HelperGrant, error)
	UpdatePermissions(ctx context.Context, caller *identity.Caller, id int64, perms dto.HelperPermissions) (*dto.HelperGrant, error)
	Revoke(ctx context.Context, caller *identity.Caller, id int64) error
}

// Handler exposes helper grant endpoints over HTTP.
type Handler struct {
	svc Service
}

// NewHandler constructs a helper grant Handler.
func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with the provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/helpers")
	g.GET("", h.list)
	g.POST("", h.grant)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.revoke)
}

// canManage reports whether the caller may hold helper grants at all.
func canManage(caller *identity.Caller) bool {
	return caller.Admin || caller.Roles.Has(rbac.RoleSeller)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	caller, ok := identity.FromContext(c)
	if !ok {
		return b.WithError(errorbank.Unauthorized("未登入")).Build()
	}
	if !canManage(caller) {
		return b.WithError(errorbank.Forbidden("權限不足")).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "helpers.list")
	defer span.End()

	grants, err := h.svc.List(ctx, caller)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(grants).WithMeta("count", len(grants)).Build()
}

func (h *Handler) grant(c echo.Context) error {
	b := response.New(c)

	caller, ok := identity.FromContext(c)
	if !ok {
		return b.WithError(errorbank.Unauthorized("未登入")).Build()
	}
	if !canManage(caller) {
		return b.WithError(errorbank.Forbidden("權限不足")).Build()
	}

	var req helpersvc.GrantRequest
	if err := c.Bind(&req); err != nil {
		return b.WithError(errorbank.BadRequest("無效的請求內容", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "helpers.grant", trace.WithAttributes(attribute.Int64("helper.id", req.HelperID)))
	defer span.End()

	grant, err := h.svc.Grant(ctx, caller, req)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithStatus(http.StatusCreated).WithData(grant).WithMessage("小幫手已新增").Build()
}

func (h *Handler) update(c echo.Context) error {
	b := response.New(c)

	caller, ok := identity.FromContext(c)
	if !ok {
		return b.WithError(errorbank.Unauthorized("未登入")).Build()
	}
	if !canManage(caller) {
		return b.WithError(errorbank.Forbidden("權限不足")).Build()
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return b.WithError(errorbank.BadRequest("無效的小幫手編號")).Build()
	}

	var payload struct {
		Permissions dto.HelperPermissions `json:"permissions"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("無效的請求內容", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "helpers.update", trace.WithAttributes(attribute.Int64("grant.id", id)))
	defer span.End()

	grant, err := h.svc.UpdatePermissions(ctx, caller, id, payload.Permissions)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(grant).WithMessage("權限已更新").Build()
}

func (h *Handler) revoke(c echo.Context) error {
	b := response.New(c)

	caller, ok := identity.FromContext(c)
	if !ok {
		return b.WithError(errorbank.Unauthorized("未登入")).Build()
	}
	if !canManage(caller) {
		return b.WithError(errorbank.Forbidden("權限不足")).Build()
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return b.WithError(errorbank.BadRequest("無效的小幫手編號")).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "helpers.revoke", trace.WithAttributes(attribute.Int64("grant.id", id)))
	defer span.End()

	if err := h.svc.Revoke(ctx, caller, id); err != nil {
		return b.WithError(err).Build()
	}

	return b.WithMessage("小幫手已移除").Build()
}
