package identity

import (
	"context"
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fishtvlvoe/buygo/internal/config"
	"github.com/fishtvlvoe/buygo/internal/presentation/http/response"
	"github.com/fishtvlvoe/buygo/internal/rbac"
	userrepo "github.com/fishtvlvoe/buygo/internal/repository/user"
	"github.com/fishtvlvoe/buygo/pkg/errorbank"
)

// Directory resolves platform users and their role assignments.
type Directory interface {
	Lookup(ctx context.Context, id int64) (*userrepo.Record, error)
	RolesOf(ctx context.Context, id int64) (rbac.RoleSet, error)
}

// Middleware resolves the caller from the trusted identity header set by the
// host platform. Requests without a resolvable caller are rejected unless the
// path is public.
type Middleware struct {
	directory Directory
	header    string
	public    map[string]struct{}
	logger    *zap.Logger
}

// NewMiddleware builds the caller-resolution middleware.
func NewMiddleware(directory Directory, cfg config.Config, logger *zap.Logger) *Middleware {
	return &Middleware{
		directory: directory,
		header:    cfg.Identity.UserHeader,
		public: map[string]struct{}{
			"/health":                {},
			cfg.Observability.PrometheusPath: {},
			"/line/bindings/confirm": {},
		},
		logger: logger,
	}
}

// Resolve is the echo middleware function.
func (m *Middleware) Resolve(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := m.public[c.Path()]; ok {
			return next(c)
		}

		raw := c.Request().Header.Get(m.header)
		if raw == "" {
			return response.New(c).WithError(errorbank.Unauthorized("未登入")).Build()
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return response.New(c).WithError(errorbank.Unauthorized("無法識別使用者")).Build()
		}

		ctx := c.Request().Context()
		record, err := m.directory.Lookup(ctx, id)
		if err != nil {
			if errors.Is(err, userrepo.ErrNotFound) {
				return response.New(c).WithError(errorbank.Unauthorized("無法識別使用者")).Build()
			}
			m.logger.Error("caller lookup failed", zap.Int64("user_id", id), zap.Error(err))
			return response.New(c).WithError(errorbank.Internal("內部錯誤", errorbank.WithCause(err))).Build()
		}

		roles, err := m.directory.RolesOf(ctx, id)
		if err != nil {
			m.logger.Error("caller role lookup failed", zap.Int64("user_id", id), zap.Error(err))
			return response.New(c).WithError(errorbank.Internal("內部錯誤", errorbank.WithCause(err))).Build()
		}

		WithCaller(c, &Caller{
			ID:          record.ID,
			DisplayName: record.Name(),
			Email:       record.Email,
			Roles:       roles,
			Admin:       rbac.IsAdmin(roles),
		})
		return next(c)
	}
}

// Module provides the middleware and the directory binding.
var Module = fx.Options(
	fx.Provide(
		NewMiddleware,
		func(r *userrepo.Repository) Directory { return r },
	),
)
