package app

import (
	"go.uber.org/fx"

	"github.com/fishtvlvoe/buygo/internal/cache"
	"github.com/fishtvlvoe/buygo/internal/commerce"
	"github.com/fishtvlvoe/buygo/internal/config"
	"github.com/fishtvlvoe/buygo/internal/database"
	"github.com/fishtvlvoe/buygo/internal/identity"
	"github.com/fishtvlvoe/buygo/internal/logger"
	"github.com/fishtvlvoe/buygo/internal/messaging"
	"github.com/fishtvlvoe/buygo/internal/observability"
	"github.com/fishtvlvoe/buygo/internal/rbac"
	repositoryhelper "github.com/fishtvlvoe/buygo/internal/repository/helper"
	repositorylinebinding "github.com/fishtvlvoe/buygo/internal/repository/linebinding"
	repositoryorder "github.com/fishtvlvoe/buygo/internal/repository/order"
	repositoryproduct "github.com/fishtvlvoe/buygo/internal/repository/product"
	repositorysellerapp "github.com/fishtvlvoe/buygo/internal/repository/sellerapp"
	repositoryuser "github.com/fishtvlvoe/buygo/internal/repository/user"
	httpserver "github.com/fishtvlvoe/buygo/internal/server/http"
	servicehelper "github.com/fishtvlvoe/buygo/internal/service/helper"
	servicelinebinding "github.com/fishtvlvoe/buygo/internal/service/linebinding"
	serviceorder "github.com/fishtvlvoe/buygo/internal/service/order"
	serviceproduct "github.com/fishtvlvoe/buygo/internal/service/product"
	servicesellerapp "github.com/fishtvlvoe/buygo/internal/service/sellerapp"
	transporthttp "github.com/fishtvlvoe/buygo/internal/transport/http"
	"github.com/fishtvlvoe/buygo/internal/worker"
	workerorder "github.com/fishtvlvoe/buygo/internal/worker/order"
)

// bindings adapts concrete repositories onto the narrow interfaces the
// service layer consumes.
var bindings = fx.Provide(
	func(r *repositoryorder.Repository) serviceorder.Store { return r },
	func(r *repositoryuser.Repository) serviceorder.Directory { return r },
	func(r *repositoryproduct.Repository) serviceproduct.Store { return r },
	func(r *repositorysellerapp.Repository) servicesellerapp.Store { return r },
	func(r *repositoryuser.Repository) servicesellerapp.RoleAssigner { return r },
	func(r *repositoryhelper.Repository) servicehelper.Store { return r },
	func(r *repositoryuser.Repository) servicehelper.Directory { return r },
	func(r *repositoryuser.Repository) servicehelper.RoleAssigner { return r },
	func(r *repositorylinebinding.Repository) servicelinebinding.Store { return r },
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	config.Module,
	logger.Module,
	cache.Module,
	database.Module,
	commerce.Module,
	messaging.Module,
	observability.Module,
	repositoryuser.Module,
	repositoryorder.Module,
	repositoryproduct.Module,
	repositorysellerapp.Module,
	repositoryhelper.Module,
	repositorylinebinding.Module,
	bindings,
	serviceorder.Module,
	serviceproduct.Module,
	servicesellerapp.Module,
	servicehelper.Module,
	servicelinebinding.Module,
)

// HTTP wires the HTTP transport on top of the core modules.
var HTTP = fx.Options(
	Core,
	rbac.Module,
	identity.Module,
	httpserver.Module,
	transporthttp.Module,
)

// Worker exposes background worker processing.
var Worker = fx.Options(
	Core,
	rbac.Module,
	worker.Module,
	workerorder.Module,
)

// Module is the default application wiring (HTTP only).
var Module = HTTP
