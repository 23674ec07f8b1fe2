package rbac

import (
	"context"

	"github.com/uptrace/bun"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fishtvlvoe/buygo/internal/database"
	"github.com/fishtvlvoe/buygo/internal/entity"
)

// Registry persists the managed role definitions. Registration is idempotent:
// a role that already exists is left untouched, even when its capability set
// differs from the current code. Updating definitions in place is out of
// scope.
type Registry struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewRegistry builds a Registry backed by the primary connection.
func NewRegistry(conns *database.Connections, logger *zap.Logger) *Registry {
	return &Registry{db: conns.Writer, logger: logger}
}

// EnsureRoles registers every managed role that does not exist yet.
func (r *Registry) EnsureRoles(ctx context.Context) error {
	for _, role := range ManagedRoles {
		def := entity.RoleDefinition{
			Name:         string(role),
			Label:        role.Label(),
			Capabilities: role.Capabilities(),
		}
		_, err := r.db.NewInsert().Model(&def).
			On("CONFLICT (name) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return err
		}
	}

	r.logger.Info("marketplace roles ensured", zap.Int("count", len(ManagedRoles)))
	return nil
}

// Module provides the Registry and runs role registration at startup.
var Module = fx.Options(
	fx.Provide(NewRegistry),
	fx.Invoke(func(lc fx.Lifecycle, registry *Registry) {
		lc.Append(fx.Hook{
			OnStart: registry.EnsureRoles,
		})
	}),
)
