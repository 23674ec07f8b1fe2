package seeder

import (
	"context"

	"github.com/uptrace/bun"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fishtvlvoe/buygo/internal/commerce"
	"github.com/fishtvlvoe/buygo/internal/database"
	"github.com/fishtvlvoe/buygo/internal/entity"
	"github.com/fishtvlvoe/buygo/internal/rbac"
)

// Module provides the Seeder to Fx.
var Module = fx.Options(
	fx.Provide(rbac.NewRegistry),
	fx.Provide(New),
)

// Seeder inserts demo users and role assignments for local development. The
// platform user table is external, so users are written with explicit ids.
type Seeder struct {
	db       *bun.DB
	tables   commerce.Tables
	registry *rbac.Registry
	logger   *zap.Logger
}

type demoUser struct {
	id          int64
	login       string
	displayName string
	email       string
	role        rbac.Role
}

var demoUsers = []demoUser{
	{9001, "demo-admin", "Demo Admin", "admin@buygo.test", rbac.RoleAdmin},
	{9002, "demo-seller", "Demo Seller", "seller@buygo.test", rbac.RoleSeller},
	{9003, "demo-helper", "Demo Helper", "helper@buygo.test", rbac.RoleHelper},
	{9004, "demo-buyer", "Demo Buyer", "buyer@buygo.test", rbac.RoleBuyer},
}

// New constructs a Seeder backed by the primary database connection.
func New(conns *database.Connections, tables commerce.Tables, registry *rbac.Registry, logger *zap.Logger) *Seeder {
	return &Seeder{db: conns.Writer, tables: tables, registry: registry, logger: logger}
}

// Roles registers the managed role definitions if missing.
func (s *Seeder) Roles(ctx context.Context) error {
	return s.registry.EnsureRoles(ctx)
}

// Users seeds demo platform users and their marketplace roles if missing.
func (s *Seeder) Users(ctx context.Context) error {
	for _, u := range demoUsers {
		_, err := s.db.ExecContext(ctx,
			"INSERT INTO "+s.tables.Users()+" (id, user_login, display_name, user_email) VALUES (?, ?, ?, ?) ON CONFLICT (id) DO NOTHING",
			u.id, u.login, u.displayName, u.email,
		)
		if err != nil {
			return err
		}

		assignment := entity.UserRole{UserID: u.id, Role: string(u.role)}
		_, err = s.db.NewInsert().Model(&assignment).
			On("CONFLICT (user_id, role) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return err
		}
	}

	if s.logger != nil {
		s.logger.Info("seeded demo users", zap.Int("count", len(demoUsers)))
	}
	return nil
}
