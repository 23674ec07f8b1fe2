package user

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fishtvlvoe/buygo/internal/cache"
	"github.com/fishtvlvoe/buygo/internal/commerce"
	"github.com/fishtvlvoe/buygo/internal/config"
	"github.com/fishtvlvoe/buygo/internal/database"
	"github.com/fishtvlvoe/buygo/internal/entity"
	"github.com/fishtvlvoe/buygo/internal/rbac"
)

var repoTracer = otel.Tracer("github.com/fishtvlvoe/buygo/repository/user")

// ErrNotFound is returned when a platform user is missing.
var ErrNotFound = errors.New("user not found")

// Record is a platform user row. DisplayName may be empty; Name() applies the
// login fallback the marketplace uses everywhere.
type Record struct {
	ID          int64  `bun:"id"`
	Login       string `bun:"user_login"`
	DisplayName string `bun:"display_name"`
	Email       string `bun:"user_email"`
}

// Name returns the display name, falling back to the login.
func (r *Record) Name() string {
	if r.DisplayName != "" {
		return r.DisplayName
	}
	return r.Login
}

// Repository reads the platform user directory and manages marketplace role
// assignments. Directory lookups are cached: the same users appear on every
// order and product row.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
	tables commerce.Tables
	cache  cache.Store
	ttl    time.Duration
	logger *zap.Logger
}

// NewRepository wires a user repository.
func NewRepository(conns *database.Connections, tables commerce.Tables, store cache.Store, cfg config.Config, logger *zap.Logger) *Repository {
	return &Repository{
		writer: conns.Writer,
		reader: conns.Reader,
		tables: tables,
		cache:  store,
		ttl:    cfg.Cache.DefaultTTL,
		logger: logger,
	}
}

// Lookup fetches a platform user by id, consulting the cache first.
func (r *Repository) Lookup(ctx context.Context, id int64) (*Record, error) {
	ctx, span := repoTracer.Start(ctx, "UserRepository.Lookup", trace.WithAttributes(attribute.Int64("user.id", id)))
	defer span.End()

	if rec, err := r.fromCache(ctx, id); err == nil {
		return rec, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		r.logger.Warn("user cache read failed", zap.Int64("id", id), zap.Error(err))
	}

	rec := new(Record)
	err := r.reader.NewSelect().
		TableExpr("? AS u", bun.Name(r.tables.Users())).
		ColumnExpr("u.id, u.user_login, u.display_name, u.user_email").
		Where("u.id = ?", id).
		Scan(ctx, rec)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}

	if err := r.toCache(ctx, rec); err != nil {
		r.logger.Warn("user cache write failed", zap.Int64("id", id), zap.Error(err))
	}
	return rec, nil
}

// RolesOf loads the role labels assigned to a user.
func (r *Repository) RolesOf(ctx context.Context, id int64) (rbac.RoleSet, error) {
	ctx, span := repoTracer.Start(ctx, "UserRepository.RolesOf", trace.WithAttributes(attribute.Int64("user.id", id)))
	defer span.End()

	var names []string
	err := r.reader.NewSelect().
		Model((*entity.UserRole)(nil)).
		Column("role").
		Where("user_id = ?", id).
		Scan(ctx, &names)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}

	set := make(rbac.RoleSet, len(names))
	for _, n := range names {
		set[rbac.Role(n)] = struct{}{}
	}
	return set, nil
}

// AssignRole grants a role label to a user; an existing assignment is kept.
func (r *Repository) AssignRole(ctx context.Context, userID int64, role rbac.Role) error {
	ctx, span := repoTracer.Start(ctx, "UserRepository.AssignRole", trace.WithAttributes(
		attribute.Int64("user.id", userID),
		attribute.String("role", string(role)),
	))
	defer span.End()

	assignment := entity.UserRole{
		UserID:    userID,
		Role:      string(role),
		GrantedAt: time.Now().UTC(),
	}
	_, err := r.writer.NewInsert().Model(&assignment).
		On("CONFLICT (user_id, role) DO NOTHING").
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

func (r *Repository) cacheKey(id int64) string {
	return fmt.Sprintf("users:%d", id)
}

func (r *Repository) fromCache(ctx context.Context, id int64) (*Record, error) {
	if r.cache == nil {
		return nil, cache.ErrCacheMiss
	}
	raw, err := r.cache.Get(ctx, r.cacheKey(id))
	if err != nil {
		return nil, err
	}
	rec := new(Record)
	if err := json.Unmarshal(raw, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *Repository) toCache(ctx context.Context, rec *Record) error {
	if r.cache == nil || rec == nil {
		return nil
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return r.cache.Set(ctx, r.cacheKey(rec.ID), raw, r.ttl)
}
