package helper

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fishtvlvoe/buygo/internal/database"
	"github.com/fishtvlvoe/buygo/internal/entity"
)

var repoTracer = otel.Tracer("github.com/fishtvlvoe/buygo/repository/helper")

var (
	// ErrNotFound is returned when a grant is missing.
	ErrNotFound = errors.New("helper grant not found")
	// ErrDuplicate is returned when the seller already granted this helper.
	ErrDuplicate = errors.New("helper grant already exists")
)

// Repository stores helper permission grants.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a helper grant repository.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{writer: conns.Writer, reader: conns.Reader}
}

// Create persists a new grant. The (seller, helper) pair is unique.
func (r *Repository) Create(ctx context.Context, grant *entity.HelperGrant) error {
	ctx, span := repoTracer.Start(ctx, "HelperRepository.Create", trace.WithAttributes(
		attribute.Int64("seller.id", grant.SellerID),
		attribute.Int64("helper.id", grant.HelperID),
	))
	defer span.End()

	exists, err := r.reader.NewSelect().Model((*entity.HelperGrant)(nil)).
		Where("seller_id = ?", grant.SellerID).
		Where("helper_id = ?", grant.HelperID).
		Exists(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "exists check failed")
		return err
	}
	if exists {
		return ErrDuplicate
	}

	if _, err := r.writer.NewInsert().Model(grant).Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return err
	}
	return nil
}

// GetByID fetches a grant by id.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.HelperGrant, error) {
	ctx, span := repoTracer.Start(ctx, "HelperRepository.GetByID", trace.WithAttributes(attribute.Int64("grant.id", id)))
	defer span.End()

	grant := new(entity.HelperGrant)
	err := r.reader.NewSelect().Model(grant).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return grant, nil
}

// List returns all grants; sellerID > 0 restricts to one seller's grants.
func (r *Repository) List(ctx context.Context, sellerID int64) ([]entity.HelperGrant, error) {
	ctx, span := repoTracer.Start(ctx, "HelperRepository.List", trace.WithAttributes(attribute.Int64("seller.id", sellerID)))
	defer span.End()

	var grants []entity.HelperGrant
	q := r.reader.NewSelect().Model(&grants)
	if sellerID > 0 {
		q = q.Where("seller_id = ?", sellerID)
	}
	if err := q.OrderExpr("assigned_at DESC").Scan(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return grants, nil
}

// UpdatePermissions rewrites the four permission flags of a grant.
func (r *Repository) UpdatePermissions(ctx context.Context, grant *entity.HelperGrant) error {
	ctx, span := repoTracer.Start(ctx, "HelperRepository.UpdatePermissions", trace.WithAttributes(attribute.Int64("grant.id", grant.ID)))
	defer span.End()

	_, err := r.writer.NewUpdate().Model(grant).
		Column("can_view_orders", "can_update_orders", "can_manage_products", "can_reply_customers").
		WherePK().
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
	}
	return err
}

// Delete removes a grant.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	ctx, span := repoTracer.Start(ctx, "HelperRepository.Delete", trace.WithAttributes(attribute.Int64("grant.id", id)))
	defer span.End()

	_, err := r.writer.NewDelete().Model((*entity.HelperGrant)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
	}
	return err
}
