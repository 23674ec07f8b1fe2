package sellerapp

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

var repoTracer = otel.Tracer("github.com/fishtvlvoe/buygo/repository/sellerapp")

// ErrNotFound is returned when an application is missing.
var ErrNotFound = errors.New("application not found")

// Repository stores seller applications.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a seller application repository.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{writer: conns.Writer, reader: conns.Reader}
}

// Create persists a new application.
func (r *Repository) Create(ctx context.Context, app *entity.SellerApplication) error {
	ctx, span := repoTracer.Start(ctx, "SellerAppRepository.Create", trace.WithAttributes(attribute.Int64("user.id", app.UserID)))
	defer span.End()

	_, err := r.writer.NewInsert().Model(app).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

// GetByID fetches an application by id.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.SellerApplication, error) {
	ctx, span := repoTracer.Start(ctx, "SellerAppRepository.GetByID", trace.WithAttributes(attribute.Int64("application.id", id)))
	defer span.End()

	app := new(entity.SellerApplication)
	err := r.reader.NewSelect().Model(app).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return app, nil
}

// List returns applications, optionally filtered by status, newest first.
func (r *Repository) List(ctx context.Context, status string) ([]entity.SellerApplication, error) {
	ctx, span := repoTracer.Start(ctx, "SellerAppRepository.List")
	defer span.End()

	var apps []entity.SellerApplication
	q := r.reader.NewSelect().Model(&apps)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.OrderExpr("submitted_at DESC").Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return apps, nil
}

// PendingByUser returns the user's outstanding application, if any.
func (r *Repository) PendingByUser(ctx context.Context, userID int64) (*entity.SellerApplication, error) {
	ctx, span := repoTracer.Start(ctx, "SellerAppRepository.PendingByUser", trace.WithAttributes(attribute.Int64("user.id", userID)))
	defer span.End()

	app := new(entity.SellerApplication)
	err := r.reader.NewSelect().Model(app).
		Where("user_id = ?", userID).
		Where("status = ?", entity.ApplicationPending).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return app, nil
}

// Review stamps the review outcome on an application.
func (r *Repository) Review(ctx context.Context, app *entity.SellerApplication) error {
	ctx, span := repoTracer.Start(ctx, "SellerAppRepository.Review", trace.WithAttributes(attribute.Int64("application.id", app.ID)))
	defer span.End()

	_, err := r.writer.NewUpdate().Model(app).
		Column("status", "reviewed_at", "reviewed_by", "review_note").
		WherePK().
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
	}
	return err
}
