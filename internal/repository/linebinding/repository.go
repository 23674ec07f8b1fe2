package linebinding

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fishtvlvoe/buygo/internal/database"
	"github.com/fishtvlvoe/buygo/internal/entity"
)

var repoTracer = otel.Tracer("github.com/fishtvlvoe/buygo/repository/linebinding")

// ErrNotFound is returned when a binding code is unknown.
var ErrNotFound = errors.New("binding not found")

// Repository stores LINE binding codes.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a binding code repository.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{writer: conns.Writer, reader: conns.Reader}
}

// Create persists a new binding code. The code column is unique; a collision
// surfaces as an insert error for the caller to retry with a fresh code.
func (r *Repository) Create(ctx context.Context, binding *entity.LineBinding) error {
	ctx, span := repoTracer.Start(ctx, "LineBindingRepository.Create", trace.WithAttributes(attribute.Int64("user.id", binding.UserID)))
	defer span.End()

	_, err := r.writer.NewInsert().Model(binding).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

// GetByCode fetches a binding by its code.
func (r *Repository) GetByCode(ctx context.Context, code string) (*entity.LineBinding, error) {
	ctx, span := repoTracer.Start(ctx, "LineBindingRepository.GetByCode")
	defer span.End()

	binding := new(entity.LineBinding)
	err := r.reader.NewSelect().Model(binding).Where("binding_code = ?", code).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return binding, nil
}

// ExpirePending marks every outstanding pending code of a user as expired.
func (r *Repository) ExpirePending(ctx context.Context, userID int64) error {
	ctx, span := repoTracer.Start(ctx, "LineBindingRepository.ExpirePending", trace.WithAttributes(attribute.Int64("user.id", userID)))
	defer span.End()

	_, err := r.writer.NewUpdate().Model((*entity.LineBinding)(nil)).
		Set("status = ?", entity.BindingExpired).
		Where("user_id = ?", userID).
		Where("status = ?", entity.BindingPending).
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
	}
	return err
}

// MarkExpired marks a single binding as expired.
func (r *Repository) MarkExpired(ctx context.Context, id int64) error {
	ctx, span := repoTracer.Start(ctx, "LineBindingRepository.MarkExpired", trace.WithAttributes(attribute.Int64("binding.id", id)))
	defer span.End()

	_, err := r.writer.NewUpdate().Model((*entity.LineBinding)(nil)).
		Set("status = ?", entity.BindingExpired).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
	}
	return err
}

// Complete finalises a pending binding with the LINE account id.
func (r *Repository) Complete(ctx context.Context, id int64, lineUID string, completedAt time.Time) error {
	ctx, span := repoTracer.Start(ctx, "LineBindingRepository.Complete", trace.WithAttributes(attribute.Int64("binding.id", id)))
	defer span.End()

	_, err := r.writer.NewUpdate().Model((*entity.LineBinding)(nil)).
		Set("status = ?", entity.BindingCompleted).
		Set("line_uid = ?", lineUID).
		Set("completed_at = ?", completedAt).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
	}
	return err
}
