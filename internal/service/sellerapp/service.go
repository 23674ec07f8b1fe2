package sellerapp

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fishtvlvoe/buygo/internal/dto"
	"github.com/fishtvlvoe/buygo/internal/entity"
	"github.com/fishtvlvoe/buygo/internal/identity"
	"github.com/fishtvlvoe/buygo/internal/rbac"
	sellerapprepo "github.com/fishtvlvoe/buygo/internal/repository/sellerapp"
	"github.com/fishtvlvoe/buygo/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/fishtvlvoe/buygo/service/sellerapp")

const timeLayout = "2006-01-02 15:04:05"

// SubmitRequest carries a new application's fields.
type SubmitRequest struct {
	RealName     string `json:"real_name"`
	Phone        string `json:"phone"`
	LineID       string `json:"line_id"`
	Reason       string `json:"reason"`
	ProductTypes string `json:"product_types"`
}

// ReviewRequest carries an admin's review decision.
type ReviewRequest struct {
	Status     string `json:"status"`
	ReviewNote string `json:"review_note"`
}

// Store is the application persistence surface the service depends on.
type Store interface {
	Create(ctx context.Context, app *entity.SellerApplication) error
	GetByID(ctx context.Context, id int64) (*entity.SellerApplication, error)
	List(ctx context.Context, status string) ([]entity.SellerApplication, error)
	PendingByUser(ctx context.Context, userID int64) (*entity.SellerApplication, error)
	Review(ctx context.Context, app *entity.SellerApplication) error
}

// RoleAssigner grants managed roles to users.
type RoleAssigner interface {
	AssignRole(ctx context.Context, userID int64, role rbac.Role) error
}

// Service implements the seller application workflow.
type Service struct {
	store  Store
	roles  RoleAssigner
	logger *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Store  Store
	Roles  RoleAssigner
	Logger *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{store: p.Store, roles: p.Roles, logger: p.Logger}
}

// Submit files a new application for the caller. A user can only have one
// pending application at a time.
func (s *Service) Submit(ctx context.Context, caller *identity.Caller, req SubmitRequest) (*dto.SellerApplication, error) {
	ctx, span := serviceTracer.Start(ctx, "SellerAppService.Submit", trace.WithAttributes(attribute.Int64("caller.id", caller.ID)))
	defer span.End()

	if strings.TrimSpace(req.RealName) == "" || strings.TrimSpace(req.Phone) == "" || strings.TrimSpace(req.LineID) == "" {
		return nil, errorbank.BadRequest("請填寫所有必填欄位")
	}

	if _, err := s.store.PendingByUser(ctx, caller.ID); err == nil {
		return nil, errorbank.Conflict("您已有待審核的申請")
	} else if !errors.Is(err, sellerapprepo.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("無法送出申請", errorbank.WithCause(err))
	}

	app := &entity.SellerApplication{
		UserID:       caller.ID,
		Status:       entity.ApplicationPending,
		RealName:     strings.TrimSpace(req.RealName),
		Phone:        strings.TrimSpace(req.Phone),
		LineID:       strings.TrimSpace(req.LineID),
		Reason:       req.Reason,
		ProductTypes: req.ProductTypes,
		SubmittedAt:  time.Now().UTC(),
	}
	if err := s.store.Create(ctx, app); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return nil, errorbank.Internal("無法送出申請", errorbank.WithCause(err))
	}

	s.logger.Info("seller application submitted",
		zap.Int64("application_id", app.ID),
		zap.Int64("user_id", caller.ID),
	)
	return toDTO(app), nil
}

// List returns applications filtered by status. An empty or "all" status
// returns everything.
func (s *Service) List(ctx context.Context, status string) ([]dto.SellerApplication, error) {
	ctx, span := serviceTracer.Start(ctx, "SellerAppService.List")
	defer span.End()

	if status == "all" {
		status = ""
	}
	apps, err := s.store.List(ctx, status)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("無法載入申請", errorbank.WithCause(err))
	}

	out := make([]dto.SellerApplication, 0, len(apps))
	for i := range apps {
		out = append(out, *toDTO(&apps[i]))
	}
	return out, nil
}

// Review records an admin decision on a pending application. Approval also
// grants the applicant the seller role.
func (s *Service) Review(ctx context.Context, caller *identity.Caller, id int64, req ReviewRequest) (*dto.SellerApplication, error) {
	ctx, span := serviceTracer.Start(ctx, "SellerAppService.Review", trace.WithAttributes(
		attribute.Int64("application.id", id),
		attribute.Int64("caller.id", caller.ID),
	))
	defer span.End()

	if req.Status != entity.ApplicationApproved && req.Status != entity.ApplicationRejected {
		return nil, errorbank.BadRequest("無效的審核結果")
	}

	app, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sellerapprepo.ErrNotFound) {
			return nil, errorbank.NotFound("申請不存在")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("無法載入申請", errorbank.WithCause(err))
	}
	if app.Status != entity.ApplicationPending {
		return nil, errorbank.Conflict("此申請已被審核")
	}

	now := time.Now().UTC()
	app.Status = req.Status
	app.ReviewedAt.Time, app.ReviewedAt.Valid = now, true
	app.ReviewedBy.Int64, app.ReviewedBy.Valid = caller.ID, true
	if note := strings.TrimSpace(req.ReviewNote); note != "" {
		app.ReviewNote.String, app.ReviewNote.Valid = note, true
	}

	if err := s.store.Review(ctx, app); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return nil, errorbank.Internal("審核失敗", errorbank.WithCause(err))
	}

	if req.Status == entity.ApplicationApproved {
		if err := s.roles.AssignRole(ctx, app.UserID, rbac.RoleSeller); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "role assignment failed")
			return nil, errorbank.Internal("審核失敗", errorbank.WithCause(err))
		}
	}

	s.logger.Info("seller application reviewed",
		zap.Int64("application_id", app.ID),
		zap.String("status", app.Status),
		zap.Int64("reviewed_by", caller.ID),
	)
	return toDTO(app), nil
}

func toDTO(app *entity.SellerApplication) *dto.SellerApplication {
	out := &dto.SellerApplication{
		ID:           app.ID,
		UserID:       app.UserID,
		Status:       app.Status,
		RealName:     app.RealName,
		Phone:        app.Phone,
		LineID:       app.LineID,
		Reason:       app.Reason,
		ProductTypes: app.ProductTypes,
		SubmittedAt:  app.SubmittedAt.Format(timeLayout),
	}
	if app.ReviewedAt.Valid {
		out.ReviewedAt = app.ReviewedAt.Time.Format(timeLayout)
	}
	if app.ReviewedBy.Valid {
		out.ReviewedBy = app.ReviewedBy.Int64
	}
	if app.ReviewNote.Valid {
		out.ReviewNote = app.ReviewNote.String
	}
	return out
}
