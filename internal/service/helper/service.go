package helper

import (
	"context"
	"errors"
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
	helperrepo "github.com/fishtvlvoe/buygo/internal/repository/helper"
	userrepo "github.com/fishtvlvoe/buygo/internal/repository/user"
	"github.com/fishtvlvoe/buygo/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/fishtvlvoe/buygo/service/helper")

const timeLayout = "2006-01-02 15:04:05"

// GrantRequest carries a new delegation's target and permissions.
type GrantRequest struct {
	HelperID    int64                 `json:"helper_id"`
	Permissions dto.HelperPermissions `json:"permissions"`
}

// Store is the grant persistence surface the service depends on.
type Store interface {
	Create(ctx context.Context, grant *entity.HelperGrant) error
	GetByID(ctx context.Context, id int64) (*entity.HelperGrant, error)
	List(ctx context.Context, sellerID int64) ([]entity.HelperGrant, error)
	UpdatePermissions(ctx context.Context, grant *entity.HelperGrant) error
	Delete(ctx context.Context, id int64) error
}

// Directory resolves platform users for enrichment.
type Directory interface {
	Lookup(ctx context.Context, id int64) (*userrepo.Record, error)
}

// RoleAssigner grants managed roles to users.
type RoleAssigner interface {
	AssignRole(ctx context.Context, userID int64, role rbac.Role) error
}

// Service implements helper permission delegation.
type Service struct {
	store     Store
	directory Directory
	roles     RoleAssigner
	logger    *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Store     Store
	Directory Directory
	Roles     RoleAssigner
	Logger    *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{store: p.Store, directory: p.Directory, roles: p.Roles, logger: p.Logger}
}

// List returns grants visible to the caller: admins see all, sellers only
// their own.
func (s *Service) List(ctx context.Context, caller *identity.Caller) ([]dto.HelperGrant, error) {
	ctx, span := serviceTracer.Start(ctx, "HelperService.List", trace.WithAttributes(attribute.Int64("caller.id", caller.ID)))
	defer span.End()

	sellerID := caller.ID
	if caller.Admin {
		sellerID = 0
	}
	grants, err := s.store.List(ctx, sellerID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("無法載入小幫手", errorbank.WithCause(err))
	}

	out := make([]dto.HelperGrant, 0, len(grants))
	for i := range grants {
		item := toDTO(&grants[i])
		if record, err := s.directory.Lookup(ctx, grants[i].HelperID); err == nil {
			item.HelperName = record.Name()
		} else if !errors.Is(err, userrepo.ErrNotFound) {
			s.logger.Warn("helper user lookup failed", zap.Int64("user_id", grants[i].HelperID), zap.Error(err))
		}
		out = append(out, *item)
	}
	return out, nil
}

// Grant delegates permissions from the caller to another user and assigns the
// grantee the helper role. Self-grants and duplicate pairs are rejected.
func (s *Service) Grant(ctx context.Context, caller *identity.Caller, req GrantRequest) (*dto.HelperGrant, error) {
	ctx, span := serviceTracer.Start(ctx, "HelperService.Grant", trace.WithAttributes(
		attribute.Int64("caller.id", caller.ID),
		attribute.Int64("helper.id", req.HelperID),
	))
	defer span.End()

	if req.HelperID <= 0 {
		return nil, errorbank.BadRequest("請指定小幫手")
	}
	if req.HelperID == caller.ID {
		return nil, errorbank.BadRequest("不能將自己設為小幫手")
	}

	if _, err := s.directory.Lookup(ctx, req.HelperID); err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return nil, errorbank.NotFound("使用者不存在")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "user lookup failed")
		return nil, errorbank.Internal("無法新增小幫手", errorbank.WithCause(err))
	}

	grant := &entity.HelperGrant{
		SellerID:          caller.ID,
		HelperID:          req.HelperID,
		CanViewOrders:     req.Permissions.CanViewOrders,
		CanUpdateOrders:   req.Permissions.CanUpdateOrders,
		CanManageProducts: req.Permissions.CanManageProducts,
		CanReplyCustomers: req.Permissions.CanReplyCustomers,
		AssignedAt:        time.Now().UTC(),
		AssignedBy:        caller.ID,
	}
	if err := s.store.Create(ctx, grant); err != nil {
		if errors.Is(err, helperrepo.ErrDuplicate) {
			return nil, errorbank.Conflict("此使用者已是您的小幫手")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return nil, errorbank.Internal("無法新增小幫手", errorbank.WithCause(err))
	}

	if err := s.roles.AssignRole(ctx, req.HelperID, rbac.RoleHelper); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "role assignment failed")
		return nil, errorbank.Internal("無法新增小幫手", errorbank.WithCause(err))
	}

	s.logger.Info("helper granted",
		zap.Int64("grant_id", grant.ID),
		zap.Int64("seller_id", caller.ID),
		zap.Int64("helper_id", req.HelperID),
	)
	return toDTO(grant), nil
}

// UpdatePermissions rewrites a grant's permission flags. Only the owning
// seller or an admin may do so.
func (s *Service) UpdatePermissions(ctx context.Context, caller *identity.Caller, id int64, perms dto.HelperPermissions) (*dto.HelperGrant, error) {
	ctx, span := serviceTracer.Start(ctx, "HelperService.UpdatePermissions", trace.WithAttributes(attribute.Int64("grant.id", id)))
	defer span.End()

	grant, err := s.authorizedGrant(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	grant.CanViewOrders = perms.CanViewOrders
	grant.CanUpdateOrders = perms.CanUpdateOrders
	grant.CanManageProducts = perms.CanManageProducts
	grant.CanReplyCustomers = perms.CanReplyCustomers

	if err := s.store.UpdatePermissions(ctx, grant); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return nil, errorbank.Internal("更新失敗", errorbank.WithCause(err))
	}
	return toDTO(grant), nil
}

// Revoke removes a grant. Only the owning seller or an admin may do so.
func (s *Service) Revoke(ctx context.Context, caller *identity.Caller, id int64) error {
	ctx, span := serviceTracer.Start(ctx, "HelperService.Revoke", trace.WithAttributes(attribute.Int64("grant.id", id)))
	defer span.End()

	grant, err := s.authorizedGrant(ctx, caller, id)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, grant.ID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		return errorbank.Internal("刪除失敗", errorbank.WithCause(err))
	}

	s.logger.Info("helper revoked",
		zap.Int64("grant_id", grant.ID),
		zap.Int64("seller_id", grant.SellerID),
		zap.Int64("helper_id", grant.HelperID),
	)
	return nil
}

func (s *Service) authorizedGrant(ctx context.Context, caller *identity.Caller, id int64) (*entity.HelperGrant, error) {
	grant, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, helperrepo.ErrNotFound) {
			return nil, errorbank.NotFound("小幫手不存在")
		}
		return nil, errorbank.Internal("無法載入小幫手", errorbank.WithCause(err))
	}
	if !caller.Admin && grant.SellerID != caller.ID {
		return nil, errorbank.Forbidden("權限不足")
	}
	return grant, nil
}

func toDTO(grant *entity.HelperGrant) *dto.HelperGrant {
	return &dto.HelperGrant{
		ID:       grant.ID,
		SellerID: grant.SellerID,
		HelperID: grant.HelperID,
		Permissions: dto.HelperPermissions{
			CanViewOrders:     grant.CanViewOrders,
			CanUpdateOrders:   grant.CanUpdateOrders,
			CanManageProducts: grant.CanManageProducts,
			CanReplyCustomers: grant.CanReplyCustomers,
		},
		AssignedAt: grant.AssignedAt.Format(timeLayout),
		AssignedBy: grant.AssignedBy,
	}
}
