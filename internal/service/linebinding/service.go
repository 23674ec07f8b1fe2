package linebinding

import (
	"context"
	"crypto/rand"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fishtvlvoe/buygo/internal/config"
	"github.com/fishtvlvoe/buygo/internal/dto"
	"github.com/fishtvlvoe/buygo/internal/entity"
	"github.com/fishtvlvoe/buygo/internal/identity"
	linebindingrepo "github.com/fishtvlvoe/buygo/internal/repository/linebinding"
	"github.com/fishtvlvoe/buygo/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/fishtvlvoe/buygo/service/linebinding")

const (
	timeLayout = "2006-01-02 15:04:05"
	codeLength = 6
	// ambiguous characters (0/O, 1/I) are excluded
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// ConfirmRequest completes a binding from the messaging webhook side.
type ConfirmRequest struct {
	Code    string `json:"code"`
	LineUID string `json:"line_uid"`
}

// Store is the binding persistence surface the service depends on.
type Store interface {
	Create(ctx context.Context, binding *entity.LineBinding) error
	GetByCode(ctx context.Context, code string) (*entity.LineBinding, error)
	ExpirePending(ctx context.Context, userID int64) error
	MarkExpired(ctx context.Context, id int64) error
	Complete(ctx context.Context, id int64, lineUID string, completedAt time.Time) error
}

// Service issues and confirms LINE binding codes.
type Service struct {
	store   Store
	logger  *zap.Logger
	codeTTL time.Duration
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Store  Store
	Config config.Config
	Logger *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		store:   p.Store,
		logger:  p.Logger,
		codeTTL: p.Config.Bindings.CodeTTL,
	}
}

// Generate issues a fresh binding code for the caller. Any outstanding
// pending code of the same user is superseded first.
func (s *Service) Generate(ctx context.Context, caller *identity.Caller) (*dto.LineBinding, error) {
	ctx, span := serviceTracer.Start(ctx, "LineBindingService.Generate", trace.WithAttributes(attribute.Int64("caller.id", caller.ID)))
	defer span.End()

	if err := s.store.ExpirePending(ctx, caller.ID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "expire pending failed")
		return nil, errorbank.Internal("無法產生綁定碼", errorbank.WithCause(err))
	}

	code, err := generateCode()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "code generation failed")
		return nil, errorbank.Internal("無法產生綁定碼", errorbank.WithCause(err))
	}

	now := time.Now().UTC()
	binding := &entity.LineBinding{
		UserID:      caller.ID,
		BindingCode: code,
		Status:      entity.BindingPending,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.codeTTL),
	}
	if err := s.store.Create(ctx, binding); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return nil, errorbank.Internal("無法產生綁定碼", errorbank.WithCause(err))
	}

	s.logger.Info("binding code issued",
		zap.Int64("binding_id", binding.ID),
		zap.Int64("user_id", caller.ID),
	)
	return toDTO(binding), nil
}

// Confirm completes a pending binding with the LINE account id. Unknown codes
// map to not found; an expired or already used code is gone.
func (s *Service) Confirm(ctx context.Context, req ConfirmRequest) error {
	ctx, span := serviceTracer.Start(ctx, "LineBindingService.Confirm")
	defer span.End()

	code := strings.ToUpper(strings.TrimSpace(req.Code))
	lineUID := strings.TrimSpace(req.LineUID)
	if code == "" || lineUID == "" {
		return errorbank.BadRequest("請提供綁定碼與 LINE 帳號")
	}

	binding, err := s.store.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, linebindingrepo.ErrNotFound) {
			return errorbank.NotFound("綁定碼不存在")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return errorbank.Internal("綁定失敗", errorbank.WithCause(err))
	}

	if binding.Status != entity.BindingPending {
		return errorbank.Gone("綁定碼已失效")
	}
	if time.Now().UTC().After(binding.ExpiresAt) {
		if err := s.store.MarkExpired(ctx, binding.ID); err != nil {
			s.logger.Warn("mark binding expired failed", zap.Int64("binding_id", binding.ID), zap.Error(err))
		}
		return errorbank.Gone("綁定碼已過期")
	}

	if err := s.store.Complete(ctx, binding.ID, lineUID, time.Now().UTC()); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return errorbank.Internal("綁定失敗", errorbank.WithCause(err))
	}

	s.logger.Info("binding completed",
		zap.Int64("binding_id", binding.ID),
		zap.Int64("user_id", binding.UserID),
	)
	return nil
}

func generateCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}

func toDTO(binding *entity.LineBinding) *dto.LineBinding {
	return &dto.LineBinding{
		ID:          binding.ID,
		BindingCode: binding.BindingCode,
		Status:      binding.Status,
		ExpiresAt:   binding.ExpiresAt.Format(timeLayout),
	}
}
