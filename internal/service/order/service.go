package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fishtvlvoe/buygo/internal/commerce"
	"github.com/fishtvlvoe/buygo/internal/config"
	"github.com/fishtvlvoe/buygo/internal/dto"
	"github.com/fishtvlvoe/buygo/internal/identity"
	"github.com/fishtvlvoe/buygo/internal/messaging"
	orderrepo "github.com/fishtvlvoe/buygo/internal/repository/order"
	userrepo "github.com/fishtvlvoe/buygo/internal/repository/user"
	"github.com/fishtvlvoe/buygo/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/fishtvlvoe/buygo/service/order")

const timeLayout = "2006-01-02 15:04:05"

// Order statuses accepted by the mutation path.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
	StatusRefunded   = "refunded"
)

var validStatuses = map[string]struct{}{
	StatusPending:    {},
	StatusProcessing: {},
	StatusCompleted:  {},
	StatusCancelled:  {},
	StatusRefunded:   {},
}

var validPaymentStatuses = map[string]struct{}{
	"pending":            {},
	"paid":               {},
	"refunded":           {},
	"failed":             {},
	"partially_paid":     {},
	"partially_refunded": {},
}

// ListFilter is the raw listing filter from the request.
type ListFilter struct {
	Status string
	Search string
}

// UpdatePatch carries the two mutable order fields. Nil means absent.
type UpdatePatch struct {
	Status        *string `json:"status"`
	PaymentStatus *string `json:"payment_status"`
}

// Store is the order persistence surface the service depends on.
type Store interface {
	List(ctx context.Context, scope commerce.Scope, query orderrepo.Query) ([]orderrepo.Row, error)
	GetByID(ctx context.Context, scope commerce.Scope, id int64) (*orderrepo.Row, error)
	Items(ctx context.Context, orderID int64) ([]orderrepo.ItemRow, error)
	ItemCount(ctx context.Context, orderID int64) (int, error)
	SellerIDs(ctx context.Context, orderID int64) ([]int64, error)
	Update(ctx context.Context, id int64, changes map[string]any) error
}

// Directory resolves platform users for enrichment.
type Directory interface {
	Lookup(ctx context.Context, id int64) (*userrepo.Record, error)
}

// OrderUpdatedEvent is emitted after a successful order mutation.
type OrderUpdatedEvent struct {
	OrderID  int64             `json:"order_id"`
	Changes  map[string]string `json:"changes"`
	Previous PreviousState     `json:"previous"`
}

// PreviousState snapshots the mutable fields before the update.
type PreviousState struct {
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
	CompletedAt   string `json:"completed_at,omitempty"`
}

// Service implements scoped order reporting and the narrow mutation path.
type Service struct {
	store            Store
	directory        Directory
	publisher        messaging.Client
	logger           *zap.Logger
	messagingEnabled bool
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Store     Store
	Directory Directory
	Config    config.Config
	Logger    *zap.Logger
	Publisher messaging.Client
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		store:            p.Store,
		directory:        p.Directory,
		publisher:        p.Publisher,
		logger:           p.Logger,
		messagingEnabled: p.Config.Messaging.Enabled,
	}
}

// BuildListQuery parses the raw filter into a repository query. A numeric
// search matches the order id exactly; anything else becomes a substring
// match on the customer name and email. The status token "all" disables the
// status filter.
func BuildListQuery(filter ListFilter) orderrepo.Query {
	q := orderrepo.Query{}
	if filter.Status != "" && filter.Status != "all" {
		q.Status = filter.Status
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		if id, err := strconv.ParseInt(search, 10, 64); err == nil {
			q.IDEquals = id
		} else {
			q.NameLike = search
		}
	}
	return q
}

// NormalizeTotal applies the stored-in-minor-units heuristic: totals above
// 10000 are assumed to be cents and divided by 100. Exactly 10000 is kept
// unchanged.
func NormalizeTotal(total float64) float64 {
	if total > 10000 {
		return total / 100
	}
	return total
}

// DerivePaymentStatus resolves the effective payment status: the explicit
// column wins, a completed order without one counts as paid, everything else
// is pending.
func DerivePaymentStatus(paymentStatus, status string) string {
	if paymentStatus != "" {
		return paymentStatus
	}
	if status == StatusCompleted {
		return "paid"
	}
	return "pending"
}

// List returns the caller-visible orders, enriched for the listing view.
func (s *Service) List(ctx context.Context, caller *identity.Caller, filter ListFilter) ([]dto.OrderSummary, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.List", trace.WithAttributes(
		attribute.Int64("caller.id", caller.ID),
		attribute.Bool("caller.admin", caller.Admin),
	))
	defer span.End()

	rows, err := s.store.List(ctx, scopeFor(caller), BuildListQuery(filter))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("無法載入訂單", errorbank.WithCause(err))
	}

	summaries := make([]dto.OrderSummary, 0, len(rows))
	for i := range rows {
		summaries = append(summaries, s.summarize(ctx, &rows[i]))
	}
	return summaries, nil
}

// Get returns a full order view including its item lines. Non-admin callers
// only see orders containing their own products; anything else reads as
// missing.
func (s *Service) Get(ctx context.Context, caller *identity.Caller, id int64) (*dto.OrderDetail, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Get", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	row, err := s.store.GetByID(ctx, scopeFor(caller), id)
	if err != nil {
		if errors.Is(err, orderrepo.ErrNotFound) {
			return nil, errorbank.NotFound("訂單不存在")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("無法載入訂單", errorbank.WithCause(err))
	}

	detail := &dto.OrderDetail{OrderSummary: s.summarize(ctx, row)}

	items, err := s.store.Items(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("無法載入訂單", errorbank.WithCause(err))
	}
	detail.Items = make([]dto.OrderItem, 0, len(items))
	for _, item := range items {
		detail.Items = append(detail.Items, dto.OrderItem{
			ID:          item.ID,
			ProductID:   item.PostID,
			ProductName: item.ProductName.String,
			Quantity:    item.Quantity.Int64,
			ItemPrice:   item.ItemPrice.Float64,
		})
	}
	detail.ItemCount = len(detail.Items)

	return detail, nil
}

// Update applies a status/payment-status patch to one order. Unrecognised
// values are dropped without surfacing an error; a patch with nothing left
// after validation is rejected as a no-op. The completion timestamp is
// stamped once, on the first transition into completed.
func (s *Service) Update(ctx context.Context, caller *identity.Caller, id int64, patch UpdatePatch) error {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Update", trace.WithAttributes(
		attribute.Int64("order.id", id),
		attribute.Int64("caller.id", caller.ID),
	))
	defer span.End()

	row, err := s.store.GetByID(ctx, scopeFor(caller), id)
	if err != nil {
		if errors.Is(err, orderrepo.ErrNotFound) {
			return errorbank.NotFound("訂單不存在")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return errorbank.Internal("無法載入訂單", errorbank.WithCause(err))
	}

	now := time.Now().UTC()
	changes := make(map[string]any)
	changed := make(map[string]string)

	if patch.Status != nil {
		if _, ok := validStatuses[*patch.Status]; ok {
			changes["status"] = *patch.Status
			changed["status"] = *patch.Status
			if *patch.Status == StatusCompleted && !row.CompletedAt.Valid {
				changes["completed_at"] = now
				changed["completed_at"] = now.Format(timeLayout)
			}
		}
	}
	if patch.PaymentStatus != nil {
		if _, ok := validPaymentStatuses[*patch.PaymentStatus]; ok {
			changes["payment_status"] = *patch.PaymentStatus
			changed["payment_status"] = *patch.PaymentStatus
		}
	}

	if len(changes) == 0 {
		return errorbank.BadRequest("沒有需要更新的資料")
	}
	changes["updated_at"] = now

	if err := s.store.Update(ctx, id, changes); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return errorbank.Internal("更新失敗", errorbank.WithCause(err))
	}

	s.publishOrderUpdated(ctx, id, changed, row)
	return nil
}

func (s *Service) publishOrderUpdated(ctx context.Context, id int64, changed map[string]string, previous *orderrepo.Row) {
	if !s.messagingEnabled || s.publisher == nil {
		return
	}
	event := OrderUpdatedEvent{
		OrderID: id,
		Changes: changed,
		Previous: PreviousState{
			Status:        previous.Status.String,
			PaymentStatus: previous.PaymentStatus.String,
		},
	}
	if previous.CompletedAt.Valid {
		event.Previous.CompletedAt = previous.CompletedAt.Time.Format(timeLayout)
	}

	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("marshal order updated", zap.Error(err))
		return
	}
	if err := s.publisher.Publish(ctx, []byte(fmt.Sprintf("order-%d", id)), payload); err != nil {
		s.logger.Error("publish order updated", zap.Int64("order_id", id), zap.Error(err))
	}
}

func (s *Service) summarize(ctx context.Context, row *orderrepo.Row) dto.OrderSummary {
	summary := dto.OrderSummary{
		ID:          row.ID,
		OrderNumber: fmt.Sprintf("#%d", row.ID),
		Status:      row.Status.String,
		Total:       NormalizeTotal(row.TotalAmount.Float64),
		Currency:    row.Currency.String,
	}
	if summary.Status == "" {
		summary.Status = StatusPending
	}
	if summary.Currency == "" {
		summary.Currency = "TWD"
	}
	summary.PaymentStatus = DerivePaymentStatus(row.PaymentStatus.String, row.Status.String)
	if row.CreatedAt.Valid {
		summary.CreatedAt = row.CreatedAt.Time.Format(timeLayout)
	}

	summary.CustomerName, summary.CustomerEmail = s.resolveCustomer(ctx, row)

	count, err := s.store.ItemCount(ctx, row.ID)
	if err != nil {
		s.logger.Warn("order item count failed", zap.Int64("order_id", row.ID), zap.Error(err))
	}
	summary.ItemCount = count

	summary.Sellers = s.resolveSellers(ctx, row.ID)
	return summary
}

func (s *Service) resolveCustomer(ctx context.Context, row *orderrepo.Row) (string, string) {
	name := strings.TrimSpace(strings.TrimSpace(row.FirstName.String) + " " + strings.TrimSpace(row.LastName.String))
	email := row.Email.String

	if name == "" && row.UserID.Valid {
		record, err := s.directory.Lookup(ctx, row.UserID.Int64)
		if err == nil {
			name = record.Name()
			if email == "" {
				email = record.Email
			}
		} else if !errors.Is(err, userrepo.ErrNotFound) {
			s.logger.Warn("customer user lookup failed", zap.Int64("user_id", row.UserID.Int64), zap.Error(err))
		}
	}

	if name == "" {
		name = "Guest"
	}
	return name, email
}

func (s *Service) resolveSellers(ctx context.Context, orderID int64) []dto.Seller {
	ids, err := s.store.SellerIDs(ctx, orderID)
	if err != nil {
		s.logger.Warn("order seller lookup failed", zap.Int64("order_id", orderID), zap.Error(err))
		return []dto.Seller{}
	}

	sellers := make([]dto.Seller, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		record, err := s.directory.Lookup(ctx, id)
		if err != nil {
			if !errors.Is(err, userrepo.ErrNotFound) {
				s.logger.Warn("seller user lookup failed", zap.Int64("user_id", id), zap.Error(err))
			}
			continue
		}
		sellers = append(sellers, dto.Seller{ID: record.ID, Name: record.Name()})
	}
	return sellers
}

func scopeFor(caller *identity.Caller) commerce.Scope {
	if caller.Admin {
		return commerce.AdminScope()
	}
	return commerce.SellerScope(caller.ID)
}
