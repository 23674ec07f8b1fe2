package product

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fishtvlvoe/buygo/internal/commerce"
	"github.com/fishtvlvoe/buygo/internal/dto"
	"github.com/fishtvlvoe/buygo/internal/identity"
	productrepo "github.com/fishtvlvoe/buygo/internal/repository/product"
	"github.com/fishtvlvoe/buygo/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/fishtvlvoe/buygo/service/product")

const (
	timeLayout     = "2006-01-02 15:04:05"
	defaultPerPage = 50
	maxPerPage     = 100
)

// Publication statuses of product content entries.
const (
	StatusPublish = "publish"
	StatusDraft   = "draft"
	StatusPending = "pending"
	StatusPrivate = "private"
	StatusTrash   = "trash"
)

// defaultStatuses are listed when the status filter is absent or names
// anything other than publish/draft.
var defaultStatuses = []string{StatusPublish, StatusDraft, StatusPending, StatusPrivate}

var statusLabels = map[string]string{
	StatusPublish: "已發布",
	StatusDraft:   "草稿",
	StatusPending: "審核中",
	StatusPrivate: "私人",
	StatusTrash:   "垃圾桶",
}

// ListFilter is the raw product listing filter from the request.
type ListFilter struct {
	Status  string
	Search  string
	Page    int
	PerPage int
}

// Store is the product persistence surface the service depends on.
type Store interface {
	List(ctx context.Context, scope commerce.Scope, query productrepo.Query) ([]productrepo.Row, error)
	Details(ctx context.Context, productID int64) (*productrepo.DetailRow, error)
	FirstVariation(ctx context.Context, productID int64) (*productrepo.VariationRow, error)
	ThumbnailURL(ctx context.Context, productID int64) (string, error)
}

// Service implements scoped product reporting.
type Service struct {
	store  Store
	logger *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Store  Store
	Logger *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{store: p.Store, logger: p.Logger}
}

// BuildListQuery parses the raw filter into a repository query. A numeric
// search matches title substring or product id; only publish and draft are
// honored as exact status filters, any other token expands to the default
// publication statuses.
func BuildListQuery(filter ListFilter) productrepo.Query {
	q := productrepo.Query{}

	switch filter.Status {
	case StatusPublish, StatusDraft:
		q.Statuses = []string{filter.Status}
	default:
		q.Statuses = defaultStatuses
	}

	if search := strings.TrimSpace(filter.Search); search != "" {
		q.TitleLike = search
		if id, err := strconv.ParseInt(search, 10, 64); err == nil {
			q.IDEquals = id
		}
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	q.Limit = perPage
	q.Offset = (page - 1) * perPage
	return q
}

// FormatPrice renders a minor-unit price as a display string.
func FormatPrice(price float64) string {
	return fmt.Sprintf("NT$ %.2f", price/100)
}

// StatusLabel translates a publication status into its display label. Unknown
// statuses pass through unchanged.
func StatusLabel(status string) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return status
}

// List returns the caller-visible products, enriched with price, stock,
// thumbnail, and seller data.
func (s *Service) List(ctx context.Context, caller *identity.Caller, filter ListFilter) ([]dto.ProductSummary, error) {
	ctx, span := serviceTracer.Start(ctx, "ProductService.List", trace.WithAttributes(
		attribute.Int64("caller.id", caller.ID),
		attribute.Bool("caller.admin", caller.Admin),
	))
	defer span.End()

	rows, err := s.store.List(ctx, scopeFor(caller), BuildListQuery(filter))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("無法載入商品", errorbank.WithCause(err))
	}

	summaries := make([]dto.ProductSummary, 0, len(rows))
	for i := range rows {
		summaries = append(summaries, s.summarize(ctx, &rows[i]))
	}
	return summaries, nil
}

func (s *Service) summarize(ctx context.Context, row *productrepo.Row) dto.ProductSummary {
	summary := dto.ProductSummary{
		ID:          row.ID,
		Name:        row.Title,
		Status:      row.Status,
		StatusLabel: StatusLabel(row.Status),
		StockStatus: "out-of-stock",
	}
	if row.CreatedAt.Valid {
		summary.CreatedAt = row.CreatedAt.Time.Format(timeLayout)
	}

	variation := s.firstVariation(ctx, row.ID)
	summary.Price = s.resolvePrice(ctx, row.ID, variation)
	summary.FormattedPrice = FormatPrice(summary.Price)
	summary.Stock = resolveStock(variation)
	if variation != nil && variation.StockStatus.Valid && variation.StockStatus.String != "" {
		summary.StockStatus = variation.StockStatus.String
	}

	image, err := s.store.ThumbnailURL(ctx, row.ID)
	if err != nil {
		s.logger.Warn("product thumbnail lookup failed", zap.Int64("product_id", row.ID), zap.Error(err))
	}
	summary.Image = image

	if row.AuthorID.Valid && row.AuthorID.Int64 > 0 {
		summary.Seller = &dto.ProductSeller{
			ID:    row.AuthorID.Int64,
			Name:  row.SellerName.String,
			Email: row.SellerEmail.String,
		}
	}
	return summary
}

// resolvePrice prefers the aggregated minimum price and falls back to the
// first variation's item price. A present minimum price wins even at zero.
func (s *Service) resolvePrice(ctx context.Context, productID int64, variation *productrepo.VariationRow) float64 {
	details, err := s.store.Details(ctx, productID)
	if err != nil && !errors.Is(err, productrepo.ErrNotFound) {
		s.logger.Warn("product details lookup failed", zap.Int64("product_id", productID), zap.Error(err))
	}
	if details != nil && details.MinPrice.Valid {
		return details.MinPrice.Float64
	}
	if variation != nil && variation.ItemPrice.Valid {
		return variation.ItemPrice.Float64
	}
	return 0
}

func (s *Service) firstVariation(ctx context.Context, productID int64) *productrepo.VariationRow {
	variation, err := s.store.FirstVariation(ctx, productID)
	if err != nil {
		if !errors.Is(err, productrepo.ErrNotFound) {
			s.logger.Warn("product variation lookup failed", zap.Int64("product_id", productID), zap.Error(err))
		}
		return nil
	}
	return variation
}

// resolveStock prefers the available count and falls back to total stock only
// when the count is absent. An available count of zero means zero stock.
func resolveStock(variation *productrepo.VariationRow) int64 {
	if variation == nil {
		return 0
	}
	if variation.Available.Valid {
		return variation.Available.Int64
	}
	if variation.TotalStock.Valid {
		return variation.TotalStock.Int64
	}
	return 0
}

func scopeFor(caller *identity.Caller) commerce.Scope {
	if caller.Admin {
		return commerce.AdminScope()
	}
	return commerce.SellerScope(caller.ID)
}
