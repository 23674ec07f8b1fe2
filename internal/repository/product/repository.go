package product

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fishtvlvoe/buygo/internal/commerce"
	"github.com/fishtvlvoe/buygo/internal/database"
)

var repoTracer = otel.Tracer("github.com/fishtvlvoe/buygo/repository/product")

// ErrNotFound is returned when a detail or variation record is missing.
var ErrNotFound = errors.New("record not found")

// Query is a parsed product listing filter built by the service layer.
type Query struct {
	Statuses  []string // publication statuses to include
	TitleLike string   // substring matched case-insensitively against the title
	IDEquals  int64    // when > 0, also match this product id exactly
	Limit     int
	Offset    int
}

// Row is a product content entry joined with its author.
type Row struct {
	ID          int64          `bun:"id"`
	Title       string         `bun:"post_title"`
	Status      string         `bun:"post_status"`
	CreatedAt   sql.NullTime   `bun:"post_date"`
	AuthorID    sql.NullInt64  `bun:"post_author"`
	SellerName  sql.NullString `bun:"seller_name"`
	SellerEmail sql.NullString `bun:"seller_email"`
}

// DetailRow carries the platform's aggregated price bounds for a product.
type DetailRow struct {
	MinPrice sql.NullFloat64 `bun:"min_price"`
	MaxPrice sql.NullFloat64 `bun:"max_price"`
}

// VariationRow is the first variation of a product by serial index.
type VariationRow struct {
	ItemPrice   sql.NullFloat64 `bun:"item_price"`
	Available   sql.NullInt64   `bun:"available"`
	TotalStock  sql.NullInt64   `bun:"total_stock"`
	StockStatus sql.NullString  `bun:"stock_status"`
}

// Repository reads product content entries and their price/stock records.
// All access is read-only.
type Repository struct {
	reader *bun.DB
	tables commerce.Tables
}

// NewRepository wires a product repository over the shared commerce schema.
func NewRepository(conns *database.Connections, tables commerce.Tables) *Repository {
	return &Repository{reader: conns.Reader, tables: tables}
}

// List returns products matching the query, newest first. Seller scopes only
// see their own products.
func (r *Repository) List(ctx context.Context, scope commerce.Scope, query Query) ([]Row, error) {
	ctx, span := repoTracer.Start(ctx, "ProductRepository.List", trace.WithAttributes(
		attribute.Bool("scope.admin", scope.Admin),
	))
	defer span.End()

	q := r.reader.NewSelect().
		TableExpr("? AS p", bun.Name(r.tables.Posts())).
		ColumnExpr("p.id, p.post_title, p.post_status, p.post_date, p.post_author").
		ColumnExpr("u.display_name AS seller_name, u.user_email AS seller_email").
		Join("LEFT JOIN ? AS u ON p.post_author = u.id", bun.Name(r.tables.Users())).
		Where("p.post_type = ?", commerce.ProductPostType)

	if len(query.Statuses) > 0 {
		q = q.Where("p.post_status IN (?)", bun.In(query.Statuses))
	}

	if query.TitleLike != "" {
		pattern := "%" + strings.ToLower(query.TitleLike) + "%"
		if query.IDEquals > 0 {
			q = q.Where("(LOWER(p.post_title) LIKE ? OR p.id = ?)", pattern, query.IDEquals)
		} else {
			q = q.Where("LOWER(p.post_title) LIKE ?", pattern)
		}
	}

	if !scope.Admin {
		q = q.Where("p.post_author = ?", scope.UserID)
	}

	var rows []Row
	err := q.OrderExpr("p.id DESC").Limit(query.Limit).Offset(query.Offset).Scan(ctx, &rows)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return rows, nil
}

// Details fetches the aggregated price record for a product.
func (r *Repository) Details(ctx context.Context, productID int64) (*DetailRow, error) {
	ctx, span := repoTracer.Start(ctx, "ProductRepository.Details", trace.WithAttributes(attribute.Int64("product.id", productID)))
	defer span.End()

	row := new(DetailRow)
	err := r.reader.NewSelect().
		TableExpr("? AS d", bun.Name(r.tables.ProductDetails())).
		ColumnExpr("d.min_price, d.max_price").
		Where("d.post_id = ?", productID).
		Limit(1).
		Scan(ctx, row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return row, nil
}

// FirstVariation fetches a product's first variation by serial index.
func (r *Repository) FirstVariation(ctx context.Context, productID int64) (*VariationRow, error) {
	ctx, span := repoTracer.Start(ctx, "ProductRepository.FirstVariation", trace.WithAttributes(attribute.Int64("product.id", productID)))
	defer span.End()

	row := new(VariationRow)
	err := r.reader.NewSelect().
		TableExpr("? AS v", bun.Name(r.tables.ProductVariations())).
		ColumnExpr("v.item_price, v.available, v.total_stock, v.stock_status").
		Where("v.post_id = ?", productID).
		OrderExpr("v.serial_index ASC").
		Limit(1).
		Scan(ctx, row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return row, nil
}

// ThumbnailURL resolves a product's thumbnail attachment URL, or "" if the
// product has none.
func (r *Repository) ThumbnailURL(ctx context.Context, productID int64) (string, error) {
	ctx, span := repoTracer.Start(ctx, "ProductRepository.ThumbnailURL", trace.WithAttributes(attribute.Int64("product.id", productID)))
	defer span.End()

	var thumbnailID int64
	err := r.reader.NewSelect().
		TableExpr("? AS m", bun.Name(r.tables.PostMeta())).
		ColumnExpr("m.meta_value").
		Where("m.post_id = ?", productID).
		Where("m.meta_key = ?", commerce.ThumbnailMetaKey).
		Limit(1).
		Scan(ctx, &thumbnailID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return "", err
	}

	var url string
	err = r.reader.NewSelect().
		TableExpr("? AS a", bun.Name(r.tables.Posts())).
		ColumnExpr("a.guid").
		Where("a.id = ?", thumbnailID).
		Scan(ctx, &url)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return "", err
	}
	return url, nil
}
