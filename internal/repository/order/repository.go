package order

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

var repoTracer = otel.Tracer("github.com/fishtvlvoe/buygo/repository/order")

// ErrNotFound is returned when an order is missing.
var ErrNotFound = errors.New("order not found")

// listCap bounds listing result sets; enrichment cost is linear in rows.
const listCap = 100

// Query is a parsed listing filter. The service layer builds it from raw
// request input; the repository only applies it.
type Query struct {
	Status   string // exact order status; empty means no filter
	IDEquals int64  // when > 0, match the order id exactly
	NameLike string // substring matched case-insensitively against customer name/email
}

// Row is an order joined with its optional customer profile.
type Row struct {
	ID            int64           `bun:"id"`
	CustomerID    sql.NullInt64   `bun:"customer_id"`
	TotalAmount   sql.NullFloat64 `bun:"total_amount"`
	Status        sql.NullString  `bun:"status"`
	PaymentStatus sql.NullString  `bun:"payment_status"`
	Currency      sql.NullString  `bun:"currency"`
	CreatedAt     sql.NullTime    `bun:"created_at"`
	CompletedAt   sql.NullTime    `bun:"completed_at"`
	UpdatedAt     sql.NullTime    `bun:"updated_at"`
	FirstName     sql.NullString  `bun:"first_name"`
	LastName      sql.NullString  `bun:"last_name"`
	Email         sql.NullString  `bun:"email"`
	UserID        sql.NullInt64   `bun:"user_id"`
}

// ItemRow is an order item joined with its product title.
type ItemRow struct {
	ID          int64           `bun:"id"`
	OrderID     int64           `bun:"order_id"`
	PostID      int64           `bun:"post_id"`
	Quantity    sql.NullInt64   `bun:"quantity"`
	ItemPrice   sql.NullFloat64 `bun:"item_price"`
	ProductName sql.NullString  `bun:"product_name"`
}

// Repository reads the commerce platform's order tables and applies the
// narrow status/payment mutations this service is allowed to make.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
	tables commerce.Tables
}

// NewRepository wires an order repository over the shared commerce schema.
func NewRepository(conns *database.Connections, tables commerce.Tables) *Repository {
	return &Repository{
		writer: conns.Writer,
		reader: conns.Reader,
		tables: tables,
	}
}

// List returns up to 100 orders matching the query, newest first. Seller
// scopes only see orders containing at least one item whose product they
// authored.
func (r *Repository) List(ctx context.Context, scope commerce.Scope, query Query) ([]Row, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.List", trace.WithAttributes(
		attribute.Bool("scope.admin", scope.Admin),
	))
	defer span.End()

	q := r.baseSelect().
		ColumnExpr("DISTINCT o.id, o.customer_id, o.total_amount, o.status, o.payment_status").
		ColumnExpr("o.currency, o.created_at, o.completed_at, o.updated_at").
		ColumnExpr("c.first_name, c.last_name, c.email, c.contact_id AS user_id")

	q = r.applyScope(q, scope)

	if query.Status != "" {
		q = q.Where("o.status = ?", query.Status)
	}
	if query.IDEquals > 0 {
		q = q.Where("o.id = ?", query.IDEquals)
	}
	if query.NameLike != "" {
		pattern := "%" + strings.ToLower(query.NameLike) + "%"
		q = q.Where(
			"(LOWER(c.first_name) LIKE ? OR LOWER(c.last_name) LIKE ? OR LOWER(c.email) LIKE ?)",
			pattern, pattern, pattern,
		)
	}

	var rows []Row
	err := q.OrderExpr("o.id DESC").Limit(listCap).Scan(ctx, &rows)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return rows, nil
}

// GetByID fetches one order with its customer profile. Seller scopes only see
// orders containing at least one item whose product they authored; a scoped-out
// order reads as missing.
func (r *Repository) GetByID(ctx context.Context, scope commerce.Scope, id int64) (*Row, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.GetByID", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	q := r.baseSelect().
		ColumnExpr("DISTINCT o.id, o.customer_id, o.total_amount, o.status, o.payment_status").
		ColumnExpr("o.currency, o.created_at, o.completed_at, o.updated_at").
		ColumnExpr("c.first_name, c.last_name, c.email, c.contact_id AS user_id").
		Where("o.id = ?", id)
	q = r.applyScope(q, scope)

	row := new(Row)
	err := q.Scan(ctx, row)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return row, nil
}

// Items returns an order's items with product titles.
func (r *Repository) Items(ctx context.Context, orderID int64) ([]ItemRow, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Items", trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()

	var items []ItemRow
	err := r.reader.NewSelect().
		TableExpr("? AS oi", bun.Name(r.tables.OrderItems())).
		ColumnExpr("oi.id, oi.order_id, oi.post_id, oi.quantity, oi.item_price").
		ColumnExpr("p.post_title AS product_name").
		Join("LEFT JOIN ? AS p ON oi.post_id = p.id", bun.Name(r.tables.Posts())).
		Where("oi.order_id = ?", orderID).
		Scan(ctx, &items)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return items, nil
}

// ItemCount counts an order's items.
func (r *Repository) ItemCount(ctx context.Context, orderID int64) (int, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.ItemCount", trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()

	count, err := r.reader.NewSelect().
		TableExpr("? AS oi", bun.Name(r.tables.OrderItems())).
		Where("oi.order_id = ?", orderID).
		Count(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "count failed")
		return 0, err
	}
	return count, nil
}

// SellerIDs returns the distinct author ids of the products referenced by an
// order's items.
func (r *Repository) SellerIDs(ctx context.Context, orderID int64) ([]int64, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.SellerIDs", trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()

	var ids []int64
	err := r.reader.NewSelect().
		TableExpr("? AS oi", bun.Name(r.tables.OrderItems())).
		ColumnExpr("DISTINCT p.post_author").
		Join("LEFT JOIN ? AS p ON oi.post_id = p.id", bun.Name(r.tables.Posts())).
		Where("oi.order_id = ?", orderID).
		Where("p.post_type = ?", commerce.ProductPostType).
		Where("p.post_author IS NOT NULL").
		Scan(ctx, &ids)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return ids, nil
}

// Update applies the given column changes to one order as a single statement.
func (r *Repository) Update(ctx context.Context, id int64, changes map[string]any) error {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Update", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	q := r.writer.NewUpdate().
		Table(r.tables.Orders()).
		Where("id = ?", id)
	for column, value := range changes {
		q = q.Set("? = ?", bun.Ident(column), value)
	}

	if _, err := q.Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return err
	}
	return nil
}

func (r *Repository) baseSelect() *bun.SelectQuery {
	return r.reader.NewSelect().
		TableExpr("? AS o", bun.Name(r.tables.Orders())).
		Join("LEFT JOIN ? AS c ON o.customer_id = c.id", bun.Name(r.tables.Customers()))
}

func (r *Repository) applyScope(q *bun.SelectQuery, scope commerce.Scope) *bun.SelectQuery {
	if scope.Admin {
		return q
	}
	return q.
		Join("JOIN ? AS oi ON o.id = oi.order_id", bun.Name(r.tables.OrderItems())).
		Join("JOIN ? AS p ON oi.post_id = p.id", bun.Name(r.tables.Posts())).
		Where("p.post_type = ?", commerce.ProductPostType).
		Where("p.post_author = ?", scope.UserID)
}
