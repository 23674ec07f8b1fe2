package entity

import (
	"database/sql"
	"time"

	"github.com/uptrace/bun"
)

// Seller application review states.
const (
	ApplicationPending  = "pending"
	ApplicationApproved = "approved"
	ApplicationRejected = "rejected"
)

// SellerApplication is a user's request to become a seller.
type SellerApplication struct {
	bun.BaseModel `bun:"table:buygo_seller_applications"`

	ID           int64          `bun:",pk,autoincrement"`
	UserID       int64          `bun:"user_id"`
	Status       string         `bun:"status"`
	RealName     string         `bun:"real_name"`
	Phone        string         `bun:"phone"`
	LineID       string         `bun:"line_id"`
	Reason       string         `bun:"reason"`
	ProductTypes string         `bun:"product_types"`
	SubmittedAt  time.Time      `bun:"submitted_at"`
	ReviewedAt   sql.NullTime   `bun:"reviewed_at"`
	ReviewedBy   sql.NullInt64  `bun:"reviewed_by"`
	ReviewNote   sql.NullString `bun:"review_note"`
}
