package entity

import (
	"database/sql"
	"time"

	"github.com/uptrace/bun"
)

// LINE binding states.
const (
	BindingPending   = "pending"
	BindingCompleted = "completed"
	BindingExpired   = "expired"
)

// LineBinding associates a platform user with a LINE account through a
// short-lived unique code.
type LineBinding struct {
	bun.BaseModel `bun:"table:buygo_line_bindings"`

	ID          int64          `bun:",pk,autoincrement"`
	UserID      int64          `bun:"user_id"`
	BindingCode string         `bun:"binding_code"`
	LineUID     sql.NullString `bun:"line_uid"`
	Status      string         `bun:"status"`
	CreatedAt   time.Time      `bun:"created_at"`
	ExpiresAt   time.Time      `bun:"expires_at"`
	CompletedAt sql.NullTime   `bun:"completed_at"`
}
