package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// HelperGrant lets a seller delegate scoped shop permissions to a helper.
// (seller_id, helper_id) is unique.
type HelperGrant struct {
	bun.BaseModel `bun:"table:buygo_helpers"`

	ID                int64     `bun:",pk,autoincrement"`
	SellerID          int64     `bun:"seller_id"`
	HelperID          int64     `bun:"helper_id"`
	CanViewOrders     bool      `bun:"can_view_orders"`
	CanUpdateOrders   bool      `bun:"can_update_orders"`
	CanManageProducts bool      `bun:"can_manage_products"`
	CanReplyCustomers bool      `bun:"can_reply_customers"`
	AssignedAt        time.Time `bun:"assigned_at"`
	AssignedBy        int64     `bun:"assigned_by"`
}
