package dto

// HelperPermissions are the scoped permissions a seller may delegate.
type HelperPermissions struct {
	CanViewOrders     bool `json:"can_view_orders"`
	CanUpdateOrders   bool `json:"can_update_orders"`
	CanManageProducts bool `json:"can_manage_products"`
	CanReplyCustomers bool `json:"can_reply_customers"`
}

// HelperGrant is one seller→helper delegation.
type HelperGrant struct {
	ID          int64             `json:"id"`
	SellerID    int64             `json:"seller_id"`
	HelperID    int64             `json:"helper_id"`
	HelperName  string            `json:"helper_name,omitempty"`
	Permissions HelperPermissions `json:"permissions"`
	AssignedAt  string            `json:"assigned_at"`
	AssignedBy  int64             `json:"assigned_by"`
}
