package commerce

import (
	"testing"

	"github.com/fishtvlvoe/buygo/internal/config"
)

func TestTablesPrefix(t *testing.T) {
	tables := NewTables(config.Config{Commerce: config.Commerce{TablePrefix: "wp_"}})

	testCases := []struct {
		name string
		got  string
		want string
	}{
		{name: "orders", got: tables.Orders(), want: "wp_fct_orders"},
		{name: "order items", got: tables.OrderItems(), want: "wp_fct_order_items"},
		{name: "customers", got: tables.Customers(), want: "wp_fct_customers"},
		{name: "product details", got: tables.ProductDetails(), want: "wp_fct_product_details"},
		{name: "product variations", got: tables.ProductVariations(), want: "wp_fct_product_variations"},
		{name: "posts", got: tables.Posts(), want: "wp_posts"},
		{name: "postmeta", got: tables.PostMeta(), want: "wp_postmeta"},
		{name: "users", got: tables.Users(), want: "wp_users"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.got != tc.want {
				t.Errorf("got %q, want %q", tc.got, tc.want)
			}
		})
	}
}

func TestTablesCustomPrefix(t *testing.T) {
	tables := NewTables(config.Config{Commerce: config.Commerce{TablePrefix: "shop1_"}})

	if got := tables.Orders(); got != "shop1_fct_orders" {
		t.Errorf("orders = %q, want shop1_fct_orders", got)
	}
}

func TestScope(t *testing.T) {
	admin := AdminScope()
	if !admin.Admin || admin.UserID != 0 {
		t.Errorf("admin scope = %+v", admin)
	}

	seller := SellerScope(42)
	if seller.Admin || seller.UserID != 42 {
		t.Errorf("seller scope = %+v", seller)
	}
}
