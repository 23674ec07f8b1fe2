package commerce

import (
	"go.uber.org/fx"

	"github.com/fishtvlvoe/buygo/internal/config"
)

// ProductPostType is the content-entry type the commerce platform uses for
// sellable products.
const ProductPostType = "fluent-products"

// ThumbnailMetaKey holds the attachment id of a product's thumbnail.
const ThumbnailMetaKey = "_thumbnail_id"

// Tables resolves the names of the host commerce platform's tables. The
// platform prefixes every table with a site-specific string, so names are
// derived from configuration instead of being baked into model tags.
type Tables struct {
	prefix string
}

// NewTables builds a Tables resolver from configuration.
func NewTables(cfg config.Config) Tables {
	return Tables{prefix: cfg.Commerce.TablePrefix}
}

func (t Tables) Orders() string            { return t.prefix + "fct_orders" }
func (t Tables) OrderItems() string        { return t.prefix + "fct_order_items" }
func (t Tables) Customers() string         { return t.prefix + "fct_customers" }
func (t Tables) ProductDetails() string    { return t.prefix + "fct_product_details" }
func (t Tables) ProductVariations() string { return t.prefix + "fct_product_variations" }
func (t Tables) Posts() string             { return t.prefix + "posts" }
func (t Tables) PostMeta() string          { return t.prefix + "postmeta" }
func (t Tables) Users() string             { return t.prefix + "users" }

// Module provides the table resolver to Fx.
var Module = fx.Provide(NewTables)
