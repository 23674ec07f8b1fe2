package dto

// ProductSeller identifies the author of a product.
type ProductSeller struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ProductSummary is one row of the product listing.
type ProductSummary struct {
	ID             int64          `json:"id"`
	Name           string         `json:"name"`
	Price          float64        `json:"price"`
	FormattedPrice string         `json:"formatted_price"`
	Stock          int64          `json:"stock"`
	Status         string         `json:"status"`
	StatusLabel    string         `json:"status_label"`
	StockStatus    string         `json:"stock_status"`
	Image          string         `json:"image"`
	CreatedAt      string         `json:"created_at"`
	Seller         *ProductSeller `json:"seller,omitempty"`
}
