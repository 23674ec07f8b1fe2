package dto

// Seller identifies a product author attached to an order.
type Seller struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// OrderSummary is one row of the order listing.
type OrderSummary struct {
	ID            int64    `json:"id"`
	OrderNumber   string   `json:"order_number"`
	CustomerName  string   `json:"customer_name"`
	CustomerEmail string   `json:"customer_email"`
	Status        string   `json:"status"`
	PaymentStatus string   `json:"payment_status"`
	Total         float64  `json:"total"`
	ItemCount     int      `json:"item_count"`
	Sellers       []Seller `json:"sellers"`
	Currency      string   `json:"currency"`
	CreatedAt     string   `json:"created_at"`
}

// OrderItem is one line of an order detail.
type OrderItem struct {
	ID          int64   `json:"id"`
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int64   `json:"quantity"`
	ItemPrice   float64 `json:"item_price"`
}

// OrderDetail is the full order view.
type OrderDetail struct {
	OrderSummary
	Items []OrderItem `json:"items"`
}
