package dto

// SellerApplication is an application row as exposed to admins and the
// applicant.
type SellerApplication struct {
	ID           int64  `json:"id"`
	UserID       int64  `json:"user_id"`
	Status       string `json:"status"`
	RealName     string `json:"real_name"`
	Phone        string `json:"phone"`
	LineID       string `json:"line_id"`
	Reason       string `json:"reason,omitempty"`
	ProductTypes string `json:"product_types,omitempty"`
	SubmittedAt  string `json:"submitted_at"`
	ReviewedAt   string `json:"reviewed_at,omitempty"`
	ReviewedBy   int64  `json:"reviewed_by,omitempty"`
	ReviewNote   string `json:"review_note,omitempty"`
}
