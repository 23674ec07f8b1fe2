package dto

// LineBinding is a binding code as handed to the requesting user.
type LineBinding struct {
	ID          int64  `json:"id"`
	BindingCode string `json:"binding_code"`
	Status      string `json:"status"`
	ExpiresAt   string `json:"expires_at"`
}
