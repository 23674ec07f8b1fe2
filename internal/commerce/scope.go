package commerce

// Scope restricts a commerce query to the rows a caller may see. Admin scopes
// see everything; seller scopes are limited to rows attributable to products
// authored by UserID. Queries branch on this value instead of rebuilding SQL
// per caller kind.
type Scope struct {
	Admin  bool
	UserID int64
}

// AdminScope returns an unrestricted scope.
func AdminScope() Scope {
	return Scope{Admin: true}
}

// SellerScope returns a scope limited to the given product author.
func SellerScope(userID int64) Scope {
	return Scope{UserID: userID}
}
