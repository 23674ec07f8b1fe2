package identity

import (
	"github.com/labstack/echo/v4"

	"github.com/fishtvlvoe/buygo/internal/rbac"
)

const callerContextKey = "buygo.caller"

// Caller is the authenticated user behind a request. Admin is computed once
// when the caller is resolved, not re-derived per row.
type Caller struct {
	ID          int64
	DisplayName string
	Email       string
	Roles       rbac.RoleSet
	Admin       bool
}

// WithCaller stores the caller on the request context.
func WithCaller(c echo.Context, caller *Caller) {
	c.Set(callerContextKey, caller)
}

// FromContext retrieves the caller resolved by the middleware.
func FromContext(c echo.Context) (*Caller, bool) {
	caller, ok := c.Get(callerContextKey).(*Caller)
	return caller, ok && caller != nil
}
