package rbac

// RoleSet is the set of role labels held by one user.
type RoleSet map[Role]struct{}

// NewRoleSet builds a RoleSet from role labels.
func NewRoleSet(roles ...Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

// Has reports whether the set contains the role.
func (s RoleSet) Has(role Role) bool {
	_, ok := s[role]
	return ok
}

// HasAny reports whether the set contains at least one of the roles.
func (s RoleSet) HasAny(roles ...Role) bool {
	for _, r := range roles {
		if s.Has(r) {
			return true
		}
	}
	return false
}

// Roles returns the set's members as a slice.
func (s RoleSet) Roles() []Role {
	out := make([]Role, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	return out
}

// CanRead reports whether a caller with these roles may use the read-only
// reporting endpoints.
func CanRead(s RoleSet) bool {
	return s.HasAny(RoleAdministrator, RoleAdmin, RoleSeller, RoleHelper)
}

// CanWrite reports whether a caller with these roles may mutate orders.
func CanWrite(s RoleSet) bool {
	return s.HasAny(RoleAdministrator, RoleAdmin)
}

// IsAdmin reports whether these roles grant unrestricted query scope.
func IsAdmin(s RoleSet) bool {
	return s.HasAny(RoleAdministrator, RoleAdmin)
}
