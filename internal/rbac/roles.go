package rbac

// Role identifies a marketplace role label carried by a platform user.
type Role string

const (
	// RoleAdministrator is the host platform's own administrator role.
	RoleAdministrator Role = "administrator"

	RoleAdmin  Role = "buygo_admin"
	RoleSeller Role = "buygo_seller"
	RoleHelper Role = "buygo_helper"
	RoleBuyer  Role = "buygo_buyer"
)

// Capability names understood by the marketplace surface.
const (
	CapRead           = "read"
	CapManageShop     = "manage_buygo_shop"
	CapManageSettings = "manage_buygo_settings"
	CapUploadFiles    = "upload_files"
)

// ManagedRoles lists the roles this service owns and registers at startup.
// RoleAdministrator belongs to the host platform and is never registered here.
var ManagedRoles = []Role{RoleBuyer, RoleAdmin, RoleSeller, RoleHelper}

// Capabilities returns the fixed capability set granted to a role.
func (r Role) Capabilities() []string {
	switch r {
	case RoleBuyer:
		return []string{CapRead}
	case RoleAdmin:
		return []string{CapRead, CapManageShop, CapManageSettings}
	case RoleSeller:
		return []string{CapRead, CapUploadFiles, CapManageShop}
	case RoleHelper:
		return []string{CapRead, CapManageShop}
	default:
		return nil
	}
}

// Label returns the display name of a role.
func (r Role) Label() string {
	switch r {
	case RoleBuyer:
		return "BuyGo Buyer"
	case RoleAdmin:
		return "BuyGo Admin"
	case RoleSeller:
		return "BuyGo Seller"
	case RoleHelper:
		return "BuyGo Helper"
	case RoleAdministrator:
		return "Administrator"
	default:
		return string(r)
	}
}
