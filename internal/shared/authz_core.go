package shared

// Core platform permissions. Identifiers are opaque stable strings chosen by
// administrators; these are the ones the seed script installs.
const (
	PermAdminAccess = "perm-admin-access"

	PermUserWrite = "perm-user-write"
	PermRoleWrite = "perm-role-write"

	PermPendataanRead  = "perm-pendataan-read"
	PermPendataanWrite = "perm-pendataan-write"

	PermNasyathRead  = "perm-nasyath-read"
	PermNasyathWrite = "perm-nasyath-write"
)

// RoleAdmin is the designated administrator role. The self-edit guards in the
// user administration service key off it.
const RoleAdmin = "role-admin"

// CoreScopes lists all permissions related to the core platform.
func CoreScopes() []string {
	return []string{
		PermAdminAccess,
		PermUserWrite,
		PermRoleWrite,
		PermPendataanRead,
		PermPendataanWrite,
		PermNasyathRead,
		PermNasyathWrite,
	}
}
