package shared

// Role names used by the authorization layer. Roles are fixed; there
// is no per-user permission table.
const (
	RoleSuperAdmin = "super-admin"
	RoleAdmin      = "admin"
	RoleManager    = "manager"
	RoleStaff      = "staff"
	RoleTrainer    = "trainer"
)
