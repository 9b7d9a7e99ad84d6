package authz

// Роли в CRM. manager видит и правит всё; super_agent видит всё,
// но командой не управляет; agent работает только со своими лидами.
const (
	RoleManager    = "manager"
	RoleSuperAgent = "super_agent"
	RoleAgent      = "agent"
)

func IsElevated(role string) bool {
	return role == RoleManager || role == RoleSuperAgent
}

func CanManageTeam(role string) bool {
	return role == RoleManager
}

func ValidRole(role string) bool {
	return role == RoleManager || role == RoleSuperAgent || role == RoleAgent
}
