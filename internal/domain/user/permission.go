package user

type Permission string

const (
	// Incident reports
	PermissionIncidentCreate  Permission = "incident.create"
	PermissionIncidentViewAll Permission = "incident.view_all"
	PermissionIncidentManage  Permission = "incident.manage"

	// Access requests
	PermissionAccessRequest Permission = "access.request"
	PermissionAccessApprove Permission = "access.approve"

	// Attendance gate
	PermissionGateInspect Permission = "gate.inspect"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleAdmin: {
		PermissionIncidentCreate,
		PermissionIncidentViewAll,
		PermissionIncidentManage,
		PermissionAccessRequest,
		PermissionAccessApprove,
		PermissionGateInspect,
	},
	RoleHR: {
		PermissionIncidentCreate,
		PermissionIncidentViewAll,
		PermissionIncidentManage,
		PermissionAccessRequest,
		PermissionAccessApprove,
		PermissionGateInspect,
	},
	RoleManager: {
		PermissionIncidentCreate,
		PermissionAccessRequest,
		PermissionAccessApprove,
	},
	RoleEmployee: {
		PermissionIncidentCreate,
		PermissionAccessRequest,
	},
}

// HasPermission checks if a role has a specific permission
func HasPermission(role Role, permission Permission) bool {
	permissions, exists := RolePermissions[role]
	if !exists {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}

	return false
}
