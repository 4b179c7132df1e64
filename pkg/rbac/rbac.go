package rbac

import "slices"

// 权限常量
const (
	// 普通操作权限
	PermissionManageHabits    = "habit:manage"
	PermissionManageCards     = "card:manage"
	PermissionManageExpenses  = "expense:manage"
	PermissionManagePlants    = "plant:manage"
	PermissionTakeAssessments = "assessment:manage"
	PermissionReadActivity    = "activity:read"

	// 敏感操作权限
	PermissionReplayOutbox     = "outbox:replay"
	PermissionReadFailedEvents = "outbox:read_failed"
)

// 角色常量
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

var userPermissions = []string{
	PermissionManageHabits,
	PermissionManageCards,
	PermissionManageExpenses,
	PermissionManagePlants,
	PermissionTakeAssessments,
	PermissionReadActivity,
}

// 角色权限映射
var rolePermissions = map[string][]string{
	RoleUser: userPermissions,
	RoleAdmin: append(slices.Clone(userPermissions),
		PermissionReplayOutbox,
		PermissionReadFailedEvents,
	),
}

// ValidRole reports whether role is known.
func ValidRole(role string) bool {
	_, ok := rolePermissions[role]
	return ok
}

// HasPermission 检查角色是否有指定权限
func HasPermission(role string, permission string) bool {
	permissions, ok := rolePermissions[role]
	if !ok {
		return false
	}
	return slices.Contains(permissions, permission)
}

// CheckPermission 检查角色是否有指定权限（返回错误而不是布尔值，便于处理）
func CheckPermission(userID int, role string, permission string) error {
	if !HasPermission(role, permission) {
		return &PermissionDeniedError{
			UserID:     userID,
			Role:       role,
			Permission: permission,
		}
	}
	return nil
}

// PermissionDeniedError 表示权限不足的错误
type PermissionDeniedError struct {
	UserID     int
	Role       string
	Permission string
}

func (e *PermissionDeniedError) Error() string {
	return "insufficient permissions"
}
