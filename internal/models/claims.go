package models

import "github.com/golang-jwt/jwt/v5"

// Application permissions
const (
	// Account permissions
	PermissionAccountRead   = "account:read"
	PermissionAccountWrite  = "account:write"
	PermissionAccountManage = "account:manage" // freeze/close

	// Transaction permissions
	PermissionTransactionRead   = "transaction:read"
	PermissionTransactionSubmit = "transaction:submit"

	// Approval permissions
	PermissionApprovalRead = "approval:read"
	PermissionApprovalAct  = "approval:act"

	// Admin permissions
	PermissionReadAdmin  = "admin:read"
	PermissionWriteAdmin = "admin:write"
)

type UserClaims struct {
	jwt.RegisteredClaims
	UserID       uint     `json:"user_id"`
	Email        string   `json:"email"`
	Role         string   `json:"role"`
	Permissions  []string `json:"permissions"`
	TokenVersion int      `json:"token_version"`
}

// HasPermission checks if the claims include a specific permission
func (c *UserClaims) HasPermission(permission string) bool {
	for _, p := range c.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// GetDefaultPermissions returns default permissions based on role
func GetDefaultPermissions(role string) []string {
	switch role {
	case RoleAdmin:
		return []string{
			PermissionAccountRead,
			PermissionAccountWrite,
			PermissionAccountManage,
			PermissionTransactionRead,
			PermissionTransactionSubmit,
			PermissionApprovalRead,
			PermissionApprovalAct,
			PermissionReadAdmin,
			PermissionWriteAdmin,
		}
	case RoleTeller, RoleManager, RoleComplianceOfficer, RoleSeniorManager, RoleExecutive:
		return []string{
			PermissionAccountRead,
			PermissionAccountManage,
			PermissionTransactionRead,
			PermissionTransactionSubmit,
			PermissionApprovalRead,
			PermissionApprovalAct,
		}
	case RoleCustomer:
		return []string{
			PermissionAccountRead,
			PermissionTransactionRead,
			PermissionTransactionSubmit,
		}
	default:
		return []string{}
	}
}
