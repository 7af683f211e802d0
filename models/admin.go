package models

import "time"

// Role represents the role of an admin account
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleSuperadmin  Role = "superadmin"
	RoleSystemadmin Role = "systemadmin"
)

// roleLevels orders roles by capability: every higher role can perform all
// actions of lower roles.
var roleLevels = map[Role]int{
	RoleAdmin:       1,
	RoleSuperadmin:  2,
	RoleSystemadmin: 3,
}

// IsValidRole checks if a role is valid
func IsValidRole(role string) bool {
	_, ok := roleLevels[Role(role)]
	return ok
}

// Level returns the capability rank of the role, 0 for unknown roles.
func (r Role) Level() int {
	return roleLevels[r]
}

// CanCreate reports whether an admin holding this role may create an account
// with the target role. System admins may create any role, super admins may
// create admins and super admins, plain admins may create none.
func (r Role) CanCreate(target Role) bool {
	if !IsValidRole(string(target)) {
		return false
	}
	switch r {
	case RoleSystemadmin:
		return true
	case RoleSuperadmin:
		return target != RoleSystemadmin
	default:
		return false
	}
}

// CanManageCompanies reports whether the role sees company-management
// operations. Reserved for system admins.
func (r Role) CanManageCompanies() bool {
	return r == RoleSystemadmin
}

// AdminStatus represents the lifecycle status of an admin account
type AdminStatus string

const (
	AdminActive    AdminStatus = "active"
	AdminInactive  AdminStatus = "inactive"
	AdminSuspended AdminStatus = "suspended"
)

// IsValidAdminStatus checks if a status transition target is valid
func IsValidAdminStatus(status string) bool {
	switch AdminStatus(status) {
	case AdminActive, AdminInactive, AdminSuspended:
		return true
	}
	return false
}

// Admin is an admin account as reported by the Admin Server. The same shape
// serves as the session's admin profile (login response) and as a row of the
// admin list.
type Admin struct {
	ID        int64       `bson:"id" json:"id"`
	Username  string      `bson:"username" json:"username"`
	Email     string      `bson:"email,omitempty" json:"email,omitempty"`
	FullName  string      `bson:"full_name,omitempty" json:"full_name,omitempty"`
	Role      Role        `bson:"role" json:"role"`
	CompanyID string      `bson:"company_id,omitempty" json:"company_id,omitempty"`
	Status    AdminStatus `bson:"status,omitempty" json:"status,omitempty"`
	CreatedAt time.Time   `bson:"created_at,omitempty" json:"created_at,omitempty"`
}

// AuditScope returns the audit log scope for this admin: system admins read
// the system-wide log, everyone else their company's log.
func (a *Admin) AuditScope() string {
	if a.Role == RoleSystemadmin {
		return "system"
	}
	return a.CompanyID
}
