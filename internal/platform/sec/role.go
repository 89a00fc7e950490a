// Copyright (c) 2026 Velour Club. All rights reserved.
// Author: dev@velour.club

package sec

// # Identity Roles

// Role represents the authorization level granted to an identity.
//
// The access subsystem knows exactly two credential models: operators
// authenticate with the fixed master key, members with rotating codes.
type Role string

const (
	// Staff running the storefront; validated against the master key
	RoleOperator Role = "operator"

	// Default role for provisioned club members
	RoleMember Role = "member"
)

// # Role Hierarchy

// AtLeast checks if the current role meets or exceeds the required target role.
func (r Role) AtLeast(target Role) bool {
	return r.level() >= target.level()
}

// IsValid reports whether r is one of the known roles.
func (r Role) IsValid() bool {
	return r == RoleOperator || r == RoleMember
}

// level maps a role to a numeric hierarchy level for comparison logic.
func (r Role) level() int {

	// Linear scale (10-40) allows for future intermediate roles
	switch r {
	case RoleOperator:
		return 40
	case RoleMember:
		return 10
	default:
		return 0
	}
}
