// Package roles derives a participant's platform roles from their memberships.
package roles

import "github.com/eventgrid/backend/internal/models"

// Snapshot counts a participant's memberships across all containers.
type Snapshot struct {
	OrgAdminOf  int
	DeptAdminOf int
	OrgMemberOf int
}

// Derive returns the role list implied by snap. Super Admin is kept when present in current,
// since it is only ever assigned out of band.
func Derive(current []models.Role, snap Snapshot) []models.Role {
	var out []models.Role
	for _, r := range current {
		if r == models.RoleSuperAdmin {
			out = append(out, models.RoleSuperAdmin)
			break
		}
	}
	if snap.OrgAdminOf > 0 {
		out = append(out, models.RoleOrganizationAdmin)
	}
	if snap.DeptAdminOf > 0 {
		out = append(out, models.RoleDepartmentalAdmin)
	}
	if snap.OrgMemberOf > 0 {
		out = append(out, models.RoleMember)
	}
	return append(out, models.RoleUser)
}

// Equal reports whether a and b hold the same roles irrespective of order.
func Equal(a, b []models.Role) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[models.Role]int, len(a))
	for _, r := range a {
		seen[r]++
	}
	for _, r := range b {
		if seen[r] == 0 {
			return false
		}
		seen[r]--
	}
	return true
}
