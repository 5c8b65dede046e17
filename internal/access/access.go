// Package access answers whether an actor may act on a container, using the stored graph.
package access

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/eventgrid/backend/internal/apperr"
	"github.com/eventgrid/backend/internal/models"
	"github.com/eventgrid/backend/internal/store"
)

// System is the actor used by internal callers; it passes every check.
var System = uuid.Nil

// Actor is the loaded identity behind a request.
type Actor struct {
	ID    uuid.UUID
	User  *models.User
	roles []models.Role
}

// IsSystem reports whether the actor is an internal caller.
func (a *Actor) IsSystem() bool { return a.ID == System }

// IsSuperAdmin reports whether the actor bypasses container checks.
func (a *Actor) IsSuperAdmin() bool {
	if a.IsSystem() {
		return true
	}
	for _, r := range a.roles {
		if r == models.RoleSuperAdmin {
			return true
		}
	}
	return false
}

// Load resolves actorID inside tx.
func Load(ctx context.Context, tx store.Tx, actorID uuid.UUID) (*Actor, error) {
	if actorID == System {
		return &Actor{ID: System}, nil
	}
	u, err := tx.GetUser(ctx, actorID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Forbidden("unknown user")
	}
	if err != nil {
		return nil, apperr.Internal(err, "load actor")
	}
	return &Actor{ID: u.ID, User: u, roles: u.Roles}, nil
}

// RequireSuperAdmin fails unless the actor is a Super Admin.
func (a *Actor) RequireSuperAdmin() error {
	if a.IsSuperAdmin() {
		return nil
	}
	return apperr.Forbidden("super admin access required")
}

// CanAdminOrg reports whether the actor administers org.
func (a *Actor) CanAdminOrg(org *models.Organization) bool {
	return a.IsSuperAdmin() || org.Admins.Has(a.ID)
}

// RequireOrgAdmin fails unless the actor administers org.
func (a *Actor) RequireOrgAdmin(org *models.Organization) error {
	if a.CanAdminOrg(org) {
		return nil
	}
	return apperr.Forbidden("you are not an admin of this organization")
}

// RequireDeptAdmin fails unless the actor administers dept or its parent organization.
func (a *Actor) RequireDeptAdmin(ctx context.Context, tx store.Tx, dept *models.Department) error {
	if a.IsSuperAdmin() || dept.Admins.Has(a.ID) {
		return nil
	}
	if dept.OrganizationID != nil {
		org, err := tx.GetOrganization(ctx, *dept.OrganizationID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return apperr.Internal(err, "load organization")
		}
		if org != nil && org.Admins.Has(a.ID) {
			return nil
		}
	}
	return apperr.Forbidden("you are not an admin of this department")
}

// RequireOrgAdminOfDept fails unless the actor administers the organization that owns dept.
func (a *Actor) RequireOrgAdminOfDept(ctx context.Context, tx store.Tx, dept *models.Department) error {
	if a.IsSuperAdmin() {
		return nil
	}
	if dept.OrganizationID != nil {
		org, err := tx.GetOrganization(ctx, *dept.OrganizationID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return apperr.Internal(err, "load organization")
		}
		if org != nil && org.Admins.Has(a.ID) {
			return nil
		}
	}
	return apperr.Forbidden("you are not an admin of this department's organization")
}
